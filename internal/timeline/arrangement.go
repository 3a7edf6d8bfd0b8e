package timeline

import (
	"errors"
	"fmt"
)

// Arrangement is the full multi-track state of a project. It is treated as a
// value: mutating operations work on a Clone and return it.
type Arrangement struct {
	Tracks []Track `json:"tracks"`
}

// ClipsOverlap reports whether clip strictly overlaps any other clip on track.
// Clips that only touch at an edge do not overlap. A clip with the same id as
// clip is ignored so a clip can be checked against its own track.
func ClipsOverlap(track Track, clip Clip) bool {
	for _, other := range track.Clips {
		if other.ID == clip.ID {
			continue
		}
		if clip.StartTime < other.End() && other.StartTime < clip.End() {
			return true
		}
	}
	return false
}

// EnvelopeIsSorted reports whether the track envelope has strictly increasing
// keyframe times.
func EnvelopeIsSorted(track Track) bool {
	for i := 1; i < len(track.VolumeEnvelope); i++ {
		if track.VolumeEnvelope[i].Time <= track.VolumeEnvelope[i-1].Time {
			return false
		}
	}
	return true
}

// TotalDuration is the latest clip end across all tracks.
func (a Arrangement) TotalDuration() float64 {
	var total float64
	for _, track := range a.Tracks {
		for _, clip := range track.Clips {
			if end := clip.End(); end > total {
				total = end
			}
		}
	}
	return total
}

// TrackIndex returns the position of the track with the given id, or -1.
func (a Arrangement) TrackIndex(trackID string) int {
	for i := range a.Tracks {
		if a.Tracks[i].ID == trackID {
			return i
		}
	}
	return -1
}

func (a Arrangement) Track(trackID string) (Track, bool) {
	if i := a.TrackIndex(trackID); i >= 0 {
		return a.Tracks[i], true
	}
	return Track{}, false
}

// FindClip locates a clip by id across all tracks.
func (a Arrangement) FindClip(clipID string) (trackIdx, clipIdx int, ok bool) {
	for ti := range a.Tracks {
		if ci := a.Tracks[ti].ClipIndex(clipID); ci >= 0 {
			return ti, ci, true
		}
	}
	return -1, -1, false
}

func (a Arrangement) Clip(clipID string) (Clip, bool) {
	ti, ci, ok := a.FindClip(clipID)
	if !ok {
		return Clip{}, false
	}
	return a.Tracks[ti].Clips[ci], true
}

// AnySolo reports whether any track in the arrangement is soloed.
func (a Arrangement) AnySolo() bool {
	for _, track := range a.Tracks {
		if track.Solo {
			return true
		}
	}
	return false
}

// Validate checks every structural invariant of the arrangement and returns
// all violations joined together.
func (a Arrangement) Validate() error {
	var errs []error
	trackIDs := make(map[string]struct{}, len(a.Tracks))
	clipIDs := make(map[string]struct{})

	for _, track := range a.Tracks {
		if track.ID == "" {
			errs = append(errs, errors.New("track with empty id"))
		}
		if _, dup := trackIDs[track.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate track id %q", track.ID))
		}
		trackIDs[track.ID] = struct{}{}

		if !track.Kind.Valid() {
			errs = append(errs, fmt.Errorf("track %q: invalid kind %q", track.ID, track.Kind))
		}
		if track.Volume < 0 || track.Volume > 1 {
			errs = append(errs, fmt.Errorf("track %q: volume %.3f out of range", track.ID, track.Volume))
		}
		if !EnvelopeIsSorted(track) {
			errs = append(errs, fmt.Errorf("track %q: envelope not sorted", track.ID))
		}
		if d := track.Ducking; d != nil && (d.Amount < 0 || d.Amount > 1 || d.FadeTime < 0) {
			errs = append(errs, fmt.Errorf("track %q: invalid ducking config", track.ID))
		}

		for _, clip := range track.Clips {
			if _, dup := clipIDs[clip.ID]; dup {
				errs = append(errs, fmt.Errorf("duplicate clip id %q", clip.ID))
			}
			clipIDs[clip.ID] = struct{}{}

			if clip.TrackID != track.ID {
				errs = append(errs, fmt.Errorf("clip %q: track id %q does not match owner %q", clip.ID, clip.TrackID, track.ID))
			}
			if clip.StartTime < 0 {
				errs = append(errs, fmt.Errorf("clip %q: negative start time", clip.ID))
			}
			if clip.Duration <= 0 {
				errs = append(errs, fmt.Errorf("clip %q: non-positive duration", clip.ID))
			}
			if ClipsOverlap(track, clip) {
				errs = append(errs, fmt.Errorf("clip %q overlaps a sibling on track %q", clip.ID, track.ID))
			}
		}
	}

	return errors.Join(errs...)
}
