package editor

import (
	"errors"
	"fmt"

	"github.com/heimdex/heimdex-studio/internal/timeline"
)

// Apply runs cmd against a copy of arr. On success the edited copy is
// returned; on failure arr is returned unchanged together with the error.
func Apply(arr timeline.Arrangement, cmd Command) (timeline.Arrangement, error) {
	if cmd == nil {
		return arr, errors.New("nil command")
	}

	next := arr.Clone()
	if err := cmd.apply(&next); err != nil {
		return arr, err
	}
	if err := next.Validate(); err != nil {
		return arr, reject(cmd.Kind(), ErrInvalidValue, "%v", err)
	}
	return next, nil
}

// ApplyAll runs commands in order and stops at the first rejection. The
// returned arrangement reflects every command applied before it.
func ApplyAll(arr timeline.Arrangement, cmds []Command) (timeline.Arrangement, error) {
	for i, cmd := range cmds {
		next, err := Apply(arr, cmd)
		if err != nil && !errors.Is(err, ErrNoChange) {
			return arr, fmt.Errorf("command %d: %w", i, err)
		}
		arr = next
	}
	return arr, nil
}

func findTrack(arr *timeline.Arrangement, kind Kind, trackID string) (*timeline.Track, error) {
	i := arr.TrackIndex(trackID)
	if i < 0 {
		return nil, reject(kind, ErrTrackNotFound, "%s", trackID)
	}
	return &arr.Tracks[i], nil
}

func editableTrack(arr *timeline.Arrangement, kind Kind, trackID string) (*timeline.Track, error) {
	track, err := findTrack(arr, kind, trackID)
	if err != nil {
		return nil, err
	}
	if track.Locked {
		return nil, reject(kind, ErrTrackLocked, "%s", trackID)
	}
	return track, nil
}

// editableClip returns a pointer into arr for the clip, refusing clips on
// locked tracks.
func editableClip(arr *timeline.Arrangement, kind Kind, clipID string) (*timeline.Clip, error) {
	ti, ci, ok := arr.FindClip(clipID)
	if !ok {
		return nil, reject(kind, ErrClipNotFound, "%s", clipID)
	}
	track := &arr.Tracks[ti]
	if track.Locked {
		return nil, reject(kind, ErrTrackLocked, "%s", track.ID)
	}
	return &track.Clips[ci], nil
}

// replaceClip swaps in updated after checking it against its siblings.
func replaceClip(arr *timeline.Arrangement, kind Kind, updated timeline.Clip) error {
	ti, ci, ok := arr.FindClip(updated.ID)
	if !ok {
		return reject(kind, ErrClipNotFound, "%s", updated.ID)
	}
	track := &arr.Tracks[ti]
	if timeline.ClipsOverlap(*track, updated) {
		return reject(kind, ErrOverlap, "clip %s at [%.3f, %.3f) on track %s", updated.ID, updated.StartTime, updated.End(), track.ID)
	}
	track.Clips[ci] = updated
	return nil
}

func withTimes(c timeline.Clip, start, duration float64) timeline.Clip {
	c.StartTime = start
	c.Duration = duration
	return c
}

func setFlag(arr *timeline.Arrangement, kind Kind, trackID string, value bool, field func(*timeline.Track) *bool) error {
	track, err := findTrack(arr, kind, trackID)
	if err != nil {
		return err
	}
	flag := field(track)
	if *flag == value {
		return reject(kind, ErrNoChange, "track %s unchanged", trackID)
	}
	*flag = value
	return nil
}
