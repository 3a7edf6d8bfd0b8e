package timeline

import (
	"fmt"
	"math"
	"strings"
)

const (
	// SeedSpacing is the nominal distance between seeded shot starts.
	SeedSpacing = 5.0

	// MaxTime is the latest end time a clip may have, in seconds.
	MaxTime = 24 * 60 * 60.0

	VideoTrackID = "video"
	MusicTrackID = "music"
	SFXTrackID   = "sfx"
)

// Shot is an entry of the external shot listing used to seed a project.
type Shot struct {
	ID           string  `json:"id"`
	Duration     float64 `json:"duration"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Name         string  `json:"name,omitempty"`
}

// Seed builds the initial arrangement: one video track holding the shots in
// order, plus empty music and sound-effect tracks. Shot i starts at i*5s
// unless the previous shot runs past that point, in which case it starts where
// the previous one ends. Shots without a usable duration get SeedSpacing.
// Clip ids are normalized by ShotIDs.
func Seed(shots []Shot) Arrangement {
	video := NewTrack(VideoTrackID, TrackVideo, "Video")
	video.Clips = make([]Clip, 0, len(shots))

	ids := ShotIDs(shots)
	var prevEnd float64
	for i, shot := range shots {
		duration := shot.Duration
		if duration <= 0 || duration > MaxTime || math.IsNaN(duration) || math.IsInf(duration, 0) {
			duration = SeedSpacing
		}
		start := math.Max(float64(i)*SeedSpacing, prevEnd)
		clip := Clip{
			ID:           ids[i],
			TrackID:      VideoTrackID,
			Kind:         TrackVideo,
			Name:         shot.Name,
			ThumbnailURL: shot.ThumbnailURL,
			StartTime:    start,
			Duration:     duration,
		}
		video.Clips = append(video.Clips, clip)
		prevEnd = clip.End()
	}

	return Arrangement{Tracks: []Track{
		video,
		NewTrack(MusicTrackID, TrackAudio, "Music"),
		NewTrack(SFXTrackID, TrackAudio, "Sound Effects"),
	}}
}

// ShotIDs returns one unique, non-empty clip id per shot. A blank id becomes
// "shot-<n>" and a repeated id gets a "-2", "-3", ... suffix.
func ShotIDs(shots []Shot) []string {
	ids := make([]string, len(shots))
	used := make(map[string]struct{}, len(shots))
	for i, shot := range shots {
		id := strings.TrimSpace(shot.ID)
		if id == "" {
			id = fmt.Sprintf("shot-%d", i+1)
		}
		candidate := id
		for n := 2; ; n++ {
			if _, taken := used[candidate]; !taken {
				break
			}
			candidate = fmt.Sprintf("%s-%d", id, n)
		}
		used[candidate] = struct{}{}
		ids[i] = candidate
	}
	return ids
}
