package export

import (
	"fmt"
	"sort"

	"github.com/heimdex/heimdex-studio/internal/automation"
	"github.com/heimdex/heimdex-studio/internal/timeline"
)

// BuildPayload serializes arr for the render collaborator. Clips are listed in
// start order per track; the arrangement itself is not modified.
func BuildPayload(projectID, projectName string, arr timeline.Arrangement, settings Settings) (RenderPayload, error) {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return RenderPayload{}, fmt.Errorf("invalid export settings: %w", err)
	}

	snapshot := arr.Clone()
	payload := RenderPayload{
		ProjectID:       projectID,
		ProjectName:     projectName,
		OutputFormat:    settings.OutputFormat,
		Quality:         settings.Quality,
		Resolution:      settings.Resolution,
		DurationSeconds: snapshot.TotalDuration(),
		Tracks:          make([]TrackPayload, 0, len(snapshot.Tracks)),
	}

	for _, track := range snapshot.Tracks {
		tp := TrackPayload{
			ID:             track.ID,
			Kind:           track.Kind,
			Name:           track.Name,
			Volume:         track.Volume,
			Muted:          track.Muted,
			Solo:           track.Solo,
			Visible:        track.Visible,
			Audible:        automation.IsAudible(snapshot, track),
			VolumeEnvelope: automation.Normalize(track.VolumeEnvelope),
			Ducking:        track.Ducking,
			Clips:          make([]ClipPayload, 0, len(track.Clips)),
		}
		for _, c := range sortedClips(track) {
			tp.Clips = append(tp.Clips, ClipPayload{
				ID:           c.ID,
				Name:         c.Name,
				ThumbnailURL: c.ThumbnailURL,
				StartTime:    c.StartTime,
				Duration:     c.Duration,
				TrimIn:       c.TrimIn,
				TrimOut:      c.TrimOut,
				Transition:   c.Transition,
			})
		}
		payload.Tracks = append(payload.Tracks, tp)
	}

	return payload, nil
}

func sortedClips(track timeline.Track) []timeline.Clip {
	clips := append([]timeline.Clip(nil), track.Clips...)
	sort.SliceStable(clips, func(i, j int) bool {
		return clips[i].StartTime < clips[j].StartTime
	})
	return clips
}
