package export

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/heimdex/heimdex-studio/internal/timeline"
)

// EDLEvent is one record of the edit list. Times are seconds.
type EDLEvent struct {
	ClipName   string
	Source     string
	SourceIn   float64
	SourceOut  float64
	RecordIn   float64
	RecordOut  float64
	Transition *timeline.Transition
}

// EventsFromTrack lists every clip of track in start order. The source
// range starts at the clip's trim-in offset; the record range is the clip's
// position on the timeline, gaps included.
func EventsFromTrack(track timeline.Track) []EDLEvent {
	clips := sortedClips(track)
	events := make([]EDLEvent, 0, len(clips))
	for _, c := range clips {
		var in float64
		if c.TrimIn != nil {
			in = *c.TrimIn
		}
		name := SanitizeName(c.Name, 160)
		if name == "" {
			name = c.ID
		}
		source := c.ThumbnailURL
		if source == "" {
			source = c.ID
		}
		events = append(events, EDLEvent{
			ClipName:   name,
			Source:     source,
			SourceIn:   in,
			SourceOut:  in + c.Duration,
			RecordIn:   c.StartTime,
			RecordOut:  c.End(),
			Transition: c.Transition,
		})
	}
	return events
}

func GenerateEDL(events []EDLEvent, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, ev := range events {
		code, frames := transitionCode(ev.Transition, fps)
		durationField := "   "
		if code != "C" {
			durationField = fmt.Sprintf("%03d", frames)
		}

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s %-4s %s %s %s %s %s", i+1, "AX", "V", code, durationField,
				secondsToTimecode(ev.SourceIn, fps), secondsToTimecode(ev.SourceOut, fps),
				secondsToTimecode(ev.RecordIn, fps), secondsToTimecode(ev.RecordOut, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", ev.ClipName),
			fmt.Sprintf("* SOURCE:  %s", ev.Source),
		)
		if ev.Transition != nil && ev.Transition.Type != timeline.TransitionCut {
			lines = append(lines, fmt.Sprintf("* TRANSITION:  %s", ev.Transition.Type))
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// transitionCode maps a clip transition onto the CMX3600 edit column. Fade
// and slide have no CMX equivalent and are written as dissolves.
func transitionCode(tr *timeline.Transition, fps int) (string, int) {
	if tr == nil || tr.Type == timeline.TransitionCut {
		return "C", 0
	}
	frames := int(math.Round(tr.Duration * float64(fps)))
	if tr.Type == timeline.TransitionWipe {
		return "W000", frames
	}
	return "D", frames
}

func secondsToTimecode(seconds float64, fps int) string {
	totalFrames := int(math.Round(seconds * float64(fps)))
	if totalFrames < 0 {
		totalFrames = 0
	}
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}

// ErrNoVideoClips is returned when there is nothing to put in an EDL.
var ErrNoVideoClips = errors.New("arrangement has no video clips")

// WriteEDL renders the video track of arr into dir and returns the written
// path and event count.
func WriteEDL(arr timeline.Arrangement, projectName string, req EDLRequest) (string, int, error) {
	if err := ValidateOutputDir(req.OutputDir); err != nil {
		return "", 0, err
	}

	track, ok := arr.Track(timeline.VideoTrackID)
	if !ok {
		for _, t := range arr.Tracks {
			if t.Kind == timeline.TrackVideo {
				track, ok = t, true
				break
			}
		}
	}
	if !ok || len(track.Clips) == 0 {
		return "", 0, ErrNoVideoClips
	}

	name := req.Name
	if name == "" {
		name = projectName
	}
	path := OutputPath(req.OutputDir, name, "edl")

	frameRate := req.FrameRate
	if frameRate <= 0 {
		frameRate = 30.0
	}
	events := EventsFromTrack(track)
	edl := GenerateEDL(events, strings.TrimSuffix(filepath.Base(path), ".edl"), frameRate)
	if err := os.WriteFile(path, []byte(edl), 0o644); err != nil {
		return "", 0, fmt.Errorf("write edl: %w", err)
	}
	return path, len(events), nil
}
