package export

import (
	"fmt"
	"strings"

	"github.com/heimdex/heimdex-studio/internal/timeline"
)

var (
	OutputFormats = []string{"mp4", "mov", "webm", "mp3", "wav"}
	Qualities     = []string{"draft", "standard", "high"}
	Resolutions   = []string{"480p", "720p", "1080p", "4k"}
)

// Settings are the user-chosen render options sent with an export.
type Settings struct {
	OutputFormat string `json:"output_format"`
	Quality      string `json:"quality"`
	Resolution   string `json:"resolution"`
}

func DefaultSettings() Settings {
	return Settings{OutputFormat: "mp4", Quality: "standard", Resolution: "1080p"}
}

// Normalize lower-cases every field and fills blanks from DefaultSettings.
func (s Settings) Normalize() Settings {
	def := DefaultSettings()
	s.OutputFormat = orDefault(s.OutputFormat, def.OutputFormat)
	s.Quality = orDefault(s.Quality, def.Quality)
	s.Resolution = orDefault(s.Resolution, def.Resolution)
	return s
}

func (s Settings) Validate() error {
	if !oneOf(s.OutputFormat, OutputFormats) {
		return fmt.Errorf("output_format must be one of %s", strings.Join(OutputFormats, ", "))
	}
	if !oneOf(s.Quality, Qualities) {
		return fmt.Errorf("quality must be one of %s", strings.Join(Qualities, ", "))
	}
	if !oneOf(s.Resolution, Resolutions) {
		return fmt.Errorf("resolution must be one of %s", strings.Join(Resolutions, ", "))
	}
	return nil
}

// RenderPayload is the body posted to the render collaborator.
type RenderPayload struct {
	ProjectID       string         `json:"project_id"`
	ProjectName     string         `json:"project_name"`
	OutputFormat    string         `json:"output_format"`
	Quality         string         `json:"quality"`
	Resolution      string         `json:"resolution"`
	DurationSeconds float64        `json:"duration_seconds"`
	Tracks          []TrackPayload `json:"tracks"`
}

type TrackPayload struct {
	ID             string                    `json:"id"`
	Kind           timeline.TrackKind        `json:"kind"`
	Name           string                    `json:"name"`
	Volume         float64                   `json:"volume"`
	Muted          bool                      `json:"muted"`
	Solo           bool                      `json:"solo"`
	Visible        bool                      `json:"visible"`
	Audible        bool                      `json:"audible"`
	VolumeEnvelope []timeline.VolumeKeyframe `json:"volume_envelope,omitempty"`
	Ducking        *timeline.DuckingConfig   `json:"ducking,omitempty"`
	Clips          []ClipPayload             `json:"clips"`
}

type ClipPayload struct {
	ID           string               `json:"id"`
	Name         string               `json:"name,omitempty"`
	ThumbnailURL string               `json:"thumbnail_url,omitempty"`
	StartTime    float64              `json:"start_time"`
	Duration     float64              `json:"duration"`
	TrimIn       *float64             `json:"trim_in,omitempty"`
	TrimOut      *float64             `json:"trim_out,omitempty"`
	Transition   *timeline.Transition `json:"transition,omitempty"`
}

// EDLRequest asks for the video track of a project as a CMX3600 EDL file.
type EDLRequest struct {
	FrameRate float64 `json:"frame_rate"`
	OutputDir string  `json:"output_dir"`
	Name      string  `json:"name,omitempty"`
}

type EDLResponse struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	EventCount int    `json:"event_count"`
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func orDefault(v, def string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return def
	}
	return v
}
