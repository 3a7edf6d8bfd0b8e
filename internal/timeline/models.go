// Package timeline holds the arrangement model edited by the studio: tracks,
// clips, transitions, volume envelopes and ducking configuration.
//
// Values in this package are plain data. Invariants such as non-overlapping
// clips are checked by predicates here and enforced by the editor at mutation
// time, not by the types themselves.
package timeline

type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
	TrackText  TrackKind = "text"
)

func (k TrackKind) Valid() bool {
	switch k {
	case TrackVideo, TrackAudio, TrackText:
		return true
	default:
		return false
	}
}

type TransitionType string

const (
	TransitionCut      TransitionType = "cut"
	TransitionFade     TransitionType = "fade"
	TransitionDissolve TransitionType = "dissolve"
	TransitionWipe     TransitionType = "wipe"
	TransitionSlide    TransitionType = "slide"
)

func (t TransitionType) Valid() bool {
	switch t {
	case TransitionCut, TransitionFade, TransitionDissolve, TransitionWipe, TransitionSlide:
		return true
	default:
		return false
	}
}

// Transition is attached to a clip. A clip carries at most one.
type Transition struct {
	Type     TransitionType `json:"type"`
	Duration float64        `json:"duration_seconds"`
}

// Clip is a time-bounded reference to media placed on a track. Times are in
// seconds. TrimIn and TrimOut are source offsets and are carried as-is; trim
// operations change Duration directly.
type Clip struct {
	ID           string      `json:"id"`
	TrackID      string      `json:"track_id"`
	Kind         TrackKind   `json:"kind"`
	Name         string      `json:"name,omitempty"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	StartTime    float64     `json:"start_time"`
	Duration     float64     `json:"duration"`
	TrimIn       *float64    `json:"trim_in,omitempty"`
	TrimOut      *float64    `json:"trim_out,omitempty"`
	Transition   *Transition `json:"transition,omitempty"`
}

// End returns the exclusive end time of the clip.
func (c Clip) End() float64 {
	return c.StartTime + c.Duration
}

// Covers reports whether t falls inside [StartTime, End).
func (c Clip) Covers(t float64) bool {
	return t >= c.StartTime && t < c.End()
}

type VolumeKeyframe struct {
	Time   float64 `json:"time"`
	Volume float64 `json:"volume"`
}

// DuckingConfig lowers the owning track while TargetTrackID is active.
// TargetTrackID is a non-owning reference and may dangle.
type DuckingConfig struct {
	Enabled       bool    `json:"enabled"`
	TargetTrackID string  `json:"target_track_id"`
	Amount        float64 `json:"amount"`
	FadeTime      float64 `json:"fade_time"`
}

type Track struct {
	ID             string           `json:"id"`
	Kind           TrackKind        `json:"kind"`
	Name           string           `json:"name"`
	Clips          []Clip           `json:"clips"`
	Volume         float64          `json:"volume"`
	Muted          bool             `json:"muted"`
	Solo           bool             `json:"solo"`
	Locked         bool             `json:"locked"`
	Visible        bool             `json:"visible"`
	VolumeEnvelope []VolumeKeyframe `json:"volume_envelope,omitempty"`
	Ducking        *DuckingConfig   `json:"ducking,omitempty"`
}

// NewTrack returns a visible, unmuted track at full volume.
func NewTrack(id string, kind TrackKind, name string) Track {
	return Track{
		ID:      id,
		Kind:    kind,
		Name:    name,
		Clips:   []Clip{},
		Volume:  1,
		Visible: true,
	}
}

// ClipIndex returns the position of the clip with the given id, or -1.
func (t Track) ClipIndex(clipID string) int {
	for i := range t.Clips {
		if t.Clips[i].ID == clipID {
			return i
		}
	}
	return -1
}
