// Package editor applies edit commands to an arrangement. Every command is
// validated against a copy of the arrangement and either yields the edited
// copy or a *ConstraintError with the input left untouched.
package editor

import (
	"math"

	"github.com/google/uuid"

	"github.com/heimdex/heimdex-studio/internal/automation"
	"github.com/heimdex/heimdex-studio/internal/timeline"
)

// Kind names a command variant. It doubles as the wire "type" discriminator.
type Kind string

const (
	KindMoveClip         Kind = "move_clip"
	KindTrimStart        Kind = "trim_start"
	KindTrimEnd          Kind = "trim_end"
	KindAttachTransition Kind = "attach_transition"
	KindRemoveTransition Kind = "remove_transition"
	KindAddClip          Kind = "add_clip"
	KindRemoveClip       Kind = "remove_clip"
	KindAddTrack         Kind = "add_track"
	KindRemoveTrack      Kind = "remove_track"
	KindRenameTrack      Kind = "rename_track"
	KindSetVolume        Kind = "set_volume"
	KindSetMute          Kind = "set_mute"
	KindSetSolo          Kind = "set_solo"
	KindSetLocked        Kind = "set_locked"
	KindSetVisible       Kind = "set_visible"
	KindAddKeyframe      Kind = "add_keyframe"
	KindRemoveKeyframe   Kind = "remove_keyframe"
	KindSetEnvelope      Kind = "set_envelope"
	KindSetDucking       Kind = "set_ducking"
)

// Command is one edit. The set of variants is closed to this package.
type Command interface {
	Kind() Kind
	apply(arr *timeline.Arrangement) error
}

type MoveClip struct {
	ClipID    string  `json:"clip_id"`
	StartTime float64 `json:"start_time"`
}

func (MoveClip) Kind() Kind { return KindMoveClip }

func (c MoveClip) apply(arr *timeline.Arrangement) error {
	if !finite(c.StartTime) {
		return reject(c.Kind(), ErrInvalidValue, "start time %v", c.StartTime)
	}
	clip, err := editableClip(arr, c.Kind(), c.ClipID)
	if err != nil {
		return err
	}
	start := math.Max(0, c.StartTime)
	if !withinTimeline(start, clip.Duration) {
		return reject(c.Kind(), ErrInvalidValue, "clip %s would end past %.0fs", c.ClipID, timeline.MaxTime)
	}
	if start == clip.StartTime {
		return reject(c.Kind(), ErrNoChange, "clip %s already at %.3fs", c.ClipID, start)
	}
	return replaceClip(arr, c.Kind(), withTimes(*clip, start, clip.Duration))
}

// TrimStart moves the left edge of a clip. StartTime and Duration change
// together so the end moves only by what the caller asks for.
type TrimStart struct {
	ClipID    string  `json:"clip_id"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
}

func (TrimStart) Kind() Kind { return KindTrimStart }

func (c TrimStart) apply(arr *timeline.Arrangement) error {
	if !finite(c.StartTime) || !finite(c.Duration) {
		return reject(c.Kind(), ErrInvalidValue, "start %v duration %v", c.StartTime, c.Duration)
	}
	if c.Duration <= 0 {
		return reject(c.Kind(), ErrInvalidDuration, "got %.3fs", c.Duration)
	}
	if c.StartTime < 0 {
		return reject(c.Kind(), ErrNegativeStart, "got %.3fs", c.StartTime)
	}
	clip, err := editableClip(arr, c.Kind(), c.ClipID)
	if err != nil {
		return err
	}
	if !withinTimeline(c.StartTime, c.Duration) {
		return reject(c.Kind(), ErrInvalidValue, "clip %s would end past %.0fs", c.ClipID, timeline.MaxTime)
	}
	if clip.StartTime == c.StartTime && clip.Duration == c.Duration {
		return reject(c.Kind(), ErrNoChange, "clip %s unchanged", c.ClipID)
	}
	return replaceClip(arr, c.Kind(), withTimes(*clip, c.StartTime, c.Duration))
}

type TrimEnd struct {
	ClipID   string  `json:"clip_id"`
	Duration float64 `json:"duration"`
}

func (TrimEnd) Kind() Kind { return KindTrimEnd }

func (c TrimEnd) apply(arr *timeline.Arrangement) error {
	if !finite(c.Duration) {
		return reject(c.Kind(), ErrInvalidValue, "duration %v", c.Duration)
	}
	if c.Duration <= 0 {
		return reject(c.Kind(), ErrInvalidDuration, "got %.3fs", c.Duration)
	}
	clip, err := editableClip(arr, c.Kind(), c.ClipID)
	if err != nil {
		return err
	}
	if !withinTimeline(clip.StartTime, c.Duration) {
		return reject(c.Kind(), ErrInvalidValue, "clip %s would end past %.0fs", c.ClipID, timeline.MaxTime)
	}
	if clip.Duration == c.Duration {
		return reject(c.Kind(), ErrNoChange, "clip %s unchanged", c.ClipID)
	}
	return replaceClip(arr, c.Kind(), withTimes(*clip, clip.StartTime, c.Duration))
}

type AttachTransition struct {
	ClipID     string              `json:"clip_id"`
	Transition timeline.Transition `json:"transition"`
}

func (AttachTransition) Kind() Kind { return KindAttachTransition }

func (c AttachTransition) apply(arr *timeline.Arrangement) error {
	tr := c.Transition
	if !tr.Type.Valid() {
		return reject(c.Kind(), ErrInvalidValue, "transition type %q", tr.Type)
	}
	if tr.Type == timeline.TransitionCut {
		tr.Duration = 0
	}
	if !finite(tr.Duration) || tr.Duration < 0 {
		return reject(c.Kind(), ErrInvalidDuration, "transition duration %v", tr.Duration)
	}
	clip, err := editableClip(arr, c.Kind(), c.ClipID)
	if err != nil {
		return err
	}
	if tr.Duration > clip.Duration {
		return reject(c.Kind(), ErrInvalidDuration, "transition %.3fs longer than clip %.3fs", tr.Duration, clip.Duration)
	}
	clip.Transition = &tr
	return nil
}

type RemoveTransition struct {
	ClipID string `json:"clip_id"`
}

func (RemoveTransition) Kind() Kind { return KindRemoveTransition }

func (c RemoveTransition) apply(arr *timeline.Arrangement) error {
	clip, err := editableClip(arr, c.Kind(), c.ClipID)
	if err != nil {
		return err
	}
	if clip.Transition == nil {
		return reject(c.Kind(), ErrNoChange, "clip %s has no transition", c.ClipID)
	}
	clip.Transition = nil
	return nil
}

// AddClip places a new clip on a track. An empty clip id is generated.
type AddClip struct {
	TrackID string        `json:"track_id"`
	Clip    timeline.Clip `json:"clip"`
}

func (AddClip) Kind() Kind { return KindAddClip }

func (c AddClip) apply(arr *timeline.Arrangement) error {
	track, err := editableTrack(arr, c.Kind(), c.TrackID)
	if err != nil {
		return err
	}
	clip := c.Clip
	if clip.ID == "" {
		clip.ID = uuid.NewString()
	}
	if _, exists := arr.Clip(clip.ID); exists {
		return reject(c.Kind(), ErrInvalidValue, "clip id %s already in use", clip.ID)
	}
	if !finite(clip.StartTime) || !finite(clip.Duration) {
		return reject(c.Kind(), ErrInvalidValue, "start %v duration %v", clip.StartTime, clip.Duration)
	}
	if clip.Duration <= 0 {
		return reject(c.Kind(), ErrInvalidDuration, "got %.3fs", clip.Duration)
	}
	if clip.StartTime < 0 {
		return reject(c.Kind(), ErrNegativeStart, "got %.3fs", clip.StartTime)
	}
	if !withinTimeline(clip.StartTime, clip.Duration) {
		return reject(c.Kind(), ErrInvalidValue, "clip %s would end past %.0fs", clip.ID, timeline.MaxTime)
	}
	clip.TrackID = track.ID
	if clip.Kind == "" {
		clip.Kind = track.Kind
	}
	if timeline.ClipsOverlap(*track, clip) {
		return reject(c.Kind(), ErrOverlap, "clip %s at [%.3f, %.3f) on track %s", clip.ID, clip.StartTime, clip.End(), track.ID)
	}
	track.Clips = append(track.Clips, clip)
	return nil
}

type RemoveClip struct {
	ClipID string `json:"clip_id"`
}

func (RemoveClip) Kind() Kind { return KindRemoveClip }

func (c RemoveClip) apply(arr *timeline.Arrangement) error {
	ti, ci, ok := arr.FindClip(c.ClipID)
	if !ok {
		return reject(c.Kind(), ErrClipNotFound, "%s", c.ClipID)
	}
	track := &arr.Tracks[ti]
	if track.Locked {
		return reject(c.Kind(), ErrTrackLocked, "%s", track.ID)
	}
	track.Clips = append(track.Clips[:ci], track.Clips[ci+1:]...)
	return nil
}

// AddTrack appends an empty track. An empty id is generated.
type AddTrack struct {
	ID        string             `json:"id,omitempty"`
	TrackKind timeline.TrackKind `json:"kind"`
	Name      string             `json:"name"`
}

func (AddTrack) Kind() Kind { return KindAddTrack }

func (c AddTrack) apply(arr *timeline.Arrangement) error {
	if !c.TrackKind.Valid() {
		return reject(c.Kind(), ErrInvalidValue, "track kind %q", c.TrackKind)
	}
	id := c.ID
	if id == "" {
		id = uuid.NewString()
	}
	if arr.TrackIndex(id) >= 0 {
		return reject(c.Kind(), ErrInvalidValue, "track id %s already in use", id)
	}
	name := c.Name
	if name == "" {
		name = string(c.TrackKind)
	}
	arr.Tracks = append(arr.Tracks, timeline.NewTrack(id, c.TrackKind, name))
	return nil
}

// RemoveTrack drops a track and its clips. Ducking configs on other tracks
// that reference it are left dangling.
type RemoveTrack struct {
	TrackID string `json:"track_id"`
}

func (RemoveTrack) Kind() Kind { return KindRemoveTrack }

func (c RemoveTrack) apply(arr *timeline.Arrangement) error {
	i := arr.TrackIndex(c.TrackID)
	if i < 0 {
		return reject(c.Kind(), ErrTrackNotFound, "%s", c.TrackID)
	}
	if arr.Tracks[i].Locked {
		return reject(c.Kind(), ErrTrackLocked, "%s", c.TrackID)
	}
	arr.Tracks = append(arr.Tracks[:i], arr.Tracks[i+1:]...)
	return nil
}

type RenameTrack struct {
	TrackID string `json:"track_id"`
	Name    string `json:"name"`
}

func (RenameTrack) Kind() Kind { return KindRenameTrack }

func (c RenameTrack) apply(arr *timeline.Arrangement) error {
	if c.Name == "" {
		return reject(c.Kind(), ErrInvalidValue, "empty track name")
	}
	track, err := findTrack(arr, c.Kind(), c.TrackID)
	if err != nil {
		return err
	}
	if track.Name == c.Name {
		return reject(c.Kind(), ErrNoChange, "track %s already named %q", c.TrackID, c.Name)
	}
	track.Name = c.Name
	return nil
}

type SetVolume struct {
	TrackID string  `json:"track_id"`
	Volume  float64 `json:"volume"`
}

func (SetVolume) Kind() Kind { return KindSetVolume }

func (c SetVolume) apply(arr *timeline.Arrangement) error {
	if !finite(c.Volume) || c.Volume < 0 || c.Volume > 1 {
		return reject(c.Kind(), ErrInvalidValue, "volume %v outside [0,1]", c.Volume)
	}
	track, err := findTrack(arr, c.Kind(), c.TrackID)
	if err != nil {
		return err
	}
	if track.Volume == c.Volume {
		return reject(c.Kind(), ErrNoChange, "track %s volume unchanged", c.TrackID)
	}
	track.Volume = c.Volume
	return nil
}

type SetMute struct {
	TrackID string `json:"track_id"`
	Muted   bool   `json:"muted"`
}

func (SetMute) Kind() Kind { return KindSetMute }

func (c SetMute) apply(arr *timeline.Arrangement) error {
	return setFlag(arr, c.Kind(), c.TrackID, c.Muted, func(t *timeline.Track) *bool { return &t.Muted })
}

type SetSolo struct {
	TrackID string `json:"track_id"`
	Solo    bool   `json:"solo"`
}

func (SetSolo) Kind() Kind { return KindSetSolo }

func (c SetSolo) apply(arr *timeline.Arrangement) error {
	return setFlag(arr, c.Kind(), c.TrackID, c.Solo, func(t *timeline.Track) *bool { return &t.Solo })
}

type SetLocked struct {
	TrackID string `json:"track_id"`
	Locked  bool   `json:"locked"`
}

func (SetLocked) Kind() Kind { return KindSetLocked }

func (c SetLocked) apply(arr *timeline.Arrangement) error {
	return setFlag(arr, c.Kind(), c.TrackID, c.Locked, func(t *timeline.Track) *bool { return &t.Locked })
}

type SetVisible struct {
	TrackID string `json:"track_id"`
	Visible bool   `json:"visible"`
}

func (SetVisible) Kind() Kind { return KindSetVisible }

func (c SetVisible) apply(arr *timeline.Arrangement) error {
	return setFlag(arr, c.Kind(), c.TrackID, c.Visible, func(t *timeline.Track) *bool { return &t.Visible })
}

type AddKeyframe struct {
	TrackID string  `json:"track_id"`
	Time    float64 `json:"time"`
	Volume  float64 `json:"volume"`
}

func (AddKeyframe) Kind() Kind { return KindAddKeyframe }

func (c AddKeyframe) apply(arr *timeline.Arrangement) error {
	track, err := findTrack(arr, c.Kind(), c.TrackID)
	if err != nil {
		return err
	}
	env, err := automation.AddKeyframe(track.VolumeEnvelope, c.Time, c.Volume)
	if err != nil {
		return reject(c.Kind(), ErrInvalidValue, "%v", err)
	}
	for _, kf := range track.VolumeEnvelope {
		if kf.Time == c.Time && kf.Volume == c.Volume {
			return reject(c.Kind(), ErrNoChange, "keyframe at %.3fs already %.3f", c.Time, c.Volume)
		}
	}
	track.VolumeEnvelope = env
	return nil
}

type RemoveKeyframe struct {
	TrackID string `json:"track_id"`
	Index   int    `json:"index"`
}

func (RemoveKeyframe) Kind() Kind { return KindRemoveKeyframe }

func (c RemoveKeyframe) apply(arr *timeline.Arrangement) error {
	track, err := findTrack(arr, c.Kind(), c.TrackID)
	if err != nil {
		return err
	}
	env, err := automation.RemoveKeyframe(track.VolumeEnvelope, c.Index)
	if err != nil {
		return reject(c.Kind(), ErrInvalidValue, "%v", err)
	}
	track.VolumeEnvelope = env
	return nil
}

// SetEnvelope replaces a track envelope with externally supplied keyframes,
// normalized rather than trusted.
type SetEnvelope struct {
	TrackID   string                    `json:"track_id"`
	Keyframes []timeline.VolumeKeyframe `json:"keyframes"`
}

func (SetEnvelope) Kind() Kind { return KindSetEnvelope }

func (c SetEnvelope) apply(arr *timeline.Arrangement) error {
	track, err := findTrack(arr, c.Kind(), c.TrackID)
	if err != nil {
		return err
	}
	for _, kf := range c.Keyframes {
		if !finite(kf.Time) || !finite(kf.Volume) {
			return reject(c.Kind(), ErrInvalidValue, "keyframe %+v", kf)
		}
	}
	track.VolumeEnvelope = automation.Normalize(c.Keyframes)
	return nil
}

// SetDucking installs or, with a nil Config, clears a track's ducking. The
// target may name a track that does not exist; that configuration is inert.
type SetDucking struct {
	TrackID string                  `json:"track_id"`
	Config  *timeline.DuckingConfig `json:"config"`
}

func (SetDucking) Kind() Kind { return KindSetDucking }

func (c SetDucking) apply(arr *timeline.Arrangement) error {
	track, err := findTrack(arr, c.Kind(), c.TrackID)
	if err != nil {
		return err
	}
	if c.Config == nil {
		if track.Ducking == nil {
			return reject(c.Kind(), ErrNoChange, "track %s has no ducking", c.TrackID)
		}
		track.Ducking = nil
		return nil
	}
	cfg := *c.Config
	switch {
	case !finite(cfg.Amount) || cfg.Amount < 0 || cfg.Amount > 1:
		return reject(c.Kind(), ErrInvalidValue, "amount %v outside [0,1]", cfg.Amount)
	case !finite(cfg.FadeTime) || cfg.FadeTime < 0:
		return reject(c.Kind(), ErrInvalidValue, "fade time %v", cfg.FadeTime)
	case cfg.TargetTrackID == track.ID:
		return reject(c.Kind(), ErrInvalidValue, "track %s cannot duck against itself", track.ID)
	}
	track.Ducking = &cfg
	return nil
}

// withinTimeline reports whether a clip at start with duration ends no later
// than timeline.MaxTime.
func withinTimeline(start, duration float64) bool {
	return start+duration <= timeline.MaxTime
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
