// Package studio is the façade the UI layer and the HTTP API talk to. A
// Session owns one project's arrangement, history, selection and playhead and
// reports every change on its event bus.
package studio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/heimdex/heimdex-studio/internal/automation"
	"github.com/heimdex/heimdex-studio/internal/editor"
	"github.com/heimdex/heimdex-studio/internal/events"
	"github.com/heimdex/heimdex-studio/internal/export"
	"github.com/heimdex/heimdex-studio/internal/history"
	"github.com/heimdex/heimdex-studio/internal/logging"
	"github.com/heimdex/heimdex-studio/internal/playhead"
	"github.com/heimdex/heimdex-studio/internal/timeline"
)

const seedLabel = "seed"

type Options struct {
	// HistoryLimit caps kept snapshots; 0 keeps everything.
	HistoryLimit int
	Logger       *slog.Logger
}

// Info is a summary of a session for listings.
type Info struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	TrackCount int       `json:"track_count"`
	ClipCount  int       `json:"clip_count"`
	Duration   float64   `json:"duration"`
}

// Session serializes every operation on one project. Events raised by an
// operation are delivered after its lock is released, in the order raised.
type Session struct {
	mu        sync.Mutex
	id        string
	name      string
	createdAt time.Time

	arr       timeline.Arrangement
	history   *history.Manager
	selection editor.Selection
	playhead  *playhead.Controller
	pointer   playhead.Pointer

	bus     *events.Bus
	pending []events.Event
	logger  *slog.Logger
}

// NewSession seeds a project from shots and commits the seed as the first
// history entry.
func NewSession(id, name string, shots []timeline.Shot, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	arr := timeline.Seed(shots)
	s := &Session{
		id:        id,
		name:      name,
		createdAt: time.Now().UTC(),
		arr:       arr,
		history:   history.New(opts.HistoryLimit),
		playhead:  playhead.New(arr.TotalDuration()),
		bus:       events.NewBus(),
		logger:    logging.WithProjectID(logging.WithComponent(logger, "studio"), id),
	}
	s.history.Commit(arr, seedLabel)
	s.playhead.OnTimeChange = func(t float64) { s.emit(events.TimeChanged{Time: t}) }
	s.playhead.OnZoomChange = func(z float64) { s.emit(events.ZoomChanged{Zoom: z}) }
	return s
}

func (s *Session) ID() string   { return s.id }
func (s *Session) Name() string { return s.name }

// Subscribe registers h for this session's events. Handlers may call back
// into the session.
func (s *Session) Subscribe(h events.Handler) (unsubscribe func()) {
	return s.bus.Subscribe(h)
}

func (s *Session) lock() {
	s.mu.Lock()
}

// unlock releases the session and publishes what the operation raised.
func (s *Session) unlock() {
	raised := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, e := range raised {
		s.bus.Publish(e)
	}
}

func (s *Session) emit(e events.Event) {
	s.pending = append(s.pending, e)
}

// notify publishes an event that did not come from a session operation.
func (s *Session) notify(e events.Event) {
	s.lock()
	s.emit(e)
	s.unlock()
}

func (s *Session) Info() Info {
	s.lock()
	defer s.unlock()
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	info := Info{
		ID:         s.id,
		Name:       s.name,
		CreatedAt:  s.createdAt,
		TrackCount: len(s.arr.Tracks),
		Duration:   s.arr.TotalDuration(),
	}
	for _, t := range s.arr.Tracks {
		info.ClipCount += len(t.Clips)
	}
	return info
}

// Arrangement returns a copy of the current arrangement.
func (s *Session) Arrangement() timeline.Arrangement {
	s.lock()
	defer s.unlock()
	return s.arr.Clone()
}

// Dispatch applies cmd and commits the result as one history entry. It
// reports whether anything changed: a command that would leave the
// arrangement as it is succeeds without a commit. Constraint violations are
// returned as *editor.ConstraintError and leave the session untouched.
func (s *Session) Dispatch(cmd editor.Command) (bool, error) {
	s.lock()
	defer s.unlock()

	next, err := editor.Apply(s.arr, cmd)
	if err != nil {
		if errors.Is(err, editor.ErrNoChange) {
			return false, nil
		}
		kind := "unknown"
		if cmd != nil {
			kind = string(cmd.Kind())
		}
		s.logger.Info("command rejected", "command", kind, "reason", err.Error())
		s.emit(events.ConstraintViolated{Command: kind, Reason: err.Error()})
		return false, err
	}

	prev := s.arr
	s.arr = next
	s.history.Commit(next, string(cmd.Kind()))
	s.emitCommandEvents(cmd, prev)
	s.afterChange(string(cmd.Kind()))
	s.logger.Debug("command applied", "command", cmd.Kind(), "history_len", s.history.Len())
	return true, nil
}

func (s *Session) emitCommandEvents(cmd editor.Command, prev timeline.Arrangement) {
	switch c := cmd.(type) {
	case editor.MoveClip:
		clip, _ := s.arr.Clip(c.ClipID)
		s.emit(events.ClipMoved{ClipID: c.ClipID, StartTime: clip.StartTime})
	case editor.TrimStart, editor.TrimEnd:
		id := clipIDOf(cmd)
		clip, _ := s.arr.Clip(id)
		s.emit(events.ClipTrimmed{ClipID: id, StartTime: clip.StartTime, Duration: clip.Duration})
	case editor.AttachTransition:
		clip, _ := s.arr.Clip(c.ClipID)
		var kind string
		if clip.Transition != nil {
			kind = string(clip.Transition.Type)
		}
		s.emit(events.TransitionChanged{ClipID: c.ClipID, Type: kind})
	case editor.RemoveTransition:
		s.emit(events.TransitionChanged{ClipID: c.ClipID})
	case editor.AddKeyframe, editor.RemoveKeyframe, editor.SetEnvelope:
		id := trackIDOf(cmd)
		track, _ := s.arr.Track(id)
		s.emit(events.KeyframesChanged{TrackID: id, Count: len(track.VolumeEnvelope)})
	case editor.AddClip:
		s.emit(events.TrackUpdated{TrackID: c.TrackID, Change: string(cmd.Kind())})
	case editor.RemoveClip:
		removed, _ := prev.Clip(c.ClipID)
		s.emit(events.TrackUpdated{TrackID: removed.TrackID, Change: string(cmd.Kind())})
	case editor.AddTrack:
		added := s.arr.Tracks[len(s.arr.Tracks)-1]
		s.emit(events.TrackUpdated{TrackID: added.ID, Change: string(cmd.Kind())})
	default:
		s.emit(events.TrackUpdated{TrackID: trackIDOf(cmd), Change: string(cmd.Kind())})
	}
}

func clipIDOf(cmd editor.Command) string {
	switch c := cmd.(type) {
	case editor.TrimStart:
		return c.ClipID
	case editor.TrimEnd:
		return c.ClipID
	}
	return ""
}

func trackIDOf(cmd editor.Command) string {
	switch c := cmd.(type) {
	case editor.AddKeyframe:
		return c.TrackID
	case editor.RemoveKeyframe:
		return c.TrackID
	case editor.SetEnvelope:
		return c.TrackID
	case editor.SetVolume:
		return c.TrackID
	case editor.SetMute:
		return c.TrackID
	case editor.SetSolo:
		return c.TrackID
	case editor.SetLocked:
		return c.TrackID
	case editor.SetVisible:
		return c.TrackID
	case editor.RenameTrack:
		return c.TrackID
	case editor.RemoveTrack:
		return c.TrackID
	case editor.SetDucking:
		return c.TrackID
	}
	return ""
}

// afterChange brings derived state in line with a new arrangement.
func (s *Session) afterChange(reason string) {
	if s.selection.Reconcile(s.arr) {
		s.emit(events.SelectionChanged{})
	}
	s.playhead.SetDuration(s.arr.TotalDuration())
	s.emit(events.ArrangementChanged{Duration: s.arr.TotalDuration(), Reason: reason})
	st := s.history.State()
	s.emit(events.HistoryChanged{CanUndo: st.CanUndo, CanRedo: st.CanRedo, Cursor: st.Cursor, Length: st.Length})
}

// Undo restores the previous snapshot. At the oldest snapshot it is a no-op
// and reports false.
func (s *Session) Undo() bool {
	s.lock()
	defer s.unlock()

	snap, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.arr = snap.Arrangement()
	s.afterChange("undo")
	return true
}

func (s *Session) Redo() bool {
	s.lock()
	defer s.unlock()

	snap, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.arr = snap.Arrangement()
	s.afterChange("redo")
	return true
}

func (s *Session) History() history.State {
	s.lock()
	defer s.unlock()
	return s.history.State()
}

func (s *Session) HistoryLabels() []string {
	s.lock()
	defer s.unlock()
	return s.history.Labels()
}

// Select marks a clip as selected. It does not touch history.
func (s *Session) Select(clipID string) error {
	s.lock()
	defer s.unlock()

	if err := s.selection.Select(s.arr, clipID); err != nil {
		return err
	}
	s.emit(events.SelectionChanged{ClipID: clipID})
	return nil
}

func (s *Session) DeselectAll() {
	s.lock()
	defer s.unlock()

	if _, ok := s.selection.Selected(); !ok {
		return
	}
	s.selection.DeselectAll()
	s.emit(events.SelectionChanged{})
}

func (s *Session) Selected() (string, bool) {
	s.lock()
	defer s.unlock()
	return s.selection.Selected()
}

// ActivateClip is the double interaction on a clip: it asks the UI to open
// the transition manager and changes nothing.
func (s *Session) ActivateClip(clipID string) error {
	s.lock()
	defer s.unlock()

	if _, ok := s.arr.Clip(clipID); !ok {
		return &editor.ConstraintError{Command: "activate_clip", Err: editor.ErrClipNotFound, Detail: clipID}
	}
	s.emit(events.TransitionManagerRequested{ClipID: clipID})
	return nil
}

// VolumeReport breaks down a track's gain at one point in time.
type VolumeReport struct {
	TrackID   string  `json:"track_id"`
	Time      float64 `json:"time"`
	Envelope  float64 `json:"envelope"`
	Ducking   float64 `json:"ducking"`
	Audible   bool    `json:"audible"`
	Effective float64 `json:"effective"`
}

func (s *Session) VolumeReport(trackID string, t float64) (VolumeReport, error) {
	s.lock()
	defer s.unlock()

	track, ok := s.arr.Track(trackID)
	if !ok {
		return VolumeReport{}, &editor.ConstraintError{Command: "volume_report", Err: editor.ErrTrackNotFound, Detail: trackID}
	}
	return volumeReport(s.arr, track, t), nil
}

// Mix reports every audio track at time t.
func (s *Session) Mix(t float64) []VolumeReport {
	s.lock()
	defer s.unlock()

	var reports []VolumeReport
	for _, track := range s.arr.Tracks {
		if track.Kind == timeline.TrackAudio {
			reports = append(reports, volumeReport(s.arr, track, t))
		}
	}
	return reports
}

func volumeReport(arr timeline.Arrangement, track timeline.Track, t float64) VolumeReport {
	return VolumeReport{
		TrackID:   track.ID,
		Time:      t,
		Envelope:  automation.VolumeAt(track, t),
		Ducking:   automation.DuckingMultiplier(arr, track, t),
		Audible:   automation.IsAudible(arr, track),
		Effective: automation.EffectiveVolumeAt(arr, track, t),
	}
}

// ExportPayload snapshots the arrangement for the render service.
func (s *Session) ExportPayload(settings export.Settings) (export.RenderPayload, error) {
	s.lock()
	defer s.unlock()
	return export.BuildPayload(s.id, s.name, s.arr, settings)
}

// WriteEDL writes the video track as an edit decision list.
func (s *Session) WriteEDL(req export.EDLRequest) (string, int, error) {
	s.lock()
	arr := s.arr.Clone()
	s.unlock()

	path, n, err := export.WriteEDL(arr, s.name, req)
	if err != nil {
		return "", 0, fmt.Errorf("export edl: %w", err)
	}
	s.logger.Info("edl written", "path", logging.SanitizePath(path), "events", n)
	return path, n, nil
}

// Close releases any drag in progress and detaches playhead callbacks.
func (s *Session) Close() {
	s.lock()
	defer s.unlock()
	s.playhead.Teardown()
}
