// Package events carries typed notifications from a studio session to any
// number of subscribers.
package events

import (
	"sync"
)

type Event interface {
	Name() string
}

type ClipMoved struct {
	ClipID    string  `json:"clip_id"`
	StartTime float64 `json:"start_time"`
}

type ClipTrimmed struct {
	ClipID    string  `json:"clip_id"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
}

// TransitionChanged is emitted for attach and remove. Type is empty after a
// remove.
type TransitionChanged struct {
	ClipID string `json:"clip_id"`
	Type   string `json:"type,omitempty"`
}

type TrackUpdated struct {
	TrackID string `json:"track_id"`
	Change  string `json:"change"`
}

type KeyframesChanged struct {
	TrackID string `json:"track_id"`
	Count   int    `json:"count"`
}

// ArrangementChanged follows every accepted edit, undo and redo.
type ArrangementChanged struct {
	Duration float64 `json:"duration"`
	Reason   string  `json:"reason"`
}

type HistoryChanged struct {
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
	Cursor  int  `json:"cursor"`
	Length  int  `json:"length"`
}

type TimeChanged struct {
	Time float64 `json:"time"`
}

type ZoomChanged struct {
	Zoom float64 `json:"zoom"`
}

// SelectionChanged carries an empty ClipID when nothing is selected.
type SelectionChanged struct {
	ClipID string `json:"clip_id"`
}

type TransitionManagerRequested struct {
	ClipID string `json:"clip_id"`
}

type ConstraintViolated struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
}

type ExportFinished struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (ClipMoved) Name() string                  { return "clip_moved" }
func (ClipTrimmed) Name() string                { return "clip_trimmed" }
func (TransitionChanged) Name() string          { return "transition_changed" }
func (TrackUpdated) Name() string               { return "track_updated" }
func (KeyframesChanged) Name() string           { return "keyframes_changed" }
func (ArrangementChanged) Name() string         { return "arrangement_changed" }
func (HistoryChanged) Name() string             { return "history_changed" }
func (TimeChanged) Name() string                { return "time_changed" }
func (ZoomChanged) Name() string                { return "zoom_changed" }
func (SelectionChanged) Name() string           { return "selection_changed" }
func (TransitionManagerRequested) Name() string { return "transition_manager_requested" }
func (ConstraintViolated) Name() string         { return "constraint_violated" }
func (ExportFinished) Name() string             { return "export_finished" }

// Handler receives published events synchronously, in publish order.
type Handler func(Event)

// Bus fans events out to subscribers. Handlers run on the publishing
// goroutine and must not block.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]Handler
	order    []uint64
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[uint64]Handler)}
}

// Subscribe registers h and returns a func that removes it. Calling the
// returned func more than once is harmless.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers e to every current subscriber in subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}

func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}

// Recorder is a Handler that keeps every event it sees.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Handle(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names lists recorded event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name()
	}
	return names
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
