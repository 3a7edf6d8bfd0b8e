package studio

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/heimdex/heimdex-studio/internal/events"
	"github.com/heimdex/heimdex-studio/internal/exports"
	"github.com/heimdex/heimdex-studio/internal/timeline"
)

// Registry holds the open sessions of one process.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
}

func NewRegistry(opts Options) *Registry {
	return &Registry{sessions: make(map[string]*Session), opts: opts}
}

// Create seeds a new session under a fresh id. A blank name becomes
// "Untitled".
func (r *Registry) Create(name string, shots []timeline.Shot) *Session {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled"
	}
	s := NewSession(uuid.NewString(), name, shots, r.opts)

	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()

	s.logger.Info("project created", "name", name, "shots", len(shots))
	return s
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// List returns session summaries, oldest first.
func (r *Registry) List() []Info {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Remove closes and forgets a session. It reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close closes every session.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// TrackExports forwards every finished export job to its project's
// subscribers as an ExportFinished event. Jobs of removed projects are
// ignored.
func (r *Registry) TrackExports(svc *exports.Service) {
	svc.OnFinish(func(job *exports.Job) {
		s, ok := r.Get(job.ProjectID)
		if !ok {
			return
		}
		s.notify(events.ExportFinished{JobID: job.ID, Status: job.Status, Error: job.Error})
	})
}
