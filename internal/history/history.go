// Package history keeps a linear stack of arrangement snapshots with a cursor
// for undo and redo.
package history

import "github.com/heimdex/heimdex-studio/internal/timeline"

// Snapshot is an immutable copy of an arrangement. Callers get their own
// copy from Arrangement and cannot reach the stored one.
type Snapshot struct {
	arrangement timeline.Arrangement
	Label       string
}

func (s Snapshot) Arrangement() timeline.Arrangement {
	return s.arrangement.Clone()
}

// State summarizes the stack for display.
type State struct {
	CanUndo bool   `json:"can_undo"`
	CanRedo bool   `json:"can_redo"`
	Cursor  int    `json:"cursor"`
	Length  int    `json:"length"`
	Label   string `json:"label,omitempty"`
}

// Manager is the snapshot stack. The cursor is -1 until the first commit.
// A Limit above zero bounds the number of kept snapshots; the oldest are
// dropped first.
type Manager struct {
	snapshots []Snapshot
	cursor    int
	limit     int
}

func New(limit int) *Manager {
	if limit < 0 {
		limit = 0
	}
	return &Manager{cursor: -1, limit: limit}
}

// Commit discards any redo branch after the cursor, stores a deep copy of arr
// and moves the cursor onto it.
func (m *Manager) Commit(arr timeline.Arrangement, label string) {
	m.snapshots = append(m.snapshots[:m.cursor+1], Snapshot{arrangement: arr.Clone(), Label: label})
	m.cursor = len(m.snapshots) - 1

	if m.limit > 0 && len(m.snapshots) > m.limit {
		drop := len(m.snapshots) - m.limit
		m.snapshots = append([]Snapshot(nil), m.snapshots[drop:]...)
		m.cursor -= drop
	}
}

// Undo steps back one snapshot. At the oldest snapshot it does nothing and
// reports false.
func (m *Manager) Undo() (Snapshot, bool) {
	if m.cursor <= 0 {
		return Snapshot{}, false
	}
	m.cursor--
	return m.snapshots[m.cursor], true
}

func (m *Manager) Redo() (Snapshot, bool) {
	if m.cursor >= len(m.snapshots)-1 {
		return Snapshot{}, false
	}
	m.cursor++
	return m.snapshots[m.cursor], true
}

func (m *Manager) Current() (Snapshot, bool) {
	if m.cursor < 0 {
		return Snapshot{}, false
	}
	return m.snapshots[m.cursor], true
}

func (m *Manager) CanUndo() bool { return m.cursor > 0 }
func (m *Manager) CanRedo() bool { return m.cursor < len(m.snapshots)-1 }
func (m *Manager) Len() int      { return len(m.snapshots) }
func (m *Manager) Cursor() int   { return m.cursor }

func (m *Manager) State() State {
	st := State{
		CanUndo: m.CanUndo(),
		CanRedo: m.CanRedo(),
		Cursor:  m.cursor,
		Length:  len(m.snapshots),
	}
	if cur, ok := m.Current(); ok {
		st.Label = cur.Label
	}
	return st
}

// Labels lists snapshot labels oldest first.
func (m *Manager) Labels() []string {
	labels := make([]string, len(m.snapshots))
	for i, s := range m.snapshots {
		labels[i] = s.Label
	}
	return labels
}
