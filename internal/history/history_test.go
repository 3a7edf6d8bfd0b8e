package history

import (
	"testing"

	"github.com/heimdex/heimdex-studio/internal/timeline"
)

func arrangementAt(start float64) timeline.Arrangement {
	track := timeline.NewTrack("video", timeline.TrackVideo, "Video")
	track.Clips = []timeline.Clip{{ID: "c1", TrackID: "video", Kind: timeline.TrackVideo, StartTime: start, Duration: 5}}
	return timeline.Arrangement{Tracks: []timeline.Track{track}}
}

func startOf(s Snapshot) float64 {
	return s.Arrangement().Tracks[0].Clips[0].StartTime
}

func TestManager_Empty(t *testing.T) {
	m := New(0)
	if m.Cursor() != -1 || m.Len() != 0 {
		t.Fatalf("cursor=%d len=%d, want -1 and 0", m.Cursor(), m.Len())
	}
	if _, ok := m.Undo(); ok {
		t.Fatal("Undo() on empty history should be a no-op")
	}
	if _, ok := m.Redo(); ok {
		t.Fatal("Redo() on empty history should be a no-op")
	}
	if _, ok := m.Current(); ok {
		t.Fatal("Current() on empty history should report false")
	}
}

func TestManager_UndoRedo(t *testing.T) {
	m := New(0)
	m.Commit(arrangementAt(0), "seed")
	m.Commit(arrangementAt(1), "move")
	m.Commit(arrangementAt(2), "move")

	s, ok := m.Undo()
	if !ok || startOf(s) != 1 {
		t.Fatalf("Undo() = %v, %v", startOf(s), ok)
	}
	s, _ = m.Undo()
	if startOf(s) != 0 {
		t.Fatalf("second Undo() start = %v, want 0", startOf(s))
	}
	if _, ok := m.Undo(); ok {
		t.Fatal("Undo() at cursor 0 should be a no-op")
	}
	if m.Cursor() != 0 {
		t.Fatalf("cursor = %d, want 0", m.Cursor())
	}

	s, ok = m.Redo()
	if !ok || startOf(s) != 1 {
		t.Fatalf("Redo() = %v, %v", startOf(s), ok)
	}
	m.Redo()
	if _, ok := m.Redo(); ok {
		t.Fatal("Redo() at the end should be a no-op")
	}
}

func TestManager_CommitAfterUndoDropsRedo(t *testing.T) {
	m := New(0)
	m.Commit(arrangementAt(0), "seed")
	m.Commit(arrangementAt(1), "a")
	m.Commit(arrangementAt(2), "b")
	m.Undo()
	m.Undo()

	m.Commit(arrangementAt(9), "c")

	if m.CanRedo() {
		t.Fatal("redo branch survived a commit")
	}
	if m.Len() != 2 || m.Cursor() != 1 {
		t.Fatalf("len=%d cursor=%d, want 2 and 1", m.Len(), m.Cursor())
	}
	if got := m.Labels(); got[0] != "seed" || got[1] != "c" {
		t.Fatalf("labels = %v", got)
	}
}

func TestManager_SnapshotsAreIsolated(t *testing.T) {
	m := New(0)
	arr := arrangementAt(0)
	m.Commit(arr, "seed")

	arr.Tracks[0].Clips[0].StartTime = 42
	cur, _ := m.Current()
	if startOf(cur) != 0 {
		t.Fatal("mutating the committed value changed the snapshot")
	}

	out := cur.Arrangement()
	out.Tracks[0].Clips[0].StartTime = 7
	cur, _ = m.Current()
	if startOf(cur) != 0 {
		t.Fatal("mutating a returned arrangement changed the snapshot")
	}
}

func TestManager_Limit(t *testing.T) {
	m := New(3)
	for i := 0; i < 5; i++ {
		m.Commit(arrangementAt(float64(i)), "step")
	}

	if m.Len() != 3 || m.Cursor() != 2 {
		t.Fatalf("len=%d cursor=%d, want 3 and 2", m.Len(), m.Cursor())
	}
	m.Undo()
	s, _ := m.Undo()
	if startOf(s) != 2 {
		t.Fatalf("oldest kept start = %v, want 2", startOf(s))
	}
	if m.CanUndo() {
		t.Fatal("CanUndo() past the limit")
	}
}

func TestManager_State(t *testing.T) {
	m := New(0)
	m.Commit(arrangementAt(0), "seed")
	m.Commit(arrangementAt(3), "move_clip")

	st := m.State()
	if !st.CanUndo || st.CanRedo || st.Cursor != 1 || st.Length != 2 || st.Label != "move_clip" {
		t.Fatalf("State() = %+v", st)
	}
}
