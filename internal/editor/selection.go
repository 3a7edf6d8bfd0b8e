package editor

import "github.com/heimdex/heimdex-studio/internal/timeline"

// Selection tracks the single selected clip. It is UI state and never part of
// the edit history.
type Selection struct {
	clipID string
}

// Select marks clipID as selected. Selecting a clip that is not in arr is a
// constraint violation and leaves the selection as it was.
func (s *Selection) Select(arr timeline.Arrangement, clipID string) error {
	if _, ok := arr.Clip(clipID); !ok {
		return reject("select_clip", ErrClipNotFound, "%s", clipID)
	}
	s.clipID = clipID
	return nil
}

func (s *Selection) DeselectAll() {
	s.clipID = ""
}

func (s *Selection) Selected() (string, bool) {
	return s.clipID, s.clipID != ""
}

// Reconcile drops the selection when its clip no longer exists, e.g. after an
// undo past the clip's creation. It reports whether the selection changed.
func (s *Selection) Reconcile(arr timeline.Arrangement) bool {
	if s.clipID == "" {
		return false
	}
	if _, ok := arr.Clip(s.clipID); ok {
		return false
	}
	s.clipID = ""
	return true
}
