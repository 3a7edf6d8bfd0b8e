package studio

import "github.com/heimdex/heimdex-studio/internal/playhead"

func (s *Session) Playhead() playhead.State {
	s.lock()
	defer s.unlock()
	return s.playhead.State()
}

func (s *Session) ZoomIn() float64 {
	s.lock()
	defer s.unlock()
	s.playhead.ZoomIn()
	return s.playhead.Zoom()
}

func (s *Session) ZoomOut() float64 {
	s.lock()
	defer s.unlock()
	s.playhead.ZoomOut()
	return s.playhead.Zoom()
}

func (s *Session) SetZoom(zoom float64) float64 {
	s.lock()
	defer s.unlock()
	s.playhead.SetZoom(zoom)
	return s.playhead.Zoom()
}

func (s *Session) SetScrollOffset(px float64) {
	s.lock()
	defer s.unlock()
	s.playhead.SetScrollOffset(px)
}

// Seek moves the playhead and returns the clamped time.
func (s *Session) Seek(t float64) float64 {
	s.lock()
	defer s.unlock()
	s.playhead.Seek(t)
	return s.playhead.CurrentTime()
}

func (s *Session) ClickRuler(x float64) float64 {
	s.lock()
	defer s.unlock()
	return s.playhead.ClickRuler(x)
}

func (s *Session) Ruler() (interval float64, markers []playhead.Marker) {
	s.lock()
	defer s.unlock()
	return s.playhead.MarkerInterval(), s.playhead.RulerMarkers()
}

// BeginDrag starts a scrub driven by DragMove and DragEnd. A drag already in
// progress is released first.
func (s *Session) BeginDrag() {
	s.lock()
	defer s.unlock()
	s.playhead.BeginDrag(&s.pointer)
}

// DragMove feeds a pointer position to the active drag. It reports false
// when no drag is in progress.
func (s *Session) DragMove(x float64) (float64, bool) {
	s.lock()
	defer s.unlock()
	if !s.pointer.Move(x) {
		return s.playhead.CurrentTime(), false
	}
	return s.playhead.CurrentTime(), true
}

// DragEnd is pointer-up. Ending when no drag is active is harmless.
func (s *Session) DragEnd() {
	s.lock()
	defer s.unlock()
	if !s.pointer.Up() {
		s.playhead.EndDrag()
	}
}
