// Package playhead maps between timeline pixels and seconds, tracks the
// current time and zoom, generates ruler markers and runs drag sessions.
//
// A Controller is not safe for concurrent use; callers serialize access.
package playhead

import (
	"fmt"
	"math"
)

const (
	BasePixelsPerSecond = 50.0
	MinZoom             = 0.1
	MaxZoom             = 10.0
	ZoomStep            = 1.5
)

// State is a read-only view of a Controller.
type State struct {
	CurrentTime  float64 `json:"current_time"`
	Duration     float64 `json:"duration"`
	Zoom         float64 `json:"zoom"`
	ScrollOffset float64 `json:"scroll_offset"`
	Width        float64 `json:"width"`
	Dragging     bool    `json:"dragging"`
}

type Controller struct {
	zoom         float64
	currentTime  float64
	duration     float64
	scrollOffset float64

	release func()

	// OnTimeChange receives every time computed by Seek, a click or a drag
	// move.
	OnTimeChange func(t float64)
	OnZoomChange func(zoom float64)
}

// New returns a controller at zoom 1 with the playhead at 0.
func New(duration float64) *Controller {
	c := &Controller{zoom: 1}
	c.duration = nonNegative(duration)
	return c
}

func (c *Controller) State() State {
	return State{
		CurrentTime:  c.currentTime,
		Duration:     c.duration,
		Zoom:         c.zoom,
		ScrollOffset: c.scrollOffset,
		Width:        c.TimelineWidth(),
		Dragging:     c.release != nil,
	}
}

func (c *Controller) Zoom() float64        { return c.zoom }
func (c *Controller) CurrentTime() float64 { return c.currentTime }
func (c *Controller) Duration() float64    { return c.duration }

func (c *Controller) ZoomIn()  { c.SetZoom(c.zoom * ZoomStep) }
func (c *Controller) ZoomOut() { c.SetZoom(c.zoom / ZoomStep) }

// SetZoom clamps zoom to [MinZoom, MaxZoom]. Non-finite values are ignored.
func (c *Controller) SetZoom(zoom float64) {
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		return
	}
	zoom = clamp(zoom, MinZoom, MaxZoom)
	if zoom == c.zoom {
		return
	}
	c.zoom = zoom
	c.scrollOffset = clamp(c.scrollOffset, 0, c.TimelineWidth())
	if c.OnZoomChange != nil {
		c.OnZoomChange(zoom)
	}
}

// SetDuration updates the arrangement length and re-clamps the playhead.
func (c *Controller) SetDuration(duration float64) {
	c.duration = nonNegative(duration)
	if c.currentTime > c.duration {
		c.Seek(c.duration)
	}
	c.scrollOffset = clamp(c.scrollOffset, 0, c.TimelineWidth())
}

func (c *Controller) SetScrollOffset(px float64) {
	if math.IsNaN(px) {
		return
	}
	c.scrollOffset = clamp(px, 0, c.TimelineWidth())
}

func (c *Controller) ScrollOffset() float64 { return c.scrollOffset }

func (c *Controller) TimelineWidth() float64 {
	return c.duration * c.zoom * BasePixelsPerSecond
}

// TimeFromPixel converts a pixel position to seconds, clamped to
// [0, duration]. A zero-width timeline always maps to 0.
func (c *Controller) TimeFromPixel(x float64) float64 {
	width := c.TimelineWidth()
	if width <= 0 || math.IsNaN(x) {
		return 0
	}
	return clamp(x/width*c.duration, 0, c.duration)
}

func (c *Controller) PixelFromTime(t float64) float64 {
	return clamp(t, 0, c.duration) * c.zoom * BasePixelsPerSecond
}

// Seek moves the playhead to t, clamped to [0, duration].
func (c *Controller) Seek(t float64) {
	if math.IsNaN(t) {
		return
	}
	c.currentTime = clamp(t, 0, c.duration)
	if c.OnTimeChange != nil {
		c.OnTimeChange(c.currentTime)
	}
}

// ClickRuler seeks to the time under x once, outside of any drag.
func (c *Controller) ClickRuler(x float64) float64 {
	c.Seek(c.TimeFromPixel(x))
	return c.currentTime
}

// Marker is one labelled ruler tick.
type Marker struct {
	Time  float64 `json:"time"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
}

// RulerInterval picks the tick spacing for the current zoom so labels stay
// roughly evenly dense.
func (c *Controller) RulerInterval() float64 {
	return RulerInterval(c.zoom)
}

func RulerInterval(zoom float64) float64 {
	switch {
	case zoom > 2:
		return 1
	case zoom > 0.5:
		return 5
	default:
		return 10
	}
}

// maxRulerMarkers bounds the marker list for very long arrangements.
const maxRulerMarkers = 2000

// MarkerInterval is the spacing RulerMarkers uses: the ruler interval, grown
// by factors of ten past maxRulerMarkers.
func (c *Controller) MarkerInterval() float64 {
	interval := c.RulerInterval()
	for c.duration/interval > maxRulerMarkers {
		interval *= 10
	}
	return interval
}

// RulerMarkers returns a marker at every multiple of MarkerInterval from 0 to
// the duration inclusive.
func (c *Controller) RulerMarkers() []Marker {
	interval := c.MarkerInterval()
	n := int(math.Floor(c.duration/interval+1e-9)) + 1
	markers := make([]Marker, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) * interval
		markers = append(markers, Marker{Time: t, Label: FormatTime(t), X: c.PixelFromTime(t)})
	}
	return markers
}

// FormatTime renders seconds as m:ss.
func FormatTime(t float64) string {
	total := int(math.Floor(nonNegative(t)))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
