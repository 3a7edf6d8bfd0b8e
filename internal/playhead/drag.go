package playhead

import "sync"

// PointerSource hands out a global pointer-move/pointer-up listener pair.
// The returned release func detaches both listeners.
type PointerSource interface {
	Acquire(onMove func(x float64), onUp func()) (release func())
}

// BeginDrag acquires a listener pair on src. Every move seeks to the time
// under the pointer; pointer-up ends the drag. A drag already in progress is
// released first.
func (c *Controller) BeginDrag(src PointerSource) {
	c.EndDrag()
	c.release = src.Acquire(
		func(x float64) { c.Seek(c.TimeFromPixel(x)) },
		c.EndDrag,
	)
}

// EndDrag releases the listener pair if one is held. It is safe to call at
// any time and more than once.
func (c *Controller) EndDrag() {
	release := c.release
	c.release = nil
	if release != nil {
		release()
	}
}

func (c *Controller) Dragging() bool {
	return c.release != nil
}

// Teardown releases anything the controller holds and detaches callbacks.
func (c *Controller) Teardown() {
	c.EndDrag()
	c.OnTimeChange = nil
	c.OnZoomChange = nil
}

// Pointer is an in-process PointerSource fed by explicit Move and Up calls.
// At most one listener pair is attached at a time.
type Pointer struct {
	mu     sync.Mutex
	onMove func(float64)
	onUp   func()
	gen    uint64
}

func (p *Pointer) Acquire(onMove func(x float64), onUp func()) func() {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.onMove = onMove
	p.onUp = onUp
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.gen == gen {
			p.onMove = nil
			p.onUp = nil
		}
	}
}

// Move delivers a pointer-move to the attached listener, if any. It reports
// whether a listener received it.
func (p *Pointer) Move(x float64) bool {
	p.mu.Lock()
	fn := p.onMove
	p.mu.Unlock()
	if fn == nil {
		return false
	}
	fn(x)
	return true
}

func (p *Pointer) Up() bool {
	p.mu.Lock()
	fn := p.onUp
	p.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Listening reports whether a listener pair is attached.
func (p *Pointer) Listening() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onMove != nil
}
