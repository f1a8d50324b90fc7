package wm

import (
	"errors"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrNoSurface is returned by Headless.SurfaceTexture when no surface
// view was injected.
var ErrNoSurface = errors.New("wm: headless window has no surface")

// Headless is a Manager without an OS window. Tests and embedding
// hosts feed it events with Send and read back the title and size.
type Headless struct {
	events chan Event

	mu      sync.Mutex
	w, h    uint32
	dpi     float64
	title   string
	surface hal.TextureView
	closed  bool
}

// NewHeadless creates a headless window of the given device-pixel size.
func NewHeadless(w, h uint32, dpi float64) *Headless {
	if dpi <= 0 {
		dpi = 1
	}
	return &Headless{
		events: make(chan Event, 64),
		w:      w,
		h:      h,
		dpi:    dpi,
	}
}

// Send queues an event for the interface. Sending after Close panics,
// matching the closed-channel semantics a real window would have.
func (hw *Headless) Send(ev Event) {
	hw.events <- ev
}

// Resize updates the reported size and queues the resize event.
func (hw *Headless) Resize(w, h uint32) {
	hw.mu.Lock()
	hw.w, hw.h = w, h
	hw.mu.Unlock()
	hw.Send(Event{Kind: EventResize, Width: w, Height: h})
}

// Close ends the event stream, which shuts down a running interface.
func (hw *Headless) Close() {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	if !hw.closed {
		hw.closed = true
		close(hw.events)
	}
}

// SetSurface injects the texture view SurfaceTexture hands out.
func (hw *Headless) SetSurface(view hal.TextureView) {
	hw.mu.Lock()
	hw.surface = view
	hw.mu.Unlock()
}

func (hw *Headless) Events() <-chan Event { return hw.events }

func (hw *Headless) Size() (w, h uint32) {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return hw.w, hw.h
}

func (hw *Headless) DPIScale() float64 {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return hw.dpi
}

func (hw *Headless) SetTitle(title string) {
	hw.mu.Lock()
	hw.title = title
	hw.mu.Unlock()
}

// Title returns the last title set, for test assertions.
func (hw *Headless) Title() string {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	return hw.title
}

func (hw *Headless) SurfaceTexture() (hal.TextureView, error) {
	hw.mu.Lock()
	defer hw.mu.Unlock()
	if hw.surface == nil {
		return nil, ErrNoSurface
	}
	return hw.surface, nil
}

func (hw *Headless) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}

func (hw *Headless) Present() error { return nil }

var _ Manager = (*Headless)(nil)
