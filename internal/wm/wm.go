// Package wm defines the narrow window-manager contract the toolkit
// renders through, plus a headless implementation for tests and for
// hosts that drive the event stream themselves.
package wm

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Manager is the collaborator that owns the OS window. It delivers
// normalized input events and exposes the drawable surface. The
// toolkit never creates windows or extracts OS events itself.
type Manager interface {
	// Events returns the stream of normalized window events. The
	// channel is closed when the window is destroyed.
	Events() <-chan Event

	// Size returns the current drawable size in device pixels.
	Size() (w, h uint32)

	// DPIScale returns the window's DPI scale factor (1.0 = 96 dpi).
	DPIScale() float64

	// SetTitle updates the window title.
	SetTitle(title string)

	// SurfaceTexture returns the texture view to present the next
	// frame into, or an error when the surface is unavailable.
	SurfaceTexture() (hal.TextureView, error)

	// SurfaceFormat returns the pixel format of the surface.
	SurfaceFormat() gputypes.TextureFormat

	// Present presents the most recently rendered surface texture.
	Present() error
}

// EventKind discriminates Event payloads.
type EventKind uint8

const (
	// EventPointerMove carries X, Y.
	EventPointerMove EventKind = iota

	// EventPointerPress carries Button and the pointer position.
	EventPointerPress

	// EventPointerRelease carries Button and the pointer position.
	EventPointerRelease

	// EventScroll carries DX, DY.
	EventScroll

	// EventKeyPress carries Code.
	EventKeyPress

	// EventKeyRelease carries Code.
	EventKeyRelease

	// EventChar carries Char.
	EventChar

	// EventFocusGained and EventFocusLost track window focus.
	EventFocusGained
	EventFocusLost

	// EventResize carries Width, Height in device pixels.
	EventResize

	// EventCloseRequested asks the interface to shut down.
	EventCloseRequested
)

// MouseButton identifies a pointer button.
type MouseButton uint8

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Modifiers is a bitmask of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// Event is a normalized OS event as delivered by a Manager.
type Event struct {
	Kind   EventKind
	X, Y   float64 // pointer position in device pixels; logical points for native input
	DX, DY float64 // scroll deltas
	Button MouseButton
	Code   uint32 // platform-independent key code
	Char   rune
	Width  uint32
	Height uint32
	Mods   Modifiers
}
