package binui

import "github.com/gogpu/binui/internal/wm"

// WindowManager is the narrow collaborator that owns the OS window.
// It delivers normalized input events and exposes the drawable
// surface; binui never creates windows or extracts OS events itself.
// The contract lives in internal/wm so implementations there satisfy
// it without importing this package.
type WindowManager = wm.Manager

// WindowEvent is a normalized OS event as delivered by the
// WindowManager.
type WindowEvent = wm.Event

// WindowEventKind discriminates WindowEvent payloads.
type WindowEventKind = wm.EventKind

const (
	EventPointerMove    = wm.EventPointerMove
	EventPointerPress   = wm.EventPointerPress
	EventPointerRelease = wm.EventPointerRelease
	EventScroll         = wm.EventScroll
	EventKeyPress       = wm.EventKeyPress
	EventKeyRelease     = wm.EventKeyRelease
	EventChar           = wm.EventChar
	EventFocusGained    = wm.EventFocusGained
	EventFocusLost      = wm.EventFocusLost
	EventResize         = wm.EventResize
	EventCloseRequested = wm.EventCloseRequested
)

// MouseButton identifies a pointer button.
type MouseButton = wm.MouseButton

const (
	MouseLeft   = wm.MouseLeft
	MouseRight  = wm.MouseRight
	MouseMiddle = wm.MouseMiddle
)

// Modifiers is a bitmask of held modifier keys.
type Modifiers = wm.Modifiers

const (
	ModShift = wm.ModShift
	ModCtrl  = wm.ModCtrl
	ModAlt   = wm.ModAlt
	ModSuper = wm.ModSuper
)
