package binui

import (
	"errors"
	"fmt"

	"github.com/gogpu/binui/atlas"
)

// Interface-level errors. All errors surfaced by the public API either are
// one of these sentinels or wrap one, so callers can classify failures with
// [errors.Is].
var (
	// ErrInit is returned when adapter or surface creation failed.
	ErrInit = errors.New("binui: interface initialization failed")

	// ErrWindowUnavailable is returned when no window can be obtained
	// from the window manager.
	ErrWindowUnavailable = errors.New("binui: window unavailable")

	// ErrWindowNotSupported is returned when the window exists but its
	// surface cannot be rendered to.
	ErrWindowNotSupported = errors.New("binui: window not supported")

	// ErrGpuLost is returned when the device was lost. The interface
	// instance cannot recover; construct a new one.
	ErrGpuLost = errors.New("binui: gpu device lost")

	// ErrShutdown is returned from Run after a normal exit.
	ErrShutdown = errors.New("binui: interface shut down")

	// ErrInvalidColor is returned for malformed color strings.
	ErrInvalidColor = errors.New("binui: invalid color")

	// ErrAtlasFull is the atlas exhaustion error, surfaced after one
	// eviction attempt and one retry have both failed.
	ErrAtlasFull = atlas.ErrAtlasFull

	// ErrInvalidImage is returned for background image data whose
	// length does not match its declared dimensions.
	ErrInvalidImage = errors.New("binui: invalid image data")
)

// WindowOsError wraps an OS-level windowing failure with its message.
type WindowOsError struct {
	Message string
}

func (e *WindowOsError) Error() string {
	return "binui: window os failure: " + e.Message
}

func (e *WindowOsError) Unwrap() error { return ErrWindowUnavailable }

// StyleReason classifies why a BinStyle was rejected.
type StyleReason int

const (
	// StyleUnderspecified means neither an explicit size nor both
	// opposing offsets were given for an axis.
	StyleUnderspecified StyleReason = iota

	// StyleInvalidColor means a color attribute failed to parse.
	StyleInvalidColor
)

func (r StyleReason) String() string {
	switch r {
	case StyleUnderspecified:
		return "underspecified"
	case StyleInvalidColor:
		return "invalid color"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// StyleError reports a per-bin style problem. Style errors are non-fatal:
// the offending bin is skipped during layout until its style is corrected,
// and its siblings lay out normally.
type StyleError struct {
	Bin    BinID
	Reason StyleReason
	Axis   string // "horizontal" or "vertical" for underspecified styles
}

func (e *StyleError) Error() string {
	if e.Axis != "" {
		return fmt.Sprintf("binui: style error on bin %d: %s %s", e.Bin, e.Axis, e.Reason)
	}
	return fmt.Sprintf("binui: style error on bin %d: %s", e.Bin, e.Reason)
}

// ReparentError reports an invalid AddChild call.
type ReparentError struct {
	Parent BinID
	Child  BinID
}

func (e *ReparentError) Error() string {
	return fmt.Sprintf("binui: bin %d is already a child; detach it before adding to bin %d",
		e.Child, e.Parent)
}
