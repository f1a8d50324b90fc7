package binui

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/binui/render"
	"github.com/gogpu/binui/text"
)

// Options holds interface configuration. Zero value is not useful; use
// [DefaultOptions] or build through [Option] values passed to [New].
type Options struct {
	// IgnoreDPI disables DPI scaling of layout values. Default false.
	IgnoreDPI bool `toml:"ignore_dpi"`

	// WindowWidth and WindowHeight are the initial window size in
	// logical pixels. Default 800x600.
	WindowWidth  uint32 `toml:"window_width"`
	WindowHeight uint32 `toml:"window_height"`

	// Title is the initial window title. Default "".
	Title string `toml:"title"`

	// NativeInput delivers raw OS events to the interface, which then
	// owns normalization: pointer coordinates arrive in logical points
	// and are scaled by the window's DPI factor. When false (default)
	// the window manager delivers events in device pixels already.
	NativeInput bool `toml:"native_input"`

	// AppLoop makes New return after spawning the loop threads and
	// invoke AppFunc on the event thread. Default false.
	AppLoop bool `toml:"app_loop"`

	// MaxAtlasSize caps glyph/image atlas dimensions. Default 4096.
	MaxAtlasSize int `toml:"max_atlas_size"`

	// MSAA is the multisample count for the layer pass. Default 1.
	MSAA uint32 `toml:"msaa"`

	// Workers bounds the glyph rasterization pool. Default: GOMAXPROCS,
	// resolved at interface construction when zero.
	Workers int `toml:"workers"`

	// AppFunc runs on the event thread when AppLoop is set.
	AppFunc func(*Interface) `toml:"-"`

	// WindowManager supplies the window and its event stream. When nil,
	// New fails with ErrWindowUnavailable: binui never creates OS
	// windows itself.
	WindowManager WindowManager `toml:"-"`

	// DeviceProvider is the host's GPU device handle. When nil the
	// interface runs headless: layout and tessellation without frame
	// presentation.
	DeviceProvider render.DeviceHandle `toml:"-"`

	// TextShaper overrides the text shaper. Default: HarfBuzz-backed.
	TextShaper text.Shaper `toml:"-"`
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		WindowWidth:  800,
		WindowHeight: 600,
		MaxAtlasSize: 4096,
		MSAA:         1,
	}
}

// Option configures an Interface during creation.
type Option func(*Options)

// WithIgnoreDPI disables DPI scaling of layout values.
func WithIgnoreDPI() Option {
	return func(o *Options) { o.IgnoreDPI = true }
}

// WithWindowSize sets the initial window size in logical pixels.
func WithWindowSize(w, h uint32) Option {
	return func(o *Options) { o.WindowWidth, o.WindowHeight = w, h }
}

// WithTitle sets the initial window title.
func WithTitle(title string) Option {
	return func(o *Options) { o.Title = title }
}

// WithNativeInput makes the interface normalize raw OS events itself.
func WithNativeInput() Option {
	return func(o *Options) { o.NativeInput = true }
}

// WithAppLoop makes New return after spawning the loop threads and run
// fn on the event thread.
func WithAppLoop(fn func(*Interface)) Option {
	return func(o *Options) { o.AppLoop = true; o.AppFunc = fn }
}

// WithMaxAtlasSize caps the atlas dimension in pixels.
func WithMaxAtlasSize(size int) Option {
	return func(o *Options) { o.MaxAtlasSize = size }
}

// WithMSAA sets the multisample count for the layer pass.
func WithMSAA(samples uint32) Option {
	return func(o *Options) { o.MSAA = samples }
}

// WithWorkers bounds the glyph rasterization worker pool.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithWindowManager injects the window manager that owns the OS window
// and produces the input event stream.
func WithWindowManager(wm WindowManager) Option {
	return func(o *Options) { o.WindowManager = wm }
}

// WithDeviceProvider injects the host's GPU device handle. Without one
// the interface runs headless.
func WithDeviceProvider(p render.DeviceHandle) Option {
	return func(o *Options) { o.DeviceProvider = p }
}

// WithTextShaper overrides the shaper used for bin text.
func WithTextShaper(s text.Shaper) Option {
	return func(o *Options) { o.TextShaper = s }
}

// LoadOptions reads Options from a TOML file, applied over the defaults.
// Fields absent from the file keep their default values.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("binui: read options: %w", err)
	}
	if err := toml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("binui: parse options: %w", err)
	}
	return opts, nil
}
