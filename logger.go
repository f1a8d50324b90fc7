package binui

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/binui/atlas"
	"github.com/gogpu/binui/render"
	"github.com/gogpu/binui/text"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for binui and all its sub-packages.
// By default, binui produces no log output. Pass nil to restore the
// default silent behavior.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
//
// Log levels used by binui:
//   - [slog.LevelDebug]: per-frame diagnostics (transfer counts, dirty sets)
//   - [slog.LevelInfo]: lifecycle events (device selected, atlas grown)
//   - [slog.LevelWarn]: non-fatal issues (underspecified styles, negative
//     computed sizes, callback panics)
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	render.SetLogger(l)
	atlas.SetLogger(l)
	text.SetLogger(l)
}

// Logger returns the current logger used by binui.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
