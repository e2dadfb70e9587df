package gfx

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger shared by gfx and every backend package.
// Pass nil to silence logging again.
//
// Levels:
//   - Debug: buffer resizes, pipeline cache misses
//   - Info: device and adapter lifecycle
//   - Warn: allocation failures, deferred disposal errors
//   - Error: shader compile and link failures
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Safe for concurrent use.
func Logger() *slog.Logger { return loggerPtr.Load() }

// LogBufferAlloc reports the outcome of allocating a buffer at creation time.
// Before the device is initialized allocation is deferred to the first upload,
// which is logged at debug level. Any other failure is a warning.
func LogBufferAlloc(backend string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrNotInitialized):
		Logger().Debug("buffer allocation deferred", slog.String("backend", backend))
	default:
		Logger().Warn("buffer allocation failed", slog.String("backend", backend), slog.Any("err", err))
	}
}
