package gfx_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hubastard/chartgfx/engine/gfx"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var out bytes.Buffer
	gfx.SetLogger(slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { gfx.SetLogger(nil) })
	return &out
}

func TestLogBufferAlloc(t *testing.T) {
	out := captureLog(t)

	gfx.LogBufferAlloc("opengl", nil)
	assert.Empty(t, out.String())

	gfx.LogBufferAlloc("opengl", gfx.ErrNotInitialized)
	assert.Contains(t, out.String(), "level=DEBUG")
	assert.Contains(t, out.String(), "buffer allocation deferred")
	out.Reset()

	gfx.LogBufferAlloc("vulkan", errors.New("device lost"))
	assert.Contains(t, out.String(), "level=WARN")
	assert.Contains(t, out.String(), "buffer allocation failed")
	assert.Contains(t, out.String(), "backend=vulkan")
	assert.Contains(t, out.String(), "device lost")
}

func TestSetLoggerNilSilences(t *testing.T) {
	captureLog(t)
	gfx.SetLogger(nil)
	assert.False(t, gfx.Logger().Enabled(t.Context(), slog.LevelError))
}
