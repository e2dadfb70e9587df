package glbackend

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/gfx/backend"
)

// These tests need no GL context: they cover the lazy, fail-soft paths taken
// before Initialize.

func TestShaderLibraryIsComplete(t *testing.T) {
	lib := Shaders()
	require.NoError(t, lib.Require(gfx.WellKnownShaders...))
	for name, src := range lib {
		assert.True(t, src.HasGLSL(), name)
		assert.True(t, strings.HasPrefix(src.GLSL[gfx.StageVertex], "#version 150"), name)
	}
	assert.Contains(t, lib[gfx.ShaderText].GLSL[gfx.StageFragment], "uTexture")
}

func TestProviderRegistered(t *testing.T) {
	assert.True(t, backend.IsAvailable(gfx.BackendOpenGL))
	p, err := backend.Select(gfx.BackendOpenGL)
	require.NoError(t, err)
	assert.Equal(t, Priority, p.Priority)
}

func TestResourcesBeforeInitialize(t *testing.T) {
	dev := NewDevice(nil)
	assert.False(t, dev.IsInitialized())
	assert.Equal(t, gfx.BackendOpenGL, dev.Backend())

	buf := dev.CreateBuffer(gfx.PositionColor2D())
	assert.False(t, buf.IsInitialized())
	err := buf.Upload([]float32{0, 0, 1, 1, 1, 1}, 0, 6)
	assert.ErrorIs(t, err, gfx.ErrNotInitialized)
	assert.Zero(t, buf.VertexCount())

	// Zero-count draws are no-ops even without a context.
	assert.NoError(t, buf.Draw(gfx.Triangles))

	sh := dev.CreateShader(Shaders()[gfx.ShaderDefault])
	assert.Equal(t, gfx.ShaderUncompiled, sh.State())
	assert.ErrorIs(t, sh.Bind(), gfx.ErrNotInitialized)
	assert.Equal(t, gfx.ShaderUncompiled, sh.State())

	_, err = dev.CreatePipeline(sh, gfx.PositionColor2D(), gfx.Triangles, gfx.BlendAlpha)
	assert.ErrorIs(t, err, gfx.ErrNotInitialized)

	tex := dev.CreateTexture(gfx.FontAtlasTexture(4, 4))
	assert.ErrorIs(t, tex.Upload(make([]byte, 16)), gfx.ErrNotInitialized)
	assert.Error(t, tex.Upload(make([]byte, 3)))
	assert.ErrorIs(t, tex.Bind(0), gfx.ErrNotInitialized)

	assert.ErrorIs(t, dev.BeginFrame(), gfx.ErrNotInitialized)
	assert.ErrorIs(t, dev.ReadPixels(nil), gfx.ErrNotInitialized)

	// Dispose is idempotent and safe without native objects.
	buf.Dispose()
	buf.Dispose()
	sh.Dispose()
	sh.Dispose()
	tex.Dispose()
	tex.Dispose()
	assert.ErrorIs(t, tex.Upload(make([]byte, 16)), gfx.ErrDisposed)
	assert.ErrorIs(t, sh.Bind(), gfx.ErrDisposed)
}

func TestCreateBufferLogsDeferredAllocation(t *testing.T) {
	var out bytes.Buffer
	gfx.SetLogger(slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { gfx.SetLogger(nil) })

	buf := NewDevice(nil).CreateBuffer(gfx.PositionColor2D())
	assert.False(t, buf.IsInitialized())
	assert.Contains(t, out.String(), "buffer allocation deferred")

	buf.Dispose()
	assert.ErrorIs(t, buf.Upload([]float32{0, 0, 1, 1, 1, 1}, 0, 6), gfx.ErrDisposed)
}

func TestBlendModeTrackedBeforeInitialize(t *testing.T) {
	dev := NewDevice(nil)
	assert.Equal(t, gfx.BlendAlpha, dev.BlendMode())
	dev.SetBlendMode(gfx.BlendAdditive)
	assert.Equal(t, gfx.BlendAdditive, dev.BlendMode())
}

func TestFlipRows(t *testing.T) {
	p := []byte{1, 1, 2, 2, 3, 3}
	flipRows(p, 2)
	assert.Equal(t, []byte{3, 3, 2, 2, 1, 1}, p)
}
