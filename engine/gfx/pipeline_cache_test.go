package gfx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/gfx/gfxtest"
)

func TestPipelineCacheReturnsIdenticalInstance(t *testing.T) {
	dev := gfxtest.NewDevice()
	cache := gfx.NewPipelineCache(dev.CreatePipeline)
	def := dev.CreateShader(gfx.NewGLSLSource("default", "v", "f"))
	txt := dev.CreateShader(gfx.NewGLSLSource("text", "v", "f"))

	descs := []gfx.BufferDescriptor{gfx.PositionColor2D(), gfx.PositionOnly2D(), gfx.TextBuffer()}
	modes := []gfx.DrawMode{gfx.Triangles, gfx.Lines, gfx.LineStrip}
	blends := []gfx.BlendMode{gfx.BlendNone, gfx.BlendAlpha}

	n := 0
	for _, sh := range []gfx.Shader{def, txt} {
		for _, d := range descs {
			for _, m := range modes {
				for _, b := range blends {
					p1, err := cache.Get(sh, d, m, b)
					require.NoError(t, err)
					p2, err := cache.Get(sh, d.WithCapacity(7), m, b)
					require.NoError(t, err)
					assert.Same(t, p1, p2)
					n++
				}
			}
		}
	}
	assert.Len(t, dev.Pipelines, n, "one build per distinct key")
	st := cache.Stats()
	assert.Equal(t, uint64(n), st.Misses)
	assert.Equal(t, uint64(n), st.Hits)
	assert.Equal(t, n, st.Size)
}

func TestPipelineCacheRefusesInvalidShader(t *testing.T) {
	dev := gfxtest.NewDevice()
	dev.FailCompile["broken"] = true
	cache := gfx.NewPipelineCache(dev.CreatePipeline)
	sh := dev.CreateShader(gfx.NewGLSLSource("broken", "v", "f"))

	_, err := cache.Get(sh, gfx.PositionColor2D(), gfx.Triangles, gfx.BlendNone)
	require.Error(t, err)
	assert.Equal(t, gfx.ShaderInvalid, sh.State())

	_, err = cache.Get(sh, gfx.PositionColor2D(), gfx.Triangles, gfx.BlendNone)
	assert.ErrorIs(t, err, gfx.ErrInvalidShader)
	assert.Empty(t, dev.Pipelines)
	assert.Equal(t, 0, cache.Len())
}

func TestPipelineCacheDisposeAll(t *testing.T) {
	dev := gfxtest.NewDevice()
	cache := gfx.NewPipelineCache(dev.CreatePipeline)
	sh := dev.CreateShader(gfx.NewGLSLSource("default", "v", "f"))
	_, _ = cache.Get(sh, gfx.PositionColor2D(), gfx.Triangles, gfx.BlendNone)
	_, _ = cache.Get(sh, gfx.PositionColor2D(), gfx.Lines, gfx.BlendNone)

	cache.DisposeAll()
	assert.Equal(t, 0, cache.Len())
	for _, p := range dev.Pipelines {
		assert.Equal(t, 1, p.DisposeCalls)
	}
}
