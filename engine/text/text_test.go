package text_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/chartgfx/engine/colors"
	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/gfx/gfxtest"
	"github.com/hubastard/chartgfx/engine/text"
)

type fakeResources struct {
	dev     *gfxtest.Device
	shaders map[string]gfx.Shader
	cache   *gfx.PipelineCache
}

func newFakeResources() *fakeResources {
	dev := gfxtest.NewDevice()
	return &fakeResources{
		dev: dev,
		shaders: map[string]gfx.Shader{
			gfx.ShaderText: dev.CreateShader(gfx.NewGLSLSource(gfx.ShaderText, "v", "f")),
		},
		cache: gfx.NewPipelineCache(dev.CreatePipeline),
	}
}

func (f *fakeResources) Device() gfx.Device            { return f.dev }
func (f *fakeResources) Shader(name string) gfx.Shader { return f.shaders[name] }
func (f *fakeResources) Pipeline(s gfx.Shader, d gfx.BufferDescriptor, m gfx.DrawMode, b gfx.BlendMode) (gfx.Pipeline, error) {
	return f.cache.Get(s, d, m, b)
}

func monoAtlas(t *testing.T, size int) *text.FontAtlas {
	t.Helper()
	ft, err := text.LoadFont(text.FamilyMono)
	require.NoError(t, err)
	a, err := text.BuildAtlas(ft, size)
	require.NoError(t, err)
	return a
}

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

func TestAtlasLayout(t *testing.T) {
	a := monoAtlas(t, 16)
	w, h := a.Size()
	assert.True(t, isPowerOfTwo(w), "width %d", w)
	assert.True(t, isPowerOfTwo(h), "height %d", h)
	assert.Len(t, a.Pixels(), w*h)

	for c := rune(text.FirstChar); c <= text.LastChar; c++ {
		g := a.Glyph(c)
		assert.Positive(t, g.Advance, "advance of %q", c)
		if g.Width == 0 {
			continue
		}
		assert.GreaterOrEqual(t, g.U0, float32(0))
		assert.LessOrEqual(t, g.U1, float32(1))
		assert.Less(t, g.U0, g.U1)
		assert.Less(t, g.V0, g.V1)
	}
}

func TestAtlasHasCoverage(t *testing.T) {
	a := monoAtlas(t, 16)
	lit := 0
	for _, p := range a.Pixels() {
		if p > 0 {
			lit++
		}
	}
	assert.Positive(t, lit)
}

func TestGlyphFallsBackToSpace(t *testing.T) {
	a := monoAtlas(t, 14)
	space := a.Glyph(' ')
	assert.Equal(t, space, a.Glyph('€'))
	assert.Equal(t, space, a.Glyph('\n'))
	assert.Equal(t, space, a.Glyph(127))
	assert.Zero(t, space.Width)
}

func TestTextWidthIsSumOfAdvances(t *testing.T) {
	a := monoAtlas(t, 14)
	s := "O:1.2345 H:1.2399"
	var want int
	for _, c := range s {
		want += a.Glyph(c).Advance
	}
	assert.Equal(t, float32(want), a.TextWidth(s))
	assert.Zero(t, a.TextWidth(""))
}

func TestAtlasTextureUploadsOnce(t *testing.T) {
	a := monoAtlas(t, 12)
	dev := gfxtest.NewDevice()

	dev.Ready = false
	_, err := a.Texture(dev)
	require.ErrorIs(t, err, gfx.ErrNotInitialized)

	dev.Ready = true
	tex, err := a.Texture(dev)
	require.NoError(t, err)
	again, err := a.Texture(dev)
	require.NoError(t, err)
	assert.Same(t, tex, again)

	ft := tex.(*gfxtest.Texture)
	assert.Equal(t, 1, ft.Uploads)
	assert.Equal(t, gfx.FormatR8, ft.Descriptor().Format)
}

func TestAtlasCacheReusesSizes(t *testing.T) {
	ft, err := text.LoadFont(text.FamilyMono)
	require.NoError(t, err)
	c := text.NewAtlasCache(ft)

	a12, err := c.Get(12)
	require.NoError(t, err)
	again, err := c.Get(12)
	require.NoError(t, err)
	a24, err := c.Get(24)
	require.NoError(t, err)

	assert.Same(t, a12, again)
	assert.NotSame(t, a12, a24)
	assert.Equal(t, 2, c.Builds())
}

func TestAtlasCachePreload(t *testing.T) {
	ft, err := text.LoadFont(text.FamilySans)
	require.NoError(t, err)
	c := text.NewAtlasCache(ft)

	require.NoError(t, c.Preload(context.Background(), 10, 12, 14, 12))
	assert.Equal(t, 3, c.Len())

	_, err = c.Get(14)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Builds())
}

func TestRendererOneUploadOneDrawPerBatch(t *testing.T) {
	res := newFakeResources()
	r := text.NewRenderer(res, text.Options{Size: 14})

	require.True(t, r.BeginBatch(800, 600))
	r.DrawText("Open", 10, 20, colors.White)
	r.DrawText("Close", 10, 40, colors.Bull)
	r.DrawTextRight("1.2345", 790, 20, colors.AxisText)
	require.NoError(t, r.EndBatch())

	require.Len(t, res.dev.Buffers, 1)
	buf := res.dev.Buffers[0]
	assert.Equal(t, 1, buf.Uploads)
	require.Equal(t, 1, res.dev.Draws())

	call := res.dev.DrawCalls[0]
	assert.Equal(t, gfx.ShaderText, call.Shader)
	assert.Equal(t, gfx.Triangles, call.Mode)
	assert.Equal(t, gfx.BlendAlpha, call.Blend)
	assert.Equal(t, 0, call.Count%6)
	assert.NotNil(t, call.Textures[0])
}

func TestRendererGlyphQuads(t *testing.T) {
	res := newFakeResources()
	r := text.NewRenderer(res, text.Options{Size: 14})
	s := "AB C"

	require.True(t, r.BeginBatch(400, 300))
	r.DrawText(s, 5, 50, colors.White)
	assert.Equal(t, 3, r.QueuedGlyphs())
	require.NoError(t, r.EndBatch())

	a, err := r.Atlas()
	require.NoError(t, err)
	data := res.dev.Buffers[0].Data
	require.Len(t, data, 3*6*8)

	// Last quad is 'C'; its left edge sits at the cursor plus its offset.
	c := a.Glyph('C')
	lastX0 := data[2*6*8]
	want := 5 + r.TextWidth(s) - float32(c.Advance) + float32(c.XOffset)
	assert.InDelta(t, want, lastX0, 1e-4)
	assert.Equal(t, r.TextWidth(s), a.TextWidth(s))
}

func TestRendererNestedBeginResets(t *testing.T) {
	res := newFakeResources()
	r := text.NewRenderer(res, text.Options{})

	require.True(t, r.BeginBatch(100, 100))
	r.DrawText("discarded", 0, 10, colors.White)
	require.True(t, r.BeginBatch(100, 100))
	r.DrawText("k", 0, 10, colors.White)
	require.NoError(t, r.EndBatch())

	require.Equal(t, 1, res.dev.Draws())
	assert.Equal(t, 6, res.dev.DrawCalls[0].Count)
}

func TestRendererEmptyBatchDoesNothing(t *testing.T) {
	res := newFakeResources()
	r := text.NewRenderer(res, text.Options{})

	require.True(t, r.BeginBatch(100, 100))
	r.DrawText("   ", 0, 10, colors.White)
	require.NoError(t, r.EndBatch())
	assert.Zero(t, res.dev.Draws())
	assert.False(t, r.InBatch())

	// Outside a batch draws are ignored.
	r.DrawText("x", 0, 0, colors.White)
	require.NoError(t, r.EndBatch())
	assert.Zero(t, res.dev.Draws())
}

func TestRendererWithoutTextShader(t *testing.T) {
	res := newFakeResources()
	delete(res.shaders, gfx.ShaderText)
	r := text.NewRenderer(res, text.Options{})
	assert.False(t, r.BeginBatch(100, 100))
	assert.False(t, r.InBatch())
}

func TestRendererScaleFactorPicksLargerAtlas(t *testing.T) {
	res := newFakeResources()
	r := text.NewRenderer(res, text.Options{Size: 12})
	w1 := r.TextWidth("1234")
	a1, err := r.Atlas()
	require.NoError(t, err)

	r.SetScaleFactor(2)
	w2 := r.TextWidth("1234")
	a2, err := r.Atlas()
	require.NoError(t, err)

	assert.Equal(t, 12, a1.SizePx)
	assert.Equal(t, 24, a2.SizePx)
	assert.Greater(t, w2, w1)
	assert.Greater(t, r.TextHeight(), float32(0))

	r.SetScaleFactor(0.5)
	a3, err := r.Atlas()
	require.NoError(t, err)
	assert.Equal(t, 12, a3.SizePx, "scale is clamped to 1")
}

func TestRendererFamilyChangeInsideBatch(t *testing.T) {
	res := newFakeResources()
	r := text.NewRenderer(res, text.Options{Size: 14})
	mono, err := r.Atlas()
	require.NoError(t, err)

	require.True(t, r.BeginBatch(200, 100))
	r.DrawText("a", 0, 20, colors.White)
	r.SetFontFamily(text.FamilySans)
	r.DrawText("b", 0, 40, colors.White)
	require.NoError(t, r.EndBatch())
	require.Equal(t, 1, res.dev.Draws())
	assert.Equal(t, 12, res.dev.DrawCalls[0].Count, "the open batch keeps its atlas")

	sans, err := r.Atlas()
	require.NoError(t, err)
	assert.NotSame(t, mono, sans)
	assert.Equal(t, 14, sans.SizePx)

	require.True(t, r.BeginBatch(200, 100))
	r.DrawText("c", 0, 20, colors.White)
	require.NoError(t, r.EndBatch())
	assert.Equal(t, 2, res.dev.Draws())
}

func TestRendererDispose(t *testing.T) {
	res := newFakeResources()
	r := text.NewRenderer(res, text.Options{})
	require.True(t, r.BeginBatch(100, 100))
	r.DrawText("x", 0, 10, colors.White)
	require.NoError(t, r.EndBatch())

	r.Dispose()
	assert.Equal(t, 1, res.dev.Buffers[0].DisposeCalls)
	assert.Equal(t, 1, res.dev.Textures[0].DisposeCalls)
	r.Dispose()
	assert.Equal(t, 1, res.dev.Buffers[0].DisposeCalls)
}
