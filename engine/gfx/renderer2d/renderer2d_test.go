package renderer2d_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/chartgfx/engine/colors"
	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/gfx/gfxtest"
	"github.com/hubastard/chartgfx/engine/gfx/renderer2d"
	"github.com/hubastard/chartgfx/engine/scene"
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
			gfx.ShaderDefault: dev.CreateShader(gfx.NewGLSLSource(gfx.ShaderDefault, "v", "f")),
		},
		cache: gfx.NewPipelineCache(dev.CreatePipeline),
	}
}

func (f *fakeResources) Device() gfx.Device            { return f.dev }
func (f *fakeResources) Shader(name string) gfx.Shader { return f.shaders[name] }
func (f *fakeResources) Pipeline(s gfx.Shader, d gfx.BufferDescriptor, m gfx.DrawMode, b gfx.BlendMode) (gfx.Pipeline, error) {
	return f.cache.Get(s, d, m, b)
}

func TestSceneDrawsTrianglesThenLines(t *testing.T) {
	res := newFakeResources()
	rd := renderer2d.New(res)
	vp := scene.ScreenProjection(200, 100)

	rd.BeginScene(vp)
	rd.DrawRect(10, 10, 20, 30, colors.Bull)
	rd.DrawLine(0, 50, 200, 50, 1, colors.GridLine)
	rd.DrawLine(0, 60, 200, 60, 1, colors.GridLine)
	require.NoError(t, rd.EndScene())

	require.Equal(t, 2, res.dev.Draws())
	tri, line := res.dev.DrawCalls[0], res.dev.DrawCalls[1]
	assert.Equal(t, gfx.Triangles, tri.Mode)
	assert.Equal(t, 6, tri.Count)
	assert.Equal(t, gfx.Lines, line.Mode)
	assert.Equal(t, 4, line.Count)
	assert.Equal(t, gfx.ShaderDefault, tri.Shader)
	assert.Equal(t, gfx.BlendAlpha, tri.Blend)

	st := rd.Stats()
	assert.Equal(t, renderer2d.Statistics{DrawCalls: 2, QuadCount: 1, LineCount: 2}, st)
	assert.Equal(t, 10, st.TotalVertexCount())

	u, ok := res.shaders[gfx.ShaderDefault].(*gfxtest.Shader).Uniform("uProjection")
	require.True(t, ok)
	assert.Equal(t, vp, u.F)
}

func TestRectVertices(t *testing.T) {
	res := newFakeResources()
	rd := renderer2d.New(res)
	rd.BeginScene(scene.ScreenProjection(100, 100))
	rd.DrawRect(1, 2, 3, 4, colors.Red)
	require.NoError(t, rd.EndScene())

	data := res.dev.Buffers[0].Data
	require.Len(t, data, 6*6)
	// Corners: TL, TR, BR, TL, BR, BL.
	want := [][2]float32{{1, 2}, {4, 2}, {4, 6}, {1, 2}, {4, 6}, {1, 6}}
	for i, p := range want {
		assert.Equal(t, p[0], data[i*6], "x of vertex %d", i)
		assert.Equal(t, p[1], data[i*6+1], "y of vertex %d", i)
		assert.Equal(t, []float32(colors.Red[:]), data[i*6+2:i*6+6])
	}
}

func TestThickLineIsAQuad(t *testing.T) {
	res := newFakeResources()
	rd := renderer2d.New(res)
	rd.BeginScene(scene.ScreenProjection(100, 100))
	rd.DrawLine(0, 10, 10, 10, 4, colors.White)
	require.NoError(t, rd.EndScene())

	require.Equal(t, 1, res.dev.Draws())
	assert.Equal(t, gfx.Triangles, res.dev.DrawCalls[0].Mode)
	data := res.dev.Buffers[0].Data
	ys := map[float32]bool{}
	for i := 0; i < len(data); i += 6 {
		ys[data[i+1]] = true
	}
	assert.Equal(t, map[float32]bool{8: true, 12: true}, ys)
}

func TestPolylineMiter(t *testing.T) {
	res := newFakeResources()
	rd := renderer2d.New(res)
	rd.BeginScene(scene.ScreenProjection(100, 100))
	// Right angle at (10, 0).
	rd.DrawPolyline([]float32{0, 0, 10, 0, 10, 10}, 2, colors.White)
	require.NoError(t, rd.EndScene())

	assert.Equal(t, 2, rd.Stats().QuadCount)
	data := res.dev.Buffers[0].Data
	// The second vertex of the first quad is the joint offset by the miter,
	// which for a right angle sits on the diagonal.
	assert.InDelta(t, 9, data[6], 1e-4)
	assert.InDelta(t, 1, data[7], 1e-4)
}

func TestPolylineHairline(t *testing.T) {
	res := newFakeResources()
	rd := renderer2d.New(res)
	rd.BeginScene(scene.ScreenProjection(100, 100))
	rd.DrawPolyline([]float32{0, 0, 1, 1, 2, 0, 3}, 1, colors.White) // odd tail ignored
	rd.DrawPolyline([]float32{5, 5}, 1, colors.White)
	require.NoError(t, rd.EndScene())
	assert.Equal(t, 2, rd.Stats().LineCount)
}

func TestEmptySceneIssuesNoWork(t *testing.T) {
	res := newFakeResources()
	rd := renderer2d.New(res)
	rd.BeginScene(scene.ScreenProjection(10, 10))
	require.NoError(t, rd.EndScene())
	assert.Zero(t, res.dev.Draws())
	assert.Empty(t, res.dev.Buffers)

	// Outside a scene draws are ignored.
	rd.DrawRect(0, 0, 5, 5, colors.White)
	require.NoError(t, rd.EndScene())
	assert.Zero(t, res.dev.Draws())
}

func TestBuffersReusedAcrossScenes(t *testing.T) {
	res := newFakeResources()
	rd := renderer2d.New(res)
	for range 3 {
		rd.BeginScene(scene.ScreenProjection(10, 10))
		rd.DrawRect(0, 0, 5, 5, colors.White)
		rd.DrawLine(0, 0, 5, 5, 1, colors.White)
		require.NoError(t, rd.EndScene())
	}
	assert.Len(t, res.dev.Buffers, 2)
	assert.Equal(t, 6, res.dev.Draws())
	assert.Equal(t, 2, res.cache.Len())

	rd.Dispose()
	for _, b := range res.dev.Buffers {
		assert.True(t, b.Disposed())
	}
}

func TestMissingShader(t *testing.T) {
	res := newFakeResources()
	delete(res.shaders, gfx.ShaderDefault)
	rd := renderer2d.New(res)
	rd.BeginScene(scene.ScreenProjection(10, 10))
	rd.DrawRect(0, 0, 5, 5, colors.White)
	assert.ErrorIs(t, rd.EndScene(), gfx.ErrMissingShader)
}
