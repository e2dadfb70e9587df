package renderer2d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/chartgfx/engine/colors"
	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/gfx/gfxtest"
	"github.com/hubastard/chartgfx/engine/scene"
)

type poolResources struct {
	dev    *gfxtest.Device
	shader gfx.Shader
	cache  *gfx.PipelineCache
}

func (p *poolResources) Device() gfx.Device       { return p.dev }
func (p *poolResources) Shader(string) gfx.Shader { return p.shader }
func (p *poolResources) Pipeline(s gfx.Shader, d gfx.BufferDescriptor, m gfx.DrawMode, b gfx.BlendMode) (gfx.Pipeline, error) {
	return p.cache.Get(s, d, m, b)
}

func TestPolylineScratchGrowthSurvivesScenes(t *testing.T) {
	dev := gfxtest.NewDevice()
	rd := New(&poolResources{
		dev:    dev,
		shader: dev.CreateShader(gfx.NewGLSLSource(gfx.ShaderDefault, "v", "f")),
		cache:  gfx.NewPipelineCache(dev.CreatePipeline),
	})

	// 1000 points need far more than the pool's starting capacity.
	pts := make([]float32, 0, 2000)
	for i := range 1000 {
		pts = append(pts, float32(i), float32(i%7))
	}

	var grown int
	for range 3 {
		rd.BeginScene(scene.ScreenProjection(1000, 100))
		rd.DrawPolyline(pts, 3, colors.White)
		require.NoError(t, rd.EndScene())

		s := rd.scratch.Get()
		if grown == 0 {
			grown = cap(*s)
		}
		assert.GreaterOrEqual(t, cap(*s), 2000)
		assert.Equal(t, grown, cap(*s))
		rd.scratch.Reset()
	}
	assert.Equal(t, 1, rd.scratch.Created())
}
