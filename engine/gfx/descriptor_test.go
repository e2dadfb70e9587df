package gfx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptorStrideFollowsComponents(t *testing.T) {
	cases := []struct {
		name  string
		attrs []VertexAttribute
		fpv   int
	}{
		{"position only", []VertexAttribute{Float("aPosition", 2, 0)}, 2},
		{"position color", []VertexAttribute{Float("aPosition", 2, 0), Float("aColor", 4, 8)}, 6},
		{"text", []VertexAttribute{Float("aPosition", 2, 0), Float("aTexCoord", 2, 8), Float("aColor", 4, 16)}, 8},
		{"scalar", []VertexAttribute{Float("aValue", 1, 0)}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := NewBufferDescriptor(tc.attrs...)
			assert.Equal(t, tc.fpv, d.FloatsPerVertex())
			assert.Equal(t, tc.fpv*4, d.StrideInBytes())
		})
	}
}

func TestPresets(t *testing.T) {
	assert.Equal(t, 6, PositionColor2D().FloatsPerVertex())
	assert.Equal(t, 2, PositionOnly2D().FloatsPerVertex())
	assert.Equal(t, 8, TextBuffer().FloatsPerVertex())
	assert.Equal(t, 32, TextBuffer().StrideInBytes())
	assert.Equal(t, 1024, PositionColor2D().InitialCapacity())
	assert.True(t, PositionColor2D().Dynamic())
}

func TestFingerprintIgnoresCapacity(t *testing.T) {
	a := PositionColor2D()
	b := PositionColor2D().WithCapacity(99999).WithDynamic(false)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), TextBuffer().Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), PositionOnly2D().Fingerprint())
}

func TestDescriptorIsImmutable(t *testing.T) {
	d := TextBuffer()
	attrs := d.Attributes()
	attrs[0].Name = "mutated"
	assert.Equal(t, "aPosition", d.Attributes()[0].Name)
}

func TestGrowCapacity(t *testing.T) {
	assert.Equal(t, 150, GrowCapacity(100))
	assert.Equal(t, 11, GrowCapacity(7), "odd sizes round up")
	assert.Equal(t, 2, GrowCapacity(1))
	for n := 1; n < 64; n++ {
		assert.GreaterOrEqual(t, float64(GrowCapacity(n)), 1.5*float64(n), n)
	}
}

func TestTextureDescriptorSizes(t *testing.T) {
	assert.Equal(t, 256*128, FontAtlasTexture(256, 128).ByteSize())
	assert.Equal(t, 4*4*4, RGBATexture(4, 4).ByteSize())
	assert.Equal(t, 3, FormatRGB8.BytesPerPixel())
}

func TestParseBackend(t *testing.T) {
	for in, want := range map[string]Backend{
		"":       BackendAuto,
		"AUTO":   BackendAuto,
		"gl":     BackendOpenGL,
		"Vulkan": BackendVulkan,
		"metal":  BackendMetal,
		"d3d12":  BackendDX12,
	} {
		got, err := ParseBackend(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseBackend("glide")
	assert.Error(t, err)
}
