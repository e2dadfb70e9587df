package glbackend

import (
	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/hubastard/chartgfx/engine/gfx"
)

func drawModeGL(m gfx.DrawMode) uint32 {
	switch m {
	case gfx.TriangleStrip:
		return gl.TRIANGLE_STRIP
	case gfx.TriangleFan:
		return gl.TRIANGLE_FAN
	case gfx.Lines:
		return gl.LINES
	case gfx.LineStrip:
		return gl.LINE_STRIP
	case gfx.LineLoop:
		return gl.LINE_LOOP
	case gfx.Points:
		return gl.POINTS
	default:
		return gl.TRIANGLES
	}
}

func attribTypeGL(t gfx.AttribType) uint32 {
	switch t {
	case gfx.AttribInt:
		return gl.INT
	case gfx.AttribUint:
		return gl.UNSIGNED_INT
	case gfx.AttribShort:
		return gl.SHORT
	case gfx.AttribUshort:
		return gl.UNSIGNED_SHORT
	case gfx.AttribByte:
		return gl.BYTE
	case gfx.AttribUbyte:
		return gl.UNSIGNED_BYTE
	default:
		return gl.FLOAT
	}
}

func blendFactors(m gfx.BlendMode) (src, dst uint32) {
	switch m {
	case gfx.BlendAdditive:
		return gl.SRC_ALPHA, gl.ONE
	case gfx.BlendMultiply:
		return gl.DST_COLOR, gl.ZERO
	case gfx.BlendPremultiplied:
		return gl.ONE, gl.ONE_MINUS_SRC_ALPHA
	default:
		return gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA
	}
}

// textureFormatGL returns internal format, pixel format and component type.
func textureFormatGL(f gfx.TextureFormat) (internal int32, format, xtype uint32) {
	switch f {
	case gfx.FormatR8:
		return gl.R8, gl.RED, gl.UNSIGNED_BYTE
	case gfx.FormatRG8:
		return gl.RG8, gl.RG, gl.UNSIGNED_BYTE
	case gfx.FormatRGB8:
		return gl.RGB8, gl.RGB, gl.UNSIGNED_BYTE
	case gfx.FormatR16F:
		return gl.R16F, gl.RED, gl.HALF_FLOAT
	case gfx.FormatRGBA16F:
		return gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT
	case gfx.FormatRGBA32F:
		return gl.RGBA32F, gl.RGBA, gl.FLOAT
	default:
		return gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE
	}
}

func filterGL(f gfx.Filter, mipmaps bool) int32 {
	switch {
	case f == gfx.FilterNearest && mipmaps:
		return gl.NEAREST_MIPMAP_NEAREST
	case f == gfx.FilterNearest:
		return gl.NEAREST
	case mipmaps:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.LINEAR
	}
}

func wrapGL(w gfx.Wrap) int32 {
	switch w {
	case gfx.WrapRepeat:
		return gl.REPEAT
	case gfx.WrapMirror:
		return gl.MIRRORED_REPEAT
	default:
		return gl.CLAMP_TO_EDGE
	}
}
