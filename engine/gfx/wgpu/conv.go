package wgpubackend

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/hubastard/chartgfx/engine/gfx"
)

const (
	// uniformFloats is the size of the shared uniform block: a mat4
	// projection followed by a vec4 color.
	uniformFloats     = 20
	uniformBlockBytes = uniformFloats * 4
	// Dynamic uniform offsets must be multiples of 256.
	uniformSlotBytes    = 256
	initialUniformSlots = 256
	copyRowAlignment    = 256
)

// uploadStrategy is how vertex data reaches device memory.
type uploadStrategy int

const (
	// uploadStaging writes into a mapped staging buffer and copies it on the
	// GPU timeline. Discrete-memory APIs prefer this.
	uploadStaging uploadStrategy = iota
	// uploadQueueWrite hands the data to the queue directly. Unified-memory
	// APIs need nothing more.
	uploadQueueWrite
)

func (s uploadStrategy) String() string {
	if s == uploadQueueWrite {
		return "queue-write"
	}
	return "staging"
}

func strategyFor(kind gfx.Backend) uploadStrategy {
	if kind == gfx.BackendMetal {
		return uploadQueueWrite
	}
	return uploadStaging
}

func backendType(kind gfx.Backend) wgpu.BackendType {
	switch kind {
	case gfx.BackendVulkan:
		return wgpu.BackendTypeVulkan
	case gfx.BackendMetal:
		return wgpu.BackendTypeMetal
	case gfx.BackendDX12:
		return wgpu.BackendTypeD3D12
	default:
		return wgpu.BackendTypeUndefined
	}
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}

func clampRect(r gfx.Rect, w, h int) gfx.Rect {
	x0, y0 := min(max(r.X, 0), w), min(max(r.Y, 0), h)
	x1, y1 := min(max(r.X+r.W, x0), w), min(max(r.Y+r.H, y0), h)
	return gfx.Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// topology maps a draw mode. Fans and loops have no WebGPU equivalent.
func topology(mode gfx.DrawMode) (wgpu.PrimitiveTopology, error) {
	switch mode {
	case gfx.Triangles:
		return wgpu.PrimitiveTopologyTriangleList, nil
	case gfx.TriangleStrip:
		return wgpu.PrimitiveTopologyTriangleStrip, nil
	case gfx.Lines:
		return wgpu.PrimitiveTopologyLineList, nil
	case gfx.LineStrip:
		return wgpu.PrimitiveTopologyLineStrip, nil
	case gfx.Points:
		return wgpu.PrimitiveTopologyPointList, nil
	}
	return 0, fmt.Errorf("%w: draw mode %s on webgpu", gfx.ErrUnsupported, mode)
}

func blendState(m gfx.BlendMode) *wgpu.BlendState {
	comp := func(src, dst wgpu.BlendFactor) wgpu.BlendComponent {
		return wgpu.BlendComponent{Operation: wgpu.BlendOperationAdd, SrcFactor: src, DstFactor: dst}
	}
	var color, alpha wgpu.BlendComponent
	switch m {
	case gfx.BlendAlpha:
		color = comp(wgpu.BlendFactorSrcAlpha, wgpu.BlendFactorOneMinusSrcAlpha)
		alpha = comp(wgpu.BlendFactorOne, wgpu.BlendFactorOneMinusSrcAlpha)
	case gfx.BlendAdditive:
		color = comp(wgpu.BlendFactorSrcAlpha, wgpu.BlendFactorOne)
		alpha = comp(wgpu.BlendFactorOne, wgpu.BlendFactorOne)
	case gfx.BlendMultiply:
		color = comp(wgpu.BlendFactorDst, wgpu.BlendFactorZero)
		alpha = comp(wgpu.BlendFactorDstAlpha, wgpu.BlendFactorZero)
	case gfx.BlendPremultiplied:
		color = comp(wgpu.BlendFactorOne, wgpu.BlendFactorOneMinusSrcAlpha)
		alpha = color
	default:
		return nil
	}
	return &wgpu.BlendState{Color: color, Alpha: alpha}
}

func vertexFormat(a gfx.VertexAttribute) (wgpu.VertexFormat, error) {
	if a.Components >= 1 && a.Components <= 4 {
		switch a.Type {
		case gfx.AttribFloat:
			return [...]wgpu.VertexFormat{
				wgpu.VertexFormatFloat32, wgpu.VertexFormatFloat32x2,
				wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x4,
			}[a.Components-1], nil
		case gfx.AttribInt:
			return [...]wgpu.VertexFormat{
				wgpu.VertexFormatSint32, wgpu.VertexFormatSint32x2,
				wgpu.VertexFormatSint32x3, wgpu.VertexFormatSint32x4,
			}[a.Components-1], nil
		case gfx.AttribUint:
			return [...]wgpu.VertexFormat{
				wgpu.VertexFormatUint32, wgpu.VertexFormatUint32x2,
				wgpu.VertexFormatUint32x3, wgpu.VertexFormatUint32x4,
			}[a.Components-1], nil
		}
	}
	return 0, fmt.Errorf("%w: vertex attribute %s (%d x type %d) on webgpu",
		gfx.ErrUnsupported, a.Name, a.Components, a.Type)
}

// shaderLocations are the @location slots the built-in WGSL shaders use.
var shaderLocations = map[string]uint32{
	"aPosition": 0,
	"aColor":    1,
	"aTexCoord": 2,
}

func vertexLayout(desc gfx.BufferDescriptor) (wgpu.VertexBufferLayout, error) {
	attrs := desc.Attributes()
	out := make([]wgpu.VertexAttribute, 0, len(attrs))
	for i, a := range attrs {
		f, err := vertexFormat(a)
		if err != nil {
			return wgpu.VertexBufferLayout{}, err
		}
		loc, ok := shaderLocations[a.Name]
		if !ok {
			loc = uint32(i)
		}
		out = append(out, wgpu.VertexAttribute{
			Format:         f,
			Offset:         uint64(a.Offset),
			ShaderLocation: loc,
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(desc.StrideInBytes()),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  out,
	}, nil
}

func textureFormat(f gfx.TextureFormat) wgpu.TextureFormat {
	switch f {
	case gfx.FormatR8:
		return wgpu.TextureFormatR8Unorm
	case gfx.FormatRG8:
		return wgpu.TextureFormatRG8Unorm
	case gfx.FormatR16F:
		return wgpu.TextureFormatR16Float
	case gfx.FormatRGBA16F:
		return wgpu.TextureFormatRGBA16Float
	case gfx.FormatRGBA32F:
		return wgpu.TextureFormatRGBA32Float
	default:
		return wgpu.TextureFormatRGBA8Unorm
	}
}

// gpuBytesPerPixel is the texel size on the GPU side. RGB8 is stored as RGBA8.
func gpuBytesPerPixel(f gfx.TextureFormat) int {
	if f == gfx.FormatRGB8 {
		return 4
	}
	return f.BytesPerPixel()
}

func expandRGB(src []byte) []byte {
	out := make([]byte, len(src)/3*4)
	for i, j := 0, 0; i+2 < len(src); i, j = i+3, j+4 {
		out[j], out[j+1], out[j+2], out[j+3] = src[i], src[i+1], src[i+2], 0xFF
	}
	return out
}

func filterMode(f gfx.Filter) wgpu.FilterMode {
	if f == gfx.FilterNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func addressMode(w gfx.Wrap) wgpu.AddressMode {
	switch w {
	case gfx.WrapRepeat:
		return wgpu.AddressModeRepeat
	case gfx.WrapMirror:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeClampToEdge
	}
}

// unpadRows copies rows of rowBytes from a buffer whose rows are stride bytes
// apart.
func unpadRows(dst, src []byte, rowBytes, stride, rows int) {
	for y := range rows {
		copy(dst[y*rowBytes:(y+1)*rowBytes], src[y*stride:y*stride+rowBytes])
	}
}

// packUniforms writes the values the shared block knows about into block.
// Other names are ignored; the WGSL shaders declare only these two.
func packUniforms(block *[uniformFloats]float32, name string, v gfx.UniformValue) bool {
	switch {
	case name == "uProjection" && v.Kind == gfx.UniformMat4:
		copy(block[0:16], v.F[:16])
	case name == "uColor" && v.Kind == gfx.UniformVec4:
		copy(block[16:20], v.F[:4])
	default:
		return false
	}
	return true
}
