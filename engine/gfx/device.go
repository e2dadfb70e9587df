package gfx

import "github.com/hubastard/chartgfx/engine/colors"

// Surface is whatever a device renders into. Backends type-assert it for the
// native hooks they need (a current GL context, a WebGPU surface descriptor).
// A nil Surface asks for an offscreen device where the backend supports it.
type Surface interface {
	FramebufferSize() (int, int)
}

// Offscreen is a fixed-size Surface with no window, for headless rendering
// and ReadPixels.
type Offscreen struct {
	Width, Height int
}

func (o Offscreen) FramebufferSize() (int, int) { return o.Width, o.Height }

// Device owns the native context and the current draw state. All methods must
// be called from the render thread.
//
// CreateBuffer, CreateShader and CreateTexture never fail: when the native
// context is not ready the returned resource reports IsInitialized() == false
// and creates its native object on first use once the context exists.
type Device interface {
	Initialize() error
	Dispose()
	IsInitialized() bool
	Backend() Backend

	BeginFrame() error
	EndFrame() error

	SetViewport(x, y, w, h int)
	Viewport() Rect
	SetScissor(enabled bool, r Rect)
	SetBlendMode(m BlendMode)
	BlendMode() BlendMode
	SetLineWidth(w float32)
	Clear(c colors.Color)

	CreateShader(src ShaderSource) Shader
	CreateBuffer(desc BufferDescriptor) Buffer
	CreateTexture(desc TextureDescriptor) Texture
	CreatePipeline(shader Shader, desc BufferDescriptor, mode DrawMode, blend BlendMode) (Pipeline, error)

	// CurrentShader is the shader most recently bound on this device.
	CurrentShader() Shader

	MaxTextureSize() int
	RendererInfo() string

	// ReadPixels copies the current frame as tightly packed RGBA8 rows,
	// top row first, into dst. dst must hold Viewport().W*Viewport().H*4 bytes.
	ReadPixels(dst []byte) error
}

// Buffer is a vertex buffer of interleaved floats laid out by its descriptor.
type Buffer interface {
	// Upload replaces the buffer contents with data[offset:offset+count].
	Upload(data []float32, offset, count int) error
	Draw(mode DrawMode) error
	DrawRange(mode DrawMode, first, count int) error

	VertexCount() int
	SetVertexCount(n int)
	// Capacity is measured in floats.
	Capacity() int
	Descriptor() BufferDescriptor

	Dispose()
	IsInitialized() bool
}

// Shader is a compiled program. Uniform setters only stage values; they reach
// the GPU on FlushUniforms, which buffers call once per draw.
type Shader interface {
	Name() string
	State() ShaderState
	IsValid() bool

	Bind() error
	Unbind()

	SetUniform1i(name string, v int32)
	SetUniform1f(name string, x float32)
	SetUniform2f(name string, x, y float32)
	SetUniform3f(name string, x, y, z float32)
	SetUniform4f(name string, x, y, z, w float32)
	SetUniformMatrix4(name string, m [16]float32)
	SetUniformColor(name string, c colors.Color)
	FlushUniforms() error

	Dispose()
	IsInitialized() bool
}

// Texture is a 2D image resource.
type Texture interface {
	Descriptor() TextureDescriptor
	Width() int
	Height() int

	// Upload replaces the whole image. pixels must match the descriptor.
	Upload(pixels []byte) error
	// Resize recreates the native image when the size changes. Contents are lost.
	Resize(w, h int) error
	Bind(unit int) error

	Dispose()
	IsInitialized() bool
}

// Pipeline is the immutable {shader, layout, topology, blend} bundle a device
// binds before drawing.
type Pipeline interface {
	Key() PipelineKey
	Bind() error
	Dispose()
}

// PipelineCacheUser is implemented by devices that resolve a pipeline at draw
// time when none matching the draw is bound. The owner of c hands it over so
// one key maps to one Pipeline on that device. Passing nil detaches it. The
// device never disposes a cache it was handed.
type PipelineCacheUser interface {
	UsePipelineCache(c *PipelineCache)
}
