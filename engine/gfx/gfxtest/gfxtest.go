// Package gfxtest provides a recording gfx.Device that needs no GPU. It
// follows the same lazy, fail-soft contract as the real backends: resources
// created while Ready is false stay uninitialized until first use after the
// context comes up.
package gfxtest

import (
	"fmt"

	"github.com/hubastard/chartgfx/engine/colors"
	"github.com/hubastard/chartgfx/engine/gfx"
)

// DrawCall records one non-empty draw.
type DrawCall struct {
	Shader   string
	Mode     gfx.DrawMode
	Blend    gfx.BlendMode
	First    int
	Count    int
	Pipeline *Pipeline
	Textures map[int]*Texture
}

// Device is a fake gfx.Device.
type Device struct {
	// Ready simulates the native context. Flip it to exercise lazy creation.
	Ready bool
	// FailCompile names shaders whose compilation fails.
	FailCompile map[string]bool
	// FailAlloc makes every native buffer allocation fail.
	FailAlloc bool

	Type        gfx.Backend
	Frames      int
	Clears      []colors.Color
	DrawCalls   []DrawCall
	Buffers     []*Buffer
	Shaders     []*Shader
	Textures    []*Texture
	Pipelines   []*Pipeline
	LineWidth   float32
	DisposeHits int

	initialized bool
	viewport    gfx.Rect
	scissor     gfx.Rect
	scissorOn   bool
	blend       gfx.BlendMode
	current     *Shader
	pipeline    *Pipeline
	cache       *gfx.PipelineCache
	bound       map[int]*Texture
	pixels      []byte
}

// NewDevice returns a ready, initialized device reporting type OpenGL.
func NewDevice() *Device {
	d := &Device{Ready: true, Type: gfx.BackendOpenGL, FailCompile: map[string]bool{}}
	_ = d.Initialize()
	return d
}

func (d *Device) Initialize() error {
	if !d.Ready {
		return gfx.ErrNotInitialized
	}
	d.initialized = true
	d.bound = map[int]*Texture{}
	return nil
}

func (d *Device) Dispose() {
	d.DisposeHits++
	d.initialized = false
}

func (d *Device) IsInitialized() bool  { return d.initialized }
func (d *Device) Backend() gfx.Backend { return d.Type }

func (d *Device) BeginFrame() error {
	if !d.initialized {
		return gfx.ErrNotInitialized
	}
	return nil
}

func (d *Device) EndFrame() error {
	d.Frames++
	d.pipeline = nil
	return nil
}

func (d *Device) SetViewport(x, y, w, h int) { d.viewport = gfx.Rect{X: x, Y: y, W: w, H: h} }
func (d *Device) Viewport() gfx.Rect         { return d.viewport }

func (d *Device) SetScissor(enabled bool, r gfx.Rect) { d.scissorOn, d.scissor = enabled, r }

// Scissor reports the last scissor state.
func (d *Device) Scissor() (bool, gfx.Rect) { return d.scissorOn, d.scissor }

func (d *Device) SetBlendMode(m gfx.BlendMode) { d.blend = m }
func (d *Device) BlendMode() gfx.BlendMode     { return d.blend }
func (d *Device) SetLineWidth(w float32)       { d.LineWidth = w }
func (d *Device) Clear(c colors.Color)         { d.Clears = append(d.Clears, c) }

func (d *Device) CreateShader(src gfx.ShaderSource) gfx.Shader {
	s := &Shader{dev: d, name: src.Name, Source: src}
	d.Shaders = append(d.Shaders, s)
	return s
}

func (d *Device) CreateBuffer(desc gfx.BufferDescriptor) gfx.Buffer {
	b := &Buffer{dev: d, BufferState: gfx.NewBufferState(desc)}
	d.Buffers = append(d.Buffers, b)
	b.ensure()
	return b
}

func (d *Device) CreateTexture(desc gfx.TextureDescriptor) gfx.Texture {
	t := &Texture{dev: d, desc: desc}
	d.Textures = append(d.Textures, t)
	return t
}

// UsePipelineCache mirrors the WebGPU device: draws without a matching bound
// pipeline resolve one from c.
func (d *Device) UsePipelineCache(c *gfx.PipelineCache) { d.cache = c }

// SharedPipelineCache reports the cache handed to UsePipelineCache.
func (d *Device) SharedPipelineCache() *gfx.PipelineCache { return d.cache }

func (d *Device) CreatePipeline(shader gfx.Shader, desc gfx.BufferDescriptor, mode gfx.DrawMode, blend gfx.BlendMode) (gfx.Pipeline, error) {
	s, ok := shader.(*Shader)
	if !ok {
		return nil, fmt.Errorf("gfxtest: foreign shader %T", shader)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	p := &Pipeline{dev: d, key: gfx.NewPipelineKey(shader, desc, mode, blend)}
	d.Pipelines = append(d.Pipelines, p)
	return p, nil
}

func (d *Device) CurrentShader() gfx.Shader {
	if d.current == nil {
		return nil
	}
	return d.current
}

func (d *Device) MaxTextureSize() int  { return 4096 }
func (d *Device) RendererInfo() string { return "gfxtest" }

// SetPixels sets what ReadPixels returns.
func (d *Device) SetPixels(p []byte) { d.pixels = p }

func (d *Device) ReadPixels(dst []byte) error {
	need := d.viewport.W * d.viewport.H * 4
	if len(dst) < need {
		return fmt.Errorf("gfxtest: need %d bytes, got %d", need, len(dst))
	}
	copy(dst, d.pixels)
	return nil
}

// Draws returns the number of recorded draw calls.
func (d *Device) Draws() int { return len(d.DrawCalls) }

// Buffer is a fake vertex buffer.
type Buffer struct {
	gfx.BufferState
	dev *Device

	Native       bool
	Data         []float32
	Uploads      int
	Resizes      int
	Allocs       int
	DisposeCalls int
}

func (b *Buffer) ensure() bool {
	if b.Native {
		return true
	}
	if !b.dev.Ready || b.dev.FailAlloc {
		return false
	}
	b.Native = true
	b.Allocs++
	return true
}

func (b *Buffer) IsInitialized() bool { return b.Native && !b.Disposed() }

func (b *Buffer) Upload(data []float32, offset, count int) error {
	plan, err := b.PlanUpload(data, offset, count)
	if err != nil {
		return err
	}
	if !b.ensure() {
		return gfx.ErrNotInitialized
	}
	if plan.Resize {
		b.Resizes++
	}
	b.Data = append(b.Data[:0], plan.Data...)
	b.Uploads++
	b.CommitUpload(plan)
	return nil
}

func (b *Buffer) Draw(mode gfx.DrawMode) error { return b.DrawRange(mode, 0, b.VertexCount()) }

func (b *Buffer) DrawRange(mode gfx.DrawMode, first, count int) error {
	first, count, ok := b.ClampRange(first, count)
	if !ok {
		return nil
	}
	if !b.IsInitialized() {
		return gfx.ErrNotInitialized
	}
	d := b.dev
	call := DrawCall{Mode: mode, Blend: d.blend, First: first, Count: count, Pipeline: d.pipeline}
	if d.current != nil && d.cache != nil {
		key := gfx.NewPipelineKey(d.current, b.Descriptor(), mode, d.blend)
		if call.Pipeline == nil || call.Pipeline.key != key {
			p, err := d.cache.Get(d.current, b.Descriptor(), mode, d.blend)
			if err != nil {
				return err
			}
			call.Pipeline = p.(*Pipeline)
		}
	}
	if d.current != nil {
		call.Shader = d.current.name
		if err := d.current.FlushUniforms(); err != nil {
			return err
		}
	}
	if len(d.bound) > 0 {
		call.Textures = make(map[int]*Texture, len(d.bound))
		for k, v := range d.bound {
			call.Textures[k] = v
		}
	}
	d.DrawCalls = append(d.DrawCalls, call)
	return nil
}

func (b *Buffer) Dispose() {
	if !b.MarkDisposed() {
		return
	}
	b.DisposeCalls++
	b.Native = false
}

// Shader is a fake shader with a real state machine and uniform staging.
type Shader struct {
	gfx.UniformSet
	dev    *Device
	name   string
	status gfx.ShaderStatus

	Source       gfx.ShaderSource
	Binds        int
	DisposeCalls int
	disposed     bool
}

func (s *Shader) compile() error {
	switch s.status.State() {
	case gfx.ShaderValid:
		return nil
	case gfx.ShaderInvalid:
		return gfx.ErrInvalidShader
	}
	if !s.dev.Ready {
		return gfx.ErrNotInitialized
	}
	s.status.Begin()
	if s.dev.FailCompile[s.name] {
		s.status.Fail(fmt.Errorf("gfxtest: %s failed to compile", s.name))
		return gfx.ErrInvalidShader
	}
	s.status.Succeed()
	return nil
}

func (s *Shader) Name() string           { return s.name }
func (s *Shader) State() gfx.ShaderState { return s.status.State() }
func (s *Shader) IsValid() bool          { return s.status.Valid() }
func (s *Shader) IsInitialized() bool    { return s.status.Valid() && !s.disposed }

func (s *Shader) Bind() error {
	if s.disposed {
		return gfx.ErrDisposed
	}
	if err := s.compile(); err != nil {
		return err
	}
	s.Binds++
	s.dev.current = s
	return nil
}

func (s *Shader) Unbind() {
	if s.dev.current == s {
		s.dev.current = nil
	}
}

// FlushUniforms drains staged values. FlushCount tracks calls.
func (s *Shader) FlushUniforms() error {
	s.Drain(func(string, gfx.UniformValue) {})
	return nil
}

func (s *Shader) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.DisposeCalls++
	s.Unbind()
}

// Texture is a fake 2D texture.
type Texture struct {
	dev  *Device
	desc gfx.TextureDescriptor

	Native       bool
	Pixels       []byte
	Uploads      int
	Recreations  int
	DisposeCalls int
	disposed     bool
}

func (t *Texture) Descriptor() gfx.TextureDescriptor { return t.desc }
func (t *Texture) Width() int                        { return t.desc.Width }
func (t *Texture) Height() int                       { return t.desc.Height }
func (t *Texture) IsInitialized() bool               { return t.Native && !t.disposed }

func (t *Texture) Upload(pixels []byte) error {
	if t.disposed {
		return gfx.ErrDisposed
	}
	if len(pixels) != t.desc.ByteSize() {
		return fmt.Errorf("gfxtest: texture upload of %d bytes, want %d", len(pixels), t.desc.ByteSize())
	}
	if !t.dev.Ready {
		return gfx.ErrNotInitialized
	}
	t.Native = true
	t.Pixels = append(t.Pixels[:0], pixels...)
	t.Uploads++
	return nil
}

func (t *Texture) Resize(w, h int) error {
	if w == t.desc.Width && h == t.desc.Height {
		return nil
	}
	t.desc.Width, t.desc.Height = w, h
	if t.Native {
		t.Recreations++
	}
	t.Native = false
	t.Pixels = nil
	return nil
}

func (t *Texture) Bind(unit int) error {
	if !t.IsInitialized() {
		return gfx.ErrNotInitialized
	}
	if t.dev.bound == nil {
		t.dev.bound = map[int]*Texture{}
	}
	t.dev.bound[unit] = t
	return nil
}

func (t *Texture) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.DisposeCalls++
	for k, v := range t.dev.bound {
		if v == t {
			delete(t.dev.bound, k)
		}
	}
}

// Pipeline is a fake pipeline.
type Pipeline struct {
	dev          *Device
	key          gfx.PipelineKey
	Binds        int
	DisposeCalls int
}

func (p *Pipeline) Key() gfx.PipelineKey { return p.key }

func (p *Pipeline) Bind() error {
	p.Binds++
	p.dev.pipeline = p
	p.dev.blend = p.key.Blend
	return nil
}

func (p *Pipeline) Dispose() { p.DisposeCalls++ }
