// Package glbackend implements gfx.Device on OpenGL 3.3 core.
package glbackend

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/hubastard/chartgfx/engine/colors"
	"github.com/hubastard/chartgfx/engine/gfx"
)

// contextSurface is implemented by windows that own a GL context.
type contextSurface interface {
	MakeContextCurrent()
}

// Device is the OpenGL gfx.Device. All calls must come from the thread that
// owns the context.
type Device struct {
	surface gfx.Surface

	initialized  bool
	info         string
	maxTexture   int
	lineRange    [2]float32
	viewport     gfx.Rect
	blend        gfx.BlendMode
	blendApplied bool
	current      *Shader
}

// NewDevice returns an uninitialized device for surface. Resources may be
// created before Initialize; they allocate on first use afterwards.
func NewDevice(surface gfx.Surface) *Device {
	return &Device{surface: surface, blend: gfx.BlendAlpha}
}

func (d *Device) Initialize() error {
	if d.initialized {
		return nil
	}
	if cs, ok := d.surface.(contextSurface); ok {
		cs.MakeContextCurrent()
	}
	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}

	d.info = gl.GoStr(gl.GetString(gl.RENDERER)) + " / " + gl.GoStr(gl.GetString(gl.VERSION))
	var maxTex int32
	gl.GetIntegerv(gl.MAX_TEXTURE_SIZE, &maxTex)
	d.maxTexture = int(maxTex)
	gl.GetFloatv(gl.ALIASED_LINE_WIDTH_RANGE, &d.lineRange[0])

	gl.Disable(gl.DEPTH_TEST)
	d.initialized = true
	d.applyBlend()
	if d.surface != nil {
		w, h := d.surface.FramebufferSize()
		d.SetViewport(0, 0, w, h)
	}

	gfx.Logger().Info("opengl device initialized",
		slog.String("renderer", d.info), slog.Int("max_texture", d.maxTexture))
	return nil
}

func (d *Device) Dispose() {
	if !d.initialized {
		return
	}
	gl.UseProgram(0)
	d.current = nil
	d.initialized = false
}

func (d *Device) IsInitialized() bool  { return d.initialized }
func (d *Device) Backend() gfx.Backend { return gfx.BackendOpenGL }

func (d *Device) BeginFrame() error {
	if !d.initialized {
		return gfx.ErrNotInitialized
	}
	if d.surface != nil {
		w, h := d.surface.FramebufferSize()
		if w != d.viewport.W || h != d.viewport.H {
			d.SetViewport(0, 0, w, h)
		}
	}
	return nil
}

func (d *Device) EndFrame() error {
	if !d.initialized {
		return gfx.ErrNotInitialized
	}
	if code := gl.GetError(); code != gl.NO_ERROR {
		gfx.Logger().Warn("gl error at end of frame", slog.String("code", fmt.Sprintf("0x%04x", code)))
	}
	return nil
}

func (d *Device) SetViewport(x, y, w, h int) {
	d.viewport = gfx.Rect{X: x, Y: y, W: w, H: h}
	if d.initialized {
		gl.Viewport(int32(x), int32(y), int32(w), int32(h))
	}
}

func (d *Device) Viewport() gfx.Rect { return d.viewport }

// SetScissor takes r with a top-left origin and converts to GL's bottom-left.
func (d *Device) SetScissor(enabled bool, r gfx.Rect) {
	if !d.initialized {
		return
	}
	if !enabled {
		gl.Disable(gl.SCISSOR_TEST)
		return
	}
	gl.Enable(gl.SCISSOR_TEST)
	y := d.viewport.H - r.Y - r.H
	gl.Scissor(int32(r.X), int32(y), int32(r.W), int32(r.H))
}

func (d *Device) SetBlendMode(m gfx.BlendMode) {
	if m == d.blend && d.blendApplied {
		return
	}
	d.blend = m
	d.applyBlend()
}

func (d *Device) applyBlend() {
	if !d.initialized {
		d.blendApplied = false
		return
	}
	if m := d.blend; m == gfx.BlendNone {
		gl.Disable(gl.BLEND)
	} else {
		src, dst := blendFactors(m)
		gl.Enable(gl.BLEND)
		gl.BlendFunc(src, dst)
	}
	d.blendApplied = true
}

func (d *Device) BlendMode() gfx.BlendMode { return d.blend }

// SetLineWidth clamps to the range the driver supports; core profiles often
// allow only 1.
func (d *Device) SetLineWidth(w float32) {
	if !d.initialized {
		return
	}
	w = min(max(w, d.lineRange[0]), max(d.lineRange[1], 1))
	gl.LineWidth(w)
}

func (d *Device) Clear(c colors.Color) {
	if !d.initialized {
		return
	}
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *Device) CreateShader(src gfx.ShaderSource) gfx.Shader {
	return &Shader{dev: d, src: src}
}

func (d *Device) CreateBuffer(desc gfx.BufferDescriptor) gfx.Buffer {
	b := &Buffer{dev: d, BufferState: gfx.NewBufferState(desc)}
	gfx.LogBufferAlloc(d.Backend().String(), b.ensure())
	return b
}

func (d *Device) CreateTexture(desc gfx.TextureDescriptor) gfx.Texture {
	return &Texture{dev: d, desc: desc}
}

func (d *Device) CreatePipeline(shader gfx.Shader, desc gfx.BufferDescriptor, mode gfx.DrawMode, blend gfx.BlendMode) (gfx.Pipeline, error) {
	s, ok := shader.(*Shader)
	if !ok {
		return nil, fmt.Errorf("gl: foreign shader %T", shader)
	}
	if err := s.compile(); err != nil {
		return nil, err
	}
	return &Pipeline{dev: d, shader: s, key: gfx.NewPipelineKey(shader, desc, mode, blend)}, nil
}

func (d *Device) CurrentShader() gfx.Shader {
	if d.current == nil {
		return nil
	}
	return d.current
}

func (d *Device) MaxTextureSize() int  { return d.maxTexture }
func (d *Device) RendererInfo() string { return d.info }

// ReadPixels reads the viewport back as RGBA8 with the top row first.
func (d *Device) ReadPixels(dst []byte) error {
	if !d.initialized {
		return gfx.ErrNotInitialized
	}
	w, h := d.viewport.W, d.viewport.H
	stride := w * 4
	if len(dst) < stride*h {
		return fmt.Errorf("gl: read pixels needs %d bytes, got %d", stride*h, len(dst))
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(int32(d.viewport.X), int32(d.viewport.Y), int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(dst))
	flipRows(dst[:stride*h], stride)
	return nil
}

func flipRows(p []byte, stride int) {
	tmp := make([]byte, stride)
	for top, bot := 0, len(p)-stride; top < bot; top, bot = top+stride, bot-stride {
		copy(tmp, p[top:top+stride])
		copy(p[top:top+stride], p[bot:bot+stride])
		copy(p[bot:bot+stride], tmp)
	}
}
