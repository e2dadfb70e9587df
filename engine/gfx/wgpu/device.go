// Package wgpubackend implements gfx.Device on WebGPU. One implementation
// serves the Vulkan, Metal and DX12 backend types; they differ in the native
// API requested from the adapter and in how vertex data reaches the GPU.
package wgpubackend

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/hubastard/chartgfx/engine/colors"
	"github.com/hubastard/chartgfx/engine/gfx"
)

// SurfaceSource is implemented by windows that can present WebGPU frames.
type SurfaceSource interface {
	WGPUSurfaceDescriptor() *wgpu.SurfaceDescriptor
}

var errOutsideFrame = errors.New("wgpu: draw outside BeginFrame/EndFrame")

type releaser interface{ Release() }

type frameState struct {
	open       bool
	encoder    *wgpu.CommandEncoder
	pass       *wgpu.RenderPassEncoder
	surfaceTex *wgpu.Texture
	view       *wgpu.TextureView
}

// Device is a WebGPU gfx.Device for one surface. Render thread only.
type Device struct {
	kind     gfx.Backend
	strategy uploadStrategy
	surface  gfx.Surface

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	wsurface *wgpu.Surface
	format   wgpu.TextureFormat
	width    int
	height   int

	offscreen     *wgpu.Texture
	offscreenView *wgpu.TextureView

	uniformLayout *wgpu.BindGroupLayout
	textureLayout *wgpu.BindGroupLayout
	layouts       map[bool]*wgpu.PipelineLayout
	ring          uniformRing

	frame        frameState
	clearColor   colors.Color
	clearPending bool
	viewport     gfx.Rect
	scissor      gfx.Rect
	scissorOn    bool
	blend        gfx.BlendMode
	current      *Shader
	pipeline     *Pipeline
	bound        *Texture
	shared       *gfx.PipelineCache // owned by the resource manager
	internal     *gfx.PipelineCache // used until a cache is shared
	releases     []releaser

	initialized bool
}

// NewDevice returns an uninitialized device. kind selects the native API and
// the upload strategy. A surface without a WebGPU descriptor (including nil
// and gfx.Offscreen) renders into an offscreen texture.
func NewDevice(kind gfx.Backend, surface gfx.Surface) *Device {
	d := &Device{
		kind:       kind,
		strategy:   strategyFor(kind),
		surface:    surface,
		blend:      gfx.BlendAlpha,
		clearColor: colors.Black,
		layouts:    map[bool]*wgpu.PipelineLayout{},
	}
	d.ring.dev = d
	d.internal = gfx.NewPipelineCache(d.CreatePipeline)
	return d
}

// UsePipelineCache makes draws without a matching bound pipeline resolve it
// from c. Pass nil to fall back to the device's own cache.
func (d *Device) UsePipelineCache(c *gfx.PipelineCache) { d.shared = c }

func (d *Device) pipelines() *gfx.PipelineCache {
	if d.shared != nil {
		return d.shared
	}
	return d.internal
}

func (d *Device) surfaceSize() (int, int) {
	if d.surface == nil {
		return 800, 600
	}
	w, h := d.surface.FramebufferSize()
	return max(w, 1), max(h, 1)
}

func (d *Device) Initialize() error {
	if d.initialized {
		return nil
	}
	d.instance = wgpu.CreateInstance(nil)
	if src, ok := d.surface.(SurfaceSource); ok {
		d.wsurface = d.instance.CreateSurface(src.WGPUSurfaceDescriptor())
	}

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: d.wsurface,
		BackendType:       backendType(d.kind),
	})
	if err != nil {
		return fmt.Errorf("wgpu %s: request adapter: %w", d.kind, err)
	}
	d.adapter = adapter

	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "chartgfx " + d.kind.String(),
		RequiredLimits: &wgpu.RequiredLimits{Limits: wgpu.DefaultLimits()},
	})
	if err != nil {
		return fmt.Errorf("wgpu %s: request device: %w", d.kind, err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	d.width, d.height = d.surfaceSize()
	if d.wsurface != nil {
		d.configureSurface()
	} else {
		d.format = wgpu.TextureFormatRGBA8Unorm
		if err := d.createOffscreen(); err != nil {
			return err
		}
	}
	if err := d.createLayouts(); err != nil {
		return err
	}
	if err := d.ring.grow(initialUniformSlots); err != nil {
		return err
	}

	d.initialized = true
	d.viewport = gfx.Rect{W: d.width, H: d.height}
	gfx.Logger().Info("webgpu device initialized",
		slog.String("backend", d.kind.String()),
		slog.String("upload", d.strategy.String()),
		slog.Bool("offscreen", d.wsurface == nil),
		slog.Int("w", d.width), slog.Int("h", d.height))
	return nil
}

func (d *Device) configureSurface() {
	caps := d.wsurface.GetCapabilities(d.adapter)
	d.format = caps.Formats[0]
	d.wsurface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      d.format,
		Width:       uint32(d.width),
		Height:      uint32(d.height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	})
}

func (d *Device) createOffscreen() error {
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "offscreen target",
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc | wgpu.TextureUsageTextureBinding,
		Dimension:     wgpu.TextureDimension2D,
		Size:          wgpu.Extent3D{Width: uint32(d.width), Height: uint32(d.height), DepthOrArrayLayers: 1},
		Format:        d.format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("wgpu: offscreen target: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("wgpu: offscreen view: %w", err)
	}
	d.offscreen, d.offscreenView = tex, view
	return nil
}

func (d *Device) createLayouts() error {
	ul, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "uniforms",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: true,
				MinBindingSize:   uniformBlockBytes,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("wgpu: uniform layout: %w", err)
	}
	tl, err := d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "texture",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: texture layout: %w", err)
	}
	d.uniformLayout, d.textureLayout = ul, tl

	for _, textured := range []bool{false, true} {
		groups := []*wgpu.BindGroupLayout{ul}
		if textured {
			groups = append(groups, tl)
		}
		pl, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
			Label:            fmt.Sprintf("layout textured=%t", textured),
			BindGroupLayouts: groups,
		})
		if err != nil {
			return fmt.Errorf("wgpu: pipeline layout: %w", err)
		}
		d.layouts[textured] = pl
	}
	return nil
}

func (d *Device) releaseOffscreen() {
	if d.offscreenView != nil {
		d.offscreenView.Release()
		d.offscreenView = nil
	}
	if d.offscreen != nil {
		d.offscreen.Release()
		d.offscreen = nil
	}
}

// deferRelease frees obj after the current frame is submitted.
func (d *Device) deferRelease(obj releaser) {
	if obj == nil {
		return
	}
	if !d.frame.open {
		obj.Release()
		return
	}
	d.releases = append(d.releases, obj)
}

func (d *Device) Dispose() {
	if !d.initialized {
		return
	}
	if d.frame.open {
		_ = d.EndFrame()
	}
	d.internal.DisposeAll()
	d.ring.release()
	for _, pl := range d.layouts {
		pl.Release()
	}
	clear(d.layouts)
	d.textureLayout.Release()
	d.uniformLayout.Release()
	d.textureLayout, d.uniformLayout = nil, nil
	d.releaseOffscreen()
	if d.wsurface != nil {
		d.wsurface.Release()
		d.wsurface = nil
	}
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
	d.current, d.pipeline, d.bound = nil, nil, nil
	d.initialized = false
}

func (d *Device) IsInitialized() bool  { return d.initialized }
func (d *Device) Backend() gfx.Backend { return d.kind }

func (d *Device) SetViewport(x, y, w, h int) {
	d.viewport = gfx.Rect{X: x, Y: y, W: w, H: h}
	if d.frame.pass != nil {
		d.applyViewport()
	}
}

func (d *Device) Viewport() gfx.Rect { return d.viewport }

func (d *Device) SetScissor(enabled bool, r gfx.Rect) {
	d.scissorOn, d.scissor = enabled, r
	if d.frame.pass != nil {
		d.applyScissor()
	}
}

func (d *Device) SetBlendMode(m gfx.BlendMode) { d.blend = m }
func (d *Device) BlendMode() gfx.BlendMode     { return d.blend }

// SetLineWidth is accepted for interface parity. WebGPU rasterizes lines one
// pixel wide.
func (d *Device) SetLineWidth(float32) {}

// Clear sets the color the next render pass clears to. Called mid-frame it
// ends the current pass so the clear takes effect.
func (d *Device) Clear(c colors.Color) {
	d.clearColor = c
	d.clearPending = true
	if d.frame.pass != nil {
		d.frame.pass.End()
		d.frame.pass.Release()
		d.frame.pass = nil
	}
}

func (d *Device) CreateShader(src gfx.ShaderSource) gfx.Shader {
	return &Shader{dev: d, src: src}
}

func (d *Device) CreateBuffer(desc gfx.BufferDescriptor) gfx.Buffer {
	b := &Buffer{dev: d, BufferState: gfx.NewBufferState(desc)}
	gfx.LogBufferAlloc(d.kind.String(), b.ensure())
	return b
}

func (d *Device) CreateTexture(desc gfx.TextureDescriptor) gfx.Texture {
	return &Texture{dev: d, desc: desc}
}

func (d *Device) CurrentShader() gfx.Shader {
	if d.current == nil {
		return nil
	}
	return d.current
}

func (d *Device) MaxTextureSize() int {
	return int(wgpu.DefaultLimits().MaxTextureDimension2D)
}

func (d *Device) RendererInfo() string {
	return fmt.Sprintf("webgpu/%s (%s upload)", d.kind, d.strategy)
}
