package wgpubackend

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/hubastard/chartgfx/engine/gfx"
)

// Texture is a sampled 2D texture. Only texture unit 0 exists on this backend;
// it maps to bind group 1 of textured shaders.
type Texture struct {
	dev      *Device
	desc     gfx.TextureDescriptor
	native   *wgpu.Texture
	view     *wgpu.TextureView
	sampler  *wgpu.Sampler
	group    *wgpu.BindGroup
	disposed bool
}

func (t *Texture) Descriptor() gfx.TextureDescriptor { return t.desc }
func (t *Texture) Width() int                        { return t.desc.Width }
func (t *Texture) Height() int                       { return t.desc.Height }
func (t *Texture) IsInitialized() bool               { return t.native != nil && !t.disposed }

func (t *Texture) ensure() error {
	if t.native != nil {
		return nil
	}
	if !t.dev.initialized {
		return gfx.ErrNotInitialized
	}
	d := t.dev.device
	tex, err := d.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          wgpu.Extent3D{Width: uint32(t.desc.Width), Height: uint32(t.desc.Height), DepthOrArrayLayers: 1},
		Format:        textureFormat(t.desc.Format),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("wgpu: texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("wgpu: texture view: %w", err)
	}
	samp, err := d.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  addressMode(t.desc.WrapS),
		AddressModeV:  addressMode(t.desc.WrapT),
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filterMode(t.desc.MagFilter),
		MinFilter:     filterMode(t.desc.MinFilter),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return fmt.Errorf("wgpu: sampler: %w", err)
	}
	t.native, t.view, t.sampler = tex, view, samp
	return nil
}

// Upload replaces the whole image. RGB8 data is widened to RGBA8.
func (t *Texture) Upload(pixels []byte) error {
	if t.disposed {
		return gfx.ErrDisposed
	}
	if len(pixels) != t.desc.ByteSize() {
		return fmt.Errorf("wgpu: texture upload of %d bytes, want %d", len(pixels), t.desc.ByteSize())
	}
	if err := t.ensure(); err != nil {
		return err
	}
	if t.desc.Format == gfx.FormatRGB8 {
		pixels = expandRGB(pixels)
	}
	w, h := uint32(t.desc.Width), uint32(t.desc.Height)
	t.dev.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: t.native, Aspect: wgpu.TextureAspectAll},
		pixels,
		&wgpu.TextureDataLayout{
			BytesPerRow:  w * uint32(gpuBytesPerPixel(t.desc.Format)),
			RowsPerImage: h,
		},
		&wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	return nil
}

func (t *Texture) Resize(w, h int) error {
	if t.disposed {
		return gfx.ErrDisposed
	}
	if w == t.desc.Width && h == t.desc.Height {
		return nil
	}
	if w <= 0 || h <= 0 || max(w, h) > t.dev.MaxTextureSize() {
		return fmt.Errorf("wgpu: invalid texture size %dx%d", w, h)
	}
	t.desc.Width, t.desc.Height = w, h
	t.release()
	return nil
}

func (t *Texture) Bind(unit int) error {
	if unit != 0 {
		return fmt.Errorf("%w: texture unit %d on webgpu", gfx.ErrUnsupported, unit)
	}
	if !t.IsInitialized() {
		return gfx.ErrNotInitialized
	}
	t.dev.bound = t
	return nil
}

func (t *Texture) bindGroup() (*wgpu.BindGroup, error) {
	if t.group != nil {
		return t.group, nil
	}
	g, err := t.dev.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "texture",
		Layout: t.dev.textureLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: t.view},
			{Binding: 1, Sampler: t.sampler},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: texture bind group: %w", err)
	}
	t.group = g
	return g, nil
}

func (t *Texture) release() {
	d := t.dev
	if t.group != nil {
		d.deferRelease(t.group)
	}
	if t.sampler != nil {
		d.deferRelease(t.sampler)
	}
	if t.view != nil {
		d.deferRelease(t.view)
	}
	if t.native != nil {
		d.deferRelease(t.native)
	}
	t.group, t.sampler, t.view, t.native = nil, nil, nil, nil
	if d.bound == t {
		d.bound = nil
	}
}

func (t *Texture) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.release()
}
