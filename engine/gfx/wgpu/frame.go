package wgpubackend

import (
	"fmt"
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/hubastard/chartgfx/engine/gfx"
)

// BeginFrame acquires the render target and opens a command encoder. The
// render pass itself starts with the first draw or at EndFrame.
func (d *Device) BeginFrame() error {
	if !d.initialized {
		return gfx.ErrNotInitialized
	}
	if d.frame.open {
		return fmt.Errorf("wgpu: BeginFrame called twice")
	}
	if err := d.resizeIfNeeded(); err != nil {
		return err
	}

	view := d.offscreenView
	if d.wsurface != nil {
		tex, err := d.wsurface.GetCurrentTexture()
		if err != nil {
			return fmt.Errorf("wgpu: acquire surface texture: %w", err)
		}
		v, err := tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return fmt.Errorf("wgpu: surface view: %w", err)
		}
		d.frame.surfaceTex, view = tex, v
	}
	enc, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		d.releaseFrameTarget()
		return fmt.Errorf("wgpu: command encoder: %w", err)
	}

	d.frame.view = view
	d.frame.encoder = enc
	d.frame.open = true
	d.clearPending = true
	d.ring.reset()
	return nil
}

func (d *Device) resizeIfNeeded() error {
	w, h := d.surfaceSize()
	if w == d.width && h == d.height {
		return nil
	}
	d.width, d.height = w, h
	d.viewport = gfx.Rect{W: w, H: h}
	if d.wsurface != nil {
		d.configureSurface()
		return nil
	}
	d.releaseOffscreen()
	return d.createOffscreen()
}

func (d *Device) releaseFrameTarget() {
	if d.frame.surfaceTex == nil {
		return
	}
	if d.frame.view != nil {
		d.frame.view.Release()
	}
	d.frame.surfaceTex.Release()
	d.frame.surfaceTex, d.frame.view = nil, nil
}

func (d *Device) ensurePass() {
	if d.frame.pass != nil {
		return
	}
	load := wgpu.LoadOpLoad
	if d.clearPending {
		load = wgpu.LoadOpClear
	}
	c := d.clearColor
	d.frame.pass = d.frame.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    d.frame.view,
			LoadOp:  load,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3]),
			},
		}},
	})
	d.clearPending = false
	d.applyViewport()
	d.applyScissor()
}

func (d *Device) applyViewport() {
	v := clampRect(d.viewport, d.width, d.height)
	d.frame.pass.SetViewport(float32(v.X), float32(v.Y), float32(v.W), float32(v.H), 0, 1)
}

func (d *Device) applyScissor() {
	r := gfx.Rect{W: d.width, H: d.height}
	if d.scissorOn {
		r = clampRect(d.scissor, d.width, d.height)
	}
	d.frame.pass.SetScissorRect(uint32(r.X), uint32(r.Y), uint32(r.W), uint32(r.H))
}

// EndFrame finishes the pass, writes the frame's uniforms, submits and
// presents.
func (d *Device) EndFrame() error {
	if !d.initialized {
		return gfx.ErrNotInitialized
	}
	if !d.frame.open {
		return nil
	}
	d.ensurePass()
	d.frame.pass.End()
	d.frame.pass.Release()
	d.frame.pass = nil
	d.ring.flush()

	cb, err := d.frame.encoder.Finish(nil)
	if err == nil {
		d.queue.Submit(cb)
		cb.Release()
		if d.wsurface != nil {
			d.wsurface.Present()
		}
	}
	d.frame.encoder.Release()
	d.frame.encoder = nil
	d.releaseFrameTarget()
	d.frame.view = nil
	d.frame.open = false
	d.pipeline = nil

	for _, r := range d.releases {
		r.Release()
	}
	clear(d.releases)
	d.releases = d.releases[:0]

	if err != nil {
		return fmt.Errorf("wgpu: finish frame: %w", err)
	}
	return nil
}

// draw records one draw of buf with the current shader. The bound pipeline is
// used when it matches; otherwise the device's own cache supplies one.
func (d *Device) draw(buf *Buffer, mode gfx.DrawMode, first, count int) error {
	if !d.frame.open {
		return errOutsideFrame
	}
	s := d.current
	if s == nil {
		return gfx.ErrNoPipeline
	}
	key := gfx.NewPipelineKey(s, buf.Descriptor(), mode, d.blend)
	p := d.pipeline
	if p == nil || p.key != key {
		got, err := d.pipelines().Get(s, buf.Descriptor(), mode, d.blend)
		if err != nil {
			return err
		}
		wp, ok := got.(*Pipeline)
		if !ok {
			return fmt.Errorf("wgpu: foreign pipeline %T", got)
		}
		p = wp
	}
	var texGroup *wgpu.BindGroup
	if s.textured {
		if d.bound == nil || !d.bound.IsInitialized() {
			return fmt.Errorf("wgpu: shader %s samples a texture but none is bound", s.Name())
		}
		g, err := d.bound.bindGroup()
		if err != nil {
			return err
		}
		texGroup = g
	}

	if err := s.FlushUniforms(); err != nil {
		return err
	}
	offset, group, err := d.ring.push(&s.block)
	if err != nil {
		return err
	}

	d.ensurePass()
	pass := d.frame.pass
	pass.SetPipeline(p.native)
	pass.SetBindGroup(0, group, []uint32{offset})
	if texGroup != nil {
		pass.SetBindGroup(1, texGroup, nil)
	}
	pass.SetVertexBuffer(0, buf.native, 0, wgpu.WholeSize)
	pass.Draw(uint32(count), 1, uint32(first), 0)
	return nil
}

// ReadPixels copies the offscreen target into dst as RGBA8, top row first.
// Call it after EndFrame. Window surfaces cannot be read back.
func (d *Device) ReadPixels(dst []byte) error {
	if !d.initialized {
		return gfx.ErrNotInitialized
	}
	if d.offscreen == nil {
		return fmt.Errorf("%w: read back from a window surface", gfx.ErrUnsupported)
	}
	if d.frame.open {
		return fmt.Errorf("wgpu: ReadPixels during an open frame")
	}
	v := clampRect(d.viewport, d.width, d.height)
	row := v.W * 4
	if len(dst) < row*v.H {
		return fmt.Errorf("wgpu: read pixels needs %d bytes, got %d", row*v.H, len(dst))
	}
	padded := alignUp(row, copyRowAlignment)
	size := uint64(padded * v.H)

	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "readback",
		Size:  size,
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: readback buffer: %w", err)
	}
	defer buf.Release()

	enc, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("wgpu: readback encoder: %w", err)
	}
	enc.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture: d.offscreen,
			Origin:  wgpu.Origin3D{X: uint32(v.X), Y: uint32(v.Y)},
			Aspect:  wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyBuffer{
			Buffer: buf,
			Layout: wgpu.TextureDataLayout{BytesPerRow: uint32(padded), RowsPerImage: uint32(v.H)},
		},
		&wgpu.Extent3D{Width: uint32(v.W), Height: uint32(v.H), DepthOrArrayLayers: 1},
	)
	cb, err := enc.Finish(nil)
	enc.Release()
	if err != nil {
		return fmt.Errorf("wgpu: readback finish: %w", err)
	}
	d.queue.Submit(cb)
	cb.Release()

	var status wgpu.BufferMapAsyncStatus
	if err := buf.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	}); err != nil {
		return fmt.Errorf("wgpu: map readback: %w", err)
	}
	d.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return fmt.Errorf("wgpu: map readback: status %s", status.String())
	}
	src := buf.GetMappedRange(0, uint(size))
	unpadRows(dst, src, row, padded, v.H)
	buf.Unmap()
	return nil
}

// uniformRing packs one uniform block per draw into a buffer addressed with
// dynamic offsets. It is written to the GPU once per frame. When it fills up
// mid-frame the full buffer is written immediately and a larger one replaces
// it; the old one is released after submission.
type uniformRing struct {
	dev     *Device
	buf     *wgpu.Buffer
	group   *wgpu.BindGroup
	slots   int
	used    int
	staging []byte
}

func (r *uniformRing) grow(slots int) error {
	d := r.dev
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "uniform ring",
		Size:  uint64(slots * uniformSlotBytes),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: uniform ring: %w", err)
	}
	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "uniform ring",
		Layout: d.uniformLayout,
		Entries: []wgpu.BindGroupEntry{{
			Binding: 0,
			Buffer:  buf,
			Offset:  0,
			Size:    uniformBlockBytes,
		}},
	})
	if err != nil {
		buf.Release()
		return fmt.Errorf("wgpu: uniform bind group: %w", err)
	}
	if r.buf != nil {
		d.deferRelease(r.group)
		d.deferRelease(r.buf)
		gfx.Logger().Debug("uniform ring grown", slog.Int("from", r.slots), slog.Int("to", slots))
	}
	r.buf, r.group, r.slots = buf, group, slots
	r.staging = make([]byte, slots*uniformSlotBytes)
	r.used = 0
	return nil
}

func (r *uniformRing) reset() { r.used = 0 }

func (r *uniformRing) push(block *[uniformFloats]float32) (uint32, *wgpu.BindGroup, error) {
	if r.used == r.slots {
		r.flush()
		if err := r.grow(r.slots * 2); err != nil {
			return 0, nil, err
		}
	}
	off := r.used * uniformSlotBytes
	copy(r.staging[off:off+uniformBlockBytes], wgpu.ToBytes(block[:]))
	r.used++
	return uint32(off), r.group, nil
}

func (r *uniformRing) flush() {
	if r.used == 0 {
		return
	}
	r.dev.queue.WriteBuffer(r.buf, 0, r.staging[:r.used*uniformSlotBytes])
}

func (r *uniformRing) release() {
	if r.group != nil {
		r.group.Release()
	}
	if r.buf != nil {
		r.buf.Release()
	}
	r.buf, r.group, r.slots, r.used = nil, nil, 0, 0
}
