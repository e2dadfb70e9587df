package wgpubackend

import (
	"fmt"
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/hubastard/chartgfx/engine/gfx"
)

// Buffer is a WebGPU vertex buffer. Uploads recorded during a frame are
// visible to every draw of that frame, so a buffer should be uploaded at most
// once per frame.
//
// With the staging strategy each buffer owns one host-visible staging buffer
// sized like the vertex buffer. It is remapped after every copy and reused by
// the next upload.
type Buffer struct {
	gfx.BufferState
	dev    *Device
	native *wgpu.Buffer

	staging      *wgpu.Buffer
	stagingState stagingState
}

type stagingState uint8

const (
	stagingNone stagingState = iota
	stagingMapped
	stagingPending // remap requested, completes on the next device poll
	stagingLost
)

// reuseStaging reports whether a staging buffer of size have in state st can
// take an upload of need bytes.
func reuseStaging(st stagingState, have, need uint64) bool {
	return (st == stagingMapped || st == stagingPending) && have >= need
}

func (b *Buffer) IsInitialized() bool { return b.native != nil && !b.Disposed() }

func (b *Buffer) ensure() error {
	if b.native != nil {
		return nil
	}
	if b.Disposed() {
		return gfx.ErrDisposed
	}
	if !b.dev.initialized {
		return gfx.ErrNotInitialized
	}
	nb, err := b.allocate(b.Capacity())
	if err != nil {
		return err
	}
	b.native = nb
	return nil
}

func (b *Buffer) allocate(floats int) (*wgpu.Buffer, error) {
	nb, err := b.dev.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "vertex buffer",
		Size:  uint64(max(floats, 1) * 4),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: vertex buffer: %w", err)
	}
	return nb, nil
}

func (b *Buffer) Upload(data []float32, offset, count int) error {
	plan, err := b.PlanUpload(data, offset, count)
	if err != nil {
		return err
	}
	if err := b.ensure(); err != nil {
		return err
	}
	if plan.Resize {
		nb, err := b.allocate(plan.NewCapacity)
		if err != nil {
			return err
		}
		gfx.Logger().Debug("wgpu buffer resize",
			slog.Int("from", b.Capacity()), slog.Int("to", plan.NewCapacity))
		b.dev.deferRelease(b.native)
		b.native = nb
		b.dropStaging()
	}
	if len(plan.Data) > 0 {
		if err := b.write(wgpu.ToBytes(plan.Data)); err != nil {
			return err
		}
	}
	b.CommitUpload(plan)
	return nil
}

func (b *Buffer) write(raw []byte) error {
	d := b.dev
	if d.strategy == uploadQueueWrite {
		d.queue.WriteBuffer(b.native, 0, raw)
		return nil
	}

	size := uint64(len(raw))
	staging, err := b.mappedStaging(size)
	if err != nil {
		return err
	}
	copy(staging.GetMappedRange(0, uint(len(raw))), raw)
	if err := staging.Unmap(); err != nil {
		b.dropStaging()
		return fmt.Errorf("wgpu: staging unmap: %w", err)
	}
	b.stagingState = stagingNone

	enc, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		b.dropStaging()
		return fmt.Errorf("wgpu: upload encoder: %w", err)
	}
	enc.CopyBufferToBuffer(staging, 0, b.native, 0, size)
	cb, err := enc.Finish(nil)
	enc.Release()
	if err != nil {
		b.dropStaging()
		return fmt.Errorf("wgpu: upload finish: %w", err)
	}
	d.queue.Submit(cb)
	cb.Release()
	b.remapStaging()
	return nil
}

// mappedStaging returns the staging buffer mapped for writing, creating or
// growing it when needed. A pending remap is completed by polling the device.
func (b *Buffer) mappedStaging(need uint64) (*wgpu.Buffer, error) {
	d := b.dev
	if b.staging != nil && !reuseStaging(b.stagingState, b.staging.GetSize(), need) {
		b.dropStaging()
	}
	if b.stagingState == stagingPending {
		d.device.Poll(true, nil)
		if b.stagingState != stagingMapped {
			b.dropStaging()
		}
	}
	if b.staging != nil {
		return b.staging, nil
	}

	sb, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            "vertex staging",
		Size:             max(need, uint64(b.Capacity())*4),
		Usage:            wgpu.BufferUsageMapWrite | wgpu.BufferUsageCopySrc,
		MappedAtCreation: true,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: staging buffer: %w", err)
	}
	b.staging, b.stagingState = sb, stagingMapped
	return sb, nil
}

// remapStaging asks for the staging buffer to be mapped again once the copy
// that reads it has executed.
func (b *Buffer) remapStaging() {
	sb := b.staging
	b.stagingState = stagingPending
	err := sb.MapAsync(wgpu.MapModeWrite, 0, sb.GetSize(), func(st wgpu.BufferMapAsyncStatus) {
		if b.staging != sb {
			return
		}
		if st == wgpu.BufferMapAsyncStatusSuccess {
			b.stagingState = stagingMapped
			return
		}
		gfx.Logger().Warn("wgpu staging remap failed", slog.String("status", st.String()))
		b.stagingState = stagingLost
	})
	if err != nil {
		gfx.Logger().Warn("wgpu staging remap failed", slog.Any("err", err))
		b.stagingState = stagingLost
	}
}

func (b *Buffer) dropStaging() {
	if b.staging != nil {
		b.dev.deferRelease(b.staging)
		b.staging = nil
	}
	b.stagingState = stagingNone
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
	return b.dev.draw(b, mode, first, count)
}

func (b *Buffer) Dispose() {
	if !b.MarkDisposed() {
		return
	}
	if b.native != nil {
		b.dev.deferRelease(b.native)
		b.native = nil
	}
	b.dropStaging()
}
