package glbackend

import (
	"fmt"
	"log/slog"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/hubastard/chartgfx/engine/gfx"
)

// Buffer is a VBO with its own VAO. Attribute pointers are matched by name to
// the program bound at draw time and respecified when that program changes.
type Buffer struct {
	gfx.BufferState
	dev *Device

	vao, vbo uint32
	program  uint32
	enabled  []uint32
}

func (b *Buffer) usage() uint32 {
	if b.Descriptor().Dynamic() {
		return gl.DYNAMIC_DRAW
	}
	return gl.STATIC_DRAW
}

func (b *Buffer) ensure() error {
	if b.vbo != 0 {
		return nil
	}
	if b.Disposed() {
		return gfx.ErrDisposed
	}
	if !b.dev.initialized {
		return gfx.ErrNotInitialized
	}
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, b.Capacity()*4, nil, b.usage())
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	if gl.GetError() == gl.OUT_OF_MEMORY {
		b.release()
		return fmt.Errorf("gl: vertex buffer of %d floats: out of memory", b.Capacity())
	}
	return nil
}

func (b *Buffer) IsInitialized() bool { return b.vbo != 0 && !b.Disposed() }

func (b *Buffer) Upload(data []float32, offset, count int) error {
	plan, err := b.PlanUpload(data, offset, count)
	if err != nil {
		return err
	}
	if err := b.ensure(); err != nil {
		return err
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	if plan.Resize {
		gfx.Logger().Debug("gl buffer resize",
			slog.Int("from", b.Capacity()), slog.Int("to", plan.NewCapacity))
		gl.BufferData(gl.ARRAY_BUFFER, plan.NewCapacity*4, nil, b.usage())
	}
	if len(plan.Data) > 0 {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(plan.Data)*4, gl.Ptr(plan.Data))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
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
	s := b.dev.current
	if s == nil || !s.IsValid() {
		return gfx.ErrNoPipeline
	}
	if err := s.FlushUniforms(); err != nil {
		return err
	}
	gl.BindVertexArray(b.vao)
	if b.program != s.program {
		b.bindAttributes(s)
	}
	gl.DrawArrays(drawModeGL(mode), int32(first), int32(count))
	gl.BindVertexArray(0)
	return nil
}

func (b *Buffer) bindAttributes(s *Shader) {
	for _, loc := range b.enabled {
		gl.DisableVertexAttribArray(loc)
	}
	b.enabled = b.enabled[:0]

	desc := b.Descriptor()
	stride := int32(desc.StrideInBytes())
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	for _, a := range desc.Attributes() {
		loc := s.attribLocation(a.Name)
		if loc < 0 {
			continue
		}
		l := uint32(loc)
		gl.EnableVertexAttribArray(l)
		gl.VertexAttribPointerWithOffset(l, int32(a.Components), attribTypeGL(a.Type), a.Normalized, stride, uintptr(a.Offset))
		b.enabled = append(b.enabled, l)
	}
	b.program = s.program
}

func (b *Buffer) Dispose() {
	if !b.MarkDisposed() {
		return
	}
	b.release()
}

func (b *Buffer) release() {
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
		b.vbo = 0
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
}
