package wgpubackend

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/hubastard/chartgfx/engine/gfx"
)

// Shader is a WGSL module. Uniforms are packed into the shared block and
// pushed through the device's uniform ring on every draw.
type Shader struct {
	gfx.UniformSet
	dev    *Device
	src    gfx.ShaderSource
	status gfx.ShaderStatus

	module   *wgpu.ShaderModule
	textured bool
	block    [uniformFloats]float32
	disposed bool
}

func (s *Shader) Name() string           { return s.src.Name }
func (s *Shader) State() gfx.ShaderState { return s.status.State() }
func (s *Shader) IsValid() bool          { return s.status.Valid() }
func (s *Shader) IsInitialized() bool    { return s.module != nil && !s.disposed }

func (s *Shader) compile() error {
	switch {
	case s.disposed:
		return gfx.ErrDisposed
	case s.status.Valid():
		return nil
	case s.status.Invalid():
		return fmt.Errorf("%w: %s: %v", gfx.ErrInvalidShader, s.src.Name, s.status.Err())
	case !s.dev.initialized:
		return gfx.ErrNotInitialized
	}
	s.status.Begin()
	if !s.src.HasWGSL() {
		s.status.Fail(fmt.Errorf("no WGSL source"))
		return fmt.Errorf("%w: %s has no WGSL source", gfx.ErrInvalidShader, s.src.Name)
	}
	if missing := s.src.MissingWGSLEntries(); len(missing) > 0 {
		err := fmt.Errorf("missing entry points %s", strings.Join(missing, ", "))
		s.status.Fail(err)
		return fmt.Errorf("%w: %s: %v", gfx.ErrInvalidShader, s.src.Name, err)
	}
	mod, err := s.dev.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          s.src.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.src.WGSL},
	})
	if err != nil {
		s.status.Fail(err)
		gfx.Logger().Error("shader compile failed", slog.String("shader", s.src.Name), slog.Any("err", err))
		return fmt.Errorf("%w: %s: %v", gfx.ErrInvalidShader, s.src.Name, err)
	}
	s.module = mod
	s.textured = strings.Contains(s.src.WGSL, "texture_2d")
	s.status.Succeed()
	s.MarkAllDirty()
	return nil
}

func (s *Shader) Bind() error {
	if err := s.compile(); err != nil {
		return err
	}
	s.dev.current = s
	return nil
}

func (s *Shader) Unbind() {
	if s.dev.current == s {
		s.dev.current = nil
	}
}

// FlushUniforms packs staged values into the block the next draw pushes.
func (s *Shader) FlushUniforms() error {
	if !s.IsValid() {
		return gfx.ErrInvalidShader
	}
	s.Drain(func(name string, v gfx.UniformValue) {
		packUniforms(&s.block, name, v)
	})
	return nil
}

func (s *Shader) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.Unbind()
	if s.module != nil {
		s.dev.deferRelease(s.module)
		s.module = nil
	}
}
