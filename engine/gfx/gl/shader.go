package glbackend

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/hubastard/chartgfx/engine/gfx"
)

// Shader is a linked GL program. Compilation happens on the first Bind or
// pipeline creation after the device is initialized.
type Shader struct {
	gfx.UniformSet
	dev    *Device
	src    gfx.ShaderSource
	status gfx.ShaderStatus

	program  uint32
	uniforms map[string]int32
	attribs  map[string]int32
	disposed bool
}

func (s *Shader) Name() string           { return s.src.Name }
func (s *Shader) State() gfx.ShaderState { return s.status.State() }
func (s *Shader) IsValid() bool          { return s.status.Valid() }
func (s *Shader) IsInitialized() bool    { return s.program != 0 && !s.disposed }

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
	if !s.src.HasGLSL() {
		s.status.Fail(fmt.Errorf("no GLSL source"))
		return fmt.Errorf("%w: %s has no GLSL source", gfx.ErrInvalidShader, s.src.Name)
	}
	prog, err := makeProgram(s.src.GLSL[gfx.StageVertex], s.src.GLSL[gfx.StageFragment])
	if err != nil {
		s.status.Fail(err)
		gfx.Logger().Error("shader compile failed", slog.String("shader", s.src.Name), slog.Any("err", err))
		return fmt.Errorf("%w: %s: %v", gfx.ErrInvalidShader, s.src.Name, err)
	}
	s.program = prog
	s.uniforms = map[string]int32{}
	s.attribs = map[string]int32{}
	s.status.Succeed()
	// A fresh program has default uniform values.
	s.MarkAllDirty()
	return nil
}

func (s *Shader) Bind() error {
	if err := s.compile(); err != nil {
		return err
	}
	if s.dev.current != s {
		gl.UseProgram(s.program)
		s.dev.current = s
	}
	return nil
}

func (s *Shader) Unbind() {
	if s.dev.current == s {
		gl.UseProgram(0)
		s.dev.current = nil
	}
}

func (s *Shader) uniformLocation(name string) int32 {
	if loc, ok := s.uniforms[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(s.program, gl.Str(name+"\x00"))
	s.uniforms[name] = loc
	return loc
}

func (s *Shader) attribLocation(name string) int32 {
	if loc, ok := s.attribs[name]; ok {
		return loc
	}
	loc := gl.GetAttribLocation(s.program, gl.Str(name+"\x00"))
	s.attribs[name] = loc
	return loc
}

// FlushUniforms uploads staged values to the bound program.
func (s *Shader) FlushUniforms() error {
	if !s.IsValid() {
		return gfx.ErrInvalidShader
	}
	s.Drain(func(name string, v gfx.UniformValue) {
		loc := s.uniformLocation(name)
		if loc < 0 {
			return
		}
		switch v.Kind {
		case gfx.UniformInt:
			gl.Uniform1i(loc, v.I)
		case gfx.UniformFloat:
			gl.Uniform1f(loc, v.F[0])
		case gfx.UniformVec2:
			gl.Uniform2f(loc, v.F[0], v.F[1])
		case gfx.UniformVec3:
			gl.Uniform3f(loc, v.F[0], v.F[1], v.F[2])
		case gfx.UniformVec4:
			gl.Uniform4f(loc, v.F[0], v.F[1], v.F[2], v.F[3])
		case gfx.UniformMat4:
			gl.UniformMatrix4fv(loc, 1, false, &v.F[0])
		}
	})
	return nil
}

func (s *Shader) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.Unbind()
	if s.program != 0 {
		gl.DeleteProgram(s.program)
		s.program = 0
	}
}

func makeShader(src string, shaderType uint32) (uint32, error) {
	sh := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	defer free()
	gl.ShaderSource(sh, 1, csrc, nil)
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen))
		gl.GetShaderInfoLog(sh, logLen, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, fmt.Errorf("compile: %s", strings.TrimRight(log, "\x00\n"))
	}
	return sh, nil
}

func makeProgram(vsSrc, fsSrc string) (uint32, error) {
	vs, err := makeShader(vsSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := makeShader(fsSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}
	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.BindFragDataLocation(prog, 0, gl.Str("fragColor\x00"))
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link: %s", strings.TrimRight(log, "\x00\n"))
	}
	return prog, nil
}
