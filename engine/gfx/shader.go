package gfx

import (
	"fmt"
	"strings"
)

// Well-known shader names every backend must supply.
const (
	ShaderDefault = "default" // per-vertex color, uProjection
	ShaderSimple  = "simple"  // position only, uProjection + uColor
	ShaderText    = "text"    // glyph quads sampling an R8 atlas
)

// WellKnownShaders lists the shaders a ShaderLibrary must contain.
var WellKnownShaders = []string{ShaderDefault, ShaderSimple, ShaderText}

// ShaderStage tags a GLSL source.
type ShaderStage int

const (
	StageVertex ShaderStage = iota
	StageFragment
)

func (s ShaderStage) String() string {
	if s == StageFragment {
		return "fragment"
	}
	return "vertex"
}

// ShaderSource carries the sources for one named shader. Implicit-state
// backends read GLSL by stage. Explicit-pipeline backends read WGSL, a single
// module with VertexEntry and FragmentEntry functions.
type ShaderSource struct {
	Name          string
	GLSL          map[ShaderStage]string
	WGSL          string
	VertexEntry   string
	FragmentEntry string
}

// NewGLSLSource builds a source with vertex and fragment GLSL.
func NewGLSLSource(name, vertex, fragment string) ShaderSource {
	return ShaderSource{
		Name: name,
		GLSL: map[ShaderStage]string{StageVertex: vertex, StageFragment: fragment},
	}
}

// NewWGSLSource builds a source with a single WGSL module using the
// vs_main/fs_main entry point convention.
func NewWGSLSource(name, code string) ShaderSource {
	return ShaderSource{Name: name, WGSL: code, VertexEntry: "vs_main", FragmentEntry: "fs_main"}
}

func (s ShaderSource) HasGLSL() bool { return s.GLSL[StageVertex] != "" && s.GLSL[StageFragment] != "" }
func (s ShaderSource) HasWGSL() bool { return s.WGSL != "" }

// MissingWGSLEntries returns the entry points named by the source that do not
// appear as functions in the WGSL module.
func (s ShaderSource) MissingWGSLEntries() []string {
	var missing []string
	for _, e := range []string{s.VertexEntry, s.FragmentEntry} {
		if e == "" || !strings.Contains(s.WGSL, "fn "+e+"(") {
			missing = append(missing, e)
		}
	}
	return missing
}

// ShaderLibrary maps shader names to sources for one backend family.
type ShaderLibrary map[string]ShaderSource

// Require reports ErrMissingShader if any name is absent.
func (l ShaderLibrary) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := l[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingShader, strings.Join(missing, ", "))
	}
	return nil
}

// Clone returns a shallow copy that can be modified without touching l.
func (l ShaderLibrary) Clone() ShaderLibrary {
	out := make(ShaderLibrary, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// ShaderState is the compile lifecycle of a shader.
type ShaderState int

const (
	ShaderUncompiled ShaderState = iota
	ShaderCompiling
	ShaderValid
	ShaderInvalid
)

func (s ShaderState) String() string {
	switch s {
	case ShaderUncompiled:
		return "uncompiled"
	case ShaderCompiling:
		return "compiling"
	case ShaderValid:
		return "valid"
	case ShaderInvalid:
		return "invalid"
	}
	return fmt.Sprintf("shaderstate(%d)", int(s))
}

// ShaderStatus tracks the Uncompiled -> Compiling -> Valid|Invalid machine.
// Invalid is terminal.
type ShaderStatus struct {
	state ShaderState
	err   error
}

// Begin moves Uncompiled to Compiling. It returns false in any other state.
func (s *ShaderStatus) Begin() bool {
	if s.state != ShaderUncompiled {
		return false
	}
	s.state = ShaderCompiling
	return true
}

// Succeed moves Compiling to Valid.
func (s *ShaderStatus) Succeed() {
	if s.state == ShaderCompiling {
		s.state = ShaderValid
	}
}

// Fail moves any non-terminal state to Invalid and records err.
func (s *ShaderStatus) Fail(err error) {
	if s.state == ShaderInvalid {
		return
	}
	s.state = ShaderInvalid
	s.err = err
}

// Abort returns Compiling to Uncompiled when the native context vanished
// mid-compile. A later use retries.
func (s *ShaderStatus) Abort() {
	if s.state == ShaderCompiling {
		s.state = ShaderUncompiled
	}
}

func (s *ShaderStatus) State() ShaderState { return s.state }
func (s *ShaderStatus) Err() error         { return s.err }
func (s *ShaderStatus) Valid() bool        { return s.state == ShaderValid }
func (s *ShaderStatus) Invalid() bool      { return s.state == ShaderInvalid }
