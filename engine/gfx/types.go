package gfx

import (
	"fmt"
	"strings"
)

// Backend identifies a native graphics API.
type Backend int

const (
	BackendAuto Backend = iota
	BackendOpenGL
	BackendVulkan
	BackendMetal
	BackendDX12
)

func (b Backend) String() string {
	switch b {
	case BackendAuto:
		return "auto"
	case BackendOpenGL:
		return "opengl"
	case BackendVulkan:
		return "vulkan"
	case BackendMetal:
		return "metal"
	case BackendDX12:
		return "dx12"
	default:
		return fmt.Sprintf("backend(%d)", int(b))
	}
}

// ParseBackend maps a config string to a Backend. Matching is case-insensitive
// and accepts a few common aliases.
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return BackendAuto, nil
	case "opengl", "gl":
		return BackendOpenGL, nil
	case "vulkan", "vk":
		return BackendVulkan, nil
	case "metal", "mtl":
		return BackendMetal, nil
	case "dx12", "d3d12", "direct3d12":
		return BackendDX12, nil
	}
	return BackendAuto, fmt.Errorf("gfx: unknown backend %q", s)
}

// UnmarshalText lets Backend be read directly from config files.
func (b *Backend) UnmarshalText(text []byte) error {
	v, err := ParseBackend(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}

func (b Backend) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

// DrawMode is the primitive topology of a draw.
type DrawMode int

const (
	Triangles DrawMode = iota
	TriangleStrip
	TriangleFan
	Lines
	LineStrip
	LineLoop
	Points
)

var drawModeNames = [...]string{"triangles", "triangle_strip", "triangle_fan", "lines", "line_strip", "line_loop", "points"}

func (m DrawMode) String() string {
	if m >= 0 && int(m) < len(drawModeNames) {
		return drawModeNames[m]
	}
	return fmt.Sprintf("drawmode(%d)", int(m))
}

// BlendMode selects the color blend equation.
type BlendMode int

const (
	BlendNone BlendMode = iota
	BlendAlpha
	BlendAdditive
	BlendMultiply
	BlendPremultiplied
)

var blendModeNames = [...]string{"none", "alpha", "additive", "multiply", "premultiplied"}

func (m BlendMode) String() string {
	if m >= 0 && int(m) < len(blendModeNames) {
		return blendModeNames[m]
	}
	return fmt.Sprintf("blend(%d)", int(m))
}

// Rect is an integer pixel rectangle.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }
