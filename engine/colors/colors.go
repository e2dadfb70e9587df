package colors

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is straight (non-premultiplied) RGBA in 0..1.
type Color [4]float32

var (
	White       = Color{1, 1, 1, 1}
	Black       = Color{0, 0, 0, 1}
	Transparent = Color{0, 0, 0, 0}
	Red         = Color{1, 0, 0, 1}
	Green       = Color{0, 1, 0, 1}
	Blue        = Color{0, 0, 1, 1}
	Yellow      = Color{1, 1, 0, 1}
	Gray        = Color{0.5, 0.5, 0.5, 1}
	DarkGray    = Color{0.08, 0.10, 0.12, 1}

	// Chart palette.
	Bull     = Color{0.15, 0.65, 0.60, 1}
	Bear     = Color{0.94, 0.33, 0.31, 1}
	GridLine = Color{0.20, 0.22, 0.26, 1}
	AxisText = Color{0.70, 0.72, 0.76, 1}
)

func (c Color) WithAlpha(a float32) Color {
	c[3] = a
	return c
}

// RGBA8 returns a color from 8-bit channels.
func RGBA8(r, g, b, a uint8) Color {
	return Color{float32(r) / 255, float32(g) / 255, float32(b) / 255, float32(a) / 255}
}

// Hex parses "#rrggbb" or "#rrggbbaa".
func Hex(s string) (Color, error) {
	s = strings.TrimSpace(s)
	alpha := float32(1)
	if len(s) == 9 && s[0] == '#' {
		var a uint8
		if _, err := fmt.Sscanf(s[7:], "%02x", &a); err != nil {
			return Color{}, fmt.Errorf("colors: bad alpha in %q: %w", s, err)
		}
		alpha = float32(a) / 255
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("colors: %w", err)
	}
	return Color{float32(c.R), float32(c.G), float32(c.B), alpha}, nil
}

// Hex formats c as "#rrggbbaa".
func (c Color) Hex() string {
	a := uint8(clamp01(c[3])*255 + 0.5)
	return fmt.Sprintf("%s%02x", c.colorful().Clamped().Hex(), a)
}

// Lerp blends a toward b in linear RGB, t in 0..1.
func Lerp(a, b Color, t float32) Color {
	r1, g1, b1 := a.colorful().LinearRgb()
	r2, g2, b2 := b.colorful().LinearRgb()
	k := float64(t)
	m := colorful.LinearRgb(r1+(r2-r1)*k, g1+(g2-g1)*k, b1+(b2-b1)*k)
	return Color{float32(m.R), float32(m.G), float32(m.B), a[3] + (b[3]-a[3])*t}
}

// Premultiplied returns c with RGB scaled by alpha.
func (c Color) Premultiplied() Color {
	return Color{c[0] * c[3], c[1] * c[3], c[2] * c[3], c[3]}
}

func (c *Color) UnmarshalText(text []byte) error {
	v, err := Hex(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2])}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
