package text

import (
	"fmt"
	"image"
	"log/slog"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/hubastard/chartgfx/engine/gfx"
)

// Printable ASCII, laid out on a fixed grid.
const (
	FirstChar    = 32
	LastChar     = 126
	charCount    = LastChar - FirstChar + 1
	glyphsPerRow = 16
	cellPadding  = 2
)

// Glyph is the atlas entry for one character. Offsets are in pixels: XOffset
// from the cursor to the glyph's left edge, YOffset from the baseline up to
// the glyph's top.
type Glyph struct {
	U0, V0, U1, V1 float32
	Width, Height  int
	XOffset        int
	YOffset        int
	Advance        int
}

// FontAtlas is the rasterized ASCII set of one font at one pixel size. It is
// built on the CPU and immutable afterwards; the GPU texture is created on
// first use.
type FontAtlas struct {
	SizePx     int
	Ascent     int
	Descent    int
	LineHeight int

	glyphs        [charCount]Glyph
	width, height int
	pixels        []byte // R8, row-major, width*height

	tex      gfx.Texture
	uploaded bool
}

type glyphMetrics struct {
	w, h, xoff, yoff, below, adv int
}

// BuildAtlas measures and rasterizes FirstChar..LastChar of ft at sizePx.
func BuildAtlas(ft *opentype.Font, sizePx int) (*FontAtlas, error) {
	if sizePx < 1 {
		return nil, fmt.Errorf("font atlas: invalid size %d", sizePx)
	}
	face, err := newFace(ft, sizePx)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	descent := m.Descent.Ceil()
	lineHeight := max(m.Height.Ceil(), ascent+descent)

	// Measure. Pixel bounds are taken relative to a dot on the baseline.
	var meas [charCount]glyphMetrics
	maxW, maxH, maxAdv, maxTop, maxBelow := 0, 0, 0, ascent, descent
	for i := range charCount {
		r := rune(FirstChar + i)
		b, adv, ok := face.GlyphBounds(r)
		if !ok {
			continue
		}
		x0, y0 := b.Min.X.Floor(), b.Min.Y.Floor()
		x1, y1 := b.Max.X.Ceil(), b.Max.Y.Ceil()
		g := glyphMetrics{adv: adv.Ceil()}
		if x1 > x0 && y1 > y0 {
			g.w, g.h = x1-x0, y1-y0
			g.xoff, g.yoff, g.below = x0, -y0, y1
		}
		meas[i] = g
		maxW = max(maxW, g.w)
		maxH = max(maxH, g.h)
		maxAdv = max(maxAdv, g.adv)
		maxTop = max(maxTop, g.yoff)
		maxBelow = max(maxBelow, g.below)
	}

	cellW := max(maxW, maxAdv) + cellPadding*2
	cellH := max(maxH, lineHeight, maxTop+maxBelow) + cellPadding*2
	rows := (charCount + glyphsPerRow - 1) / glyphsPerRow
	atlasW := nextPowerOfTwo(cellW * glyphsPerRow)
	atlasH := nextPowerOfTwo(cellH * rows)

	dst := image.NewAlpha(image.Rect(0, 0, atlasW, atlasH))
	drawer := &font.Drawer{Dst: dst, Src: image.Opaque, Face: face}

	a := &FontAtlas{
		SizePx: sizePx, Ascent: ascent, Descent: descent, LineHeight: lineHeight,
		width: atlasW, height: atlasH,
	}
	fw, fh := float32(atlasW), float32(atlasH)
	for i, g := range meas {
		entry := Glyph{Advance: g.adv, XOffset: g.xoff, YOffset: g.yoff}
		if g.w > 0 {
			cellX := (i % glyphsPerRow) * cellW
			cellY := (i / glyphsPerRow) * cellH
			baseline := cellY + cellPadding + maxTop
			drawer.Dot = fixed.P(cellX+cellPadding-g.xoff, baseline)
			drawer.DrawString(string(rune(FirstChar + i)))

			// One extra texel on the right and bottom keeps anti-aliased edges.
			left := cellX + cellPadding
			top := baseline - g.yoff
			entry.Width, entry.Height = g.w+1, g.h+1
			entry.U0 = float32(left) / fw
			entry.V0 = float32(top) / fh
			entry.U1 = float32(left+entry.Width) / fw
			entry.V1 = float32(top+entry.Height) / fh
		}
		a.glyphs[i] = entry
	}
	a.pixels = dst.Pix

	gfx.Logger().Debug("font atlas built",
		slog.Int("size", sizePx), slog.Int("w", atlasW), slog.Int("h", atlasH))
	return a, nil
}

// Glyph returns the entry for c. Characters outside FirstChar..LastChar map
// to the space glyph.
func (a *FontAtlas) Glyph(c rune) Glyph {
	i := int(c) - FirstChar
	if i < 0 || i >= charCount {
		return a.glyphs[0]
	}
	return a.glyphs[i]
}

// TextWidth is the sum of advances of s, the same distance the renderer moves
// the cursor.
func (a *FontAtlas) TextWidth(s string) float32 {
	w := 0
	for _, r := range s {
		w += a.Glyph(r).Advance
	}
	return float32(w)
}

// Size returns the atlas dimensions in pixels. Both are powers of two.
func (a *FontAtlas) Size() (int, int) { return a.width, a.height }

// Pixels returns the single-channel coverage bitmap.
func (a *FontAtlas) Pixels() []byte { return a.pixels }

// Texture returns the GPU texture, creating and uploading it on first call.
// If the device is not ready the error is returned and a later call retries.
func (a *FontAtlas) Texture(dev gfx.Device) (gfx.Texture, error) {
	if a.tex == nil {
		a.tex = dev.CreateTexture(gfx.FontAtlasTexture(a.width, a.height))
	}
	if !a.uploaded {
		if err := a.tex.Upload(a.pixels); err != nil {
			return nil, fmt.Errorf("font atlas %dpx: %w", a.SizePx, err)
		}
		a.uploaded = true
	}
	return a.tex, nil
}

// Dispose releases the GPU texture. The CPU atlas stays usable and uploads
// again on the next Texture call.
func (a *FontAtlas) Dispose() {
	if a.tex != nil {
		a.tex.Dispose()
		a.tex = nil
	}
	a.uploaded = false
}

func nextPowerOfTwo(n int) int {
	v := 1
	for v < n {
		v <<= 1
	}
	return v
}
