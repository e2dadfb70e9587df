package text

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"

	"github.com/hubastard/chartgfx/engine/colors"
	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/scene"
)

const (
	verticesPerGlyph = 6
	floatsPerVertex  = 8 // x,y, u,v, r,g,b,a
	initialGlyphs    = 256
)

// Resources is what the renderer needs from the resource manager.
type Resources interface {
	Device() gfx.Device
	Shader(name string) gfx.Shader
	Pipeline(shader gfx.Shader, desc gfx.BufferDescriptor, mode gfx.DrawMode, blend gfx.BlendMode) (gfx.Pipeline, error)
}

// Options configures a Renderer. Zero values pick defaults.
type Options struct {
	Family string  // FamilyMono when empty
	Size   float32 // logical pixels, 14 when zero
	Scale  float32 // content scale, at least 1
}

// Renderer batches text into a single upload and a single draw per batch.
// Coordinates are framebuffer pixels with Y down; y is the baseline.
type Renderer struct {
	res Resources

	family string
	size   float32
	scale  float32

	caches      map[string]*AtlasCache
	atlas       *FontAtlas
	atlasFamily string

	buf     gfx.Buffer
	verts   []float32
	inBatch bool
	width   int
	height  int
}

func NewRenderer(res Resources, opts Options) *Renderer {
	if opts.Family == "" {
		opts.Family = FamilyMono
	}
	if opts.Size <= 0 {
		opts.Size = 14
	}
	if opts.Scale < 1 {
		opts.Scale = 1
	}
	return &Renderer{
		res:    res,
		family: opts.Family,
		size:   opts.Size,
		scale:  opts.Scale,
		caches: map[string]*AtlasCache{},
		verts:  make([]float32, 0, initialGlyphs*verticesPerGlyph*floatsPerVertex),
	}
}

// pixelSize is the atlas size for the current font size and scale.
func (r *Renderer) pixelSize() int {
	return max(1, int(math32.Round(r.size*r.scale)))
}

func (r *Renderer) cache() (*AtlasCache, error) {
	if c, ok := r.caches[r.family]; ok {
		return c, nil
	}
	ft, err := LoadFont(r.family)
	if err != nil {
		return nil, err
	}
	c := NewAtlasCache(ft)
	r.caches[r.family] = c
	return c, nil
}

// Atlas returns the atlas for the current font settings, building it if needed.
// Inside a batch the atlas is pinned until EndBatch.
func (r *Renderer) Atlas() (*FontAtlas, error) {
	if r.inBatch && r.atlas != nil {
		return r.atlas, nil
	}
	px := r.pixelSize()
	if r.atlas != nil && r.atlas.SizePx == px && r.atlasFamily == r.family {
		return r.atlas, nil
	}
	c, err := r.cache()
	if err != nil {
		return nil, err
	}
	a, err := c.Get(px)
	if err != nil {
		return nil, err
	}
	r.atlas, r.atlasFamily = a, r.family
	return a, nil
}

// AtlasCache exposes the cache of the current family, for preloading.
func (r *Renderer) AtlasCache() (*AtlasCache, error) { return r.cache() }

// BeginBatch starts collecting glyphs for a width x height framebuffer. A
// second BeginBatch without EndBatch discards what was collected. It returns
// false when text cannot be drawn this frame.
func (r *Renderer) BeginBatch(width, height int) bool {
	if r.inBatch {
		gfx.Logger().Warn("text batch restarted without EndBatch", slog.Int("discarded", r.QueuedGlyphs()))
	}
	r.verts = r.verts[:0]
	r.inBatch = false

	if _, err := r.Atlas(); err != nil {
		gfx.Logger().Error("text atlas unavailable", slog.Any("err", err))
		return false
	}
	if r.res.Shader(gfx.ShaderText) == nil {
		return false
	}
	if r.buf == nil {
		desc := gfx.TextBuffer().WithCapacity(initialGlyphs * verticesPerGlyph * floatsPerVertex)
		r.buf = r.res.Device().CreateBuffer(desc)
	}
	r.width, r.height = width, height
	r.inBatch = true
	return true
}

// InBatch reports whether a batch is open.
func (r *Renderer) InBatch() bool { return r.inBatch }

// QueuedGlyphs reports the quads collected in the open batch.
func (r *Renderer) QueuedGlyphs() int {
	return len(r.verts) / (verticesPerGlyph * floatsPerVertex)
}

// DrawText queues s with its baseline starting at (x, y). Outside a batch the
// call is ignored.
func (r *Renderer) DrawText(s string, x, y float32, c colors.Color) {
	if !r.inBatch {
		return
	}
	a := r.atlas
	cursor := x
	for _, ch := range s {
		g := a.Glyph(ch)
		if g.Width > 0 && g.Height > 0 {
			x0 := cursor + float32(g.XOffset)
			y0 := y - float32(g.YOffset)
			x1 := x0 + float32(g.Width)
			y1 := y0 + float32(g.Height)
			r.verts = appendQuad(r.verts, x0, y0, x1, y1, g, c)
		}
		cursor += float32(g.Advance)
	}
}

// DrawTextCentered queues s centered horizontally on x.
func (r *Renderer) DrawTextCentered(s string, x, y float32, c colors.Color) {
	r.DrawText(s, x-r.TextWidth(s)/2, y, c)
}

// DrawTextRight queues s so that it ends at x.
func (r *Renderer) DrawTextRight(s string, x, y float32, c colors.Color) {
	r.DrawText(s, x-r.TextWidth(s), y, c)
}

func appendQuad(v []float32, x0, y0, x1, y1 float32, g Glyph, c colors.Color) []float32 {
	cr, cg, cb, ca := c[0], c[1], c[2], c[3]
	return append(v,
		x0, y0, g.U0, g.V0, cr, cg, cb, ca,
		x1, y0, g.U1, g.V0, cr, cg, cb, ca,
		x1, y1, g.U1, g.V1, cr, cg, cb, ca,
		x0, y0, g.U0, g.V0, cr, cg, cb, ca,
		x1, y1, g.U1, g.V1, cr, cg, cb, ca,
		x0, y1, g.U0, g.V1, cr, cg, cb, ca,
	)
}

// EndBatch uploads everything queued since BeginBatch and draws it in one
// call. An empty batch issues no GPU work.
func (r *Renderer) EndBatch() error {
	if !r.inBatch {
		return nil
	}
	r.inBatch = false
	if len(r.verts) == 0 {
		return nil
	}
	defer func() { r.verts = r.verts[:0] }()

	dev := r.res.Device()
	shader := r.res.Shader(gfx.ShaderText)
	if shader == nil {
		return fmt.Errorf("text: %w", gfx.ErrMissingShader)
	}
	tex, err := r.atlas.Texture(dev)
	if err != nil {
		return err
	}
	if err := shader.Bind(); err != nil {
		return fmt.Errorf("text: bind shader: %w", err)
	}
	pipe, err := r.res.Pipeline(shader, r.buf.Descriptor(), gfx.Triangles, gfx.BlendAlpha)
	if err != nil {
		return fmt.Errorf("text: %w", err)
	}
	if err := pipe.Bind(); err != nil {
		return err
	}
	shader.SetUniformMatrix4("uProjection", scene.ScreenProjection(r.width, r.height))
	shader.SetUniform1i("uTexture", 0)
	if err := tex.Bind(0); err != nil {
		return err
	}
	if err := r.buf.Upload(r.verts, 0, len(r.verts)); err != nil {
		if errors.Is(err, gfx.ErrNotInitialized) {
			gfx.Logger().Debug("text batch dropped, device not ready")
		}
		return err
	}
	return r.buf.Draw(gfx.Triangles)
}

// TextWidth is the sum of glyph advances of s at the current settings.
func (r *Renderer) TextWidth(s string) float32 {
	a, err := r.Atlas()
	if err != nil {
		return 0
	}
	return a.TextWidth(s)
}

// TextHeight is the line height at the current settings.
func (r *Renderer) TextHeight() float32 {
	a, err := r.Atlas()
	if err != nil {
		return 0
	}
	return float32(a.LineHeight)
}

// FontSize returns the logical font size.
func (r *Renderer) FontSize() float32 { return r.size }

// SetFontSize switches the atlas on the next batch or measurement.
func (r *Renderer) SetFontSize(size float32) {
	if size > 0 {
		r.size = size
	}
}

// SetFontFamily selects a built-in family or a font file path. Like a size
// change it takes effect on the next batch or measurement.
func (r *Renderer) SetFontFamily(family string) {
	if family != "" {
		r.family = family
	}
}

// SetScaleFactor sets the content scale used for HiDPI displays. Values
// below 1 are clamped to 1.
func (r *Renderer) SetScaleFactor(scale float32) {
	r.scale = max(scale, 1)
}

// Dispose releases the vertex buffer and every atlas texture.
func (r *Renderer) Dispose() {
	if r.buf != nil {
		r.buf.Dispose()
		r.buf = nil
	}
	for _, c := range r.caches {
		c.Dispose()
	}
	r.caches = map[string]*AtlasCache{}
	r.atlas = nil
	r.inBatch = false
	r.verts = r.verts[:0]
}
