// Package renderer2d batches the flat primitives a chart is made of: filled
// rects, hairlines and thick polylines. Everything is drawn with the
// "default" shader in two draws per scene, one for triangles and one for
// hairlines.
package renderer2d

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/hubastard/chartgfx/engine/colors"
	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/scratch"
)

// Vertex: pos2 + color4.
const (
	vStride      = 6
	vertsPerQuad = 6
	initialVerts = 4096
)

// Resources is what the renderer needs from the resource manager.
type Resources interface {
	Device() gfx.Device
	Shader(name string) gfx.Shader
	Pipeline(shader gfx.Shader, desc gfx.BufferDescriptor, mode gfx.DrawMode, blend gfx.BlendMode) (gfx.Pipeline, error)
}

// Statistics captures the counts generated during one scene.
type Statistics struct {
	DrawCalls int
	QuadCount int
	LineCount int
}

// TotalVertexCount reports vertices submitted this scene.
func (s Statistics) TotalVertexCount() int { return s.QuadCount*vertsPerQuad + s.LineCount*2 }

type batch struct {
	mode  gfx.DrawMode
	buf   gfx.Buffer
	verts []float32
}

func (b *batch) reset() { b.verts = b.verts[:0] }

type Renderer struct {
	res   Resources
	tris  batch
	lines batch
	vp    [16]float32
	blend gfx.BlendMode

	inScene bool
	stats   Statistics
	// Per-scene temporaries for polyline expansion.
	scratch *scratch.Pool[[]float32]
}

func New(res Resources) *Renderer {
	return &Renderer{
		res:     res,
		tris:    batch{mode: gfx.Triangles, verts: make([]float32, 0, initialVerts*vStride)},
		lines:   batch{mode: gfx.Lines, verts: make([]float32, 0, initialVerts*vStride)},
		blend:   gfx.BlendAlpha,
		scratch: scratch.Floats(256),
	}
}

// SetBlendMode applies to the next EndScene.
func (rd *Renderer) SetBlendMode(m gfx.BlendMode) { rd.blend = m }

// BeginScene starts collecting primitives drawn with the view-projection vp.
func (rd *Renderer) BeginScene(vp [16]float32) {
	rd.vp = vp
	rd.stats = Statistics{}
	rd.tris.reset()
	rd.lines.reset()
	rd.inScene = true
}

// InScene reports whether a scene is open.
func (rd *Renderer) InScene() bool { return rd.inScene }

// Stats returns the statistics of the current or last scene.
func (rd *Renderer) Stats() Statistics { return rd.stats }

// DrawRect fills an axis-aligned rect with its top-left corner at (x, y).
func (rd *Renderer) DrawRect(x, y, w, h float32, c colors.Color) {
	if !rd.inScene || w == 0 || h == 0 {
		return
	}
	rd.appendQuad(x, y, x+w, y, x+w, y+h, x, y+h, c)
}

// DrawRectOutline strokes the inside of a rect with lines of the given width.
func (rd *Renderer) DrawRectOutline(x, y, w, h, width float32, c colors.Color) {
	if width <= 1 {
		rd.DrawPolyline([]float32{x, y, x + w, y, x + w, y + h, x, y + h, x, y}, 1, c)
		return
	}
	rd.DrawRect(x, y, w, width, c)
	rd.DrawRect(x, y+h-width, w, width, c)
	rd.DrawRect(x, y+width, width, h-2*width, c)
	rd.DrawRect(x+w-width, y+width, width, h-2*width, c)
}

// DrawQuad fills a w x h rect centered on (x, y) and rotated by rotationRad.
func (rd *Renderer) DrawQuad(x, y, w, h float32, c colors.Color, rotationRad float32) {
	if !rd.inScene {
		return
	}
	hw, hh := w*0.5, h*0.5
	s, co := math32.Sincos(rotationRad)
	var p [8]float32
	for i, corner := range [4][2]float32{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}} {
		p[i*2] = corner[0]*co - corner[1]*s + x
		p[i*2+1] = corner[0]*s + corner[1]*co + y
	}
	rd.appendQuad(p[0], p[1], p[2], p[3], p[4], p[5], p[6], p[7], c)
}

// DrawLine draws a segment. Widths up to one pixel become hairlines; wider
// lines are expanded to quads.
func (rd *Renderer) DrawLine(x0, y0, x1, y1, width float32, c colors.Color) {
	if !rd.inScene {
		return
	}
	if width <= 1 {
		rd.appendLine(x0, y0, x1, y1, c)
		return
	}
	nx, ny, ok := normal(x0, y0, x1, y1)
	if !ok {
		return
	}
	hw := width * 0.5
	ox, oy := nx*hw, ny*hw
	rd.appendQuad(x0+ox, y0+oy, x1+ox, y1+oy, x1-ox, y1-oy, x0-ox, y0-oy, c)
}

// DrawPolyline connects consecutive (x, y) pairs in pts. Thick polylines are
// mitered at the joints, with the miter clamped to twice the width.
func (rd *Renderer) DrawPolyline(pts []float32, width float32, c colors.Color) {
	n := len(pts) / 2
	if !rd.inScene || n < 2 {
		return
	}
	if width <= 1 {
		for i := 0; i+1 < n; i++ {
			rd.appendLine(pts[i*2], pts[i*2+1], pts[i*2+2], pts[i*2+3], c)
		}
		return
	}

	// Offset vector per point, then one quad per segment.
	offs := rd.scratch.Get()
	hw := width * 0.5
	for i := range n {
		var ax, ay, bx, by float32
		var okA, okB bool
		if i > 0 {
			ax, ay, okA = normal(pts[i*2-2], pts[i*2-1], pts[i*2], pts[i*2+1])
		}
		if i+1 < n {
			bx, by, okB = normal(pts[i*2], pts[i*2+1], pts[i*2+2], pts[i*2+3])
		}
		*offs = append(*offs, miter(ax, ay, okA, bx, by, okB, hw)...)
	}
	for i := 0; i+1 < n; i++ {
		x0, y0, x1, y1 := pts[i*2], pts[i*2+1], pts[i*2+2], pts[i*2+3]
		o := *offs
		o0x, o0y, o1x, o1y := o[i*2], o[i*2+1], o[i*2+2], o[i*2+3]
		if x0 == x1 && y0 == y1 {
			continue
		}
		rd.appendQuad(x0+o0x, y0+o0y, x1+o1x, y1+o1y, x1-o1x, y1-o1y, x0-o0x, y0-o0y, c)
	}
}

// normal returns the unit left normal of the segment, or false when the
// segment is degenerate.
func normal(x0, y0, x1, y1 float32) (float32, float32, bool) {
	dx, dy := x1-x0, y1-y0
	l := math32.Hypot(dx, dy)
	if l < 1e-6 {
		return 0, 0, false
	}
	return -dy / l, dx / l, true
}

func miter(ax, ay float32, okA bool, bx, by float32, okB bool, hw float32) []float32 {
	switch {
	case okA && okB:
		mx, my := ax+bx, ay+by
		ml := math32.Hypot(mx, my)
		if ml < 1e-6 {
			return []float32{ax * hw, ay * hw}
		}
		mx, my = mx/ml, my/ml
		// Length of the miter so both edges stay hw away from the centerline.
		d := mx*ax + my*ay
		scale := min(hw/max(d, 1e-3), 2*hw)
		return []float32{mx * scale, my * scale}
	case okA:
		return []float32{ax * hw, ay * hw}
	case okB:
		return []float32{bx * hw, by * hw}
	}
	return []float32{0, 0}
}

func (rd *Renderer) appendQuad(x0, y0, x1, y1, x2, y2, x3, y3 float32, c colors.Color) {
	r, g, b, a := c[0], c[1], c[2], c[3]
	rd.tris.verts = append(rd.tris.verts,
		x0, y0, r, g, b, a,
		x1, y1, r, g, b, a,
		x2, y2, r, g, b, a,
		x0, y0, r, g, b, a,
		x2, y2, r, g, b, a,
		x3, y3, r, g, b, a,
	)
	rd.stats.QuadCount++
}

func (rd *Renderer) appendLine(x0, y0, x1, y1 float32, c colors.Color) {
	r, g, b, a := c[0], c[1], c[2], c[3]
	rd.lines.verts = append(rd.lines.verts,
		x0, y0, r, g, b, a,
		x1, y1, r, g, b, a,
	)
	rd.stats.LineCount++
}

// EndScene uploads and draws the scene: triangles first, hairlines on top.
func (rd *Renderer) EndScene() error {
	if !rd.inScene {
		return nil
	}
	rd.inScene = false
	defer rd.scratch.Reset()
	if len(rd.tris.verts) == 0 && len(rd.lines.verts) == 0 {
		return nil
	}
	shader := rd.res.Shader(gfx.ShaderDefault)
	if shader == nil {
		return fmt.Errorf("renderer2d: %w", gfx.ErrMissingShader)
	}
	if err := shader.Bind(); err != nil {
		return fmt.Errorf("renderer2d: bind shader: %w", err)
	}
	shader.SetUniformMatrix4("uProjection", rd.vp)
	for _, b := range []*batch{&rd.tris, &rd.lines} {
		if err := rd.flush(shader, b); err != nil {
			return err
		}
	}
	return nil
}

func (rd *Renderer) flush(shader gfx.Shader, b *batch) error {
	if len(b.verts) == 0 {
		return nil
	}
	if b.buf == nil {
		b.buf = rd.res.Device().CreateBuffer(gfx.PositionColor2D().WithCapacity(cap(b.verts)).WithDynamic(true))
	}
	pipe, err := rd.res.Pipeline(shader, b.buf.Descriptor(), b.mode, rd.blend)
	if err != nil {
		return fmt.Errorf("renderer2d: %w", err)
	}
	if err := pipe.Bind(); err != nil {
		return err
	}
	if err := b.buf.Upload(b.verts, 0, len(b.verts)); err != nil {
		return err
	}
	if err := b.buf.Draw(b.mode); err != nil {
		return err
	}
	rd.stats.DrawCalls++
	b.reset()
	return nil
}

// Dispose releases the batch buffers.
func (rd *Renderer) Dispose() {
	for _, b := range []*batch{&rd.tris, &rd.lines} {
		if b.buf != nil {
			b.buf.Dispose()
			b.buf = nil
		}
	}
}
