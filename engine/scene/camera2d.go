package scene

import "github.com/go-gl/mathgl/mgl32"

// ScreenProjection maps pixel coordinates with the origin at the top left and
// Y growing downward into clip space.
func ScreenProjection(width, height int) [16]float32 {
	return [16]float32(mgl32.Ortho(0, float32(width), float32(height), 0, -1, 1))
}

// Camera2D is a pan/zoom view over pixel space, Y down. Zoom scales around the
// viewport center.
type Camera2D struct {
	Width, Height int
	X, Y          float32 // pan offset in pixels
	Zoom          float32 // 1 = no zoom
	vp            mgl32.Mat4
	dirty         bool
}

func NewCamera2D(width, height int) *Camera2D {
	c := &Camera2D{Width: width, Height: height, Zoom: 1, dirty: true}
	c.Recalculate()
	return c
}

// SetViewportPixels updates the target size after a resize.
func (c *Camera2D) SetViewportPixels(w, h int) {
	c.Width, c.Height = w, h
	c.dirty = true
}

func (c *Camera2D) Move(dx, dy float32) { c.X += dx; c.Y += dy; c.dirty = true }

func (c *Camera2D) SetZoom(z float32) {
	if z < 0.05 {
		z = 0.05
	}
	c.Zoom = z
	c.dirty = true
}

// VP returns the column-major view-projection matrix.
func (c *Camera2D) VP() [16]float32 {
	if c.dirty {
		c.Recalculate()
	}
	return [16]float32(c.vp)
}

func (c *Camera2D) Recalculate() {
	w, h := float32(c.Width), float32(c.Height)
	proj := mgl32.Ortho(0, w, h, 0, -1, 1)
	cx, cy := w*0.5, h*0.5
	view := mgl32.Translate3D(cx, cy, 0).
		Mul4(mgl32.Scale3D(c.Zoom, c.Zoom, 1)).
		Mul4(mgl32.Translate3D(-cx-c.X, -cy-c.Y, 0))
	c.vp = proj.Mul4(view)
	c.dirty = false
}

// ScreenToWorld maps a pixel position back through the camera.
func (c *Camera2D) ScreenToWorld(sx, sy float32) (float32, float32) {
	cx, cy := float32(c.Width)*0.5, float32(c.Height)*0.5
	return (sx-cx)/c.Zoom + cx + c.X, (sy-cy)/c.Zoom + cy + c.Y
}
