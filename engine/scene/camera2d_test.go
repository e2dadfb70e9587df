package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func project(m [16]float32, x, y float32) (float32, float32) {
	v := mgl32.Mat4(m).Mul4x1(mgl32.Vec4{x, y, 0, 1})
	return v[0], v[1]
}

func TestScreenProjectionCorners(t *testing.T) {
	m := ScreenProjection(800, 600)

	x, y := project(m, 0, 0)
	assert.InDelta(t, -1, x, 1e-5)
	assert.InDelta(t, 1, y, 1e-5)

	x, y = project(m, 800, 600)
	assert.InDelta(t, 1, x, 1e-5)
	assert.InDelta(t, -1, y, 1e-5)
}

func TestCameraIdentityMatchesScreenProjection(t *testing.T) {
	c := NewCamera2D(640, 480)
	want, got := ScreenProjection(640, 480), c.VP()
	assert.InDeltaSlice(t, want[:], got[:], 1e-5)
}

func TestCameraZoomKeepsCenterFixed(t *testing.T) {
	c := NewCamera2D(640, 480)
	c.SetZoom(2)
	x, y := project(c.VP(), 320, 240)
	assert.InDelta(t, 0, x, 1e-5)
	assert.InDelta(t, 0, y, 1e-5)

	wx, wy := c.ScreenToWorld(320, 240)
	assert.InDelta(t, 320, wx, 1e-5)
	assert.InDelta(t, 240, wy, 1e-5)
}
