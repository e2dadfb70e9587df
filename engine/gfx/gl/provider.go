package glbackend

import (
	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/gfx/backend"
)

// Priority of the OpenGL provider under Auto.
const Priority = backend.DefaultPriority

func init() {
	backend.Register(backend.Provider{
		Type:     gfx.BackendOpenGL,
		Priority: Priority,
		NewDevice: func(surface gfx.Surface) (gfx.Device, error) {
			return NewDevice(surface), nil
		},
		Shaders: Shaders,
	})
}
