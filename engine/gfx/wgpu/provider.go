package wgpubackend

import (
	"runtime"
	"slices"

	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/gfx/backend"
)

// Auto-selection priorities relative to backend.DefaultPriority (OpenGL).
// Metal is preferred on Apple platforms, OpenGL elsewhere.
const (
	PriorityMetal  = 60
	PriorityDX12   = 45
	PriorityVulkan = 40
)

var platforms = map[gfx.Backend][]string{
	gfx.BackendVulkan: {"linux", "windows", "freebsd", "android"},
	gfx.BackendMetal:  {"darwin", "ios"},
	gfx.BackendDX12:   {"windows"},
}

func onPlatform(kind gfx.Backend, goos string) bool {
	return slices.Contains(platforms[kind], goos)
}

func provider(kind gfx.Backend, priority int) backend.Provider {
	return backend.Provider{
		Type:      kind,
		Priority:  priority,
		Available: func() bool { return onPlatform(kind, runtime.GOOS) },
		NewDevice: func(surface gfx.Surface) (gfx.Device, error) {
			return NewDevice(kind, surface), nil
		},
		Shaders: Shaders,
	}
}

func init() {
	backend.Register(provider(gfx.BackendVulkan, PriorityVulkan))
	backend.Register(provider(gfx.BackendMetal, PriorityMetal))
	backend.Register(provider(gfx.BackendDX12, PriorityDX12))
}
