// Package platform opens desktop windows with GLFW. A window doubles as the
// device surface: it owns the GL context for the OpenGL backend and hands a
// WebGPU surface descriptor to the others.
package platform

import (
	"log/slog"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/hubastard/chartgfx/engine/core"
	"github.com/hubastard/chartgfx/engine/gfx"
)

// GLFWWindow implements core.Window and pushes events to the app via a handler.
type GLFWWindow struct {
	w    *glfw.Window
	kind gfx.Backend
	onEv func(core.Event)
}

// NewGLFWWindow must be called on the main thread. For OpenGL the window gets
// a 3.2 core context made current on the calling thread; other backends get
// a window without a client API.
func NewGLFWWindow(cfg core.Config, kind gfx.Backend) (*GLFWWindow, error) {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		return nil, err
	}

	glfw.DefaultWindowHints()
	if kind == gfx.BackendOpenGL {
		// GL 3.2+ core profile (Mac requires forward-compatible flag).
		glfw.WindowHint(glfw.ContextVersionMajor, 3)
		glfw.WindowHint(glfw.ContextVersionMinor, 2)
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
		glfw.WindowHint(glfw.Samples, 0)
	} else {
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	}

	win, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, err
	}
	if kind == gfx.BackendOpenGL {
		win.MakeContextCurrent()
		if cfg.VSync {
			glfw.SwapInterval(1)
		} else {
			glfw.SwapInterval(0)
		}
	}

	gw := &GLFWWindow{w: win, kind: kind}
	fw, fh := win.GetFramebufferSize()
	gfx.Logger().Info("window created",
		slog.String("backend", kind.String()),
		slog.Int("width", fw), slog.Int("height", fh))

	// Callbacks -> translate to core.Event
	win.SetCloseCallback(func(*glfw.Window) { gw.emit(core.EventCloseRequested{}) })
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, w, h int) {
		gw.emit(core.EventResize{W: w, H: h})
	})

	return gw, nil
}

// Open is a core.WindowFactory.
func Open(cfg core.Config, kind gfx.Backend) (core.Window, error) {
	return NewGLFWWindow(cfg, kind)
}

func (g *GLFWWindow) emit(ev core.Event) {
	if g.onEv != nil {
		g.onEv(ev)
	}
}

// core.Window impl
func (g *GLFWWindow) PollEvents()                          { glfw.PollEvents() }
func (g *GLFWWindow) ShouldClose() bool                    { return g.w.ShouldClose() }
func (g *GLFWWindow) FramebufferSize() (int, int)          { return g.w.GetFramebufferSize() }
func (g *GLFWWindow) SetTitle(t string)                    { g.w.SetTitle(t) }
func (g *GLFWWindow) SetEventCallback(cb func(core.Event)) { g.onEv = cb }

// SwapBuffers presents GL frames. WebGPU devices present in EndFrame.
func (g *GLFWWindow) SwapBuffers() {
	if g.kind == gfx.BackendOpenGL {
		g.w.SwapBuffers()
	}
}

// ContentScale is the monitor scale applied to the window, for HiDPI text.
func (g *GLFWWindow) ContentScale() float32 {
	x, _ := g.w.GetContentScale()
	if x <= 0 {
		return 1
	}
	return x
}

// MakeContextCurrent binds the GL context to the calling thread.
func (g *GLFWWindow) MakeContextCurrent() {
	if g.kind == gfx.BackendOpenGL {
		g.w.MakeContextCurrent()
	}
}

// WGPUSurfaceDescriptor describes the native window for WebGPU.
func (g *GLFWWindow) WGPUSurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.w)
}

func (g *GLFWWindow) Destroy() {
	g.w.Destroy()
	glfw.Terminate()
}
