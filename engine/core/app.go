package core

import (
	"time"

	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/resources"
)

// App defines the application hooks.
type App interface {
	OnStart(e *Engine) error           // called once after device and resources init
	OnUpdate(e *Engine, dt float64)    // called at a fixed tick (60Hz by default)
	OnRender(e *Engine, alpha float64) // render with interpolation alpha [0..1]
	OnEvent(e *Engine, ev Event)       // window events
	OnShutdown(e *Engine)              // before resources are disposed
}

// Engine exposes core services to the App and its layers.
type Engine struct {
	Window    Window
	Device    gfx.Device
	Resources *resources.Manager
	Layers    *LayerStack
	Config    Config
	start     time.Time
}

func (e *Engine) Uptime() time.Duration { return time.Since(e.start) }

// Window abstraction. It doubles as the device surface.
type Window interface {
	gfx.Surface
	PollEvents()
	SwapBuffers()
	ShouldClose() bool
	SetTitle(title string)
	SetEventCallback(cb func(Event))
	Destroy()
}

// WindowFactory opens a window prepared for the given backend's API.
type WindowFactory func(cfg Config, kind gfx.Backend) (Window, error)

// Event model. Only window lifecycle events are delivered.
type Event interface{ isEvent() }

type EventCloseRequested struct{}

func (EventCloseRequested) isEvent() {}

type EventResize struct{ W, H int }

func (EventResize) isEvent() {}
