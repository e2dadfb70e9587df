package core

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/hubastard/chartgfx/engine/assets"
	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/gfx/backend"
	"github.com/hubastard/chartgfx/engine/profiler"
)

// Run selects a backend, opens a window for it and executes the main loop.
func Run(app App, cfg Config, newWindow WindowFactory) error {
	// Graphics contexts require the main OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := cfg.Validate(); err != nil {
		return err
	}
	prov, err := backend.Select(cfg.Backend)
	if err != nil {
		return err
	}

	win, err := newWindow(cfg, prov.Type)
	if err != nil {
		return fmt.Errorf("window: %w", err)
	}
	defer win.Destroy()

	eng, err := NewEngine(prov, win, cfg)
	if err != nil {
		return err
	}
	win.SetEventCallback(func(ev Event) { eng.HandleEvent(app, ev) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.WatchShaders && cfg.ShaderDir != "" {
		go func() {
			wgsl := assets.UsesWGSL(prov.Type)
			if err := assets.WatchShaders(ctx, cfg.ShaderDir, wgsl, eng.Resources, nil); err != nil {
				gfx.Logger().Warn("shader watch stopped", slog.Any("err", err))
			}
		}()
	}

	if err := app.OnStart(eng); err != nil {
		eng.Shutdown(app)
		return err
	}
	defer eng.Shutdown(app)

	// Fixed-timestep (60 Hz) with interpolation
	const tick = time.Second / 60
	var (
		accum   time.Duration
		prev    = time.Now()
		maxStep = 10 // prevent spiral of death
	)

	for !win.ShouldClose() {
		now := time.Now()
		accum += now.Sub(prev)
		prev = now

		// Poll OS events (platform will emit via callbacks)
		win.PollEvents()

		steps := 0
		for accum >= tick && steps < maxStep {
			eng.Update(app, tick.Seconds())
			accum -= tick
			steps++
		}
		alpha := float64(accum) / float64(tick)

		if err := eng.Frame(app, alpha); err != nil {
			gfx.Logger().Warn("frame skipped", slog.Any("err", err))
		}
		win.SwapBuffers()
	}
	return nil
}

// contentScaler is implemented by windows that know their monitor scale.
type contentScaler interface {
	ContentScale() float32
}

// NewEngine creates and initializes the provider's device on win and a
// resource manager for it. Shader sources found in cfg.ShaderDir replace the
// built-in ones.
func NewEngine(prov backend.Provider, win Window, cfg Config) (*Engine, error) {
	dev, err := prov.CreateDevice(win)
	if err != nil {
		return nil, fmt.Errorf("device: %w", err)
	}
	if err := dev.Initialize(); err != nil {
		dev.Dispose()
		return nil, fmt.Errorf("device: %w", err)
	}

	res := prov.CreateResourceManager()
	if cfg.ShaderDir != "" {
		overrides, err := assets.LoadShaderDir(cfg.ShaderDir, assets.UsesWGSL(prov.Type))
		if err != nil {
			dev.Dispose()
			return nil, err
		}
		assets.Override(res.Library(), overrides)
	}
	if cfg.ScaleFactor == 0 {
		if cs, ok := win.(contentScaler); ok {
			cfg.ScaleFactor = cs.ContentScale()
		}
	}
	res.SetTextOptions(cfg.TextOptions())
	if err := res.Init(dev); err != nil {
		dev.Dispose()
		return nil, err
	}

	w, h := win.FramebufferSize()
	dev.SetViewport(0, 0, w, h)
	gfx.Logger().Info("engine ready",
		slog.String("backend", prov.Type.String()),
		slog.String("renderer", dev.RendererInfo()),
		slog.Int("width", w), slog.Int("height", h))

	return &Engine{
		Window:    win,
		Device:    dev,
		Resources: res,
		Layers:    &LayerStack{},
		Config:    cfg,
		start:     time.Now(),
	}, nil
}

// PushLayer attaches l and puts it on top of the stack.
func (e *Engine) PushLayer(l Layer) error {
	if err := l.OnAttach(e); err != nil {
		return err
	}
	e.Layers.Push(l)
	return nil
}

func (e *Engine) Update(app App, dt float64) {
	app.OnUpdate(e, dt)
	e.Layers.ForEach(func(l Layer) { l.OnUpdate(e, dt) })
}

// Frame renders one frame: clear, app, layers bottom to top, queued text,
// then the render-thread queue before the frame is submitted. Layers draw
// text with Resources.TextRenderer() and never open their own batch.
func (e *Engine) Frame(app App, alpha float64) error {
	defer profiler.Start("core.Frame")()

	if err := e.Device.BeginFrame(); err != nil {
		return err
	}
	e.Device.Clear(e.Config.ClearColor)

	// One text batch per frame, drawn over every layer.
	w, h := e.Window.FramebufferSize()
	tr := e.Resources.TextRenderer()
	tr.BeginBatch(w, h)
	app.OnRender(e, alpha)
	e.Layers.ForEach(func(l Layer) { l.OnRender(e, alpha) })
	if err := tr.EndBatch(); err != nil {
		gfx.Logger().Warn("text batch failed", slog.Any("err", err))
	}
	// Errors are logged by the manager.
	_ = e.Resources.ProcessPending()
	return e.Device.EndFrame()
}

// HandleEvent applies window events to the device, then offers them to the
// layers top to bottom and finally to the app.
func (e *Engine) HandleEvent(app App, ev Event) {
	if r, ok := ev.(EventResize); ok {
		if r.W < 1 || r.H < 1 {
			return
		}
		e.Device.SetViewport(0, 0, r.W, r.H)
	}
	if e.Layers.Dispatch(e, ev) {
		return
	}
	app.OnEvent(e, ev)
}

// Shutdown detaches layers top to bottom, then releases resources and the
// device.
func (e *Engine) Shutdown(app App) {
	app.OnShutdown(e)
	for {
		l, ok := e.Layers.Pop()
		if !ok {
			break
		}
		l.OnDetach(e)
	}
	e.Resources.Dispose()
	e.Device.Dispose()
	gfx.Logger().Info("engine exit", slog.Duration("uptime", e.Uptime()))
}
