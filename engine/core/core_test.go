package core_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubastard/chartgfx/engine/colors"
	"github.com/hubastard/chartgfx/engine/core"
	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/gfx/backend"
	"github.com/hubastard/chartgfx/engine/gfx/gfxtest"
	"github.com/hubastard/chartgfx/engine/text"
)

func TestParseConfigYAML(t *testing.T) {
	cfg, err := core.ParseConfig([]byte(`
title: prices
width: 800
backend: vk
clear_color: "#ff000080"
font_size: 16
`), ".yaml")
	require.NoError(t, err)

	assert.Equal(t, "prices", cfg.Title)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 720, cfg.Height, "missing fields keep defaults")
	assert.Equal(t, gfx.BackendVulkan, cfg.Backend)
	assert.InDelta(t, 1, cfg.ClearColor[0], 1e-6)
	assert.InDelta(t, 128.0/255, cfg.ClearColor[3], 1e-3)
	assert.Equal(t, float32(16), cfg.FontSize)
	assert.True(t, cfg.VSync)
}

func TestParseConfigTOML(t *testing.T) {
	cfg, err := core.ParseConfig([]byte(`
title = "toml"
height = 400
vsync = false
backend = "metal"
font_family = "sans"
`), "toml")
	require.NoError(t, err)

	assert.Equal(t, "toml", cfg.Title)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 400, cfg.Height)
	assert.False(t, cfg.VSync)
	assert.Equal(t, gfx.BackendMetal, cfg.Backend)
	assert.Equal(t, text.Options{Family: "sans", Size: 14}, cfg.TextOptions())
}

func TestParseConfigErrors(t *testing.T) {
	_, err := core.ParseConfig([]byte("backend: glide\n"), ".yml")
	assert.Error(t, err)

	_, err = core.ParseConfig([]byte("width: -1\n"), ".yaml")
	assert.Error(t, err)

	_, err = core.ParseConfig([]byte("{}"), ".json")
	assert.Error(t, err)
}

func TestParseConfigEmptyYAML(t *testing.T) {
	cfg, err := core.ParseConfig(nil, ".yaml")
	require.NoError(t, err)
	assert.Equal(t, core.DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.toml")
	require.NoError(t, os.WriteFile(path, []byte("width = 640\n"), 0o644))

	cfg, err := core.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 640, cfg.Width)

	_, err = core.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

type fakeWindow struct {
	w, h      int
	cb        func(core.Event)
	destroyed bool
}

func (f *fakeWindow) FramebufferSize() (int, int)          { return f.w, f.h }
func (f *fakeWindow) PollEvents()                          {}
func (f *fakeWindow) SwapBuffers()                         {}
func (f *fakeWindow) ShouldClose() bool                    { return true }
func (f *fakeWindow) SetTitle(string)                      {}
func (f *fakeWindow) SetEventCallback(cb func(core.Event)) { f.cb = cb }
func (f *fakeWindow) Destroy()                             { f.destroyed = true }

type recorder struct{ log []string }

func (r *recorder) OnStart(*core.Engine) error       { r.log = append(r.log, "start"); return nil }
func (r *recorder) OnUpdate(*core.Engine, float64)   { r.log = append(r.log, "update") }
func (r *recorder) OnRender(*core.Engine, float64)   { r.log = append(r.log, "render") }
func (r *recorder) OnEvent(*core.Engine, core.Event) { r.log = append(r.log, "event") }
func (r *recorder) OnShutdown(*core.Engine)          { r.log = append(r.log, "shutdown") }

type layer struct {
	name string
	log  *[]string
	eat  bool
}

func (l *layer) OnAttach(*core.Engine) error    { *l.log = append(*l.log, l.name+".attach"); return nil }
func (l *layer) OnDetach(*core.Engine)          { *l.log = append(*l.log, l.name+".detach") }
func (l *layer) OnUpdate(*core.Engine, float64) { *l.log = append(*l.log, l.name+".update") }
func (l *layer) OnRender(*core.Engine, float64) { *l.log = append(*l.log, l.name+".render") }
func (l *layer) OnEvent(*core.Engine, core.Event) bool {
	*l.log = append(*l.log, l.name+".event")
	return l.eat
}

func fakeProvider(dev *gfxtest.Device) backend.Provider {
	return backend.Provider{
		Type:      gfx.BackendOpenGL,
		NewDevice: func(gfx.Surface) (gfx.Device, error) { return dev, nil },
		Shaders: func() gfx.ShaderLibrary {
			lib := gfx.ShaderLibrary{}
			for _, n := range gfx.WellKnownShaders {
				lib[n] = gfx.NewGLSLSource(n, "v", "f")
			}
			return lib
		},
	}
}

func newEngine(t *testing.T, cfg core.Config) (*core.Engine, *gfxtest.Device) {
	t.Helper()
	dev := gfxtest.NewDevice()
	eng, err := core.NewEngine(fakeProvider(dev), &fakeWindow{w: 300, h: 200}, cfg)
	require.NoError(t, err)
	return eng, dev
}

func TestNewEngineInitializesDevice(t *testing.T) {
	eng, dev := newEngine(t, core.DefaultConfig())

	assert.Same(t, gfx.Device(dev), eng.Device)
	assert.True(t, eng.Resources.IsInitialized())
	assert.Equal(t, gfx.Rect{W: 300, H: 200}, dev.Viewport())
	for _, n := range gfx.WellKnownShaders {
		assert.NotNil(t, eng.Resources.Shader(n), n)
	}
}

func TestNewEngineAppliesShaderOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.vert"), []byte("custom-v"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.frag"), []byte("custom-f"), 0o644))

	cfg := core.DefaultConfig()
	cfg.ShaderDir = dir
	eng, _ := newEngine(t, cfg)

	src := eng.Resources.Library()[gfx.ShaderDefault]
	assert.Equal(t, "custom-v", src.GLSL[gfx.StageVertex])
	assert.Equal(t, "v", eng.Resources.Library()[gfx.ShaderText].GLSL[gfx.StageVertex])
}

func TestFrameOrder(t *testing.T) {
	cfg := core.DefaultConfig()
	cfg.ClearColor = colors.Bull
	eng, dev := newEngine(t, cfg)

	var log []string
	require.NoError(t, eng.PushLayer(&layer{name: "chart", log: &log}))
	require.NoError(t, eng.PushLayer(&layer{name: "overlay", log: &log}))

	app := &recorder{}
	ran := false
	eng.Resources.RunOnRenderThread(func() error { ran = true; return nil })
	require.NoError(t, eng.Frame(app, 0.5))

	assert.True(t, ran)
	assert.Equal(t, 1, dev.Frames)
	assert.Equal(t, []colors.Color{colors.Bull}, dev.Clears)
	assert.Equal(t, []string{"render"}, app.log)
	assert.Equal(t, []string{"chart.attach", "overlay.attach", "chart.render", "overlay.render"}, log)
}

func TestFrameFailsWithoutDevice(t *testing.T) {
	eng, dev := newEngine(t, core.DefaultConfig())
	dev.Dispose()

	app := &recorder{}
	assert.ErrorIs(t, eng.Frame(app, 0), gfx.ErrNotInitialized)
	assert.Empty(t, app.log)
	assert.Zero(t, dev.Frames)
}

func TestHandleEvent(t *testing.T) {
	eng, dev := newEngine(t, core.DefaultConfig())
	var log []string
	eng.Layers.Push(&layer{name: "bottom", log: &log})
	eng.Layers.Push(&layer{name: "top", log: &log, eat: true})
	app := &recorder{}

	eng.HandleEvent(app, core.EventResize{W: 640, H: 480})
	assert.Equal(t, gfx.Rect{W: 640, H: 480}, dev.Viewport())
	assert.Equal(t, []string{"top.event"}, log, "handled events stop at the top layer")
	assert.Empty(t, app.log)

	log = nil
	eng.HandleEvent(app, core.EventResize{W: 0, H: 480})
	assert.Equal(t, gfx.Rect{W: 640, H: 480}, dev.Viewport(), "minimized windows keep the viewport")
	assert.Empty(t, log)
}

func TestHandleEventReachesApp(t *testing.T) {
	eng, _ := newEngine(t, core.DefaultConfig())
	var log []string
	eng.Layers.Push(&layer{name: "a", log: &log})
	app := &recorder{}

	eng.HandleEvent(app, core.EventCloseRequested{})
	assert.Equal(t, []string{"a.event"}, log)
	assert.Equal(t, []string{"event"}, app.log)
}

func TestShutdownOrder(t *testing.T) {
	eng, dev := newEngine(t, core.DefaultConfig())
	var log []string
	require.NoError(t, eng.PushLayer(&layer{name: "a", log: &log}))
	require.NoError(t, eng.PushLayer(&layer{name: "b", log: &log}))
	app := &recorder{}

	eng.Shutdown(app)
	assert.Equal(t, []string{"shutdown"}, app.log)
	assert.Equal(t, []string{"a.attach", "b.attach", "b.detach", "a.detach"}, log)
	assert.Zero(t, eng.Layers.Len())
	assert.Equal(t, 1, dev.DisposeHits)
	assert.False(t, dev.IsInitialized())
}

func TestRunWithoutProvider(t *testing.T) {
	backend.ClearProviders()
	t.Cleanup(backend.ClearProviders)

	opened := false
	err := core.Run(&recorder{}, core.DefaultConfig(), func(core.Config, gfx.Backend) (core.Window, error) {
		opened = true
		return &fakeWindow{w: 1, h: 1}, nil
	})
	assert.ErrorIs(t, err, gfx.ErrUnsupported)
	assert.False(t, opened)
}

func TestRunSingleFrame(t *testing.T) {
	backend.ClearProviders()
	t.Cleanup(backend.ClearProviders)
	dev := gfxtest.NewDevice()
	backend.Register(fakeProvider(dev))

	win := &fakeWindow{w: 10, h: 10}
	app := &recorder{}
	var kind gfx.Backend
	err := core.Run(app, core.DefaultConfig(), func(_ core.Config, k gfx.Backend) (core.Window, error) {
		kind = k
		return win, nil
	})
	require.NoError(t, err)

	assert.Equal(t, gfx.BackendOpenGL, kind)
	assert.Equal(t, []string{"start", "shutdown"}, app.log, "ShouldClose stops the loop before any frame")
	assert.True(t, win.destroyed)
	assert.NotNil(t, win.cb)
	assert.Equal(t, 1, dev.DisposeHits)
}
