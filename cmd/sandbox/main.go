// Command sandbox renders a live candlestick chart with any registered
// backend.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/hubastard/chartgfx/engine/core"
	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/gfx/backend"
	_ "github.com/hubastard/chartgfx/engine/gfx/gl"
	_ "github.com/hubastard/chartgfx/engine/gfx/wgpu"
	"github.com/hubastard/chartgfx/engine/platform"
	"github.com/hubastard/chartgfx/engine/profiler"
)

func init() {
	// GLFW and the GL context must stay on the main thread.
	runtime.LockOSThread()
}

type App struct {
	lastFrame time.Time
	frameMs   float32
	chart     *ChartLayer
	debug     *LayerDebug
}

func (a *App) OnStart(e *core.Engine) error {
	profiler.Init(1 << 16)

	a.chart = &ChartLayer{}
	if err := e.PushLayer(a.chart); err != nil {
		return err
	}
	a.debug = &LayerDebug{chart: a.chart, frameMs: &a.frameMs}
	return e.PushLayer(a.debug)
}

func (a *App) OnUpdate(e *core.Engine, dt float64) {}

func (a *App) OnRender(e *core.Engine, alpha float64) {
	now := time.Now()
	if !a.lastFrame.IsZero() {
		a.frameMs = float32(now.Sub(a.lastFrame).Seconds() * 1000)
	}
	a.lastFrame = now
}

func (a *App) OnEvent(e *core.Engine, ev core.Event) {}

func (a *App) OnShutdown(e *core.Engine) {
	gfx.Logger().Info("resources at exit", slog.String("stats", e.Resources.Stats()))
	path := e.Config.Profile
	if path == "" || !profiler.Enabled {
		return
	}
	if err := profiler.Dump(path); err != nil {
		gfx.Logger().Warn("profile dump failed", slog.Any("err", err))
		return
	}
	gfx.Logger().Info("speedscope profile written", slog.String("path", path))
}

func newRootCmd() *cobra.Command {
	var (
		configPath   string
		backendName  string
		profileOut   string
		shaderDir    string
		listBackends bool
		verbose      bool
	)
	cmd := &cobra.Command{
		Use:          "sandbox",
		Short:        "Render a live demo chart",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			gfx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			if listBackends {
				for _, b := range backend.Available() {
					fmt.Fprintln(cmd.OutOrStdout(), b)
				}
				return nil
			}

			cfg := core.DefaultConfig()
			cfg.Title = "chartgfx sandbox"
			if configPath != "" {
				var err error
				if cfg, err = core.LoadConfig(configPath); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("backend") {
				b, err := gfx.ParseBackend(backendName)
				if err != nil {
					return err
				}
				cfg.Backend = b
			}
			if profileOut != "" {
				cfg.Profile = profileOut
			}
			if shaderDir != "" {
				cfg.ShaderDir = shaderDir
			}

			err := core.Run(&App{}, cfg, platform.Open)
			var unsupported *backend.UnsupportedError
			if errors.As(err, &unsupported) {
				return fmt.Errorf("%w (try --list-backends)", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	f.StringVarP(&backendName, "backend", "b", "auto", "graphics backend: auto, opengl, vulkan, metal, dx12")
	f.StringVar(&profileOut, "profile-out", "", "write a speedscope profile on exit (profile builds only)")
	f.StringVar(&shaderDir, "shaders", "", "directory of shader overrides")
	f.BoolVar(&listBackends, "list-backends", false, "print the backends usable on this machine and exit")
	f.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
