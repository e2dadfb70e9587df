package main

import (
	"fmt"
	"runtime"

	"github.com/hubastard/chartgfx/engine/colors"
	"github.com/hubastard/chartgfx/engine/core"
	"github.com/hubastard/chartgfx/engine/gfx"
	"github.com/hubastard/chartgfx/engine/gfx/renderer2d"
	"github.com/hubastard/chartgfx/engine/profiler"
	"github.com/hubastard/chartgfx/engine/scene"
)

// LayerDebug overlays frame timing, chart batch counts and memory use.
type LayerDebug struct {
	chart   *ChartLayer
	frameMs *float32
	r2d     *renderer2d.Renderer
	lines   []string
	tick    int
}

func (l *LayerDebug) OnAttach(e *core.Engine) error {
	l.r2d = renderer2d.New(e.Resources)
	return nil
}

func (l *LayerDebug) OnDetach(e *core.Engine)             { l.r2d.Dispose() }
func (l *LayerDebug) OnUpdate(e *core.Engine, dt float64) { l.tick++ }

func (l *LayerDebug) OnRender(e *core.Engine, alpha float64) {
	defer profiler.Start("LayerDebug.OnRender")()

	st := l.chart.Stats()
	ms := *l.frameMs
	fps := float32(0)
	if ms > 0 {
		fps = 1000 / ms
	}
	l.lines = append(l.lines[:0],
		fmt.Sprintf("%s  %s", e.Device.Backend(), e.Device.RendererInfo()),
		fmt.Sprintf("Tick %d  %.2f ms (%.0f FPS)", l.tick, ms, fps),
		fmt.Sprintf("Draw calls %d  quads %d  lines %d  verts %d", st.DrawCalls, st.QuadCount, st.LineCount, st.TotalVertexCount()),
		fmt.Sprintf("Pending ops %d", e.Resources.PendingOps()),
		fmt.Sprintf("Goroutines %d  CPUs %d", runtime.NumGoroutine(), runtime.NumCPU()),
	)
	if profiler.Enabled {
		l.lines = append(l.lines, fmt.Sprintf("Heap %.2f MB  allocs %d", float32(profiler.MemoryUsage())/(1<<20), profiler.MemoryAllocs()))
	}

	tr := e.Resources.TextRenderer()
	lh := tr.TextHeight() + 4
	width := float32(0)
	for _, s := range l.lines {
		width = max(width, tr.TextWidth(s))
	}
	w, h := e.Window.FramebufferSize()
	boxH := lh*float32(len(l.lines)) + 8
	x, y := float32(plotMargin+8), float32(h-plotMargin)-boxH-8

	l.r2d.SetBlendMode(gfx.BlendAlpha)
	l.r2d.BeginScene(scene.ScreenProjection(w, h))
	l.r2d.DrawRect(x-6, y-4, width+12, boxH, colors.Black.WithAlpha(0.55))
	if err := l.r2d.EndScene(); err != nil {
		return
	}

	for i, s := range l.lines {
		c := colors.AxisText
		if i == 0 {
			c = colors.Yellow
		}
		tr.DrawText(s, x, y+lh*float32(i+1)-4, c)
	}
}

func (l *LayerDebug) OnEvent(e *core.Engine, ev core.Event) bool { return false }
