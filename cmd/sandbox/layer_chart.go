package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/chewxy/math32"

	"github.com/hubastard/chartgfx/engine/colors"
	"github.com/hubastard/chartgfx/engine/core"
	"github.com/hubastard/chartgfx/engine/gfx/renderer2d"
	"github.com/hubastard/chartgfx/engine/profiler"
	"github.com/hubastard/chartgfx/engine/scene"
)

const (
	visibleCandles = 120
	gridRows       = 6
	axisWidth      = 72
	plotMargin     = 24
	candleSeconds  = 0.5
)

type candle struct{ open, high, low, close float32 }

// ChartLayer draws a ticking candlestick series with a close line, a grid and
// price labels.
type ChartLayer struct {
	r2d     *renderer2d.Renderer
	rng     *rand.Rand
	candles []candle
	closes  []float32
	elapsed float64
	stats   renderer2d.Statistics
}

func (l *ChartLayer) OnAttach(e *core.Engine) error {
	l.r2d = renderer2d.New(e.Resources)
	l.rng = rand.New(rand.NewPCG(7, 42))
	last := float32(100)
	for range visibleCandles {
		l.candles = append(l.candles, l.next(last))
		last = l.candles[len(l.candles)-1].close
	}
	return nil
}

func (l *ChartLayer) next(open float32) candle {
	c := candle{open: open}
	c.close = open * (1 + float32(l.rng.NormFloat64())*0.01)
	c.high = max(c.open, c.close) * (1 + float32(l.rng.Float64())*0.004)
	c.low = min(c.open, c.close) * (1 - float32(l.rng.Float64())*0.004)
	return c
}

func (l *ChartLayer) OnDetach(e *core.Engine) { l.r2d.Dispose() }

func (l *ChartLayer) OnUpdate(e *core.Engine, dt float64) {
	l.elapsed += dt
	if l.elapsed < candleSeconds {
		// The live candle moves between ticks.
		cur := &l.candles[len(l.candles)-1]
		cur.close *= 1 + float32(l.rng.NormFloat64())*0.0008
		cur.high = max(cur.high, cur.close)
		cur.low = min(cur.low, cur.close)
		return
	}
	l.elapsed = 0
	copy(l.candles, l.candles[1:])
	l.candles[len(l.candles)-1] = l.next(l.candles[len(l.candles)-2].close)
}

func (l *ChartLayer) priceRange() (lo, hi float32) {
	lo, hi = math32.Inf(1), math32.Inf(-1)
	for _, c := range l.candles {
		lo = min(lo, c.low)
		hi = max(hi, c.high)
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}

func (l *ChartLayer) OnRender(e *core.Engine, alpha float64) {
	defer profiler.Start("ChartLayer.OnRender")()

	w, h := e.Window.FramebufferSize()
	if w < 1 || h < 1 {
		return
	}
	left, top := float32(plotMargin), float32(plotMargin)
	right, bottom := float32(w-axisWidth), float32(h-plotMargin)
	if right <= left || bottom <= top {
		return
	}
	lo, hi := l.priceRange()
	y := func(p float32) float32 { return bottom - (p-lo)/(hi-lo)*(bottom-top) }
	step := (right - left) / float32(len(l.candles))

	l.r2d.BeginScene(scene.ScreenProjection(w, h))

	for i := 0; i <= gridRows; i++ {
		gy := math32.Round(top + (bottom-top)*float32(i)/gridRows)
		l.r2d.DrawLine(left, gy, right, gy, 1, colors.GridLine)
	}
	l.r2d.DrawRectOutline(left, top, right-left, bottom-top, 1, colors.GridLine)

	l.closes = l.closes[:0]
	for i, c := range l.candles {
		cx := left + step*(float32(i)+0.5)
		col := colors.Bull
		if c.close < c.open {
			col = colors.Bear
		}
		l.r2d.DrawLine(cx, y(c.high), cx, y(c.low), 1, col)
		bodyTop, bodyBottom := y(max(c.open, c.close)), y(min(c.open, c.close))
		l.r2d.DrawRect(cx-step*0.35, bodyTop, step*0.7, max(bodyBottom-bodyTop, 1), col)
		l.closes = append(l.closes, cx, y(c.close))
	}
	l.r2d.DrawPolyline(l.closes, 2, colors.Yellow.WithAlpha(0.5))

	last := l.candles[len(l.candles)-1]
	l.r2d.DrawLine(left, y(last.close), right, y(last.close), 1, colors.AxisText.WithAlpha(0.6))

	if err := l.r2d.EndScene(); err != nil {
		return
	}
	l.stats = l.r2d.Stats()

	tr := e.Resources.TextRenderer()
	half := tr.TextHeight() / 2
	for i := 0; i <= gridRows; i++ {
		p := hi - (hi-lo)*float32(i)/gridRows
		tr.DrawTextRight(fmt.Sprintf("%.2f", p), float32(w)-8, y(p)+half, colors.AxisText)
	}
	tr.DrawText(fmt.Sprintf("DEMO/USD  %.2f", last.close), left+8, top+tr.TextHeight()+4, colors.White)
}

// OnEvent does nothing on resize: the layout is recomputed from the
// framebuffer size every frame.
func (l *ChartLayer) OnEvent(e *core.Engine, ev core.Event) bool { return false }

func (l *ChartLayer) Stats() renderer2d.Statistics { return l.stats }
