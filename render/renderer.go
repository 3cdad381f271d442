// Package render adapts the simulation core's visibility queries to a
// tcell terminal screen. The engine stays renderer-agnostic; this is the
// collaborator it hands viewport clip regions to.
package render

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/korhul/tessera/engine"
	"github.com/korhul/tessera/geom"
)

// Cell is the render payload a locator shape carries in Shape.Data
type Cell struct {
	Rune  rune
	Style tcell.Style
}

// ScreenRenderer draws a state's visible locator shapes onto a tcell
// screen, one cell per shape center
type ScreenRenderer struct {
	screen tcell.Screen
}

// NewScreenRenderer wraps a tcell screen
func NewScreenRenderer(screen tcell.Screen) *ScreenRenderer {
	return &ScreenRenderer{screen: screen}
}

// Frame renders one full frame: clears the screen, draws every viewport
// of the state, and flushes
func (r *ScreenRenderer) Frame(s *engine.State) {
	r.screen.Clear()
	s.Render(r.RenderViewport)
	r.screen.Show()
}

// RenderViewport draws one viewport's clip region, background layers
// (below 0) first, foreground layers (0 and above) on top. It satisfies
// engine.RenderFunc.
func (r *ScreenRenderer) RenderViewport(v *engine.Viewport, clip geom.Rect, index *engine.ChunkIndex) {
	draw := func(sh *engine.Shape) bool {
		x, y := v.Project(sh.Bounds().Center())
		if x < v.X1 || x >= v.X2 || y < v.Y1 || y >= v.Y2 {
			return true
		}
		cell, ok := sh.Data.(Cell)
		if !ok {
			cell = Cell{Rune: '#', Style: tcell.StyleDefault}
		}
		r.screen.SetContent(x, y, cell.Rune, nil, cell.Style)
		return true
	}
	index.ForEachVisible(math.MinInt, -1, clip, draw)
	index.ForEachVisible(0, math.MaxInt, clip, draw)
}
