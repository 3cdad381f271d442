// Package geom provides the float32 2D geometry types shared by the
// simulation core and its renderers.
package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Vec is a 2D position or displacement in world units
type Vec = mgl32.Vec2

// Rect is an axis-aligned rectangle in world units.
// Left <= Right and Top <= Bottom; the Y axis points down.
type Rect struct {
	Left, Top, Right, Bottom float32
}

// NewRect builds a rect from a top-left corner and dimensions
func NewRect(x, y, w, h float32) Rect {
	return Rect{Left: x, Top: y, Right: x + w, Bottom: y + h}
}

// Width returns the horizontal extent
func (r Rect) Width() float32 {
	return r.Right - r.Left
}

// Height returns the vertical extent
func (r Rect) Height() float32 {
	return r.Bottom - r.Top
}

// Center returns the midpoint of the rect
func (r Rect) Center() Vec {
	return Vec{(r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2}
}

// Empty reports whether the rect has zero or negative area
func (r Rect) Empty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Translate returns the rect shifted by v
func (r Rect) Translate(v Vec) Rect {
	return Rect{
		Left:   r.Left + v.X(),
		Top:    r.Top + v.Y(),
		Right:  r.Right + v.X(),
		Bottom: r.Bottom + v.Y(),
	}
}

// Intersects reports whether r and o share any point. Shared edges count
// as intersection, matching the index's conservative boundary policy.
func (r Rect) Intersects(o Rect) bool {
	return r.Left <= o.Right && r.Right >= o.Left &&
		r.Top <= o.Bottom && r.Bottom >= o.Top
}

// Contains reports whether o lies entirely within r
func (r Rect) Contains(o Rect) bool {
	return o.Left >= r.Left && o.Right <= r.Right &&
		o.Top >= r.Top && o.Bottom <= r.Bottom
}

// CenteredRect builds a rect of the given size centered on c
func CenteredRect(c Vec, w, h float32) Rect {
	return Rect{
		Left:   c.X() - w/2,
		Top:    c.Y() - h/2,
		Right:  c.X() + w/2,
		Bottom: c.Y() + h/2,
	}
}

// Span converts a 1D world interval [lo, hi] into the inclusive range of
// cells of the given dimension that conservatively cover it. The lower
// bound uses ceil-1 while the upper uses floor, so an interval touching a
// cell boundary is still included in the lower-adjacent cell.
func Span(lo, hi, dim float32) (int, int) {
	return int(math32.Ceil(lo/dim)) - 1, int(math32.Floor(hi / dim))
}
