package engine

import "github.com/korhul/tessera/geom"

// Viewport maps a rectangular region of the host's screen onto a region
// of world space. The world region is centered on the camera shape when
// one is bound, and on the world origin otherwise.
type Viewport struct {
	// Screen rectangle in host cells/pixels, half-open
	X1, Y1, X2, Y2 int

	// World dimensions covered by the viewport
	WorldWidth  float32
	WorldHeight float32

	camera *Shape
}

// NewViewport creates a viewport covering the given screen rectangle and
// world extent
func NewViewport(x1, y1, x2, y2 int, worldWidth, worldHeight float32) *Viewport {
	return &Viewport{
		X1: x1, Y1: y1, X2: x2, Y2: y2,
		WorldWidth:  worldWidth,
		WorldHeight: worldHeight,
	}
}

// Camera returns the shape the viewport tracks, or nil
func (v *Viewport) Camera() *Shape {
	return v.camera
}

// SetCamera binds the viewport's center to a shape. A nil camera centers
// the viewport on the world origin.
func (v *Viewport) SetCamera(sh *Shape) {
	v.camera = sh
}

// Degenerate reports whether the screen rectangle has zero area; such
// viewports are skipped by the render driver
func (v *Viewport) Degenerate() bool {
	return v.X1 == v.X2 || v.Y1 == v.Y2
}

// WorldClip returns the world-space region the viewport currently shows
func (v *Viewport) WorldClip() geom.Rect {
	center := geom.Vec{}
	if v.camera != nil {
		center = v.camera.Bounds().Center()
	}
	return geom.CenteredRect(center, v.WorldWidth, v.WorldHeight)
}

// Project converts a world position into screen coordinates within the
// viewport's rectangle
func (v *Viewport) Project(p geom.Vec) (int, int) {
	clip := v.WorldClip()
	sx := v.X1 + int(float32(v.X2-v.X1)*(p.X()-clip.Left)/clip.Width())
	sy := v.Y1 + int(float32(v.Y2-v.Y1)*(p.Y()-clip.Top)/clip.Height())
	return sx, sy
}
