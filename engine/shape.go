package engine

import (
	"sync/atomic"

	"github.com/korhul/tessera/geom"
)

// Role classifies why a shape is indexed: locator for rendering order,
// overlap for sensor queries, solid for collision resolution. A shape
// can hold any combination.
type Role uint8

const (
	RoleLocator Role = 1 << iota
	RoleOverlap
	RoleSolid
)

var shapeIDCounter atomic.Uint64

// Shape is an axis-aligned hitbox tracked by a chunk index. It carries a
// role bitmask, a draw layer used by the locator role, and a cached
// chunk range that exists exactly while at least one role is active.
// Chunks hold non-owning references back to the shape.
type Shape struct {
	id        uint64
	index     *ChunkIndex
	bounds    geom.Rect
	roles     Role
	drawLayer int

	roleCount  int
	chunkRange *chunkRange

	// Data is an opaque payload for the shape's owner; renderers and
	// collision handlers read it back from query results
	Data any
}

// NewShape creates an unregistered shape with the given bounds. Activate
// roles with SetRole to index it.
func (ci *ChunkIndex) NewShape(bounds geom.Rect) *Shape {
	return &Shape{
		id:     shapeIDCounter.Add(1),
		index:  ci,
		bounds: bounds,
	}
}

// ID returns the shape's unique identity
func (sh *Shape) ID() uint64 {
	return sh.id
}

// Bounds returns the shape's current bounding rectangle
func (sh *Shape) Bounds() geom.Rect {
	return sh.bounds
}

// SetBounds moves or resizes the shape and incrementally re-indexes it
// if any role is active
func (sh *Shape) SetBounds(b geom.Rect) {
	sh.bounds = b
	if sh.roleCount > 0 {
		sh.index.onMoved(sh)
	}
}

// Translate shifts the shape's bounds by v
func (sh *Shape) Translate(v geom.Vec) {
	sh.SetBounds(sh.bounds.Translate(v))
}

// HasRole reports whether the role is currently active
func (sh *Shape) HasRole(role Role) bool {
	return sh.roles&role != 0
}

// SetRole activates or deactivates one role. Activating an active role
// or deactivating an inactive one is a no-op and returns false.
func (sh *Shape) SetRole(role Role, active bool) bool {
	if active {
		if sh.roles&role != 0 {
			return false
		}
		sh.roles |= role
		sh.index.register(sh, role)
		return true
	}
	if sh.roles&role == 0 {
		return false
	}
	sh.index.unregister(sh, role)
	sh.roles &^= role
	return true
}

// DrawLayer returns the shape's draw-layer ordering key
func (sh *Shape) DrawLayer() int {
	return sh.drawLayer
}

// SetDrawLayer reassigns the locator draw layer. For a registered
// locator this is a bucket move within the shape's current chunk set,
// not a re-range.
func (sh *Shape) SetDrawLayer(layer int) {
	if layer == sh.drawLayer {
		return
	}
	if sh.roles&RoleLocator != 0 {
		sh.index.changeDrawLayer(sh, layer)
	}
	sh.drawLayer = layer
}
