package engine

import (
	"fmt"
	"sort"

	"github.com/korhul/tessera/geom"
)

// chunkCoord identifies one cell of the chunk grid
type chunkCoord struct {
	X, Y int
}

// chunkRange is an inclusive rectangle of chunk coordinates
type chunkRange struct {
	X1, Y1, X2, Y2 int
}

// contains reports whether the coord lies inside the range
func (r chunkRange) contains(c chunkCoord) bool {
	return c.X >= r.X1 && c.X <= r.X2 && c.Y >= r.Y1 && c.Y <= r.Y2
}

// forEach visits every coord in the range in row-major order
func (r chunkRange) forEach(fn func(chunkCoord)) {
	for y := r.Y1; y <= r.Y2; y++ {
		for x := r.X1; x <= r.X2; x++ {
			fn(chunkCoord{X: x, Y: y})
		}
	}
}

type shapeSet map[*Shape]struct{}

// Chunk is one fixed-size cell of the spatial index. It holds non-owning
// references to the shapes overlapping it, separated by role: locator
// shapes bucketed per draw layer, overlap and solid shapes in flat sets.
type Chunk struct {
	locators  map[int]shapeSet
	layerKeys []int // sorted ascending, tracks locator buckets
	overlaps  shapeSet
	solids    shapeSet
}

func newChunk() *Chunk {
	return &Chunk{
		locators: make(map[int]shapeSet),
		overlaps: make(shapeSet),
		solids:   make(shapeSet),
	}
}

// locatorBucket returns the layer's locator set, creating it lazily
func (c *Chunk) locatorBucket(layer int) shapeSet {
	set, ok := c.locators[layer]
	if !ok {
		set = make(shapeSet)
		c.locators[layer] = set
		i := sort.SearchInts(c.layerKeys, layer)
		c.layerKeys = append(c.layerKeys, 0)
		copy(c.layerKeys[i+1:], c.layerKeys[i:])
		c.layerKeys[i] = layer
	}
	return set
}

// removeRole deletes the shape from the role's collection. Unlike
// roleSet, an absent locator bucket is left absent.
func (c *Chunk) removeRole(sh *Shape, role Role, layer int) {
	switch role {
	case RoleLocator:
		delete(c.locators[layer], sh)
	case RoleOverlap:
		delete(c.overlaps, sh)
	case RoleSolid:
		delete(c.solids, sh)
	}
}

// roleSet returns the chunk's collection for the given role and layer
func (c *Chunk) roleSet(role Role, layer int) shapeSet {
	switch role {
	case RoleLocator:
		return c.locatorBucket(layer)
	case RoleOverlap:
		return c.overlaps
	case RoleSolid:
		return c.solids
	}
	panic(fmt.Errorf("engine: unknown shape role %d", role))
}

// ChunkIndex partitions world space into fixed-size cells and registers
// each shape, per active role, in every chunk its bounds overlap. Chunks
// are created lazily on first reference and retained when empty.
type ChunkIndex struct {
	chunkWidth  float32
	chunkHeight float32
	chunks      map[chunkCoord]*Chunk
}

// NewChunkIndex creates an empty index. Non-positive chunk dimensions
// are a programming error and panic.
func NewChunkIndex(chunkWidth, chunkHeight float32) *ChunkIndex {
	if chunkWidth <= 0 {
		panic(fmt.Errorf("engine: attempted to create a chunk index with non-positive chunk width %v", chunkWidth))
	}
	if chunkHeight <= 0 {
		panic(fmt.Errorf("engine: attempted to create a chunk index with non-positive chunk height %v", chunkHeight))
	}
	return &ChunkIndex{
		chunkWidth:  chunkWidth,
		chunkHeight: chunkHeight,
		chunks:      make(map[chunkCoord]*Chunk),
	}
}

// ChunkWidth returns the horizontal cell dimension
func (ci *ChunkIndex) ChunkWidth() float32 {
	return ci.chunkWidth
}

// ChunkHeight returns the vertical cell dimension
func (ci *ChunkIndex) ChunkHeight() float32 {
	return ci.chunkHeight
}

// chunk returns the cell at the coord, creating it lazily
func (ci *ChunkIndex) chunk(c chunkCoord) *Chunk {
	ch, ok := ci.chunks[c]
	if !ok {
		ch = newChunk()
		ci.chunks[c] = ch
	}
	return ch
}

// rangeFor computes the inclusive chunk range conservatively covering
// the bounds. The ceil-1 lower bound paired with the floor upper bound
// keeps a shape exactly touching a cell boundary registered in the
// lower-adjacent cell as well; over-inclusion is the contract here, a
// boundary miss is not.
func (ci *ChunkIndex) rangeFor(b geom.Rect) chunkRange {
	x1, x2 := geom.Span(b.Left, b.Right, ci.chunkWidth)
	y1, y2 := geom.Span(b.Top, b.Bottom, ci.chunkHeight)
	return chunkRange{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// register adds the shape to every chunk in its range for one role.
// The first active role computes and caches the range.
func (ci *ChunkIndex) register(sh *Shape, role Role) {
	if sh.roleCount == 0 {
		r := ci.rangeFor(sh.bounds)
		sh.chunkRange = &r
	}
	sh.roleCount++
	sh.chunkRange.forEach(func(c chunkCoord) {
		ci.chunk(c).roleSet(role, sh.drawLayer)[sh] = struct{}{}
	})
}

// unregister removes the shape from every chunk in its cached range for
// one role. Dropping the last role drops the cached range.
func (ci *ChunkIndex) unregister(sh *Shape, role Role) {
	sh.chunkRange.forEach(func(c chunkCoord) {
		ci.chunk(c).removeRole(sh, role, sh.drawLayer)
	})
	sh.roleCount--
	if sh.roleCount == 0 {
		sh.chunkRange = nil
	}
}

// onMoved re-indexes a registered shape after its bounds changed. Chunk
// membership is updated as a set difference over the old and new ranges,
// so a move that crosses no chunk boundary mutates nothing and movement
// cost tracks the boundary delta, not the covered area.
func (ci *ChunkIndex) onMoved(sh *Shape) {
	oldRange := *sh.chunkRange
	newRange := ci.rangeFor(sh.bounds)
	if newRange == oldRange {
		return
	}
	*sh.chunkRange = newRange
	oldRange.forEach(func(c chunkCoord) {
		if !newRange.contains(c) {
			ci.removeFromChunk(sh, c)
		}
	})
	newRange.forEach(func(c chunkCoord) {
		if !oldRange.contains(c) {
			ci.addToChunk(sh, c)
		}
	})
}

// addToChunk registers every active role of the shape in one chunk
func (ci *ChunkIndex) addToChunk(sh *Shape, c chunkCoord) {
	ch := ci.chunk(c)
	if sh.roles&RoleLocator != 0 {
		ch.locatorBucket(sh.drawLayer)[sh] = struct{}{}
	}
	if sh.roles&RoleOverlap != 0 {
		ch.overlaps[sh] = struct{}{}
	}
	if sh.roles&RoleSolid != 0 {
		ch.solids[sh] = struct{}{}
	}
}

// removeFromChunk removes every active role of the shape from one chunk
func (ci *ChunkIndex) removeFromChunk(sh *Shape, c chunkCoord) {
	ch := ci.chunk(c)
	if sh.roles&RoleLocator != 0 {
		ch.removeRole(sh, RoleLocator, sh.drawLayer)
	}
	if sh.roles&RoleOverlap != 0 {
		delete(ch.overlaps, sh)
	}
	if sh.roles&RoleSolid != 0 {
		delete(ch.solids, sh)
	}
}

// changeDrawLayer moves a registered locator shape between layer buckets
// within its current chunk set; the cached range is untouched.
func (ci *ChunkIndex) changeDrawLayer(sh *Shape, layer int) {
	sh.chunkRange.forEach(func(c chunkCoord) {
		ch := ci.chunk(c)
		ch.removeRole(sh, RoleLocator, sh.drawLayer)
		ch.locatorBucket(layer)[sh] = struct{}{}
	})
}

// Query returns every shape holding the role whose bounds intersect the
// region. Shapes spanning several chunks are reported once.
func (ci *ChunkIndex) Query(role Role, region geom.Rect) []*Shape {
	var result []*Shape
	seen := make(map[*Shape]struct{})
	ci.rangeFor(region).forEach(func(c chunkCoord) {
		ch, ok := ci.chunks[c]
		if !ok {
			return
		}
		if role == RoleLocator {
			for _, layer := range ch.layerKeys {
				for sh := range ch.locators[layer] {
					if _, dup := seen[sh]; dup {
						continue
					}
					seen[sh] = struct{}{}
					if sh.bounds.Intersects(region) {
						result = append(result, sh)
					}
				}
			}
			return
		}
		for sh := range ch.roleSet(role, 0) {
			if _, dup := seen[sh]; dup {
				continue
			}
			seen[sh] = struct{}{}
			if sh.bounds.Intersects(region) {
				result = append(result, sh)
			}
		}
	})
	return result
}

// ForEachVisible visits locator shapes intersecting the clip region in
// ascending draw-layer order, restricted to layers within [minLayer,
// maxLayer]. Returning false from fn stops the walk. This is the query
// surface renderers draw from: call it once for background layers (max
// -1) and once for foreground layers (min 0).
func (ci *ChunkIndex) ForEachVisible(minLayer, maxLayer int, clip geom.Rect, fn func(*Shape) bool) {
	r := ci.rangeFor(clip)

	// Collect the candidate chunks once, then walk their shared layer
	// key space in ascending order
	var cells []*Chunk
	r.forEach(func(c chunkCoord) {
		if ch, ok := ci.chunks[c]; ok {
			cells = append(cells, ch)
		}
	})
	if len(cells) == 0 {
		return
	}

	layerSet := make(map[int]struct{})
	var layers []int
	for _, ch := range cells {
		for _, l := range ch.layerKeys {
			if l < minLayer || l > maxLayer {
				continue
			}
			if _, ok := layerSet[l]; !ok {
				layerSet[l] = struct{}{}
				layers = append(layers, l)
			}
		}
	}
	sort.Ints(layers)

	seen := make(map[*Shape]struct{})
	for _, layer := range layers {
		for _, ch := range cells {
			for sh := range ch.locators[layer] {
				if _, dup := seen[sh]; dup {
					continue
				}
				seen[sh] = struct{}{}
				if !sh.bounds.Intersects(clip) {
					continue
				}
				if !fn(sh) {
					return
				}
			}
		}
	}
}
