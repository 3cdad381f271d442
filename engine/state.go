package engine

import (
	"github.com/elliotchance/orderedmap/v2"

	"github.com/korhul/tessera/frac"
	"github.com/korhul/tessera/geom"
)

// Engine defaults. Chunk dimensions follow the classic 256-unit cell;
// the nominal frame time anchors delta-to-tick conversion at 60 FPS.
const (
	DefaultChunkWidth  float32 = 256
	DefaultChunkHeight float32 = 256
	DefaultFrameTime           = 1.0 / 60.0
)

// phase marks which section of a frame the state is executing
type phase int

const (
	phaseIdle phase = iota
	phaseTick
	phaseFrame
)

// changeIntent is one buffered structural mutation: attach n to target,
// or detach when target is nil
type changeIntent struct {
	node   *Node
	target *Group
}

// State is the container driving one simulation: it owns the top-level
// node group, the spatial chunk index, and the viewport registry, and
// sequences each frame as clock advance, tick passes, frame pass,
// deferred-change flushes, and rendering. All mutation is synchronous on
// the thread calling AdvanceFrame; the only suspension points are the
// flush boundaries between passes.
type State struct {
	nodes     *Group
	index     *ChunkIndex
	viewports *orderedmap.OrderedMap[int, *Viewport]

	// timeFactor is the global rate inherited by nodes whose root
	// ancestor has a negative factor
	timeFactor int64
	frameTime  float64
	active     bool

	phase           phase
	inFrame         bool
	tickedThisPass  bool
	framedThisFrame bool

	changes        []changeIntent
	newNodes       []*Node
	dueNow         []*TimedEvent
	priorityGroups []*Group

	// TickCount and FrameCount are lifetime totals, exposed for host
	// metrics
	TickCount  uint64
	FrameCount uint64
}

// NewState creates an inactive state with the given chunk dimensions.
// Non-positive dimensions are a programming error and panic.
func NewState(chunkWidth, chunkHeight float32) *State {
	s := &State{
		index:      NewChunkIndex(chunkWidth, chunkHeight),
		viewports:  orderedmap.NewOrderedMap[int, *Viewport](),
		timeFactor: frac.Unit,
		frameTime:  DefaultFrameTime,
	}
	s.nodes = newGroup(nil)
	s.nodes.state = s
	return s
}

// Nodes returns the state's top-level node group
func (s *State) Nodes() *Group {
	return s.nodes
}

// Index returns the state's spatial chunk index
func (s *State) Index() *ChunkIndex {
	return s.index
}

// TimeFactor returns the state's global time factor
func (s *State) TimeFactor() int64 {
	return s.timeFactor
}

// SetTimeFactor sets the global rate in frac units per frame. Negative
// values are a programming error.
func (s *State) SetTimeFactor(f int64) {
	if f < 0 {
		panic("engine: attempted to give a state a negative time factor")
	}
	s.timeFactor = f
}

// SetFrameTime sets the nominal seconds-per-frame used to convert frame
// deltas into tick progress. Non-positive values panic.
func (s *State) SetFrameTime(ft float64) {
	if ft <= 0 {
		panic("engine: attempted to give a state a non-positive frame time")
	}
	s.frameTime = ft
}

// Active reports whether the host has attached this state
func (s *State) Active() bool {
	return s.active
}

// SetActive attaches or detaches the state from the host's simulation.
// Time passes for the state's nodes only while it is active.
func (s *State) SetActive(active bool) {
	s.active = active
}

// deferring reports whether structural changes must queue rather than
// apply in place
func (s *State) deferring() bool {
	return s.phase != phaseIdle
}

// queueChange buffers a structural change until the next flush point
func (s *State) queueChange(n *Node, target *Group) {
	s.changes = append(s.changes, changeIntent{node: n, target: target})
}

// noteAdded records a node attached mid-frame so the flush can run the
// hooks it missed this pass
func (s *State) noteAdded(n *Node) {
	if s.inFrame {
		s.newNodes = append(s.newNodes, n)
	}
}

// notePriorityChange registers a group holding buffered priority changes
// that no in-progress iteration will flush, so the next flush point
// applies them
func (s *State) notePriorityChange(g *Group) {
	s.priorityGroups = append(s.priorityGroups, g)
}

// AdvanceFrame drives one frame of simulation with the host's wall-clock
// delta in seconds. Inactive states ignore the call.
func (s *State) AdvanceFrame(dt float64) {
	if !s.active {
		return
	}
	s.inFrame = true
	deltaFrac := frac.FromFloat(dt / s.frameTime)

	// Phase 1: advance clocks, converting leftover time into pending
	// tick counts
	passes := 0
	s.nodes.forEach(func(n *Node) {
		if t := n.advance(deltaFrac); t > passes {
			passes = t
		}
	})

	// Phase 2: run the accumulated tick passes, flushing deferred
	// structural changes after each one
	for p := 0; p < passes; p++ {
		s.phase = phaseTick
		s.tickedThisPass = true
		s.nodes.forEach(func(n *Node) {
			if n.pendingTicks > 0 {
				n.pendingTicks--
				n.tickPass(s)
			}
		})
		s.fireDue()
		s.phase = phaseIdle
		s.flushChanges()
		s.fireDue()
		s.tickedThisPass = false
		s.TickCount++
	}

	// Phase 3: one frame pass over the whole tree
	s.phase = phaseFrame
	s.framedThisFrame = true
	s.nodes.forEach(func(n *Node) {
		n.framePass(s)
	})

	// Phase 4: flush changes queued during the frame pass
	s.phase = phaseIdle
	s.flushChanges()
	s.framedThisFrame = false
	s.inFrame = false
	s.FrameCount++
}

// fireDue activates timers that were set to zero from inside the current
// pass, in the order they were set
func (s *State) fireDue() {
	for len(s.dueNow) > 0 {
		due := s.dueNow
		s.dueNow = nil
		for _, ev := range due {
			ev.fire()
		}
	}
}

// flushChanges applies buffered structural changes until the queue is
// stable, then catches newly added nodes up on the hooks this pass
// already ran. The two loops feed each other: catch-up hooks may queue
// more changes, and applying changes may add more new nodes.
func (s *State) flushChanges() {
	for len(s.changes) > 0 || len(s.priorityGroups) > 0 {
		batch := s.changes
		s.changes = nil
		for _, c := range batch {
			if c.node.group != nil {
				c.node.group.applyRemove(c.node)
			}
			if c.target != nil {
				c.target.applyAdd(c.node)
			}
		}
		groups := s.priorityGroups
		s.priorityGroups = nil
		for _, g := range groups {
			g.applyPending()
		}
	}
	s.catchNewNodesUp()
}

// catchNewNodesUp runs the current pass's hooks for nodes that were
// attached after the pass began, so a freshly added node never misses
// the phase in progress
func (s *State) catchNewNodesUp() {
	if len(s.newNodes) == 0 {
		return
	}
	nodes := s.newNodes
	s.newNodes = nil
	if s.tickedThisPass {
		for _, n := range nodes {
			if n.state == s {
				n.tickPass(s)
			}
		}
	}
	if s.framedThisFrame {
		for _, n := range nodes {
			if n.state == s {
				n.framePass(s)
			}
		}
	}
	if len(s.changes) > 0 || len(s.newNodes) > 0 {
		s.flushChanges()
	}
}

// Viewport registry

// Viewport returns the viewport registered under id, or nil
func (s *State) Viewport(id int) *Viewport {
	if v, ok := s.viewports.Get(id); ok {
		return v
	}
	return nil
}

// SetViewport registers a viewport under id, replacing any previous one.
// A nil viewport removes the registration.
func (s *State) SetViewport(id int, v *Viewport) bool {
	if v == nil {
		return s.RemoveViewport(id)
	}
	s.viewports.Set(id, v)
	return true
}

// RemoveViewport drops the viewport registered under id. Removing an
// unknown id is a no-op and returns false.
func (s *State) RemoveViewport(id int) bool {
	return s.viewports.Delete(id)
}

// ClearViewports drops every registered viewport
func (s *State) ClearViewports() {
	for _, id := range s.viewports.Keys() {
		s.viewports.Delete(id)
	}
}

// RenderFunc draws one viewport's clip region. It receives the chunk
// index so renderers fetch only geometry intersecting their clip.
type RenderFunc func(v *Viewport, clip geom.Rect, index *ChunkIndex)

// Render invokes fn once per registered viewport in registration order,
// skipping degenerate viewports. Renderers are expected to draw locator
// shapes in ascending draw-layer order, background layers (below 0)
// before foreground layers (at or above 0).
func (s *State) Render(fn RenderFunc) {
	for el := s.viewports.Front(); el != nil; el = el.Next() {
		v := el.Value
		if v.Degenerate() {
			continue
		}
		fn(v, v.WorldClip(), s.index)
	}
}

// RenderViewport invokes fn for the single viewport registered under id.
// Unknown or degenerate viewports are a no-op and return false.
func (s *State) RenderViewport(id int, fn RenderFunc) bool {
	v := s.Viewport(id)
	if v == nil || v.Degenerate() {
		return false
	}
	fn(v, v.WorldClip(), s.index)
	return true
}
