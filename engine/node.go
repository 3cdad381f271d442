package engine

import (
	"sync/atomic"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/korhul/tessera/frac"
)

// Behavior is the hook surface a simulation node dispatches through.
// Concrete node kinds implement the hooks they care about and embed
// NopBehavior for the rest.
type Behavior interface {
	// OnAdded runs immediately after the node is attached to a state
	OnAdded(s *State)
	// OnRemoved runs immediately before the node is detached from its state
	OnRemoved(s *State)
	// OnTick runs once per discrete tick, after the node's timers fire
	OnTick(s *State)
	// OnFrame runs once per frame, after all ticks for the frame are exhausted
	OnFrame(s *State)
}

// NopBehavior is a Behavior with empty hooks, for embedding
type NopBehavior struct{}

func (NopBehavior) OnAdded(*State)   {}
func (NopBehavior) OnRemoved(*State) {}
func (NopBehavior) OnTick(*State)    {}
func (NopBehavior) OnFrame(*State)   {}

var nodeIDCounter atomic.Uint64

// Node is one unit of the scheduling tree. A state keeps track of time
// for it while attached: the node accumulates fractional time, fires its
// timers, and runs its behavior hooks each tick and frame. Nodes of a
// group act in order from highest to lowest action priority.
type Node struct {
	id       uint64
	behavior Behavior

	// timeFactor is the rate in frac units per nominal frame.
	// Negative means inherit from the parent chain / owning state.
	timeFactor int64

	// leftover carries fractional tick progress across frames
	leftover     int64
	pendingTicks int

	// priority is the ordering key used by the current pass; newPriority
	// is where the node is headed once its group applies the change
	priority    int
	newPriority int
	seq         uint64 // insertion order within the group, breaks priority ties

	timers *orderedmap.OrderedMap[*TimedEvent, int]

	children *Group
	group    *Group // owning group, nil while detached
	newGroup *Group // logical membership target, nil while pending detach
	parent   *Node
	state    *State
}

// NewNode creates a detached node dispatching to the given behavior.
// A nil behavior yields a node that only carries timers and children.
func NewNode(b Behavior) *Node {
	if b == nil {
		b = NopBehavior{}
	}
	n := &Node{
		id:         nodeIDCounter.Add(1),
		behavior:   b,
		timeFactor: -1,
		timers:     orderedmap.NewOrderedMap[*TimedEvent, int](),
	}
	n.children = newGroup(n)
	return n
}

// ID returns the node's unique identity
func (n *Node) ID() uint64 {
	return n.id
}

// State returns the state the node is attached to, or nil
func (n *Node) State() *State {
	return n.state
}

// Parent returns the node's parent node, or nil for top-level nodes
func (n *Node) Parent() *Node {
	return n.parent
}

// Group returns the group that currently contains the node, or nil
func (n *Node) Group() *Group {
	return n.group
}

// Children returns the node's child group
func (n *Node) Children() *Group {
	return n.children
}

// TimeFactor returns the node's own time factor (negative = inherit)
func (n *Node) TimeFactor() int64 {
	return n.timeFactor
}

// SetTimeFactor sets the node's time factor in frac units per frame.
// Pass a negative value to inherit from the parent chain or state.
func (n *Node) SetTimeFactor(f int64) {
	n.timeFactor = f
}

// EffectiveTimeFactor resolves the rate the node actually experiences:
// the root ancestor's factor, or the owning state's global factor if the
// root's own factor is negative. Detached nodes experience no time.
func (n *Node) EffectiveTimeFactor() int64 {
	if n.state == nil {
		return 0
	}
	root := n
	for root.parent != nil {
		root = root.parent
	}
	if root.timeFactor < 0 {
		return n.state.timeFactor
	}
	return root.timeFactor
}

// Priority returns the node's current action priority, the one in effect
// for any pass already in progress
func (n *Node) Priority() int {
	return n.priority
}

// NewPriority returns the priority the node is about to have once its
// group applies pending changes. Equal to Priority when no change is
// pending.
func (n *Node) NewPriority() int {
	return n.newPriority
}

// SetPriority repositions the node among its siblings. Detached nodes
// change immediately; attached nodes record the change as pending and
// keep their current priority until the group reaches a safe point, so
// an in-progress pass is never reordered out from under itself.
func (n *Node) SetPriority(p int) {
	if n.group == nil {
		n.priority = p
		n.newPriority = p
	} else if n.newPriority != p {
		n.newPriority = p
		n.group.changePriority(n, p)
	}
}

// setStateRecursive propagates the owning state down the subtree
func (n *Node) setStateRecursive(s *State) {
	n.state = s
	n.children.forEach(func(c *Node) {
		c.setStateRecursive(s)
	})
}

// tickPass runs one discrete tick over the node's subtree: timers first,
// then the node's own tick hook, then every child in priority order.
func (n *Node) tickPass(s *State) {
	n.sweepTimers(s)
	n.behavior.OnTick(s)
	n.children.forEach(func(c *Node) {
		c.tickPass(s)
	})
}

// framePass mirrors tickPass for the per-frame hook
func (n *Node) framePass(s *State) {
	n.behavior.OnFrame(s)
	n.children.forEach(func(c *Node) {
		c.framePass(s)
	})
}

// advance accumulates one frame's worth of time and converts whole units
// into pending ticks. deltaFrac is the frame delta in frac units of one
// nominal frame. Only top-level nodes advance; descendants tick inside
// their ancestor's tick, which is why the effective factor resolves at
// the root.
func (n *Node) advance(deltaFrac int64) int {
	n.leftover += frac.Mul(n.EffectiveTimeFactor(), deltaFrac)
	ticks := int(frac.Whole(n.leftover))
	n.leftover = frac.Remainder(n.leftover)
	n.pendingTicks = ticks
	return ticks
}
