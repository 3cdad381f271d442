package engine

// Group is a priority-ordered collection of nodes: either a state's
// top-level membership or the children of one node. While a pass is
// iterating the group, structural changes are buffered and applied only
// once the iteration ends, so the live ordering stays stable for the
// whole pass.
type Group struct {
	owner *Node // nil for a state's root group
	state *State

	// members stays sorted by priority descending, insertion order
	// ascending within equal priorities
	members []*Node
	nextSeq uint64

	iterating       int
	pendingAdds     []*Node
	pendingRemoves  []*Node
	pendingPriority map[*Node]int
}

func newGroup(owner *Node) *Group {
	return &Group{owner: owner}
}

// Len returns the number of live members
func (g *Group) Len() int {
	return len(g.members)
}

// Owner returns the node whose children this group holds, or nil for a
// state's top-level group
func (g *Group) Owner() *Node {
	return g.owner
}

// Add attaches a node to this group. It fails if the node is already
// attached or pending attachment elsewhere; detach first. The attach
// applies immediately only when both the target state and the node's
// current state are idle. A cross-state move requested mid-pass queues
// on the node's current state, behind its pending detach, so the two
// changes settle in order at that state's flush point.
func (g *Group) Add(n *Node) bool {
	if n.newGroup != nil {
		return false
	}
	n.newGroup = g
	if own := n.state; own != nil && own.deferring() {
		own.queueChange(n, g)
		return true
	}
	if s := g.groupState(); s != nil && s.deferring() {
		s.queueChange(n, g)
		return true
	}
	g.applyAdd(n)
	return true
}

// Remove detaches a node from this group. Detaching a node that is not
// logically a member is a no-op and returns false.
func (g *Group) Remove(n *Node) bool {
	if n.newGroup != g {
		return false
	}
	n.newGroup = nil
	if own := n.state; own != nil && own.deferring() {
		own.queueChange(n, nil)
		return true
	}
	if s := g.groupState(); s != nil && s.deferring() {
		s.queueChange(n, nil)
		return true
	}
	g.applyRemove(n)
	return true
}

// ForEach iterates the live members from highest to lowest priority.
// Structural changes requested by fn are buffered until the iteration
// completes.
func (g *Group) ForEach(fn func(*Node)) {
	g.forEach(fn)
}

func (g *Group) forEach(fn func(*Node)) {
	g.iterating++
	for _, n := range g.members {
		fn(n)
	}
	g.iterating--
	if g.iterating == 0 {
		g.applyPending()
	}
}

// groupState resolves the state this group belongs to
func (g *Group) groupState() *State {
	if g.owner != nil {
		return g.owner.state
	}
	return g.state
}

// applyAdd links the node into the live collection and runs its added
// hook. Called only at safe points.
func (g *Group) applyAdd(n *Node) {
	n.group = g
	if g.owner != nil {
		n.parent = g.owner
	}
	n.newPriority = n.priority
	s := g.groupState()
	n.setStateRecursive(s)
	if g.iterating > 0 {
		g.pendingAdds = append(g.pendingAdds, n)
	} else {
		g.insert(n)
	}
	n.behavior.OnAdded(s)
	if s != nil {
		s.noteAdded(n)
	}
}

// applyRemove runs the removed hook and unlinks the node. Called only at
// safe points.
func (g *Group) applyRemove(n *Node) {
	n.behavior.OnRemoved(n.state)
	if g.iterating > 0 {
		g.pendingRemoves = append(g.pendingRemoves, n)
	} else {
		g.unlink(n)
	}
	n.group = nil
	n.parent = nil
	n.pendingTicks = 0
	n.setStateRecursive(nil)
	delete(g.pendingPriority, n)
}

// changePriority records a pending reposition for an attached member.
// The change is buffered while the group is being iterated, and also
// while the owning state is mid-pass: a pass must complete with the
// ordering that existed at its start even for groups it has not reached
// yet. A buffered group that no iteration will revisit is handed to the
// state so the flush point applies it.
func (g *Group) changePriority(n *Node, p int) {
	s := g.groupState()
	if g.iterating > 0 || (s != nil && s.deferring()) {
		if g.pendingPriority == nil {
			g.pendingPriority = make(map[*Node]int)
		}
		g.pendingPriority[n] = p
		if g.iterating == 0 {
			s.notePriorityChange(g)
		}
		return
	}
	g.reposition(n, p)
}

// applyPending flushes buffered structural changes once iteration ends
func (g *Group) applyPending() {
	if len(g.pendingRemoves) > 0 {
		removes := g.pendingRemoves
		g.pendingRemoves = nil
		for _, n := range removes {
			g.unlink(n)
		}
	}
	if len(g.pendingPriority) > 0 {
		changes := g.pendingPriority
		g.pendingPriority = nil
		for n, p := range changes {
			if n.group == g {
				g.reposition(n, p)
			}
		}
	}
	if len(g.pendingAdds) > 0 {
		adds := g.pendingAdds
		g.pendingAdds = nil
		for _, n := range adds {
			g.insert(n)
		}
	}
}

// insert places n into the sorted member slice
func (g *Group) insert(n *Node) {
	n.seq = g.nextSeq
	g.nextSeq++
	i := 0
	for i < len(g.members) && !g.before(n, g.members[i]) {
		i++
	}
	g.members = append(g.members, nil)
	copy(g.members[i+1:], g.members[i:])
	g.members[i] = n
}

// unlink removes n from the member slice, preserving order
func (g *Group) unlink(n *Node) {
	for i, m := range g.members {
		if m == n {
			g.members = append(g.members[:i], g.members[i+1:]...)
			return
		}
	}
}

// reposition applies a priority change and re-sorts the single member
func (g *Group) reposition(n *Node, p int) {
	g.unlink(n)
	n.priority = p
	i := 0
	for i < len(g.members) && !g.before(n, g.members[i]) {
		i++
	}
	g.members = append(g.members, nil)
	copy(g.members[i+1:], g.members[i:])
	g.members[i] = n
}

// before reports whether a orders ahead of b: higher priority first,
// earlier insertion first among equals
func (g *Group) before(a, b *Node) bool {
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.seq < b.seq
}
