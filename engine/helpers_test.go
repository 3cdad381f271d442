package engine

import "github.com/korhul/tessera/frac"

// testBehavior dispatches to optional func fields, recording nothing on
// its own. Tests compose the hooks they need.
type testBehavior struct {
	NopBehavior
	added   func(*State)
	removed func(*State)
	tick    func(*State)
	frame   func(*State)
}

func (b *testBehavior) OnAdded(s *State) {
	if b.added != nil {
		b.added(s)
	}
}

func (b *testBehavior) OnRemoved(s *State) {
	if b.removed != nil {
		b.removed(s)
	}
}

func (b *testBehavior) OnTick(s *State) {
	if b.tick != nil {
		b.tick(s)
	}
}

func (b *testBehavior) OnFrame(s *State) {
	if b.frame != nil {
		b.frame(s)
	}
}

// newTestState returns an active state with default chunk dimensions
func newTestState() *State {
	s := NewState(DefaultChunkWidth, DefaultChunkHeight)
	s.SetActive(true)
	return s
}

// namedTickNode attaches a node whose tick hook appends name to log
func namedTickNode(name string, log *[]string) *Node {
	return NewNode(&testBehavior{
		tick: func(*State) {
			*log = append(*log, name)
		},
	})
}

// advanceOneTick drives the state through exactly one frame at the
// nominal delta, producing one tick pass for factor-Unit nodes
func advanceOneTick(s *State) {
	s.AdvanceFrame(s.frameTime)
}

// fullFactor pins a node to exactly one tick per nominal frame
func fullFactor(n *Node) *Node {
	n.SetTimeFactor(frac.Unit)
	return n
}
