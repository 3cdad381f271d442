package engine

import (
	"testing"

	"github.com/korhul/tessera/geom"
)

func TestDetachInsideOwnTickHook(t *testing.T) {
	s := newTestState()
	var log []string

	a := fullFactor(namedTickNode("a", &log))
	a.SetPriority(3)
	c := fullFactor(namedTickNode("c", &log))
	c.SetPriority(1)

	removed := false
	var b *Node
	b = fullFactor(NewNode(&testBehavior{
		tick: func(st *State) {
			log = append(log, "b")
			st.Nodes().Remove(b)
		},
		removed: func(*State) { removed = true },
	}))
	b.SetPriority(2)

	s.Nodes().Add(a)
	s.Nodes().Add(b)
	s.Nodes().Add(c)

	advanceOneTick(s)
	// The current pass completes with its original membership
	want := []string{"a", "b", "c"}
	if len(log) != 3 {
		t.Fatalf("pass 1 ran %d hooks, want 3: %v", len(log), log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("pass 1 order = %v, want %v", log, want)
		}
	}
	// The node is fully removed before the next pass begins
	if !removed {
		t.Error("removed hook did not run at the flush point")
	}
	if b.State() != nil || b.Group() != nil {
		t.Error("b still attached after flush")
	}

	log = nil
	advanceOneTick(s)
	if len(log) != 2 || log[0] != "a" || log[1] != "c" {
		t.Fatalf("pass 2 order = %v, want [a c]", log)
	}
}

func TestAttachDuringPassIsDeferredAndCaughtUp(t *testing.T) {
	s := newTestState()
	var log []string

	late := namedTickNode("late", &log)
	addedDuringPass := false

	spawnerDone := false
	spawner := fullFactor(NewNode(&testBehavior{
		tick: func(st *State) {
			log = append(log, "spawner")
			if !spawnerDone {
				spawnerDone = true
				st.Nodes().Add(late)
				// The attach is deferred to the flush point
				addedDuringPass = late.State() != nil
			}
		},
	}))
	s.Nodes().Add(spawner)

	advanceOneTick(s)
	if addedDuringPass {
		t.Error("attach applied mid-pass instead of at the flush point")
	}
	if late.State() != s {
		t.Fatal("late node not attached after flush")
	}
	// The freshly attached node catches up on the tick hook it missed
	if len(log) != 2 || log[0] != "spawner" || log[1] != "late" {
		t.Fatalf("pass 1 log = %v, want [spawner late]", log)
	}
}

func TestAttachOutsidePassIsImmediate(t *testing.T) {
	s := newTestState()
	n := NewNode(nil)
	s.Nodes().Add(n)
	if n.State() != s {
		t.Fatal("attach from outside a pass should apply immediately")
	}
}

func TestCascadingAttachmentsSettleInOneFlush(t *testing.T) {
	s := newTestState()
	var order []string

	// first's added hook attaches second; both must be live before the
	// next frame begins
	second := NewNode(&testBehavior{
		added: func(*State) { order = append(order, "second-added") },
	})
	first := NewNode(&testBehavior{
		added: func(st *State) {
			order = append(order, "first-added")
			st.Nodes().Add(second)
		},
	})

	trigger := false
	driver := fullFactor(NewNode(&testBehavior{
		tick: func(st *State) {
			if !trigger {
				trigger = true
				st.Nodes().Add(first)
			}
		},
	}))
	s.Nodes().Add(driver)

	advanceOneTick(s)
	if first.State() != s || second.State() != s {
		t.Fatal("cascading attachments did not settle")
	}
	if len(order) != 2 || order[0] != "first-added" || order[1] != "second-added" {
		t.Fatalf("hook order = %v, want [first-added second-added]", order)
	}
}

func TestMoveNodeBetweenStates(t *testing.T) {
	s1 := newTestState()
	s2 := newTestState()

	ticks := 0
	n := fullFactor(countingNode(&ticks))
	s1.Nodes().Add(n)

	advanceOneTick(s1)
	if ticks != 1 {
		t.Fatalf("ticks = %d in s1, want 1", ticks)
	}

	// Cross-container movement goes detach-then-attach
	if !s1.Nodes().Remove(n) {
		t.Fatal("detach from s1 failed")
	}
	if !s2.Nodes().Add(n) {
		t.Fatal("attach to s2 failed")
	}

	advanceOneTick(s1)
	if ticks != 1 {
		t.Fatalf("node still ticking in s1 after move: ticks = %d", ticks)
	}
	advanceOneTick(s2)
	if ticks != 2 {
		t.Fatalf("node not ticking in s2: ticks = %d", ticks)
	}
}

func TestMidPassMoveBetweenStates(t *testing.T) {
	s1 := newTestState()
	s2 := newTestState()

	ticks := 0
	frames := 0
	n := fullFactor(NewNode(&testBehavior{
		tick:  func(*State) { ticks++ },
		frame: func(*State) { frames++ },
	}))
	s1.Nodes().Add(n)

	// A higher-priority sibling moves n to s2 from inside s1's tick pass;
	// both changes must queue on s1 and settle, in order, at its flush
	moved := false
	mover := fullFactor(NewNode(&testBehavior{
		tick: func(st *State) {
			if !moved {
				moved = true
				st.Nodes().Remove(n)
				s2.Nodes().Add(n)
			}
		},
	}))
	mover.SetPriority(1)
	s1.Nodes().Add(mover)

	advanceOneTick(s1)
	if n.State() != s2 {
		t.Fatalf("n.State() = %v after flush, want s2", n.State())
	}
	if n.Group() != s2.Nodes() {
		t.Fatal("n not a member of s2's top-level group")
	}
	if s1.Nodes().Len() != 1 || s2.Nodes().Len() != 1 {
		t.Fatalf("membership counts = %d/%d, want 1/1", s1.Nodes().Len(), s2.Nodes().Len())
	}
	// The pass that requested the move still completed with its original
	// membership, and the move settled before s1's frame pass
	if ticks != 1 || frames != 0 {
		t.Fatalf("ticks=%d frames=%d after the moving pass, want 1 and 0", ticks, frames)
	}

	advanceOneTick(s1)
	if ticks != 1 || frames != 0 {
		t.Fatalf("n still receiving hooks from s1: ticks=%d frames=%d", ticks, frames)
	}
	advanceOneTick(s2)
	if ticks != 2 || frames != 1 {
		t.Fatalf("n not running in s2: ticks=%d frames=%d, want 2 and 1", ticks, frames)
	}
}

func TestFrameCountAndTickCount(t *testing.T) {
	s := newTestState()
	s.Nodes().Add(fullFactor(NewNode(nil)))

	for i := 0; i < 5; i++ {
		advanceOneTick(s)
	}
	if s.FrameCount != 5 {
		t.Errorf("FrameCount = %d, want 5", s.FrameCount)
	}
	if s.TickCount != 5 {
		t.Errorf("TickCount = %d, want 5", s.TickCount)
	}
}

func TestNonPositiveFrameTimePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("SetFrameTime(0) should panic")
		}
	}()
	newTestState().SetFrameTime(0)
}

func TestNegativeStateTimeFactorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("SetTimeFactor(-1) should panic")
		}
	}()
	newTestState().SetTimeFactor(-1)
}

func TestViewportRegistry(t *testing.T) {
	s := newTestState()
	v1 := NewViewport(0, 0, 80, 24, 80, 24)
	v2 := NewViewport(0, 0, 40, 12, 40, 12)

	if !s.SetViewport(1, v1) || !s.SetViewport(2, v2) {
		t.Fatal("SetViewport failed")
	}
	if s.Viewport(1) != v1 || s.Viewport(2) != v2 {
		t.Fatal("Viewport lookup mismatch")
	}
	if s.RemoveViewport(3) {
		t.Error("removing an unknown viewport id should return false")
	}
	if !s.RemoveViewport(1) {
		t.Error("RemoveViewport(1) should succeed")
	}
	if s.Viewport(1) != nil {
		t.Error("viewport 1 still registered after removal")
	}

	s.ClearViewports()
	if s.Viewport(2) != nil {
		t.Error("viewport 2 still registered after clear")
	}
}

func TestRenderVisitsViewportsInRegistrationOrder(t *testing.T) {
	s := newTestState()
	v5 := NewViewport(0, 0, 10, 10, 10, 10)
	v1 := NewViewport(10, 0, 20, 10, 10, 10)
	s.SetViewport(5, v5)
	s.SetViewport(1, v1)
	// Degenerate viewports are skipped
	s.SetViewport(9, NewViewport(0, 0, 0, 10, 10, 10))

	var seen []*Viewport
	s.Render(func(v *Viewport, clip geom.Rect, index *ChunkIndex) {
		if index != s.Index() {
			t.Error("render callback did not receive the state's index")
		}
		seen = append(seen, v)
	})
	if len(seen) != 2 || seen[0] != v5 || seen[1] != v1 {
		t.Fatalf("render order = %v, want registration order [v5 v1] without the degenerate viewport", seen)
	}
}

func TestRenderViewportById(t *testing.T) {
	s := newTestState()
	v := NewViewport(0, 0, 40, 20, 80, 40)
	s.SetViewport(1, v)

	called := false
	if !s.RenderViewport(1, func(got *Viewport, clip geom.Rect, _ *ChunkIndex) {
		called = true
		if got != v {
			t.Error("wrong viewport passed to callback")
		}
		if clip.Width() != 80 || clip.Height() != 40 {
			t.Errorf("clip = %v, want 80x40 world extent", clip)
		}
	}) {
		t.Fatal("RenderViewport(1) returned false for a registered viewport")
	}
	if !called {
		t.Fatal("callback never invoked")
	}

	if s.RenderViewport(2, func(*Viewport, geom.Rect, *ChunkIndex) {}) {
		t.Error("RenderViewport of an unknown id should return false")
	}
}
