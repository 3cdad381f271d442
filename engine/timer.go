package engine

import "fmt"

// TimedEvent is a handle to a zero-argument callback that a node timer
// activates when its countdown reaches zero. Handle identity keys the
// registry, so one TimedEvent can be scheduled on many nodes at once.
type TimedEvent struct {
	action func()
}

// NewTimedEvent wraps a callback in a schedulable handle
func NewTimedEvent(action func()) *TimedEvent {
	return &TimedEvent{action: action}
}

// fire invokes the callback if one is set
func (te *TimedEvent) fire() {
	if te.action != nil {
		te.action()
	}
}

// TimerValue returns the remaining ticks before ev fires, or -1 if the
// timer is not running on this node
func (n *Node) TimerValue(ev *TimedEvent) int {
	if v, ok := n.timers.Get(ev); ok {
		return v
	}
	return -1
}

// SetTimer sets the countdown for ev to value ticks. Negative values
// stop the timer. A value of zero fires within the current tick pass if
// one is in progress, otherwise on the node's next timer sweep.
func (n *Node) SetTimer(ev *TimedEvent, value int) {
	if ev == nil {
		panic(fmt.Errorf("engine: attempted to set a timer for a nil TimedEvent"))
	}
	if value < 0 {
		n.timers.Delete(ev)
		return
	}
	if value == 0 && n.state != nil && n.state.phase == phaseTick {
		// Mid-pass zero set: due this pass, never stored
		n.timers.Delete(ev)
		n.state.dueNow = append(n.state.dueNow, ev)
		return
	}
	n.timers.Set(ev, value)
}

// sweepTimers decrements every running timer once and collects the due
// ones, then fires them only after the sweep completes, in the order the
// timers were encountered. A callback therefore never observes the
// registry mid-mutation.
func (n *Node) sweepTimers(s *State) {
	if n.timers.Len() == 0 {
		return
	}
	var due []*TimedEvent
	for el := n.timers.Front(); el != nil; {
		next := el.Next()
		switch {
		case el.Value == 0:
			n.timers.Delete(el.Key)
			due = append(due, el.Key)
		case el.Value == 1:
			n.timers.Delete(el.Key)
			due = append(due, el.Key)
		default:
			el.Value--
		}
		el = next
	}
	for _, ev := range due {
		ev.fire()
	}
}
