package engine

import "container/heap"

// timer is a one-shot callback the engine fires once virtual time reaches
// At, grounded on SimGrid's kernel/timer/Timer.hpp: a small binary heap of
// (date, callback) pairs is all the engine needs, since every timed
// wakeup (a plain actor Sleep, a Raw activity's deadline, a workload
// arrival) is exactly this.
type timer struct {
	at       float64
	seq      int64 // tie-break for equal dates, oldest-scheduled-first
	fn       func()
	canceled bool
}

type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(*timer)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	*h = old[:n-1]
	return t
}

// timers wraps timerHeap with the monotonic sequence counter and exposes
// the operations the engine's main loop needs.
type timers struct {
	h   timerHeap
	seq int64
}

func newTimers() *timers { return &timers{} }

// schedule queues fn to run at `at`, returning a handle that can cancel it
// before it fires. The engine's own deadline timers are not canceled this
// way: when one fires, it checks whether the actor is still waiting.
func (t *timers) schedule(at float64, fn func()) *timer {
	tm := &timer{at: at, seq: t.seq, fn: fn}
	t.seq++
	heap.Push(&t.h, tm)
	return tm
}

func (tm *timer) cancel() { tm.canceled = true }

// nextAt returns the soonest non-canceled timer's date, or (-1, false) if
// none remain.
func (t *timers) nextAt() (float64, bool) {
	for len(t.h) > 0 {
		if t.h[0].canceled {
			heap.Pop(&t.h)
			continue
		}
		return t.h[0].at, true
	}
	return -1, false
}

// fireDue pops and runs every non-canceled timer scheduled at or before
// now, in date order.
func (t *timers) fireDue(now float64) {
	for len(t.h) > 0 && t.h[0].at <= now {
		tm := heap.Pop(&t.h).(*timer)
		if !tm.canceled {
			tm.fn()
		}
	}
}
