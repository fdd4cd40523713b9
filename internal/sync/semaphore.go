package sync

import (
	"fmt"

	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/engine"
)

// Semaphore is a counting semaphore, grounded on SemaphoreImpl.cpp:
// Acquire either takes a free slot immediately or queues; Release either
// wakes the oldest queued waiter (handing it the freed slot directly,
// mirroring Mutex's hand-off) or, with no one waiting, returns the slot to
// the counter.
type Semaphore struct {
	eng      *engine.Engine
	name     string
	capacity int
	count    int
	waiters  waitQueue
}

// NewSemaphore creates a semaphore with capacity initially-available
// slots.
func NewSemaphore(eng *engine.Engine, name string, capacity int) *Semaphore {
	return &Semaphore{eng: eng, name: name, capacity: capacity, count: capacity}
}

// Acquire blocks until a slot is available, or returns a KindTimeout error
// if deadline (< 0 means no deadline) elapses first.
func (s *Semaphore) Acquire(a *actor.Actor, deadline float64) error {
	if s.count > 0 {
		s.count--
		return nil
	}
	raw := s.eng.NewRaw(fmt.Sprintf("sem(%s).acquire(%s)", s.name, a.Name), deadline)
	s.waiters.push(a.ID, raw)
	if err := a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: raw, Deadline: deadline}); err != nil {
		s.waiters.remove(a.ID)
		return err
	}
	return nil
}

// Release returns a slot, handing it directly to the oldest waiter if one
// exists.
func (s *Semaphore) Release() {
	if next := s.waiters.pop(); next != nil {
		next.raw.Complete(nil)
		return
	}
	if s.count < s.capacity {
		s.count++
	}
}

// Value reports the number of currently-available slots.
func (s *Semaphore) Value() int { return s.count }
