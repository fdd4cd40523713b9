// Package sync implements Mutex, Semaphore and ConditionVariable entirely
// on top of a Raw synchronization activity per waiter plus the actor
// Simcall protocol — grounded on SimGrid's MutexImpl.cpp, SemaphoreImpl.cpp
// and ConditionVariableImpl.cpp, none of which introduce a new kernel
// concept: each just manages a FIFO of waiters and completes one (or all)
// of their Raw activities to hand off.
package sync

import "github.com/opendsim/kernel/internal/activity"

// entry is one actor parked on a primitive's Raw activity.
type entry struct {
	actorID int64
	raw     *activity.Raw
}

// waitQueue is the FIFO every primitive in this package queues blocked
// actors on.
type waitQueue []*entry

func (q *waitQueue) push(actorID int64, raw *activity.Raw) {
	*q = append(*q, &entry{actorID: actorID, raw: raw})
}

func (q *waitQueue) pop() *entry {
	if len(*q) == 0 {
		return nil
	}
	e := (*q)[0]
	*q = (*q)[1:]
	return e
}

func (q *waitQueue) popAll() []*entry {
	all := *q
	*q = nil
	return all
}

func (q *waitQueue) remove(actorID int64) {
	for i, e := range *q {
		if e.actorID == actorID {
			*q = append((*q)[:i], (*q)[i+1:]...)
			return
		}
	}
}

func (q *waitQueue) len() int { return len(*q) }
