package sync

import (
	"fmt"

	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/engine"
)

// ConditionVariable is grounded on ConditionVariableImpl.cpp: Wait atomically
// releases the associated Mutex and blocks the caller, and reacquires the
// mutex before returning, exactly like every pthread-style condvar.
type ConditionVariable struct {
	eng     *engine.Engine
	name    string
	waiters waitQueue
}

// NewConditionVariable creates an empty condition variable.
func NewConditionVariable(eng *engine.Engine, name string) *ConditionVariable {
	return &ConditionVariable{eng: eng, name: name}
}

// Wait releases m, blocks until Signal/Broadcast wakes this actor (or
// deadline elapses), then reacquires m before returning. If the wait
// itself times out, m is still reacquired (without a deadline) before the
// timeout error is returned, matching pthread_cond_timedwait's contract
// that the mutex is always held again on return.
func (cv *ConditionVariable) Wait(a *actor.Actor, m *Mutex, deadline float64) error {
	m.Unlock(a)
	raw := cv.eng.NewRaw(fmt.Sprintf("condvar(%s).wait(%s)", cv.name, a.Name), deadline)
	cv.waiters.push(a.ID, raw)
	waitErr := a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: raw, Deadline: deadline})
	if waitErr != nil {
		cv.waiters.remove(a.ID)
	}
	if lockErr := m.Lock(a, -1); lockErr != nil && waitErr == nil {
		return lockErr
	}
	return waitErr
}

// Signal wakes the oldest waiter, if any.
func (cv *ConditionVariable) Signal() {
	if next := cv.waiters.pop(); next != nil {
		next.raw.Complete(nil)
	}
}

// Broadcast wakes every current waiter.
func (cv *ConditionVariable) Broadcast() {
	for _, w := range cv.waiters.popAll() {
		w.raw.Complete(nil)
	}
}
