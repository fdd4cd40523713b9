package sync

import (
	"fmt"

	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/engine"
)

// Mutex is a mutual-exclusion lock. Ownership transfers directly from
// Unlock to the oldest waiter (MutexImpl.cpp's hand-off), so a waiter
// woken by Unlock never has to re-contend for the lock.
type Mutex struct {
	eng     *engine.Engine
	name    string
	locked  bool
	owner   int64
	waiters waitQueue
}

// NewMutex creates an unlocked mutex.
func NewMutex(eng *engine.Engine, name string) *Mutex {
	return &Mutex{eng: eng, name: name}
}

// Lock blocks the calling actor until it owns the mutex, or returns a
// KindTimeout error if deadline (< 0 means no deadline) elapses first.
func (m *Mutex) Lock(a *actor.Actor, deadline float64) error {
	if !m.locked {
		m.locked = true
		m.owner = a.ID
		return nil
	}
	raw := m.eng.NewRaw(fmt.Sprintf("mutex(%s).lock(%s)", m.name, a.Name), deadline)
	m.waiters.push(a.ID, raw)
	if err := a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: raw, Deadline: deadline}); err != nil {
		m.waiters.remove(a.ID)
		return err
	}
	m.locked = true
	m.owner = a.ID
	return nil
}

// TryLock acquires the mutex only if it is free, without blocking.
func (m *Mutex) TryLock(a *actor.Actor) bool {
	if m.locked {
		return false
	}
	m.locked = true
	m.owner = a.ID
	return true
}

// Unlock releases the mutex, handing it to the oldest waiter if any. It is
// a no-op if a does not currently own it.
func (m *Mutex) Unlock(a *actor.Actor) {
	if !m.locked || m.owner != a.ID {
		return
	}
	if next := m.waiters.pop(); next != nil {
		m.owner = next.actorID
		next.raw.Complete(nil)
		return
	}
	m.locked = false
	m.owner = 0
}

// IsLocked reports whether the mutex is currently held.
func (m *Mutex) IsLocked() bool { return m.locked }
