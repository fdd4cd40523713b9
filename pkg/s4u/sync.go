package s4u

import (
	"github.com/opendsim/kernel/internal/engine"
	ssync "github.com/opendsim/kernel/internal/sync"
)

// Mutex, Semaphore and ConditionVariable are re-exported directly:
// internal/sync's types already take the calling *actor.Actor per
// operation, so s4u only needs to bind them to an Engine at construction.
type (
	Mutex             = ssync.Mutex
	Semaphore         = ssync.Semaphore
	ConditionVariable = ssync.ConditionVariable
)

// NewMutex creates a named mutex on eng.
func NewMutex(eng *engine.Engine, name string) *Mutex { return ssync.NewMutex(eng, name) }

// NewSemaphore creates a named semaphore with the given initial capacity.
func NewSemaphore(eng *engine.Engine, name string, capacity int) *Semaphore {
	return ssync.NewSemaphore(eng, name, capacity)
}

// NewConditionVariable creates a named condition variable.
func NewConditionVariable(eng *engine.Engine, name string) *ConditionVariable {
	return ssync.NewConditionVariable(eng, name)
}
