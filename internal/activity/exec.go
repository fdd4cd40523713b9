package activity

import (
	"github.com/opendsim/kernel/internal/resource"
	"github.com/opendsim/kernel/internal/simerr"
)

// Exec is CPU computation: a fixed amount of flops executing on one host's
// Cpu, sharing that Cpu's constraint fairly with every other live Exec on
// the same host. Grounded on ExecImpl.cpp; the multi-host case
// (parallel_execute) is ParallelExec, a separate type backed by
// resource.ParallelModel rather than a single Cpu's constraint.
type Exec struct {
	name   string
	action *resource.Action
	state  State
	err    error
}

// NewExec starts an Exec of flops work on cpu, optionally bounded to a
// maximum rate (bound <= 0 means unbounded, fair-shared only).
func NewExec(name string, cpu *resource.Cpu, now, flops, bound float64) *Exec {
	return &Exec{name: name, action: cpu.Execute(now, flops, bound), state: Running}
}

func (e *Exec) Name() string             { return e.name }
func (e *Exec) State() State             { return e.state }
func (e *Exec) Err() error               { return e.err }
func (e *Exec) Action() *resource.Action { return e.action }

// Remains reports the flops left, for progress inspection (metrics,
// Suspend/Resume bookkeeping).
func (e *Exec) Remains() float64 { return e.action.Remains() }

// Test checks the underlying Action's state and latches Done/Failed the
// first time it observes a terminal Action state.
func (e *Exec) Test() bool {
	if e.state != Running {
		return true
	}
	switch e.action.State() {
	case resource.ActionFinished:
		e.state = Done
	case resource.ActionFailed:
		e.state = Failed
		e.err = simerr.HostFailure("exec %q: host turned off mid-execution", e.name)
	}
	return e.state != Running
}

func (e *Exec) Cancel(now float64) {
	if e.state != Running {
		return
	}
	e.err = e.action.Cancel(now)
	e.state = Canceled
}

func (e *Exec) Suspend() { e.action.Suspend() }
func (e *Exec) Resume()  { e.action.Resume() }
