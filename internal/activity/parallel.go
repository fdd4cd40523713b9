package activity

import (
	"github.com/opendsim/kernel/internal/resource"
	"github.com/opendsim/kernel/internal/simerr"
)

// ParallelExec is a multi-host parallel execution: one resource.Action
// whose Variable is co-scheduled across every participating host's CPU
// constraint and every link crossed by the task's inter-host traffic mesh,
// in a single lmm.System round (see resource.ParallelModel). Grounded on
// ExecImpl.cpp generalized the way host_L07/ptask generalizes host_clm03:
// a parallel Exec's remaining work is a completion fraction, not a flops
// count, since a heterogeneous mesh of hosts and links has no single
// physical unit to remain in.
type ParallelExec struct {
	name   string
	action *resource.Action
	state  State
	err    error
}

// NewParallelExec starts a parallel exec whose Action was built by
// resource.ParallelModel.NewParallelExec.
func NewParallelExec(name string, action *resource.Action) *ParallelExec {
	return &ParallelExec{name: name, action: action, state: Running}
}

func (e *ParallelExec) Name() string             { return e.name }
func (e *ParallelExec) State() State             { return e.state }
func (e *ParallelExec) Err() error               { return e.err }
func (e *ParallelExec) Action() *resource.Action { return e.action }

// RemainingRatio reports the fraction of the task still left to do, in
// [0, 1]; spec's get_remaining_ratio() for a parallel exec, where only the
// ratio (not an absolute flops count) is meaningful.
func (e *ParallelExec) RemainingRatio() float64 { return e.action.Remains() }

func (e *ParallelExec) Test() bool {
	if e.state != Running {
		return true
	}
	switch e.action.State() {
	case resource.ActionFinished:
		e.state = Done
	case resource.ActionFailed:
		e.state = Failed
		e.err = simerr.HostFailure("parallel exec %q: a participating host or link turned off mid-execution", e.name)
	}
	return e.state != Running
}

func (e *ParallelExec) Cancel(now float64) {
	if e.state != Running {
		return
	}
	e.err = e.action.Cancel(now)
	e.state = Canceled
}

func (e *ParallelExec) Suspend() { e.action.Suspend() }
func (e *ParallelExec) Resume()  { e.action.Resume() }
