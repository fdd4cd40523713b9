package activity

import "github.com/opendsim/kernel/internal/simerr"

// Raw is a synchronization activity with no resource.Action behind it at
// all, grounded on SynchroRaw.cpp: RawImpl::start() puts the owning host's
// Cpu to "sleep" for a bounded wait, but for an unbounded wait (the common
// case for Mutex/Semaphore/ConditionVariable, and for plain actor sleeps
// the engine drives from its timer heap) it simply sits Running until
// something external calls Complete. Every sync primitive in
// internal/sync is built on this one activity kind plus the actor API —
// no separate kernel concept.
type Raw struct {
	name     string
	state    State
	err      error
	deadline float64 // < 0 means no deadline; a positive sync primitive wait still carries one for timeout-vs-signal races
}

// NewRaw creates a Raw activity. deadline < 0 means it only ever completes
// via an explicit Complete call (e.g. a mutex unlock waking the next
// waiter); deadline >= 0 additionally times out at that virtual date if
// nothing completed it first — spec.md's "timeout wins over completion
// when both happen at the same instant" tie-break is resolved by the
// engine checking the deadline strictly before polling Test().
func NewRaw(name string, deadline float64) *Raw {
	return &Raw{name: name, state: Running, deadline: deadline}
}

func (r *Raw) Name() string      { return r.name }
func (r *Raw) State() State      { return r.state }
func (r *Raw) Err() error        { return r.err }
func (r *Raw) Deadline() float64 { return r.deadline }

func (r *Raw) Test() bool { return r.state != Running }

// Complete moves the activity to Done (err == nil) or Failed/Canceled
// (err != nil), idempotently — the first caller wins, matching
// ActivityImpl::complete's single-winner semantics when a timeout and an
// external wakeup race.
func (r *Raw) Complete(err error) {
	if r.state != Running {
		return
	}
	if err != nil {
		r.state = Failed
		r.err = err
	} else {
		r.state = Done
	}
}

func (r *Raw) Cancel(now float64) {
	if r.state != Running {
		return
	}
	r.err = simerr.Cancel("raw activity %q canceled at t=%v", r.name, now)
	r.state = Canceled
}

// Suspend/Resume are no-ops: a Raw activity has no sharing penalty to
// suspend, matching SynchroRaw's lack of a LMM variable.
func (r *Raw) Suspend() {}
func (r *Raw) Resume()  {}
