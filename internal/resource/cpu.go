package resource

import "github.com/opendsim/kernel/internal/lmm"

// CpuModel is the max-min system shared by every host's Cpu resource. A
// single lmm.System is used for the whole model (not one per host): each
// Cpu contributes its own constraint, so cross-host execution never
// interacts, matching selective update's disjoint-component guarantee.
type CpuModel struct {
	baseModel
}

// NewCpuModel creates a CPU model. Lazy update tracks only the dirty
// component of the constraint/variable graph on each Solve(); full update
// recomputes everything, matching Model.hpp's UpdateAlgo choice.
func NewCpuModel(lazyUpdate bool) *CpuModel {
	return &CpuModel{baseModel: newBaseModel("cpu", lazyUpdate)}
}

// Cpu is one host's processor: `cores` identical cores each capable of
// `speed` flop/s, exposed to the solver as a single constraint of capacity
// cores*speed (SimGrid's simplification of core-level scheduling — see
// spec.md's CPU invariant that concurrent Execs on the same host share this
// one constraint fairly).
type Cpu struct {
	model      *CpuModel
	name       string
	cores      int
	speed      float64 // flop/s per core at the current pstate
	speeds     []float64
	pstate     int
	constraint *lmm.Constraint
	on         bool
	profile    *Profile
}

// NewCpu registers a new Cpu resource with the given model. speeds holds
// one flop/s figure per available p-state (index 0 is the default).
func NewCpu(model *CpuModel, name string, cores int, speeds []float64) *Cpu {
	if len(speeds) == 0 {
		speeds = []float64{1.0}
	}
	c := &Cpu{
		model:  model,
		name:   name,
		cores:  cores,
		speeds: speeds,
		speed:  speeds[0],
		on:     true,
	}
	c.constraint = model.sys.ConstraintNew(float64(cores)*c.speed, true)
	return c
}

// Name returns the host name this Cpu belongs to.
func (c *Cpu) Name() string { return c.name }

// IsOn reports whether the Cpu is currently powered on.
func (c *Cpu) IsOn() bool { return c.on }

// Speed returns the current per-core flop/s.
func (c *Cpu) Speed() float64 { return c.speed }

// Cores returns the number of cores.
func (c *Cpu) Cores() int { return c.cores }

// Constraint exposes the Cpu's own solver constraint, e.g. for a parallel
// exec that needs this host's current capacity to build its own leg in
// resource.ParallelModel.
func (c *Cpu) Constraint() *lmm.Constraint { return c.constraint }

// Load returns the constraint's current usage as a fraction of capacity, in
// [0, 1] under normal operation (can exceed 1 only transiently between
// solves).
func (c *Cpu) Load() float64 {
	if c.constraint.Capacity() <= 0 {
		return 0
	}
	return c.constraint.Usage() / c.constraint.Capacity()
}

// SetPState switches the Cpu to a different power state, rescaling its
// constraint's capacity to cores*speeds[pstate].
func (c *Cpu) SetPState(pstate int) {
	if pstate < 0 || pstate >= len(c.speeds) {
		return
	}
	c.pstate = pstate
	c.speed = c.speeds[pstate]
	if c.on {
		c.constraint.SetCapacity(float64(c.cores) * c.speed)
	}
}

// TurnOn powers the Cpu back on, restoring its capacity and failing no
// pending action (a fresh Execute is required after TurnOff).
func (c *Cpu) TurnOn() {
	if c.on {
		return
	}
	c.on = true
	c.constraint.SetCapacity(float64(c.cores) * c.speed)
}

// TurnOff powers the Cpu down: its capacity drops to zero, so every live
// Exec sharing it stalls; the caller (engine) is responsible for failing
// those actions with a HostFailure via FailActions.
func (c *Cpu) TurnOff() {
	if !c.on {
		return
	}
	c.on = false
	c.constraint.SetCapacity(0)
}

// SetProfile attaches a speed/availability profile whose events the engine
// applies as it crosses their dates (see internal/resource/profile.go).
func (c *Cpu) SetProfile(p *Profile) { c.profile = p }

// Profile returns the attached profile, or nil.
func (c *Cpu) Profile() *Profile { return c.profile }

// Execute creates an Action consuming `flops` worth of work on this Cpu,
// with sharing_penalty 1 (fair share among concurrent executions) and an
// optional bound (0 or negative means unbounded, e.g. a rate-limited task).
func (c *Cpu) Execute(now, flops, bound float64) *Action {
	var v *lmm.Variable
	if bound > 0 {
		v = c.model.sys.VariableNewBounded(1, bound)
	} else {
		v = c.model.sys.VariableNew(1)
	}
	c.model.sys.Expand(c.constraint, v, 1)
	a := newAction(c.model, c, v, flops, now)
	c.model.track(a)
	return a
}

// FailActions fails every Exec currently running on this Cpu with a
// KindHostFailure, for the engine to call right after TurnOff when the
// host it belongs to goes down mid-execution.
func (c *Cpu) FailActions(now float64) []*Action {
	return c.model.failOwned(c, now)
}
