// Package resource implements the kernel's solved resource models: CPU,
// disk and network link, each backed by an internal/lmm max-min fair
// sharing System. It is grounded on SimGrid's
// include/simgrid/kernel/resource/{Model,Resource}.hpp and
// src/kernel/resource/DiskImpl.cpp: a Model owns one lmm.System and a set of
// live Actions; Resources (Cpu, Disk, Link) expand constraints into that
// system and can be turned on/off or reconfigured by platform profiles.
package resource

import (
	"github.com/opendsim/kernel/internal/lmm"
	"github.com/opendsim/kernel/internal/simerr"
)

// ActionState mirrors resource::Action::State: an Action is scheduled to a
// Model exactly once and moves monotonically through this state machine.
type ActionState int

const (
	ActionInited ActionState = iota
	ActionStarted
	ActionFailed
	ActionFinished
	ActionIgnored
)

func (s ActionState) String() string {
	switch s {
	case ActionInited:
		return "inited"
	case ActionStarted:
		return "started"
	case ActionFailed:
		return "failed"
	case ActionFinished:
		return "finished"
	case ActionIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Action is the solver-side scalar-progress object bound to exactly one
// live Activity: it wraps one lmm.Variable and tracks how much work (flops,
// bytes) remains. One Action == one Variable, one-to-one, for its entire
// lifetime — see spec.md's Action/Activity/Variable relationship.
type Action struct {
	model   Model
	owner   any
	varbl   *lmm.Variable
	phantom *lmm.Variable // optional crosstraffic reverse-direction load, disabled alongside varbl
	cost    float64
	remains float64
	state   ActionState
	start   float64
	finish  float64
	failed  bool
}

// SetPhantom attaches a second variable this action disables together with
// its own on finish/fail/cancel — used for the network model's crosstraffic
// reverse-direction phantom load, which has no lifecycle of its own.
func (a *Action) SetPhantom(v *lmm.Variable) { a.phantom = v }

// newAction constructs an Action bound to variable v with a total workload
// of cost units (flops for Cpu, bytes for Disk/Link). owner identifies the
// concrete resource (a *Cpu, *Disk or *Link) that created it, so
// baseModel.failOwned can single that resource's actions out when it goes
// down; owner may be nil for actions (e.g. a multi-link comm) with no
// single owning resource.
func newAction(model Model, owner any, v *lmm.Variable, cost, now float64) *Action {
	return &Action{model: model, owner: owner, varbl: v, cost: cost, remains: cost, state: ActionStarted, start: now}
}

// Remains returns the amount of work (flops/bytes) left to do.
func (a *Action) Remains() float64 { return a.remains }

// Cost returns the action's total requested workload.
func (a *Action) Cost() float64 { return a.cost }

// Rate returns the action's currently allotted rate, as computed by the
// last Solve() of the owning model's system.
func (a *Action) Rate() float64 { return a.varbl.Value() }

// State returns the action's current lifecycle state.
func (a *Action) State() ActionState { return a.state }

// StartDate returns the virtual date the action started progressing.
func (a *Action) StartDate() float64 { return a.start }

// FinishDate returns the virtual date the action finished, failed or was
// canceled (zero until then).
func (a *Action) FinishDate() float64 { return a.finish }

// Suspend sets the action's sharing penalty to zero, so it draws no share
// of any constraint until Resume is called (spec.md: "weight=0 suspends a
// variable without removing it from the system").
func (a *Action) Suspend() {
	if a.state == ActionStarted {
		a.varbl.SetWeight(0)
	}
}

// Resume restores the action's sharing penalty to 1 (the "penalty" concept
// only matters relative to other live actions in this model; user-visible
// sharing_penalty scaling is applied at variable-creation time).
func (a *Action) Resume() {
	if a.state == ActionStarted {
		a.varbl.SetWeight(1)
	}
}

// Cancel unbinds the action's variable from the solver and marks it failed
// with a KindCancel error.
func (a *Action) Cancel(now float64) error {
	if a.state != ActionStarted {
		return nil
	}
	a.model.system().VariableDisable(a.varbl)
	if a.phantom != nil {
		a.model.system().VariableDisable(a.phantom)
	}
	a.state = ActionFailed
	a.failed = true
	a.finish = now
	return simerr.Cancel("action canceled at t=%v", now)
}

// fail marks the action failed for a resource-driven reason (host/link/disk
// turned off underneath it) rather than a user cancellation.
func (a *Action) fail(now float64) {
	if a.state != ActionStarted {
		return
	}
	a.model.system().VariableDisable(a.varbl)
	if a.phantom != nil {
		a.model.system().VariableDisable(a.phantom)
	}
	a.state = ActionFailed
	a.failed = true
	a.finish = now
}

// tick advances the action's remaining work by rate*delta and finishes it
// once remains reaches zero within precision.
func (a *Action) tick(now, delta float64) {
	if a.state != ActionStarted {
		return
	}
	a.remains -= a.varbl.Value() * delta
	if a.remains <= a.model.system().Precision() {
		a.remains = 0
		a.state = ActionFinished
		a.finish = now
		a.model.system().VariableDisable(a.varbl)
		if a.phantom != nil {
			a.model.system().VariableDisable(a.phantom)
		}
	}
}

// Model is the common interface CPU, Disk and Network models implement: own
// one max-min system, expose the actions currently live on it, and advance
// them by a time delta. This mirrors
// include/simgrid/kernel/resource/Model.hpp's next_occurring_event /
// update_actions_state pair, collapsed into a single Advance call since Go's
// GC makes the C++ done/failed action-list bookkeeping unnecessary.
type Model interface {
	// Name identifies the model for logging ("cpu", "disk", "network").
	Name() string
	// system returns the backing max-min solver (package-private: only
	// Action needs it to disable a variable on cancel/finish/fail).
	system() *lmm.System
	// NextEvent returns the virtual date of the soonest action completion
	// among all live actions, or -1 if none are live.
	NextEvent(now float64) float64
	// Advance re-solves the system for the elapsed delta, decrements every
	// live action's remaining work, and returns the actions that finished
	// or failed during this step.
	Advance(now, delta float64) (finished, failed []*Action)
	// SetPrecision overrides the solver epsilon, e.g. from a scenario's
	// precision/work tuning knob.
	SetPrecision(p float64)
}

// baseModel factors the bookkeeping shared by Cpu/Disk/Link models: the
// solver system and the set of actions currently scheduled on it.
type baseModel struct {
	name    string
	sys     *lmm.System
	actions []*Action
}

func newBaseModel(name string, selectiveUpdate bool) baseModel {
	return baseModel{name: name, sys: lmm.NewSystem(selectiveUpdate)}
}

func (m *baseModel) Name() string       { return m.name }
func (m *baseModel) system() *lmm.System { return m.sys }

// SetPrecision overrides this model's solver epsilon, e.g. from a
// scenario's precision/work tuning knob.
func (m *baseModel) SetPrecision(p float64) { m.sys.SetPrecision(p) }

func (m *baseModel) track(a *Action) { m.actions = append(m.actions, a) }

// failOwned fails every still-running action belonging to owner (a *Cpu,
// *Disk or *Link whose TurnOff just dropped its constraint capacity to
// zero) and returns them, matching SimGrid's host-failure path of failing
// every action on a resource rather than leaving it stalled forever.
func (m *baseModel) failOwned(owner any, now float64) []*Action {
	var failed []*Action
	for _, a := range m.actions {
		if a.owner == owner && a.state == ActionStarted {
			a.fail(now)
			failed = append(failed, a)
		}
	}
	return failed
}

// NextEvent re-solves the system so every live action's rate reflects the
// current constraints (actions started or capacities changed since the last
// Advance), then returns -1 (no event) if no live action has a positive
// rate, otherwise the soonest completion date now + remains/rate among them.
func (m *baseModel) NextEvent(now float64) float64 {
	m.sys.Solve()
	best := -1.0
	for _, a := range m.actions {
		if a.state != ActionStarted {
			continue
		}
		rate := a.varbl.Value()
		if rate <= m.sys.Precision() {
			continue
		}
		eta := now + a.remains/rate
		if best < 0 || eta < best {
			best = eta
		}
	}
	return best
}

// Advance re-solves the system, ticks every live action forward by delta,
// then compacts the live-action list, returning what finished/failed. Each
// concrete model (Cpu/Disk/Link) gets this for free via embedding, so all
// three satisfy the Model interface identically.
func (m *baseModel) Advance(now, delta float64) (finished, failed []*Action) {
	m.sys.Solve()
	kept := m.actions[:0]
	for _, a := range m.actions {
		if a.state == ActionStarted {
			a.tick(now, delta)
		}
		switch a.state {
		case ActionFinished:
			finished = append(finished, a)
		case ActionFailed:
			failed = append(failed, a)
		default:
			kept = append(kept, a)
		}
	}
	m.actions = kept
	return finished, failed
}
