package resource

import "github.com/opendsim/kernel/internal/lmm"

// ParallelModel is the max-min system backing every multi-host parallel
// execution (spec's parallel_execute(hosts, flops[], bytes[])). SimGrid
// requires a host to run either its plain constant-time CPU model or the
// ptask/L07 model that can co-schedule a task's CPU legs and network legs
// together in one system (src/surf/host_clm03.cpp dies with "You should
// consider using the ptask model" the moment more than one host or any
// inter-host bytes are involved); this kernel keeps that same split rather
// than folding CpuModel/LinkModel's per-resource systems into one system
// shared by every plain Exec/Comm too. A parallel exec's host and link legs
// live in ParallelModel's own system, so two concurrent parallel execs on
// the same host or crossing the same link still fairly share against each
// other, but a parallel exec does not fairly share against an ordinary,
// single-host Exec or Comm on the same underlying resource — see
// DESIGN.md.
type ParallelModel struct {
	baseModel
	hostConstraints map[string]*lmm.Constraint
	linkConstraints map[string]*lmm.Constraint
}

// NewParallelModel creates a Parallel model.
func NewParallelModel(lazyUpdate bool) *ParallelModel {
	return &ParallelModel{
		baseModel:       newBaseModel("parallel", lazyUpdate),
		hostConstraints: make(map[string]*lmm.Constraint),
		linkConstraints: make(map[string]*lmm.Constraint),
	}
}

// HostLeg is one participating host's share of a parallel task: flops work
// to run on hostName's CPU capacity (cores*speed, resynced from the live
// Cpu each time a parallel exec is created so pstate/profile changes are
// honored).
type HostLeg struct {
	HostName string
	Capacity float64
	Flops    float64
}

// LinkLeg is one link crossed by the task's inter-host traffic mesh: bytes
// that must cross linkName's current bandwidth capacity. Multiple legs
// naming the same link (several host pairs routed over one backbone link)
// are additive, exactly like several ordinary Comms sharing that link.
type LinkLeg struct {
	LinkName string
	Capacity float64
	Bytes    float64
}

func (pm *ParallelModel) hostConstraint(leg HostLeg) *lmm.Constraint {
	c, ok := pm.hostConstraints[leg.HostName]
	if !ok {
		c = pm.sys.ConstraintNew(leg.Capacity, true)
		pm.hostConstraints[leg.HostName] = c
	} else {
		c.SetCapacity(leg.Capacity)
	}
	return c
}

func (pm *ParallelModel) linkConstraint(leg LinkLeg) *lmm.Constraint {
	c, ok := pm.linkConstraints[leg.LinkName]
	if !ok {
		c = pm.sys.ConstraintNew(leg.Capacity, true)
		pm.linkConstraints[leg.LinkName] = c
	} else {
		c.SetCapacity(leg.Capacity)
	}
	return c
}

// NewParallelExec creates a single Action representing a multi-host
// parallel task. Its cost is 1.0 (task completion fraction) rather than a
// flops or bytes count, since no single physical unit describes a
// heterogeneous mesh of hosts and links; the solved Variable's value is the
// task's completion-fraction-per-second, and each host/link leg's
// coefficient converts that into the flop/s or byte/s it draws from that
// leg's capacity (spec's "one Variable entry per involved host, plus one
// per involved link" CPU-model note).
func (pm *ParallelModel) NewParallelExec(now float64, hostLegs []HostLeg, linkLegs []LinkLeg) *Action {
	v := pm.sys.VariableNew(1)
	for _, leg := range hostLegs {
		if leg.Flops <= 0 {
			continue
		}
		pm.sys.Expand(pm.hostConstraint(leg), v, leg.Flops)
	}
	for _, leg := range linkLegs {
		if leg.Bytes <= 0 {
			continue
		}
		pm.sys.Expand(pm.linkConstraint(leg), v, leg.Bytes)
	}
	a := newAction(pm, nil, v, 1.0, now)
	pm.track(a)
	return a
}
