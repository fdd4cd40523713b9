// Package s4u is the actor-facing public façade over the kernel: thin
// wrappers around internal/engine's Simcall machinery, named after
// SimGrid's own public s4u namespace (s4u::Host, s4u::Mailbox, s4u::Comm,
// s4u::Mutex...) which is exactly this layer's role there — every type
// here holds nothing but a reference to the owning Engine and, where an
// operation blocks, the calling actor's handle.
package s4u

import (
	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/engine"
)

// Host is the actor-facing handle to one named host's Cpu.
type Host struct {
	eng  *engine.Engine
	Name string
}

// GetHost returns the façade for hostName.
func GetHost(eng *engine.Engine, hostName string) *Host {
	return &Host{eng: eng, Name: hostName}
}

// Execute blocks the calling actor until flops worth of computation
// completes on this host's Cpu, optionally rate-bounded and/or deadlined
// (deadline < 0 means no timeout). It returns the Cpu's KindHostFailure if
// the host goes down mid-execution, or KindTimeout if the deadline wins.
func (h *Host) Execute(a *actor.Actor, flops, bound, deadline float64) error {
	act, err := h.eng.NewExec("exec("+h.Name+")", h.Name, flops, bound)
	if err != nil {
		return err
	}
	return a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: act, Deadline: deadline})
}

// ParallelExecute blocks the calling actor until every host in hosts has
// run its flops[i] share and every nonzero bytes[i][j] transfer has
// finished crossing the routing table, all co-scheduled together (spec's
// this_actor::parallel_execute(hosts, flops[], bytes[])). deadline < 0
// means no timeout.
func ParallelExecute(eng *engine.Engine, a *actor.Actor, hosts []string, flops []float64, bytes [][]float64, deadline float64) error {
	act, err := eng.NewParallelExec("parallel_exec", hosts, flops, bytes)
	if err != nil {
		return err
	}
	return a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: act, Deadline: deadline})
}

// WaitAny blocks the calling actor until the first of activities reaches a
// terminal state, returning its index (ties break toward the lowest index)
// and that activity's error. deadline < 0 means no timeout; on timeout it
// returns index -1 and a nil error, leaving every activity untouched (a
// wait_any does not own what it watches, unlike a plain Execute/Sleep wait).
func WaitAny(a *actor.Actor, activities []actor.Waiter, deadline float64) (int, error) {
	o := a.SimcallFull(actor.Simcall{Kind: actor.KindWaitAny, Activities: activities, Deadline: deadline})
	return o.Index, o.Err
}

// TestAny never blocks: it reports the index of the first already-terminal
// activity among activities, or -1 if none has finished yet.
func TestAny(a *actor.Actor, activities []actor.Waiter) int {
	o := a.SimcallFull(actor.Simcall{Kind: actor.KindTestAny, Activities: activities})
	return o.Index
}

// Sleep blocks the calling actor for duration seconds of virtual time,
// consuming no resource.
func (h *Host) Sleep(a *actor.Actor, duration float64) error {
	return a.Simcall(actor.Simcall{Kind: actor.KindSleep, Duration: duration})
}

// IsUp reports whether the host's Cpu is currently powered on.
func (h *Host) IsUp() bool {
	host, ok := h.eng.Host(h.Name)
	return ok && host.IsOn()
}

// Spawn creates a new actor on this host running body, and returns
// immediately without blocking the caller.
func (h *Host) Spawn(a *actor.Actor, name string, body func(*actor.Actor)) (int64, error) {
	reply := make(chan int64, 1)
	if err := a.Simcall(actor.Simcall{Kind: actor.KindSpawn, SpawnHost: h.Name, SpawnName: name, SpawnFn: body, Reply: reply}); err != nil {
		return 0, err
	}
	return <-reply, nil
}

// SpawnDaemon is Spawn for a daemon actor (s4u::Actor::daemonize): the
// scheduler kills it outright once every non-daemon actor on the run has
// exited, rather than letting it keep the run alive or count toward a
// deadlock on its own.
func (h *Host) SpawnDaemon(a *actor.Actor, name string, body func(*actor.Actor)) (int64, error) {
	reply := make(chan int64, 1)
	if err := a.Simcall(actor.Simcall{Kind: actor.KindSpawn, SpawnHost: h.Name, SpawnName: name, SpawnFn: body, SpawnDaemon: true, Reply: reply}); err != nil {
		return 0, err
	}
	return <-reply, nil
}
