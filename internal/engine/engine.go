// Package engine is the simulation kernel's maestro: the single loop that
// hands control to one actor at a time, advances every resource model to
// the next event date, fires due timers, and promotes blocked actors back
// to ready once whatever they were waiting on completes. Grounded on
// SimGrid's kernel::EngineImpl::run(): "run every ready actor until it
// blocks, find the smallest next event date across every model and timer,
// jump to it, then repeat" is exactly EngineImpl's main loop. Host failures
// (HostFailure) and parallel tasks (NewParallelExec) run through that same
// loop rather than through separate machinery.
package engine

import (
	"fmt"

	"github.com/opendsim/kernel/internal/activity"
	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/resource"
	"github.com/opendsim/kernel/internal/routing"
	"github.com/opendsim/kernel/internal/simerr"
	"github.com/opendsim/kernel/pkg/logger"
)

// waitEntry is what the engine remembers about a blocked actor between the
// Simcall that parked it and the poll that notices it is done. For a plain
// KindWait only waiter is set (waiters stays nil); for a KindWaitAny,
// waiters holds every activity being watched and waiter is waiters[0].
type waitEntry struct {
	waiter  actor.Waiter
	waiters []actor.Waiter
	isAny   bool
}

// Engine owns the whole simulated world: the resource models and routing
// table a scenario built, every actor spawned into it, and the event
// machinery (ready queue, wait set, timer heap, mailboxes) that drives
// virtual time forward.
type Engine struct {
	Mgr    *resource.Manager
	Routes *routing.Table
	now    float64

	nextActorID    int64
	actorsByID     map[int64]*actor.Actor
	ready          []*actor.Actor
	waiting        map[int64]*waitEntry
	pendingOutcome map[int64]actor.Outcome
	liveCount      int

	mailboxes map[string]*Mailbox
	detached  []*detachedSend
	timers    *timers
	profiles  []profileTrack

	breakpoint      float64 // virtual date to raise a trap at; < 0 means unset
	breakpointFired bool

	OnActorExit  Signal[*actor.Actor]
	OnDeadlock   Signal[*DeadlockReport]
	OnBreakpoint Signal[float64]
}

// New builds an Engine over an already-loaded resource manager and routing
// table; it holds no actors yet until Spawn is called. Every profile the
// manager attached while building the platform is armed immediately, so a
// scenario's speed/bandwidth traces and scheduled outages take effect
// without the caller wiring them in by hand.
func New(mgr *resource.Manager, routes *routing.Table) *Engine {
	e := &Engine{
		Mgr:            mgr,
		Routes:         routes,
		actorsByID:     make(map[int64]*actor.Actor),
		waiting:        make(map[int64]*waitEntry),
		pendingOutcome: make(map[int64]actor.Outcome),
		mailboxes:      make(map[string]*Mailbox),
		timers:         newTimers(),
		breakpoint:     -1,
	}
	for _, pa := range mgr.Profiles {
		e.AttachProfile(pa)
	}
	if mgr.Debug != nil {
		e.SetBreakpoint(mgr.Debug.Breakpoint)
	}
	return e
}

// SetBreakpoint arms a debug trap at virtual date t: once the scheduler's
// event-date jump reaches or passes t, OnBreakpoint fires exactly once
// with the date actually reached, mirroring EngineImpl::run's breakpoint
// check (spec's debug/breakpoint knob). Pass a negative t to disarm it.
func (e *Engine) SetBreakpoint(t float64) {
	e.breakpoint = t
	e.breakpointFired = false
}

// profileApplier mirrors resource.Profile's unexported applier interface —
// SetCapacityHint/TurnOn/TurnOff — so this package can hold a resource.
// ProfileAttachment's Target without importing that unexported type by
// name; Go's structural interface satisfaction makes the assignment legal.
type profileApplier interface {
	SetCapacityHint(value float64)
	TurnOn()
	TurnOff()
}

// profileTrack is one attached Profile the scheduler polls each round.
type profileTrack struct {
	profile *resource.Profile
	target  profileApplier
}

// AttachProfile arms one resource's event timeline: the scheduler now
// includes its next scheduled date in nextEventDate's scan and applies each
// event as virtual time reaches it.
func (e *Engine) AttachProfile(pa resource.ProfileAttachment) {
	if pa.Profile == nil {
		return
	}
	e.profiles = append(e.profiles, profileTrack{profile: pa.Profile, target: pa.Target})
}

// Now returns the engine's current virtual time.
func (e *Engine) Now() float64 { return e.now }

// Spawn creates a new actor bound to hostName and queues it to run its
// body for the first time on the engine's next drain pass.
func (e *Engine) Spawn(hostName, name string, body func(*actor.Actor)) *actor.Actor {
	e.nextActorID++
	a := actor.New(e.nextActorID, name, hostName)
	e.actorsByID[a.ID] = a
	e.liveCount++
	a.Go(body)
	e.ready = append(e.ready, a)
	return a
}

// SpawnDaemon is Spawn for a daemon actor: one the scheduler kills outright
// once every non-daemon actor has exited, instead of ever counting it
// toward a deadlock — the idiom for background housekeeping (a metrics
// exporter, a health-check loop) that should never keep a run alive on its
// own, per s4u::Actor::daemonize.
func (e *Engine) SpawnDaemon(hostName, name string, body func(*actor.Actor)) *actor.Actor {
	a := e.Spawn(hostName, name, body)
	a.Daemon = true
	return a
}

// Host looks up a host by name in the engine's resource manager.
func (e *Engine) Host(name string) (*resource.Host, bool) { return e.Mgr.Host(name) }

// NewExec starts an Exec activity for flops work on hostName's Cpu.
func (e *Engine) NewExec(name, hostName string, flops, bound float64) (*activity.Exec, error) {
	h, ok := e.Mgr.Host(hostName)
	if !ok {
		return nil, simerr.Assertion("engine: unknown host %q", hostName)
	}
	return activity.NewExec(name, h.Cpu, e.now, flops, bound), nil
}

// NewIoRead/NewIoWrite start a disk activity on hostName's named disk.
func (e *Engine) NewIoRead(name, hostName, diskName string, bytes float64) (*activity.Io, error) {
	d, err := e.disk(hostName, diskName)
	if err != nil {
		return nil, err
	}
	return activity.NewIo(name, d.Read(e.now, bytes)), nil
}

func (e *Engine) NewIoWrite(name, hostName, diskName string, bytes float64) (*activity.Io, error) {
	d, err := e.disk(hostName, diskName)
	if err != nil {
		return nil, err
	}
	return activity.NewIo(name, d.Write(e.now, bytes)), nil
}

func (e *Engine) disk(hostName, diskName string) (*resource.Disk, error) {
	h, ok := e.Mgr.Host(hostName)
	if !ok {
		return nil, simerr.Assertion("engine: unknown host %q", hostName)
	}
	d, ok := h.Disk(diskName)
	if !ok {
		return nil, simerr.Assertion("engine: host %q has no disk %q", hostName, diskName)
	}
	return d, nil
}

// NewDirectComm starts a point-to-point Comm from srcHost to dstHost over
// the routing table's resolved path, with no mailbox rendezvous (unlike
// Mailbox.Put/Get). It only starts the activity; s4u's Comm.Sendto then
// waits on it until the transfer ends.
func (e *Engine) NewDirectComm(name, srcHost, dstHost string, bytes float64, payload any) (*activity.Comm, error) {
	route, ok := e.Routes.Route(srcHost, dstHost)
	if !ok {
		return nil, simerr.NetworkFailure("no route from %s to %s", srcHost, dstHost)
	}
	var reverse []*resource.Link
	if r, ok := e.Routes.Route(dstHost, srcHost); ok {
		reverse = r.Links
	}
	return activity.NewComm(name, e.Mgr.LinkModel, e.now, bytes, route.Links, reverse, route.Latency, srcHost, dstHost, "", payload), nil
}

// NewParallelExec starts a multi-host parallel execution: hosts[i] runs
// flops[i] work, and bytes[i][j] is the traffic host i sends host j over
// the run's routing table while the task is in progress. Every host and
// every link crossed by a nonzero bytes[i][j] entry is co-scheduled in one
// resource.ParallelModel round (spec's parallel_execute(hosts, flops[],
// bytes[])).
func (e *Engine) NewParallelExec(name string, hosts []string, flops []float64, bytes [][]float64) (*activity.ParallelExec, error) {
	if len(hosts) != len(flops) {
		return nil, simerr.Assertion("engine: parallel exec: %d hosts but %d flops entries", len(hosts), len(flops))
	}
	if bytes != nil && len(bytes) != len(hosts) {
		return nil, simerr.Assertion("engine: parallel exec: bytes matrix has %d rows, want %d", len(bytes), len(hosts))
	}

	hostLegs := make([]resource.HostLeg, len(hosts))
	for i, name := range hosts {
		h, ok := e.Mgr.Host(name)
		if !ok {
			return nil, simerr.Assertion("engine: parallel exec: unknown host %q", name)
		}
		hostLegs[i] = resource.HostLeg{HostName: name, Capacity: h.Cpu.Constraint().Capacity(), Flops: flops[i]}
	}

	var linkLegs []resource.LinkLeg
	for i := range hosts {
		for j := range hosts {
			if i == j || bytes == nil || bytes[i][j] <= 0 {
				continue
			}
			route, ok := e.Routes.Route(hosts[i], hosts[j])
			if !ok {
				return nil, simerr.NetworkFailure("engine: parallel exec: no route from %s to %s", hosts[i], hosts[j])
			}
			for _, l := range route.Links {
				linkLegs = append(linkLegs, resource.LinkLeg{LinkName: l.Name(), Capacity: l.Constraint().Capacity(), Bytes: bytes[i][j]})
			}
		}
	}

	action := e.Mgr.ParallelModel.NewParallelExec(e.now, hostLegs, linkLegs)
	return activity.NewParallelExec(name, action), nil
}

// NewRaw starts a Raw synchronization activity, the primitive every
// internal/sync type and plain actor Sleep waits are built from.
func (e *Engine) NewRaw(name string, deadline float64) *activity.Raw {
	return activity.NewRaw(name, deadline)
}

// HostFailure powers hostName's Cpu off and fails every Exec currently
// running there with a KindHostFailure, matching spec.md's host-failure
// concrete scenario: every actor blocked on one of those Execs wakes on
// the engine's next poll with that error.
func (e *Engine) HostFailure(hostName string) error {
	h, ok := e.Mgr.Host(hostName)
	if !ok {
		return simerr.Assertion("engine: unknown host %q", hostName)
	}
	h.Cpu.TurnOff()
	h.Cpu.FailActions(e.now)
	return nil
}

// HostRecover powers hostName's Cpu back on.
func (e *Engine) HostRecover(hostName string) error {
	h, ok := e.Mgr.Host(hostName)
	if !ok {
		return simerr.Assertion("engine: unknown host %q", hostName)
	}
	h.Cpu.TurnOn()
	return nil
}

// Run drives virtual time forward until every actor has exited or the
// engine can find no future event at all, in which case it returns the
// deadlock it detected.
func (e *Engine) Run() error {
	e.drainReady()
	e.killDaemonsIfAlone()
	for {
		if e.liveCount == 0 {
			return nil
		}
		// An actor body may itself have failed or canceled what another
		// actor waits on (e.g. via HostFailure); wake those actors at the
		// current date before looking for the next event.
		e.promoteSatisfied()
		if len(e.ready) > 0 {
			e.drainReady()
			e.killDaemonsIfAlone()
			continue
		}
		next, ok := e.nextEventDate()
		if !ok {
			return e.reportDeadlock()
		}
		delta := next - e.now
		for _, m := range e.Mgr.Models() {
			m.Advance(next, delta)
		}
		e.now = next
		e.checkBreakpoint()
		e.timers.fireDue(e.now)
		e.applyDueProfiles()
		e.promoteSatisfied()
		e.promoteDetached()
		e.drainReady()
		e.killDaemonsIfAlone()
	}
}

// checkBreakpoint raises the debug trap exactly once, as soon as virtual
// time reaches or passes the armed breakpoint date.
func (e *Engine) checkBreakpoint() {
	if e.breakpoint < 0 || e.breakpointFired || e.now < e.breakpoint {
		return
	}
	e.breakpointFired = true
	e.OnBreakpoint.Emit(e.now)
}

// killDaemonsIfAlone kills every remaining actor if none of them are
// anything but daemons, matching spec's "if only daemon actors remain,
// kill them" rather than reporting a deadlock or running forever on
// daemon-only background work. A no-op if any non-daemon actor is still
// live, or if nothing is live at all.
func (e *Engine) killDaemonsIfAlone() {
	if e.liveCount == 0 {
		return
	}
	for _, a := range e.actorsByID {
		if !a.Daemon {
			return
		}
	}
	for id, a := range e.actorsByID {
		delete(e.waiting, id)
		delete(e.pendingOutcome, id)
		a.Kill()
		e.liveCount--
		delete(e.actorsByID, id)
		e.OnActorExit.Emit(a)
	}
}

// nextEventDate finds the soonest date any live resource action finishes,
// any timer fires, or any attached profile has a scheduled event, matching
// EngineImpl::run's next_occurring_event scan across every model, the timer
// heap, and (per Resource.hpp) each resource's own event timeline.
func (e *Engine) nextEventDate() (float64, bool) {
	best := -1.0
	for _, m := range e.Mgr.Models() {
		if d := m.NextEvent(e.now); d >= 0 && (best < 0 || d < best) {
			best = d
		}
	}
	if d, ok := e.timers.nextAt(); ok && (best < 0 || d < best) {
		best = d
	}
	for _, pt := range e.profiles {
		if d := pt.profile.NextDate(); d >= 0 && (best < 0 || d < best) {
			best = d
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// applyDueProfiles pops and applies every attached profile's events whose
// date has just been reached, e.g. a host's scheduled speed change or a
// link's scheduled outage. A profile may carry more than one event at the
// same date, so it drains all of them before moving on.
func (e *Engine) applyDueProfiles() {
	for _, pt := range e.profiles {
		for {
			d := pt.profile.NextDate()
			if d < 0 || d > e.now {
				break
			}
			ev, ok := pt.profile.Pop()
			if !ok {
				break
			}
			resource.Apply(pt.target, ev)
		}
	}
}

// drainReady resumes every ready actor in turn until each either issues
// its next Simcall or exits; this is the only place actor bodies ever run.
func (e *Engine) drainReady() {
	for len(e.ready) > 0 {
		a := e.ready[0]
		e.ready = e.ready[1:]
		outcome := e.pendingOutcome[a.ID]
		delete(e.pendingOutcome, a.ID)
		sc, exited := a.Resume(outcome)
		if exited {
			e.liveCount--
			delete(e.actorsByID, a.ID)
			e.OnActorExit.Emit(a)
			continue
		}
		e.handleSimcall(a, sc)
	}
}

func (e *Engine) handleSimcall(a *actor.Actor, sc actor.Simcall) {
	switch sc.Kind {
	case actor.KindWait:
		e.handleWait(a, sc)
	case actor.KindSleep:
		e.handleSleep(a, sc)
	case actor.KindSpawn:
		e.handleSpawn(a, sc)
	case actor.KindMailboxPut:
		e.handleMailboxPut(a, sc)
	case actor.KindMailboxGet:
		e.handleMailboxGet(a, sc)
	case actor.KindWaitAny:
		e.handleWaitAny(a, sc)
	case actor.KindTestAny:
		e.handleTestAny(a, sc)
	default:
		logger.Warn("engine: actor issued unknown simcall", "actor", a.Name, "kind", int(sc.Kind))
		e.pendingOutcome[a.ID] = actor.Outcome{Err: simerr.Assertion("unknown simcall kind %d", sc.Kind)}
		e.ready = append(e.ready, a)
	}
}

func (e *Engine) handleWait(a *actor.Actor, sc actor.Simcall) {
	if sc.Activity.Test() {
		e.pendingOutcome[a.ID] = actor.Outcome{Err: sc.Activity.Err()}
		e.ready = append(e.ready, a)
		return
	}
	e.waiting[a.ID] = &waitEntry{waiter: sc.Activity}
	if sc.Deadline >= 0 {
		e.armDeadline(a, sc.Deadline, nil)
	}
}

// handleWaitAny blocks a until the first terminal activity among
// sc.Activities, ties breaking toward the lowest index (spec's documented
// choice for wait_any's tie-break open question). An empty Activities slice
// resolves immediately with index -1, matching test_any's "nothing
// finished" result rather than blocking forever on nothing.
func (e *Engine) handleWaitAny(a *actor.Actor, sc actor.Simcall) {
	if idx, ok := firstTerminal(sc.Activities); ok {
		e.pendingOutcome[a.ID] = actor.Outcome{Index: idx, Err: sc.Activities[idx].Err()}
		e.ready = append(e.ready, a)
		return
	}
	if len(sc.Activities) == 0 {
		e.pendingOutcome[a.ID] = actor.Outcome{Index: -1}
		e.ready = append(e.ready, a)
		return
	}
	entry := &waitEntry{waiters: sc.Activities, isAny: true}
	if len(sc.Activities) > 0 {
		entry.waiter = sc.Activities[0]
	}
	e.waiting[a.ID] = entry
	if sc.Deadline >= 0 {
		e.armWaitAnyDeadline(a, sc.Deadline)
	}
}

// handleTestAny never blocks: it reports the first already-terminal
// activity's index, or -1.
func (e *Engine) handleTestAny(a *actor.Actor, sc actor.Simcall) {
	idx := -1
	if i, ok := firstTerminal(sc.Activities); ok {
		idx = i
	}
	e.pendingOutcome[a.ID] = actor.Outcome{Index: idx}
	e.ready = append(e.ready, a)
}

// firstTerminal returns the lowest index in waiters whose Test() already
// reports terminal.
func firstTerminal(waiters []actor.Waiter) (int, bool) {
	for i, w := range waiters {
		if w.Test() {
			return i, true
		}
	}
	return 0, false
}

// armWaitAnyDeadline schedules wait_any_for's timeout: unlike a plain wait's
// deadline, the loser activities are not owned by this wait and are left
// running; the actor just wakes with index -1 and no error.
func (e *Engine) armWaitAnyDeadline(a *actor.Actor, deadline float64) {
	e.timers.schedule(deadline, func() {
		if _, stillWaiting := e.waiting[a.ID]; !stillWaiting {
			return
		}
		delete(e.waiting, a.ID)
		e.pendingOutcome[a.ID] = actor.Outcome{Index: -1}
		e.ready = append(e.ready, a)
	})
}

// armDeadline schedules a timeout for actor a: if the timer fires before
// whatever a.ID is currently blocked on naturally completes, a wakes with
// a KindTimeout error and that activity is canceled — spec.md's
// timeout-wins-over-completion tie-break. It re-reads e.waiting[a.ID] at
// fire time rather than closing over the waiter known when the timer was
// armed, so it stays correct even if a mailbox rendezvous later swaps a's
// waiter from a pendingRendezvous stub to a real Comm. onTimeout, if
// non-nil, runs extra cleanup (e.g. unqueuing a half-matched mailbox
// party) before the actor is woken.
func (e *Engine) armDeadline(a *actor.Actor, deadline float64, onTimeout func()) {
	e.timers.schedule(deadline, func() {
		we, stillWaiting := e.waiting[a.ID]
		if !stillWaiting {
			return
		}
		delete(e.waiting, a.ID)
		if cancelable, ok := we.waiter.(activity.Activity); ok {
			cancelable.Cancel(e.now)
		}
		if onTimeout != nil {
			onTimeout()
		}
		e.pendingOutcome[a.ID] = actor.Outcome{Err: simerr.Timeout("actor %s: deadline elapsed at t=%v", a.Name, e.now)}
		e.ready = append(e.ready, a)
	})
}

func (e *Engine) handleSleep(a *actor.Actor, sc actor.Simcall) {
	e.timers.schedule(e.now+sc.Duration, func() {
		e.pendingOutcome[a.ID] = actor.Outcome{}
		e.ready = append(e.ready, a)
	})
}

func (e *Engine) handleSpawn(a *actor.Actor, sc actor.Simcall) {
	var child *actor.Actor
	if sc.SpawnDaemon {
		child = e.SpawnDaemon(sc.SpawnHost, sc.SpawnName, sc.SpawnFn)
	} else {
		child = e.Spawn(sc.SpawnHost, sc.SpawnName, sc.SpawnFn)
	}
	sc.Reply <- child.ID
	e.pendingOutcome[a.ID] = actor.Outcome{}
	e.ready = append(e.ready, a)
}

// promoteSatisfied polls every blocked actor's waiter, after each event-date
// jump and again before the next one is chosen, and moves the satisfied
// ones back to the ready queue.
func (e *Engine) promoteSatisfied() {
	for id, we := range e.waiting {
		if we.isAny {
			e.armCommLatencyTimers(we.waiters)
			idx, ok := firstTerminal(we.waiters)
			if !ok {
				continue
			}
			delete(e.waiting, id)
			a := e.actorsByID[id]
			if a == nil {
				continue
			}
			winner := we.waiters[idx]
			outcome := actor.Outcome{Index: idx, Err: winner.Err()}
			if c, ok := winner.(*activity.Comm); ok && c.Dst() == a.HostName {
				outcome.Payload = c.Payload()
			}
			e.pendingOutcome[id] = outcome
			e.ready = append(e.ready, a)
			continue
		}

		e.armCommLatencyTimers([]actor.Waiter{we.waiter})
		if !we.waiter.Test() {
			continue
		}
		delete(e.waiting, id)
		a := e.actorsByID[id]
		if a == nil {
			continue
		}
		outcome := actor.Outcome{Err: we.waiter.Err()}
		if c, ok := we.waiter.(*activity.Comm); ok && c.Dst() == a.HostName {
			outcome.Payload = c.Payload()
		}
		e.pendingOutcome[id] = outcome
		e.ready = append(e.ready, a)
	}
}

// armCommLatencyTimers schedules the one-shot post-transfer latency timer
// for every Comm in waiters whose bandwidth phase just finished, mirroring
// the single-wait case for every activity a KindWaitAny is watching.
func (e *Engine) armCommLatencyTimers(waiters []actor.Waiter) {
	for _, w := range waiters {
		c, ok := w.(*activity.Comm)
		if !ok || !c.NeedsLatencyTimer() {
			continue
		}
		lat := c.Latency()
		c.MarkLatencyTimerSet()
		cc := c
		e.timers.schedule(e.now+lat, func() { cc.MarkLatencyElapsed() })
	}
}

func (e *Engine) String() string {
	return fmt.Sprintf("engine(t=%v, actors=%d, waiting=%d)", e.now, e.liveCount, len(e.waiting))
}
