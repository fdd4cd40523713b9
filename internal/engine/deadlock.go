package engine

import (
	"fmt"
	"sort"
	"strings"
)

// BlockedActor is one line of a DeadlockReport: an actor parked on an
// activity with no deadline and no resource in the system making any more
// progress toward completing it.
type BlockedActor struct {
	ActorID  int64
	Name     string
	HostName string
	Waiting  string // human description of what it's blocked on
}

// DeadlockReport is what Engine.Run returns when it can find no future
// event date at all: every live actor is blocked, none of them carries a
// deadline, and every resource model reports no action in flight, mirroring
// SimGrid's "no more work to do, no timer, no event" maestro halt. It
// satisfies the error interface so callers that only check for a run
// failure still work; internal/metrics renders the full structure.
type DeadlockReport struct {
	At      float64
	Blocked []BlockedActor
}

func (d *DeadlockReport) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "deadlock at t=%v: %d actor(s) blocked with no pending progress:\n", d.At, len(d.Blocked))
	for _, a := range d.Blocked {
		fmt.Fprintf(&b, "  actor %d (%s) on host %s: waiting on %s\n", a.ActorID, a.Name, a.HostName, a.Waiting)
	}
	return b.String()
}

func (e *Engine) reportDeadlock() *DeadlockReport {
	report := &DeadlockReport{At: e.now}
	for id, we := range e.waiting {
		a := e.actorsByID[id]
		if a == nil {
			continue
		}
		report.Blocked = append(report.Blocked, BlockedActor{
			ActorID:  id,
			Name:     a.Name,
			HostName: a.HostName,
			Waiting:  describeWaitEntry(we),
		})
	}
	sort.Slice(report.Blocked, func(i, j int) bool { return report.Blocked[i].ActorID < report.Blocked[j].ActorID })
	e.OnDeadlock.Emit(report)
	return report
}

// describeWaitEntry renders a blocked actor's waitEntry: a wait_any lists
// every activity it is watching rather than only the first, since a
// deadlocked wait_any means none of them will ever finish.
func describeWaitEntry(we *waitEntry) string {
	if !we.isAny {
		return describeWaiter(we.waiter)
	}
	names := make([]string, len(we.waiters))
	for i, w := range we.waiters {
		names[i] = describeWaiter(w)
	}
	return "any of [" + strings.Join(names, ", ") + "]"
}

func describeWaiter(w any) string {
	type named interface{ Name() string }
	if n, ok := w.(named); ok {
		return n.Name()
	}
	if _, ok := w.(pendingRendezvous); ok {
		return "mailbox rendezvous"
	}
	return "unknown"
}
