package engine

import (
	"fmt"

	"github.com/opendsim/kernel/internal/activity"
	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/resource"
	"github.com/opendsim/kernel/internal/simerr"
)

// sendRequest/recvRequest are the two halves of a mailbox rendezvous
// queued while waiting for a counterpart, grounded on CommImpl.cpp's
// mailbox matching: whichever side arrives first queues, the side that
// arrives second completes the match immediately.
type sendRequest struct {
	actorID  int64
	hostName string
	bytes    float64
	payload  any
	detach   bool
	cleanFn  func(any)
}

type recvRequest struct {
	actorID  int64
	hostName string
}

// permanentRecvID marks a recvRequest built on behalf of a mailbox's
// permanent receiver rather than an actual blocked Get simcall — nothing
// in e.waiting/e.actorsByID is ever keyed on it.
const permanentRecvID = -1

// Mailbox is a named rendezvous point actors Put to and Get from. A
// mailbox may additionally bind a permanent receiver host (`set_receiver`):
// sends posted there complete eagerly against that host with no recv
// queued yet, buffering the resulting Comm until an actual Get claims it,
// per spec's Mailbox matching rule 3.
type Mailbox struct {
	Name         string
	sends        []*sendRequest
	recvs        []*recvRequest
	receiverHost string
	buffered     []*activity.Comm
}

func newMailbox(name string) *Mailbox { return &Mailbox{Name: name} }

// match pairs the oldest pending send with the oldest pending recv, if
// both queues are non-empty, and removes them from their queues.
func (m *Mailbox) match() (*sendRequest, *recvRequest, bool) {
	if len(m.sends) == 0 || len(m.recvs) == 0 {
		return nil, nil, false
	}
	s := m.sends[0]
	r := m.recvs[0]
	m.sends = m.sends[1:]
	m.recvs = m.recvs[1:]
	return s, r, true
}

// Mailbox looks up or creates the named mailbox. Every actor in a run
// shares the engine's single mailbox namespace, matching spec.md's
// mailboxes being addressed by a flat name rather than scoped per host.
func (e *Engine) Mailbox(name string) *Mailbox {
	mb, ok := e.mailboxes[name]
	if !ok {
		mb = newMailbox(name)
		e.mailboxes[name] = mb
	}
	return mb
}

// SetReceiver binds mailboxName's permanent receiver to hostName: from now
// on, every Put against it completes eagerly (no send ever queues waiting
// for a Get), and a later Get drains the oldest already-started transfer.
// Passing an empty hostName clears the binding.
func (e *Engine) SetReceiver(mailboxName, hostName string) {
	e.Mailbox(mailboxName).receiverHost = hostName
}

// pendingRendezvous is the waiter an actor blocks on between queuing a Put
// or Get and a counterpart showing up — Test never reports true on its
// own; the engine promotes the actor out of this state explicitly from
// handleMailboxPut/handleMailboxGet once match() succeeds.
type pendingRendezvous struct{}

func (pendingRendezvous) Test() bool { return false }
func (pendingRendezvous) Err() error { return nil }

// removeActor strips actorID's queued party from mb, if still present —
// used when a deadline fires before a match ever happened.
func (mb *Mailbox) removeActor(actorID int64) {
	for i, s := range mb.sends {
		if s.actorID == actorID {
			mb.sends = append(mb.sends[:i], mb.sends[i+1:]...)
			break
		}
	}
	for i, r := range mb.recvs {
		if r.actorID == actorID {
			mb.recvs = append(mb.recvs[:i], mb.recvs[i+1:]...)
			break
		}
	}
}

func (e *Engine) handleMailboxPut(a *actor.Actor, sc actor.Simcall) {
	mb := e.Mailbox(sc.Mailbox)
	sr := &sendRequest{actorID: a.ID, hostName: a.HostName, bytes: sc.Bytes, payload: sc.Payload, detach: sc.Detach, cleanFn: sc.CleanFn}

	if sc.Detach {
		// A detached send never blocks its issuer, matched or not — the
		// issuer proceeds immediately and the transfer, once it does
		// start, is tracked only for CleanFn (spec's Comm rule 4).
		e.pendingOutcome[a.ID] = actor.Outcome{}
		e.ready = append(e.ready, a)
	}

	if mb.receiverHost != "" {
		comm, err := e.buildComm(sr, &recvRequest{actorID: permanentRecvID, hostName: mb.receiverHost}, mb.Name)
		if err != nil {
			if !sc.Detach {
				e.wakeWithError(a.ID, err)
			}
			return
		}
		mb.buffered = append(mb.buffered, comm)
		if sr.detach {
			e.trackDetached(comm, sr.cleanFn)
			return
		}
		e.parkOnComm(a.ID, comm)
		if sc.Deadline >= 0 {
			e.armDeadline(a, sc.Deadline, nil)
		}
		return
	}

	mb.sends = append(mb.sends, sr)
	e.drainMailbox(mb, sc, a, sr.detach)
}

func (e *Engine) handleMailboxGet(a *actor.Actor, sc actor.Simcall) {
	mb := e.Mailbox(sc.Mailbox)
	if len(mb.buffered) > 0 {
		comm := mb.buffered[0]
		mb.buffered = mb.buffered[1:]
		e.parkOnComm(a.ID, comm)
		if sc.Deadline >= 0 {
			e.armDeadline(a, sc.Deadline, nil)
		}
		return
	}
	mb.recvs = append(mb.recvs, &recvRequest{actorID: a.ID, hostName: a.HostName})
	e.drainMailbox(mb, sc, a, false)
}

// drainMailbox completes every send/recv pair mb can currently match (a
// detached send may leave several queued at once), then parks justQueued
// if its own request is still unmatched and it needs to block — a
// detached Put never does, since it already resolved above.
func (e *Engine) drainMailbox(mb *Mailbox, sc actor.Simcall, justQueued *actor.Actor, justQueuedDetached bool) {
	for {
		s, r, ok := mb.match()
		if !ok {
			break
		}
		e.completeMatch(mb, s, r)
	}
	if justQueuedDetached {
		return
	}
	if !mb.hasActor(justQueued.ID) {
		return // already matched inside the loop above
	}
	e.waiting[justQueued.ID] = &waitEntry{waiter: pendingRendezvous{}}
	if sc.Deadline >= 0 {
		e.armDeadline(justQueued, sc.Deadline, func() { mb.removeActor(justQueued.ID) })
	}
}

// hasActor reports whether actorID is still sitting in mb's send or recv
// queue (i.e. drainMailbox's matching loop hasn't claimed it yet).
func (mb *Mailbox) hasActor(actorID int64) bool {
	for _, s := range mb.sends {
		if s.actorID == actorID {
			return true
		}
	}
	for _, r := range mb.recvs {
		if r.actorID == actorID {
			return true
		}
	}
	return false
}

// completeMatch builds the Comm for one matched send/recv pair and parks
// (or, for a detached send, merely tracks) each side on it.
func (e *Engine) completeMatch(mb *Mailbox, s *sendRequest, r *recvRequest) {
	comm, err := e.buildComm(s, r, mb.Name)
	if err != nil {
		if !s.detach {
			e.wakeWithError(s.actorID, err)
		}
		e.wakeWithError(r.actorID, err)
		return
	}
	if s.detach {
		e.trackDetached(comm, s.cleanFn)
	} else {
		e.parkOnComm(s.actorID, comm)
	}
	e.parkOnComm(r.actorID, comm)
}

// buildComm resolves the route between the two hosts and creates the
// Action-backed Comm both matched parties will block on.
func (e *Engine) buildComm(s *sendRequest, r *recvRequest, mailboxName string) (*activity.Comm, error) {
	route, ok := e.Routes.Route(s.hostName, r.hostName)
	if !ok {
		return nil, simerr.NetworkFailure("mailbox %s: no route from %s to %s", mailboxName, s.hostName, r.hostName)
	}
	var reverse []*resource.Link
	if rr, ok := e.Routes.Route(r.hostName, s.hostName); ok {
		reverse = rr.Links
	}
	name := fmt.Sprintf("comm(%s:%s->%s)", mailboxName, s.hostName, r.hostName)
	return activity.NewComm(name, e.Mgr.LinkModel, e.now, s.bytes, route.Links, reverse, route.Latency, s.hostName, r.hostName, mailboxName, s.payload), nil
}

func (e *Engine) parkOnComm(actorID int64, comm *activity.Comm) {
	if actorID == permanentRecvID {
		return
	}
	e.waiting[actorID] = &waitEntry{waiter: comm}
}

func (e *Engine) wakeWithError(actorID int64, err error) {
	if actorID == permanentRecvID {
		return
	}
	delete(e.waiting, actorID)
	a := e.actorsByID[actorID]
	if a == nil {
		return
	}
	e.pendingOutcome[actorID] = actor.Outcome{Err: err}
	e.ready = append(e.ready, a)
}

// detachedSend is a fire-and-forget Put the engine still has to poll for
// completion so it can invoke the caller's clean_fn exactly once, per
// spec's Comm rule 4 — nothing else in the kernel ever waits on it.
type detachedSend struct {
	comm    *activity.Comm
	cleanFn func(any)
}

func (e *Engine) trackDetached(comm *activity.Comm, cleanFn func(any)) {
	if cleanFn == nil {
		return
	}
	e.detached = append(e.detached, &detachedSend{comm: comm, cleanFn: cleanFn})
}

// promoteDetached fires clean_fn for every detached send that has reached
// a terminal state and drops it from the tracked list. Nobody else parks
// on a detached-to-permanent-receiver Comm, so this is also the only place
// that ever arms its post-bandwidth latency timer. Called from the same
// per-round poll as promoteSatisfied.
func (e *Engine) promoteDetached() {
	if len(e.detached) == 0 {
		return
	}
	waiters := make([]actor.Waiter, len(e.detached))
	for i, d := range e.detached {
		waiters[i] = d.comm
	}
	e.armCommLatencyTimers(waiters)

	live := e.detached[:0]
	for _, d := range e.detached {
		if !d.comm.Test() {
			live = append(live, d)
			continue
		}
		d.cleanFn(d.comm.Payload())
	}
	e.detached = live
}
