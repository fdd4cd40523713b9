package s4u

import (
	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/engine"
)

// Mailbox is the actor-facing rendezvous handle: Put and Get block until a
// counterpart on the same named mailbox appears and the resulting network
// transfer completes.
type Mailbox struct {
	eng  *engine.Engine
	Name string
}

// GetMailbox returns the façade for the named mailbox, creating it in the
// engine on first use.
func GetMailbox(eng *engine.Engine, name string) *Mailbox {
	return &Mailbox{eng: eng, Name: name}
}

// Put blocks the calling actor until a Get on this mailbox rendezvous with
// it and the bytes finish transferring, or deadline (< 0 for none)
// elapses first.
func (m *Mailbox) Put(a *actor.Actor, bytes float64, payload any, deadline float64) error {
	return a.Simcall(actor.Simcall{Kind: actor.KindMailboxPut, Mailbox: m.Name, Bytes: bytes, Payload: payload, Deadline: deadline})
}

// Get blocks until a Put arrives on this mailbox and the transfer
// completes, returning the sender's payload.
func (m *Mailbox) Get(a *actor.Actor, deadline float64) (any, error) {
	o := a.SimcallFull(actor.Simcall{Kind: actor.KindMailboxGet, Mailbox: m.Name, Deadline: deadline})
	return o.Payload, o.Err
}

// PutDetached posts bytes/payload and returns immediately without waiting
// for a match or for the transfer to finish (spec's Comm rule 4). cleanFn,
// if non-nil, runs once the transfer completes, receiving the payload —
// typically used to free the sender's buffer.
func (m *Mailbox) PutDetached(a *actor.Actor, bytes float64, payload any, cleanFn func(any)) {
	a.Simcall(actor.Simcall{Kind: actor.KindMailboxPut, Mailbox: m.Name, Bytes: bytes, Payload: payload, Detach: true, CleanFn: cleanFn})
}

// SetReceiver binds a permanent receiver host to this mailbox: every Put
// against it completes eagerly rather than waiting for a queued Get, per
// spec's set_receiver. Passing "" clears the binding.
func (m *Mailbox) SetReceiver(hostName string) {
	m.eng.SetReceiver(m.Name, hostName)
}
