package s4u

import (
	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/engine"
)

// Comm exposes point-to-point sends that skip mailbox rendezvous: the
// transfer starts without waiting for a receiver to show up, and the sender
// waits only for the bytes to cross the route.
type Comm struct {
	eng *engine.Engine
}

// GetComm returns the Comm façade.
func GetComm(eng *engine.Engine) *Comm { return &Comm{eng: eng} }

// Sendto blocks the calling actor until bytes have transferred from its
// own host to dstHost (or deadline, < 0 for none, elapses), with no mailbox
// on the receiving end. It is not a detached send: the caller does not run
// again until the transfer ends. Pair Sendto on the sender's
// side with Host.Spawn'd receiving logic that has its own way of noticing
// the data arrived (this kernel does not model an implicit receive queue
// per host, matching spec.md's explicit mailbox-only rendezvous model).
func (c *Comm) Sendto(a *actor.Actor, srcHost, dstHost string, bytes float64, payload any, deadline float64) error {
	act, err := c.eng.NewDirectComm("sendto("+srcHost+"->"+dstHost+")", srcHost, dstHost, bytes, payload)
	if err != nil {
		return err
	}
	return a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: act, Deadline: deadline})
}
