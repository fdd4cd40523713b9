package activity

import (
	"github.com/opendsim/kernel/internal/resource"
	"github.com/opendsim/kernel/internal/simerr"
)

// Comm is a network communication traversing a route of one or more
// links. It wraps a single resource.Action expanded into every link's
// constraint (see LinkModel.NewComm), plus a fixed propagation latency
// (the route's accumulated link latency) that is not modeled as
// bandwidth-sharing at all: the engine lets the bandwidth-limited transfer
// finish first, then holds the activity Running for an extra `Latency`
// seconds before flipping it Done. This is a simplification of
// NetworkModel::communicate's latency-then-bandwidth pipelining — see
// DESIGN.md.
type Comm struct {
	name     string
	action   *resource.Action
	latency  float64
	src, dst string
	mailbox  string
	payload  any
	state    State
	err      error
	latched  bool // true once the bandwidth phase finished and the latency delay has been consumed
	timerSet bool // true once the engine has scheduled the one latency timer for this comm
}

// NewComm starts a communication of `bytes` bytes across route, tagged
// with the sending/receiving actor names and the mailbox it rendezvous
// through, plus an arbitrary payload the receiver reads back out.
// reverseRoute is the dst->src path, used only if the link model's
// crosstraffic knob is on; pass nil if none was resolved.
func NewComm(name string, lm *resource.LinkModel, now, bytes float64, route, reverseRoute []*resource.Link, latency float64, src, dst, mailbox string, payload any) *Comm {
	return &Comm{
		name:    name,
		action:  lm.NewComm(now, bytes, route, reverseRoute, src),
		latency: lm.ScaledLatency(latency),
		src:     src,
		dst:     dst,
		mailbox: mailbox,
		payload: payload,
		state:   Running,
	}
}

func (c *Comm) Name() string             { return c.name }
func (c *Comm) State() State             { return c.state }
func (c *Comm) Err() error               { return c.err }
func (c *Comm) Action() *resource.Action { return c.action }
func (c *Comm) Remains() float64         { return c.action.Remains() }
func (c *Comm) Latency() float64         { return c.latency }
func (c *Comm) Mailbox() string          { return c.mailbox }
func (c *Comm) Payload() any             { return c.payload }
func (c *Comm) Src() string              { return c.src }
func (c *Comm) Dst() string              { return c.dst }

// LatencyPending reports whether the bandwidth-limited phase has finished
// but the engine hasn't yet let the route's fixed latency elapse — the
// engine uses this to know whether to schedule one more timer before
// waking whoever is waiting on this Comm.
func (c *Comm) LatencyPending() bool {
	return c.action.State() == resource.ActionFinished && !c.latched
}

// NeedsLatencyTimer reports whether the bandwidth phase just finished and
// no latency timer has been scheduled for it yet.
func (c *Comm) NeedsLatencyTimer() bool {
	return c.action.State() == resource.ActionFinished && !c.latched && !c.timerSet
}

// MarkLatencyTimerSet records that the engine has scheduled the one-shot
// latency timer, so NeedsLatencyTimer stops reporting true for this comm.
func (c *Comm) MarkLatencyTimerSet() { c.timerSet = true }

// MarkLatencyElapsed is called by the engine once the post-transfer
// latency delay has run out.
func (c *Comm) MarkLatencyElapsed() { c.latched = true }

func (c *Comm) Test() bool {
	if c.state != Running {
		return true
	}
	switch c.action.State() {
	case resource.ActionFinished:
		if c.latched {
			c.state = Done
		}
	case resource.ActionFailed:
		c.state = Failed
		c.err = simerr.NetworkFailure("comm %q: link on its route turned off", c.name)
	}
	return c.state != Running
}

func (c *Comm) Cancel(now float64) {
	if c.state != Running {
		return
	}
	c.err = c.action.Cancel(now)
	c.state = Canceled
}

func (c *Comm) Suspend() { c.action.Suspend() }
func (c *Comm) Resume()  { c.action.Resume() }
