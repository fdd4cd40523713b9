package interaction

import (
	"fmt"

	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/engine"
	"github.com/opendsim/kernel/pkg/config"
	"github.com/opendsim/kernel/pkg/s4u"
	"github.com/opendsim/kernel/pkg/utils"
)

// CallRequest is the payload carried over a mailbox rendezvous from a
// caller to the actor listening on one endpoint's mailbox.
type CallRequest struct {
	ReplyMailbox string // empty for a detached (async) call
}

// CallResponse is the payload a listener replies with, when ReplyMailbox
// was set.
type CallResponse struct {
	Err error
}

const (
	requestBytes  = 512
	responseBytes = 512
)

// Runner compiles a Graph into a running network of listener actors, one
// per endpoint (replicated Service.Replicas times so concurrent requests
// load-balance across the same mailbox the way a kernel mailbox matches
// whichever queued send/recv shows up first). Runner.Enter is the actor
// body a workload generator spawns per top-level arrival.
type Runner struct {
	eng       *engine.Engine
	graph     *Graph
	branching BranchingStrategy
	rng       *utils.RandSource

	// OnExec, if set, is called after every endpoint invocation's Exec
	// activity settles, reporting the flops requested versus the flops the
	// underlying resource.Action actually delivered before it finished,
	// failed, or was canceled. internal/metrics uses this to build
	// conservation checks without this package importing internal/metrics.
	OnExec func(serviceID, path string, requestedFlops, deliveredFlops float64, finishedOK bool)
}

// NewRunner builds a Runner over graph, using MeanCountBranching for
// downstream fan-out unless a different strategy is supplied.
func NewRunner(eng *engine.Engine, graph *Graph, branching BranchingStrategy, seed int64) *Runner {
	if branching == nil {
		branching = MeanCountBranching{}
	}
	return &Runner{eng: eng, graph: graph, branching: branching, rng: utils.NewRandSource(seed)}
}

// Start spawns every endpoint's listener actors. Call it once before
// Engine.Run. Listeners are daemons (s4u::Actor::daemonize): they sit on
// their mailbox forever and have no notion of "done", so once every
// workload generator's actors have exited, the engine kills them outright
// instead of reading their permanent block as a deadlock.
func (r *Runner) Start() {
	for _, svc := range r.graph.services {
		for i := range svc.Endpoints {
			ep := &svc.Endpoints[i]
			replicas := svc.Replicas
			if replicas < 1 {
				replicas = 1
			}
			for n := 0; n < replicas; n++ {
				serviceID, path := svc.ID, ep.Path
				r.eng.SpawnDaemon(svc.Host, fmt.Sprintf("%s:%s#%d", serviceID, path, n), func(a *actor.Actor) {
					r.serve(a, serviceID, path)
				})
			}
		}
	}
}

func mailboxOf(serviceID, path string) string { return "endpoint:" + serviceID + ":" + path }

// serve is a listener actor's body: pull one request at a time off the
// endpoint's mailbox, run it, reply if asked to, forever. It returns (the
// actor exits) once Get reports a kernel-level error, which happens when
// the host it runs on fails or the mailbox rendezvous is otherwise
// canceled.
func (r *Runner) serve(a *actor.Actor, serviceID, path string) {
	mb := s4u.GetMailbox(r.eng, mailboxOf(serviceID, path))
	for {
		payload, err := mb.Get(a, -1)
		if err != nil {
			return
		}
		req, ok := payload.(*CallRequest)
		if !ok {
			continue
		}
		callErr := r.handle(a, serviceID, path)
		if req.ReplyMailbox != "" {
			replyMB := s4u.GetMailbox(r.eng, req.ReplyMailbox)
			_ = replyMB.Put(a, responseBytes, &CallResponse{Err: callErr}, -1)
		}
	}
}

// handle runs one endpoint invocation: its own CPU cost, then every
// downstream call its branching strategy selects.
func (r *Runner) handle(a *actor.Actor, serviceID, path string) error {
	svc, ok := r.graph.Service(serviceID)
	if !ok {
		return fmt.Errorf("interaction: unknown service %q", serviceID)
	}
	ep, ok := r.graph.Endpoint(serviceID, path)
	if !ok {
		return fmt.Errorf("interaction: unknown endpoint %s:%s", serviceID, path)
	}

	if err := r.execEndpoint(a, svc, ep); err != nil {
		return err
	}

	calls := r.branching.SelectCalls(r.graph.ResolveDownstream(serviceID, path), r.rng)
	for _, call := range calls {
		if modeOf(call.Call.Mode) == CallModeAsync {
			target := call
			r.eng.Spawn(svc.Host, "async:"+target.ServiceID+":"+target.Path, func(child *actor.Actor) {
				_ = r.callDownstream(child, svc.Host, target)
			})
			continue
		}
		if err := r.callDownstream(a, svc.Host, call); err != nil {
			return err
		}
	}
	return nil
}

// execEndpoint samples the endpoint's CPU cost from its mean/sigma and
// converts it from milliseconds to flops using the executing host's
// current per-core speed, then runs it as one Exec activity.
func (r *Runner) execEndpoint(a *actor.Actor, svc *config.Service, ep *config.Endpoint) error {
	costMs := r.rng.NormFloat64(ep.MeanCPUMs, ep.CPUSigmaMs)
	if costMs < 0 {
		costMs = 0
	}
	res, ok := r.eng.Host(svc.Host)
	if !ok {
		return fmt.Errorf("interaction: unknown host %q for service %q", svc.Host, svc.ID)
	}
	flops := res.Cpu.Speed() * (costMs / 1000.0)
	bound := 0.0
	if svc.CPUCores > 0 {
		bound = res.Cpu.Speed() * svc.CPUCores
	}

	exec, err := r.eng.NewExec("exec("+svc.ID+ep.Path+")", svc.Host, flops, bound)
	if err != nil {
		return err
	}
	callErr := a.Simcall(actor.Simcall{Kind: actor.KindWait, Activity: exec, Deadline: -1})
	if r.OnExec != nil {
		r.OnExec(svc.ID, ep.Path, flops, flops-exec.Remains(), callErr == nil)
	}
	return callErr
}

// callDownstream issues one downstream call: an optional simulated network
// latency sleep, a mailbox Put carrying the request, and — for sync calls
// — a blocking Get on a private reply mailbox keyed by the caller's actor
// id.
func (r *Runner) callDownstream(a *actor.Actor, fromHost string, call ResolvedCall) error {
	if call.Call.CallLatencyMs.Mean > 0 || call.Call.CallLatencyMs.Sigma > 0 {
		latency := r.rng.NormFloat64(call.Call.CallLatencyMs.Mean, call.Call.CallLatencyMs.Sigma) / 1000.0
		if latency > 0 && fromHost != "" {
			host := s4u.GetHost(r.eng, fromHost)
			if err := host.Sleep(a, latency); err != nil {
				return err
			}
		}
	}

	sync := modeOf(call.Call.Mode) == CallModeSync
	req := &CallRequest{}
	if sync {
		req.ReplyMailbox = fmt.Sprintf("reply:%d", a.ID)
	}

	mb := s4u.GetMailbox(r.eng, mailboxOf(call.ServiceID, call.Path))
	if err := mb.Put(a, requestBytes, req, -1); err != nil {
		return err
	}
	if !sync {
		return nil
	}
	replyMB := s4u.GetMailbox(r.eng, req.ReplyMailbox)
	payload, err := replyMB.Get(a, -1)
	if err != nil {
		return err
	}
	if resp, ok := payload.(*CallResponse); ok {
		return resp.Err
	}
	return nil
}

// Enter is the actor body a workload generator spawns for one top-level
// arrival at serviceID:path: it round-trips through the same mailbox
// protocol every downstream call uses, so an arrival is indistinguishable
// from a downstream caller as far as the listener is concerned.
func (r *Runner) Enter(a *actor.Actor, serviceID, path string) error {
	return r.callDownstream(a, "", ResolvedCall{ServiceID: serviceID, Path: path, Call: config.DownstreamCall{Mode: string(CallModeSync)}})
}
