// Package policy supplies the resilience knobs actor programs reach for
// after a simcall comes back with a typed error: retry/backoff, a circuit
// breaker per downstream edge, a token-bucket limiter, and an autoscaler
// that grows or shrinks a worker pool bound to one host's CPU. Every clock
// reading here is simulated time (an engine.Engine's Now(), not
// time.Now()) so a policy's behavior replays identically run to run.
package policy

import (
	"time"

	"github.com/opendsim/kernel/pkg/config"
)

// Policy is the common surface every concrete policy exposes for
// introspection and config-driven construction.
type Policy interface {
	Enabled() bool
	Name() string
}

// Clock supplies the current simulated time in seconds. *engine.Engine
// satisfies this directly via its Now method.
type Clock interface {
	Now() float64
}

// RetryPolicy decides whether a failed simcall is worth retrying and how
// long to back off first.
type RetryPolicy interface {
	Policy
	// ShouldRetry reports whether attempt (1-indexed) should be retried
	// given the error the previous attempt returned.
	ShouldRetry(attempt int, err error) bool
	// BackoffSeconds returns how long to sleep before attempt.
	BackoffSeconds(attempt int) float64
	MaxRetries() int
}

// CircuitBreakerPolicy trips per key (typically "service:endpoint") after
// repeated failures and rejects calls until a cooldown elapses.
type CircuitBreakerPolicy interface {
	Policy
	Allow(key string) bool
	RecordSuccess(key string)
	RecordFailure(key string)
	State(key string) CircuitState
}

// CircuitState mirrors the three states of a classic circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// RateLimitingPolicy caps the call rate per key using a token bucket
// refilled against simulated time.
type RateLimitingPolicy interface {
	Policy
	Allow(key string) bool
	Remaining(key string) int
}

// AutoscalingPolicy decides how many concurrent worker actors a host-bound
// pool should run given a sampled CPU utilization.
type AutoscalingPolicy interface {
	Policy
	TargetWorkers(currentWorkers int, avgCPUUtil float64) int
}

// Manager bundles the policies parsed out of a Scenario's Policies block.
type Manager struct {
	Retry       RetryPolicy
	Autoscaling AutoscalingPolicy
}

// NewManager builds a Manager from a scenario's policy config. Any block
// left nil or disabled leaves the corresponding field nil, and callers must
// check for that before use.
func NewManager(clock Clock, p *config.Policies) *Manager {
	m := &Manager{}
	if p == nil {
		return m
	}
	if p.Retries != nil && p.Retries.Enabled {
		m.Retry = NewRetryPolicy(p.Retries)
	}
	if p.Autoscaling != nil && p.Autoscaling.Enabled {
		m.Autoscaling = NewAutoscalingPolicy(p.Autoscaling)
	}
	return m
}

func durationToSeconds(d time.Duration) float64 { return d.Seconds() }
