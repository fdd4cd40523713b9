package policy

import (
	"github.com/opendsim/kernel/internal/simerr"
	"github.com/opendsim/kernel/pkg/config"
	"github.com/opendsim/kernel/pkg/utils"
)

// retryPolicy applies an exponential/linear/constant retry backoff to
// simulated time: BackoffSeconds hands back a float64 of
// simulated seconds instead of a wall-clock time.Duration, so a caller
// feeds it straight into a Host.Sleep simcall.
type retryPolicy struct {
	enabled    bool
	maxRetries int
	backoff    utils.BackoffStrategy
}

// NewRetryPolicy builds a RetryPolicy from a scenario's retries block,
// reusing pkg/utils' backoff strategies for the actual delay curve.
func NewRetryPolicy(cfg *config.RetryPolicy) RetryPolicy {
	return &retryPolicy{
		enabled:    cfg.Enabled,
		maxRetries: cfg.MaxRetries,
		backoff:    utils.BackoffFromConfig(cfg.Backoff, cfg.BaseMs, cfg.BaseMs*(1<<uint(cfg.MaxRetries))),
	}
}

func (p *retryPolicy) Enabled() bool   { return p.enabled }
func (p *retryPolicy) Name() string    { return "retry" }
func (p *retryPolicy) MaxRetries() int { return p.maxRetries }

// ShouldRetry retries host/network/storage failures and timeouts — the
// transient kinds a re-attempt could plausibly outrun — but never a
// Cancel (the caller gave up) or an Assertion (a bug, not a fault).
func (p *retryPolicy) ShouldRetry(attempt int, err error) bool {
	if !p.enabled || err == nil || attempt >= p.maxRetries {
		return false
	}
	kind, ok := simerr.KindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case simerr.KindHostFailure, simerr.KindNetworkFailure, simerr.KindStorageFailure, simerr.KindTimeout:
		return true
	default:
		return false
	}
}

func (p *retryPolicy) BackoffSeconds(attempt int) float64 {
	if !p.enabled || attempt <= 0 {
		return 0
	}
	return durationToSeconds(p.backoff.NextDelay(attempt - 1))
}
