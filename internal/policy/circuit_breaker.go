package policy

import "sync"

// circuitBreaker is a per-key state machine whose every timestamp comes
// from a Clock (simulated seconds) instead of time.Now(), so a breaker
// trips and cools down on kernel time.
type circuitBreaker struct {
	clock            Clock
	enabled          bool
	failureThreshold int
	successThreshold int
	cooldownSeconds  float64
	mu               sync.Mutex
	circuits         map[string]*circuitEntry
}

type circuitEntry struct {
	state           CircuitState
	failures        int
	successes       int
	lastStateChange float64
}

// NewCircuitBreaker builds a CircuitBreakerPolicy keyed by an arbitrary
// string (interaction graph edges use "service:endpoint").
func NewCircuitBreaker(clock Clock, failureThreshold, successThreshold int, cooldownSeconds float64) CircuitBreakerPolicy {
	return &circuitBreaker{
		clock:            clock,
		enabled:          true,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		cooldownSeconds:  cooldownSeconds,
		circuits:         make(map[string]*circuitEntry),
	}
}

func (p *circuitBreaker) Enabled() bool { return p.enabled }
func (p *circuitBreaker) Name() string  { return "circuit_breaker" }

func (p *circuitBreaker) entry(key string) *circuitEntry {
	e, ok := p.circuits[key]
	if !ok {
		e = &circuitEntry{state: CircuitClosed, lastStateChange: p.clock.Now()}
		p.circuits[key] = e
	}
	return e
}

func (p *circuitBreaker) Allow(key string) bool {
	if !p.enabled {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entry(key)
	if e.state == CircuitOpen && p.clock.Now()-e.lastStateChange >= p.cooldownSeconds {
		e.state = CircuitHalfOpen
		e.successes = 0
		e.lastStateChange = p.clock.Now()
	}
	return e.state != CircuitOpen
}

func (p *circuitBreaker) RecordSuccess(key string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entry(key)
	switch e.state {
	case CircuitHalfOpen:
		e.successes++
		if e.successes >= p.successThreshold {
			e.state = CircuitClosed
			e.failures = 0
			e.lastStateChange = p.clock.Now()
		}
	case CircuitClosed:
		e.failures = 0
	}
}

func (p *circuitBreaker) RecordFailure(key string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.entry(key)
	e.failures++
	switch e.state {
	case CircuitHalfOpen:
		e.state = CircuitOpen
		e.lastStateChange = p.clock.Now()
	case CircuitClosed:
		if e.failures >= p.failureThreshold {
			e.state = CircuitOpen
			e.lastStateChange = p.clock.Now()
		}
	}
}

func (p *circuitBreaker) State(key string) CircuitState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entry(key).state
}
