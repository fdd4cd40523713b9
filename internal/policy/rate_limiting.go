package policy

import "sync"

// rateLimiter is a token bucket, refilled against simulated seconds from a
// Clock rather than wall-clock time.Now().
type rateLimiter struct {
	clock     Clock
	enabled   bool
	perSecond int
	mu        sync.Mutex
	buckets   map[string]*bucket
}

type bucket struct {
	tokens     float64
	lastRefill float64
}

// NewRateLimiter builds a RateLimitingPolicy allowing perSecond calls per
// key, refilled continuously against simulated time.
func NewRateLimiter(clock Clock, perSecond int) RateLimitingPolicy {
	return &rateLimiter{clock: clock, enabled: true, perSecond: perSecond, buckets: make(map[string]*bucket)}
}

func (p *rateLimiter) Enabled() bool { return p.enabled }
func (p *rateLimiter) Name() string  { return "rate_limiting" }

func (p *rateLimiter) refill(b *bucket) {
	now := p.clock.Now()
	elapsed := now - b.lastRefill
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * float64(p.perSecond)
	if b.tokens > float64(p.perSecond) {
		b.tokens = float64(p.perSecond)
	}
	b.lastRefill = now
}

func (p *rateLimiter) get(key string) *bucket {
	b, ok := p.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(p.perSecond), lastRefill: p.clock.Now()}
		p.buckets[key] = b
	}
	return b
}

func (p *rateLimiter) Allow(key string) bool {
	if !p.enabled {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.get(key)
	p.refill(b)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (p *rateLimiter) Remaining(key string) int {
	if !p.enabled {
		return -1
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.get(key)
	p.refill(b)
	return int(b.tokens)
}
