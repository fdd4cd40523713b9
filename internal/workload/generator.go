// Package workload spawns arrivals of interaction-graph runs according to
// an arrival process, exactly as spec.md's actors are spawned: each
// arrival creates a new actor bound to the graph's entry node. Unlike a
// wall-clock scheduler that pre-computes a calendar of arrival times, a
// Generator is itself a long-lived actor that sleeps for one sampled
// inter-arrival gap, spawns the next arrival, and repeats — so it is
// driven by the same simulated clock as everything else in the run and
// never outlives Engine.Run.
package workload

import (
	"fmt"

	"github.com/opendsim/kernel/internal/actor"
	"github.com/opendsim/kernel/internal/engine"
	"github.com/opendsim/kernel/pkg/config"
	"github.com/opendsim/kernel/pkg/s4u"
	"github.com/opendsim/kernel/pkg/utils"
)

// EntryFunc is spawned once per arrival, on the driver host, to run one
// top-level request. interaction.Runner.Enter satisfies this shape.
type EntryFunc func(a *actor.Actor, serviceID, path string) error

// Generator drives arrivals for one WorkloadPattern entry.
type Generator struct {
	eng        *engine.Engine
	rng        *utils.RandSource
	driverHost string
	pattern    config.WorkloadPattern
	entry      EntryFunc
	arrivals   int
}

// NewGenerator builds a Generator for one workload pattern. driverHost is
// the host the generator's own sleep loop runs on (it does no CPU work
// itself, so any live host will do); entry is called once per arrival with
// the target service/path parsed from pattern.To.
func NewGenerator(eng *engine.Engine, driverHost string, pattern config.WorkloadPattern, entry EntryFunc, seed int64) *Generator {
	return &Generator{eng: eng, rng: utils.NewRandSource(seed), driverHost: driverHost, pattern: pattern, entry: entry}
}

// Arrivals reports how many arrivals this generator has spawned so far.
func (g *Generator) Arrivals() int { return g.arrivals }

// Start spawns the generator's own driver actor, which loops until
// durationSeconds of simulated time have elapsed since it started.
func (g *Generator) Start(durationSeconds float64) {
	g.eng.Spawn(g.driverHost, "workload:"+g.pattern.To, func(a *actor.Actor) {
		g.run(a, durationSeconds)
	})
}

func (g *Generator) run(a *actor.Actor, durationSeconds float64) {
	serviceID, path, err := parseTarget(g.pattern.To)
	if err != nil {
		return
	}
	host := s4u.GetHost(g.eng, g.driverHost)
	start := g.eng.Now()
	for {
		elapsed := g.eng.Now() - start
		if elapsed >= durationSeconds {
			return
		}
		interval := g.nextInterval(elapsed)
		if interval <= 0 {
			return
		}
		if err := host.Sleep(a, interval); err != nil {
			return
		}
		if g.eng.Now()-start >= durationSeconds {
			return
		}
		g.arrivals++
		g.eng.Spawn(g.driverHost, fmt.Sprintf("%s:%s#%d", serviceID, path, g.arrivals), func(child *actor.Actor) {
			_ = g.entry(child, serviceID, path)
		})
	}
}

// nextInterval draws the next inter-arrival gap in seconds for the
// generator's arrival type, following a poisson/uniform/normal/bursty/
// constant taxonomy. elapsed is the simulated time since this
// generator started, used only by the bursty schedule to know which phase
// of its on/off cycle it is currently in.
func (g *Generator) nextInterval(elapsed float64) float64 {
	spec := g.pattern.Arrival
	switch spec.Type {
	case "uniform":
		if spec.RateRPS <= 0 {
			return -1
		}
		mean := 1.0 / spec.RateRPS
		return g.rng.UniformFloat64(0, 2*mean)
	case "normal", "gaussian":
		if spec.RateRPS <= 0 {
			return -1
		}
		mean := 1.0 / spec.RateRPS
		sigma := mean * 0.1
		if spec.StdDevRPS > 0 {
			sigma = spec.StdDevRPS / (spec.RateRPS * spec.RateRPS)
		}
		v := g.rng.NormFloat64(mean, sigma)
		if v < 0.001 {
			v = 0.001
		}
		return v
	case "bursty":
		return g.nextBurstyInterval(spec, elapsed)
	case "constant":
		if spec.RateRPS <= 0 {
			return -1
		}
		return 1.0 / spec.RateRPS
	case "poisson", "exponential", "":
		fallthrough
	default:
		if spec.RateRPS <= 0 {
			return -1
		}
		return g.rng.NextArrivalInterval(spec.RateRPS)
	}
}

// nextBurstyInterval alternates burst-rate and quiet periods based on
// where elapsed falls in the on/off cycle: during a burst it draws a
// Poisson gap at the elevated rate, during the quiet period it returns
// exactly the time remaining until the next burst starts.
func (g *Generator) nextBurstyInterval(spec config.ArrivalSpec, elapsed float64) float64 {
	baseRate := spec.RateRPS
	if baseRate <= 0 {
		baseRate = 10
	}
	burstRate := spec.BurstRateRPS
	if burstRate <= 0 {
		burstRate = baseRate * 5
	}
	burstDuration := spec.BurstDurationSeconds
	if burstDuration <= 0 {
		burstDuration = 5
	}
	quietDuration := spec.QuietDurationSeconds
	if quietDuration <= 0 {
		quietDuration = 10
	}
	cycle := burstDuration + quietDuration
	pos := mod(elapsed, cycle)
	if pos < burstDuration {
		return g.rng.NextArrivalInterval(burstRate)
	}
	return cycle - pos
}

func mod(x, m float64) float64 {
	if m <= 0 {
		return 0
	}
	for x >= m {
		x -= m
	}
	return x
}

func parseTarget(target string) (serviceID, path string, err error) {
	for i := 0; i < len(target); i++ {
		if target[i] == ':' {
			return target[:i], target[i+1:], nil
		}
	}
	if target == "" {
		return "", "", fmt.Errorf("workload: empty target")
	}
	return target, "/", nil
}
