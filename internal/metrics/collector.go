// Package metrics aggregates per-run measurements for the testable
// properties spec.md names: conservation of work (flops/bytes actually
// delivered vs. requested), latency/throughput percentiles, and a
// human-readable deadlock report. Every sample is timestamped with
// simulated seconds, not wall-clock time, since a run replays
// deterministically and its metrics should too.
package metrics

import (
	"sort"
	"sync"

	"github.com/opendsim/kernel/pkg/utils"
)

// Sample is one observation of a named metric at a point in simulated
// time, optionally tagged with labels (e.g. {"service": "backend"}).
type Sample struct {
	At     float64
	Value  float64
	Labels map[string]string
}

// Aggregation summarizes a metric's samples.
type Aggregation struct {
	Count int
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
	P50   float64
	P95   float64
	P99   float64
}

// Collector accumulates samples per metric name during one run. Safe for
// concurrent use, but callers only ever touch it from actor bodies, which
// this kernel already serializes to one at a time — the lock exists for a
// control-plane goroutine reading metrics out of a still-running Engine.
type Collector struct {
	mu      sync.RWMutex
	samples map[string][]Sample
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{samples: make(map[string][]Sample)}
}

// Record appends one sample for name at simulated time at.
func (c *Collector) Record(name string, at, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples[name] = append(c.samples[name], Sample{At: at, Value: value, Labels: copyLabels(labels)})
}

// Names returns every metric name with at least one sample.
func (c *Collector) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.samples))
	for n := range c.samples {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Values returns the raw values recorded for name, in insertion order.
func (c *Collector) Values(name string) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	samples := c.samples[name]
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = s.Value
	}
	return values
}

// Aggregate computes an Aggregation over every sample recorded for name.
// It returns the zero Aggregation with Count 0 if name has no samples.
func (c *Collector) Aggregate(name string) Aggregation {
	values := c.Values(name)
	if len(values) == 0 {
		return Aggregation{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return Aggregation{
		Count: len(sorted),
		Sum:   utils.Sum(sorted),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Mean:  utils.Mean(sorted),
		P50:   utils.P50(sorted),
		P95:   utils.P95(sorted),
		P99:   utils.P99(sorted),
	}
}

// Clear discards every recorded sample.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = make(map[string][]Sample)
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
