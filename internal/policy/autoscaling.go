package policy

import "github.com/opendsim/kernel/pkg/config"

// autoscalingPolicy applies target-utilization replica arithmetic against
// a worker-pool count instead of a Kubernetes-style replica count. It only
// computes the count: no package outside policy reads it, and the workload
// generator (internal/workload) spawns one actor per arrival regardless.
type autoscalingPolicy struct {
	enabled       bool
	targetCPUUtil float64
	scaleStep     int
	minWorkers    int
	maxWorkers    int
}

// NewAutoscalingPolicy builds an AutoscalingPolicy from a scenario's
// autoscaling block. minWorkers/maxWorkers are fixed defaults; the config
// does not expose them as separate fields.
func NewAutoscalingPolicy(cfg *config.AutoscalingPolicy) AutoscalingPolicy {
	return &autoscalingPolicy{
		enabled:       cfg.Enabled,
		targetCPUUtil: cfg.TargetCPUUtil,
		scaleStep:     cfg.ScaleStep,
		minWorkers:    1,
		maxWorkers:    64,
	}
}

func (p *autoscalingPolicy) Enabled() bool { return p.enabled }
func (p *autoscalingPolicy) Name() string  { return "autoscaling" }

func (p *autoscalingPolicy) shouldScaleUp(current int, avgUtil float64) bool {
	return p.enabled && current < p.maxWorkers && avgUtil > p.targetCPUUtil
}

func (p *autoscalingPolicy) shouldScaleDown(current int, avgUtil float64) bool {
	return p.enabled && current > p.minWorkers && avgUtil < p.targetCPUUtil*0.8
}

// TargetWorkers returns the worker count the pool should converge to given
// its current size and a sampled average CPU utilization in [0,1].
func (p *autoscalingPolicy) TargetWorkers(current int, avgUtil float64) int {
	if !p.enabled {
		return current
	}
	target := current
	switch {
	case p.shouldScaleUp(current, avgUtil):
		target = current + p.scaleStep
	case p.shouldScaleDown(current, avgUtil):
		target = current - p.scaleStep
	default:
		return current
	}
	if target < p.minWorkers {
		target = p.minWorkers
	}
	if target > p.maxWorkers {
		target = p.maxWorkers
	}
	return target
}
