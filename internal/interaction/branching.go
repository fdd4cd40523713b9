package interaction

import (
	"math"

	"github.com/opendsim/kernel/pkg/utils"
)

// BranchingStrategy decides, for one endpoint's resolved downstream edges,
// which calls a given request actually makes.
type BranchingStrategy interface {
	SelectCalls(calls []ResolvedCall, rng *utils.RandSource) []ResolvedCall
}

// MeanCountBranching fires each edge call.Call.CallCountMean times on
// average, using stochastic rounding so a mean of e.g. 1.3 fires a second
// call on 30% of requests rather than always flooring to 1.
type MeanCountBranching struct{}

func (MeanCountBranching) SelectCalls(calls []ResolvedCall, rng *utils.RandSource) []ResolvedCall {
	var selected []ResolvedCall
	for _, call := range calls {
		mean := call.Call.CallCountMean
		if mean <= 0 {
			mean = 1.0
		}
		base := int(math.Floor(mean))
		frac := mean - float64(base)
		count := base
		if frac > 0 && rng.Float64() < frac {
			count++
		}
		for i := 0; i < count; i++ {
			selected = append(selected, call)
		}
	}
	return selected
}

// ProbabilisticBranching fires each edge independently with an explicit
// probability keyed by "serviceID:path", falling back to
// min(CallCountMean, 1) when a call has no explicit probability.
type ProbabilisticBranching struct {
	Probabilities map[string]float64
}

func (b ProbabilisticBranching) SelectCalls(calls []ResolvedCall, rng *utils.RandSource) []ResolvedCall {
	var selected []ResolvedCall
	for _, call := range calls {
		prob, ok := b.Probabilities[call.ServiceID+":"+call.Path]
		if !ok {
			mean := call.Call.CallCountMean
			if mean <= 0 {
				mean = 1.0
			}
			prob = math.Min(mean, 1.0)
		}
		if rng.BernoulliBool(prob) {
			selected = append(selected, call)
		}
	}
	return selected
}
