// Package gae implements generalized advantage estimation - GAE(λ) -
// following https://arxiv.org/abs/1506.02438
package gae

import (
	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/value"
)

// Advantages computes the GAE(λ) advantages of a trajectory under a
// state-value function:
//
//	A_t = Σ_k (γλ)^k δ_{t+k}
//
// where δ is the one-step Bellman error. λ = 0 recovers the one-step
// advantage δ_t and λ = 1 the Monte Carlo advantage. Terminal
// transitions bootstrap nothing and cut the backward accumulation.
func Advantages(trajectory timestep.Trajectory,
	valueFn value.ValueFunction, gamma, lambda float64) []float64 {
	advantages := make([]float64, len(trajectory))

	var running float64
	for i := len(trajectory) - 1; i >= 0; i-- {
		obs := trajectory[i]
		delta := obs.Reward + gamma*obs.BootstrapMask()*
			valueFn.V(obs.NextState) - valueFn.V(obs.State)
		running = delta + gamma*lambda*obs.BootstrapMask()*running
		advantages[i] = running
	}
	return advantages
}

// Normalize standardizes advantages to zero mean and unit variance in
// place, a common variance reduction for policy gradients. Fewer than
// two advantages are left untouched.
func Normalize(advantages []float64) {
	if len(advantages) < 2 {
		return
	}

	mean, std := stat.MeanStdDev(advantages, nil)
	if std == 0 {
		return
	}
	for i := range advantages {
		advantages[i] = (advantages[i] - mean) / std
	}
}
