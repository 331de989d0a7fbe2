package algorithm

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/gae"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
	"github.com/samuelfneumann/gorl/value"
)

// PPO implements the clipped-surrogate proximal policy optimization
// losses for on-policy trajectories. Each observation carries the log
// probability of its action under the policy that generated it, so
// the probability ratio
//
//	r = π(a|s) / π_old(a|s)
//
// stays well defined over repeated epochs on the same trajectories.
// The actor minimizes -min(r·A, clip(r, 1-ε, 1+ε)·A) with GAE(λ)
// advantages A; once a sample's ratio leaves the clip region in the
// direction the advantage favours, its gradient vanishes and the
// sample stops pushing the policy further. Loss.KL reports the mean
// log π_old - log π estimate, which callers running multiple epochs
// use to stop early.
type PPO struct {
	policy  *policy.LinearGaussian
	valueFn *value.LinearV

	epsilon float64
	gamma   float64
	lambda  float64
}

// NewPPO creates a new PPO loss with clip radius epsilon
func NewPPO(pol *policy.LinearGaussian, valueFn *value.LinearV,
	epsilon, gamma, lambda float64) *PPO {
	return &PPO{
		policy:  pol,
		valueFn: valueFn,
		epsilon: epsilon,
		gamma:   gamma,
		lambda:  lambda,
	}
}

// ForwardTrajectories computes the clipped-surrogate losses on whole
// trajectories and accumulates their gradients. The trajectories may
// be replayed for several epochs between policy refreshes, which is
// what the clipping exists for.
func (p *PPO) ForwardTrajectories(
	trajectories []timestep.Trajectory) (Loss, error) {
	var total int
	for _, trajectory := range trajectories {
		total += len(trajectory)
	}
	if total == 0 {
		return Loss{}, fmt.Errorf("ppo: cannot compute loss on empty " +
			"trajectories")
	}
	n := float64(total)

	var loss Loss
	for _, trajectory := range trajectories {
		if err := validateBatch("ppo", trajectory); err != nil {
			return Loss{}, err
		}

		advantages := gae.Advantages(trajectory, p.valueFn, p.gamma,
			p.lambda)
		for i, obs := range trajectory {
			delta := obs.Reward + p.gamma*obs.BootstrapMask()*
				p.valueFn.V(obs.NextState) - p.valueFn.V(obs.State)

			loss.Critic += 0.5 * delta * delta / n
			loss.TDError += math.Abs(delta) / n
			p.valueFn.Accumulate(obs.State, -delta/n)

			logProb, err := p.policy.LogProb(obs.State, obs.Action)
			if err != nil {
				return Loss{}, fmt.Errorf("ppo: %v", err)
			}

			ratio := math.Exp(logProb - obs.LogProb)
			advantage := advantages[i]

			unclipped := ratio * advantage
			clipped := floatutils.Clip(ratio, 1-p.epsilon,
				1+p.epsilon) * advantage

			loss.Actor += -math.Min(unclipped, clipped) / n
			if unclipped <= clipped {
				p.policy.AccumulateScore(obs.State, obs.Action,
					-ratio*advantage/n)
			}

			loss.KL += (obs.LogProb - logProb) / n
		}
	}

	if !floatutils.Finite(loss.Actor, loss.Critic, loss.KL) {
		return Loss{}, &NumericalInstabilityError{Op: "ppo", Loss: loss}
	}
	return loss, nil
}

// Model returns the parameters trained by the PPO losses
func (p *PPO) Model() []G.ValueGrad {
	return append(p.policy.Model(), p.valueFn.Model()...)
}

// SyncTargets is a no-op: PPO bootstraps from the value function it
// trains and keeps no lagged copies
func (p *PPO) SyncTargets(tau float64) {}
