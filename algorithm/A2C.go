package algorithm

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/decay"
	"github.com/samuelfneumann/gorl/gae"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
	"github.com/samuelfneumann/gorl/value"
)

// A2C implements the advantage actor-critic losses for on-policy
// trajectories. Advantages are GAE(λ) estimates under the learned
// state-value function, the actor minimizes the advantage-weighted
// negative log likelihood of the actions actually taken, and an
// entropy bonus weighted by a schedule discourages premature
// collapse. λ = 0 recovers one-step Bellman-error advantages.
type A2C struct {
	policy  *policy.LinearGaussian
	valueFn *value.LinearV

	entropyWeight decay.Schedule
	gamma         float64
	lambda        float64
}

// NewA2C creates a new A2C loss
func NewA2C(pol *policy.LinearGaussian, valueFn *value.LinearV,
	entropyWeight decay.Schedule, gamma, lambda float64) *A2C {
	return &A2C{
		policy:        pol,
		valueFn:       valueFn,
		entropyWeight: entropyWeight,
		gamma:         gamma,
		lambda:        lambda,
	}
}

// ForwardTrajectories computes the advantage actor-critic losses on
// whole trajectories and accumulates their gradients. The
// trajectories must come from the current policy.
func (a *A2C) ForwardTrajectories(
	trajectories []timestep.Trajectory) (Loss, error) {
	var total int
	for _, trajectory := range trajectories {
		total += len(trajectory)
	}
	if total == 0 {
		return Loss{}, fmt.Errorf("a2c: cannot compute loss on empty " +
			"trajectories")
	}
	n := float64(total)
	beta := a.entropyWeight.Value()

	var loss Loss
	for _, trajectory := range trajectories {
		if err := validateBatch("a2c", trajectory); err != nil {
			return Loss{}, err
		}

		advantages := gae.Advantages(trajectory, a.valueFn, a.gamma,
			a.lambda)
		for i, obs := range trajectory {
			delta := obs.Reward + a.gamma*obs.BootstrapMask()*
				a.valueFn.V(obs.NextState) - a.valueFn.V(obs.State)

			loss.Critic += 0.5 * delta * delta / n
			loss.TDError += math.Abs(delta) / n
			a.valueFn.Accumulate(obs.State, -delta/n)

			advantage := advantages[i]
			loss.Actor += -advantage * obs.LogProb / n
			a.policy.AccumulateScore(obs.State, obs.Action, -advantage/n)

			entropy := a.policy.Entropy(obs.State)
			loss.Entropy += -beta * entropy / n
			a.policy.AccumulateEntropyGrad(obs.State, -beta/n)
		}
	}

	if !floatutils.Finite(loss.Actor, loss.Critic, loss.Entropy) {
		return Loss{}, &NumericalInstabilityError{Op: "a2c", Loss: loss}
	}
	return loss, nil
}

// Model returns the parameters trained by the A2C losses
func (a *A2C) Model() []G.ValueGrad {
	return append(a.policy.Model(), a.valueFn.Model()...)
}

// SyncTargets is a no-op: A2C bootstraps from the value function it
// trains and keeps no lagged copies
func (a *A2C) SyncTargets(tau float64) {}
