package algorithm

import (
	"math"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/decay"
	"github.com/samuelfneumann/gorl/model"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/rollout"
	"github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
	"github.com/samuelfneumann/gorl/value"
)

// MBSAC implements model-based soft actor-critic. Critic targets are
// estimated by imagining numSamples rollouts of numSteps transitions
// through a learned dynamics model from each successor state,
// accumulating entropy-regularized returns and bootstrapping the tail
// with the target critic. The actor loss is identical to SAC's.
type MBSAC struct {
	policy       *policy.LinearGaussian
	critic       *value.LinearQ
	criticTarget *value.LinearQ

	dynamics    model.Dynamics
	rewards     model.Rewards
	termination model.Termination

	temperature   decay.Schedule
	learnableTemp *decay.Learnable
	targetEntropy float64

	numSamples int
	numSteps   int
	gamma      float64
}

// NewMBSAC creates a new MBSAC loss over a learned dynamics and
// reward model. termination decides which imagined states end their
// rollout early; model.NeverTerminate disables early termination.
func NewMBSAC(pol *policy.LinearGaussian, critic *value.LinearQ,
	dynamics model.Dynamics, rewards model.Rewards,
	termination model.Termination, temperature decay.Schedule,
	targetEntropy float64, numSamples, numSteps int,
	gamma float64) *MBSAC {
	learnable, _ := temperature.(*decay.Learnable)

	return &MBSAC{
		policy:        pol,
		critic:        critic,
		criticTarget:  critic.Clone(),
		dynamics:      dynamics,
		rewards:       rewards,
		termination:   termination,
		temperature:   temperature,
		learnableTemp: learnable,
		targetEntropy: targetEntropy,
		numSamples:    numSamples,
		numSteps:      numSteps,
		gamma:         gamma,
	}
}

// Forward computes the model-based soft actor-critic losses on batch
// and accumulates their gradients
func (m *MBSAC) Forward(batch []timestep.Observation) (Loss, error) {
	if err := validateBatch("mbsac", batch); err != nil {
		return Loss{}, err
	}

	n := float64(len(batch))
	eta := m.temperature.Value()

	var loss Loss
	var entropySum, tempGrad float64
	for _, obs := range batch {
		nextValue, err := m.imaginedValue(obs.NextState, eta)
		if err != nil {
			return Loss{}, err
		}
		target := obs.Reward + m.gamma*obs.BootstrapMask()*nextValue

		q, err := m.critic.Q(obs.State, obs.Action)
		if err != nil {
			return Loss{}, err
		}
		delta := q - target
		loss.Critic += 0.5 * delta * delta / n
		loss.TDError += math.Abs(delta) / n
		m.critic.Accumulate(obs.State, obs.Action, delta/n)

		action, logProb, entropy := m.policy.SelectAction(obs.State)
		qPi, err := m.critic.Q(obs.State, action)
		if err != nil {
			return Loss{}, err
		}
		advantage := eta*logProb - qPi
		loss.Actor += advantage / n
		m.policy.AccumulateScore(obs.State, action, (advantage+eta)/n)

		entropySum += entropy / n
		tempGrad += -(logProb + m.targetEntropy) / n
	}
	loss.Entropy = -eta * entropySum

	if m.learnableTemp != nil {
		m.learnableTemp.Adapt(tempGrad)
	}

	if !floatutils.Finite(loss.Actor, loss.Critic, loss.Entropy) {
		return Loss{}, &NumericalInstabilityError{Op: "mbsac", Loss: loss}
	}
	return loss, nil
}

// imaginedValue estimates the entropy-regularized value of state by
// averaging numSamples imagined rollouts through the learned model
func (m *MBSAC) imaginedValue(state mat.Vector, eta float64) (float64,
	error) {
	initial := mat.NewDense(m.numSamples, state.Len(), nil)
	for i := 0; i < m.numSamples; i++ {
		for j := 0; j < state.Len(); j++ {
			initial.Set(i, j, state.AtVec(j))
		}
	}

	trajectory, err := rollout.RolloutModel(m.dynamics, m.rewards,
		m.termination, m.policy, initial, m.numSteps)
	if err != nil {
		return 0, err
	}

	returns := make([]float64, m.numSamples)
	discount := 1.0
	for _, obs := range trajectory {
		for i := 0; i < m.numSamples; i++ {
			if obs.Dones[i] {
				continue
			}
			returns[i] += discount * (obs.Rewards[i] - eta*obs.LogProbs[i])
		}
		discount *= m.gamma
	}

	// Bootstrap the tails of rollouts that never terminated
	last := trajectory[len(trajectory)-1]
	finalDone := m.termination(last.States, last.Actions, last.NextStates)
	for i := 0; i < m.numSamples; i++ {
		if last.Dones[i] || finalDone[i] {
			continue
		}
		tail := last.NextStates.RowView(i)
		action, logProb, _ := m.policy.SelectAction(tail)
		q, err := m.criticTarget.Q(tail, action)
		if err != nil {
			return 0, err
		}
		returns[i] += discount * (q - eta*logProb)
	}

	return floatutils.Mean(returns), nil
}

// Model returns the parameters trained by the MBSAC losses. The
// dynamics model is fit separately and is not part of the model.
func (m *MBSAC) Model() []G.ValueGrad {
	return append(m.policy.Model(), m.critic.Model()...)
}

// SyncTargets updates the target critic towards the trained critic
func (m *MBSAC) SyncTargets(tau float64) {
	if tau >= 1.0 {
		m.criticTarget.Set(m.critic)
		return
	}
	m.criticTarget.Polyak(m.critic, tau)
}
