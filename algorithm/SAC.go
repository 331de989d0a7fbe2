package algorithm

import (
	"math"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/decay"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
	"github.com/samuelfneumann/gorl/value"
)

// SAC implements the soft actor-critic losses. The critic is trained
// towards the entropy-regularized Bellman target
//
//	y = r + γ (1-done) (Q'(s', a') - η log π(a'|s'))    a' ~ π(·|s')
//
// where Q' is a lagged target critic, and the actor minimizes
// η log π(a|s) - Q(s, a) for fresh policy samples. When the
// temperature η is a learnable multiplier, it is adapted towards a
// target entropy on every call.
type SAC struct {
	policy       *policy.LinearGaussian
	critic       *value.LinearQ
	criticTarget *value.LinearQ

	temperature   decay.Schedule
	learnableTemp *decay.Learnable // nil for fixed schedules

	targetEntropy float64
	gamma         float64
}

// NewSAC creates a new SAC loss. If temperature is a *decay.Learnable,
// it is adapted so that the policy entropy tracks targetEntropy;
// otherwise targetEntropy is ignored and the temperature follows its
// schedule.
func NewSAC(pol *policy.LinearGaussian, critic *value.LinearQ,
	temperature decay.Schedule, targetEntropy, gamma float64) *SAC {
	learnable, _ := temperature.(*decay.Learnable)

	return &SAC{
		policy:        pol,
		critic:        critic,
		criticTarget:  critic.Clone(),
		temperature:   temperature,
		learnableTemp: learnable,
		targetEntropy: targetEntropy,
		gamma:         gamma,
	}
}

// Temperature returns the current entropy temperature η
func (s *SAC) Temperature() float64 {
	return s.temperature.Value()
}

// Forward computes the soft actor-critic losses on batch and
// accumulates their gradients
func (s *SAC) Forward(batch []timestep.Observation) (Loss, error) {
	if err := validateBatch("sac", batch); err != nil {
		return Loss{}, err
	}

	n := float64(len(batch))
	eta := s.temperature.Value()

	var loss Loss
	var entropySum, tempGrad float64
	for _, obs := range batch {
		nextAction, nextLogProb, _ := s.policy.SelectAction(obs.NextState)
		qNext, err := s.criticTarget.Q(obs.NextState, nextAction)
		if err != nil {
			return Loss{}, err
		}
		target := obs.Reward + s.gamma*obs.BootstrapMask()*
			(qNext-eta*nextLogProb)

		q, err := s.critic.Q(obs.State, obs.Action)
		if err != nil {
			return Loss{}, err
		}
		delta := q - target
		loss.Critic += 0.5 * delta * delta / n
		loss.TDError += math.Abs(delta) / n
		s.critic.Accumulate(obs.State, obs.Action, delta/n)

		action, logProb, entropy := s.policy.SelectAction(obs.State)
		qPi, err := s.critic.Q(obs.State, action)
		if err != nil {
			return Loss{}, err
		}
		advantage := eta*logProb - qPi
		loss.Actor += advantage / n
		s.policy.AccumulateScore(obs.State, action, (advantage+eta)/n)

		entropySum += entropy / n
		tempGrad += -(logProb + s.targetEntropy) / n
	}
	loss.Entropy = -eta * entropySum

	if s.learnableTemp != nil {
		s.learnableTemp.Adapt(tempGrad)
	}

	if !floatutils.Finite(loss.Actor, loss.Critic, loss.Entropy) {
		return Loss{}, &NumericalInstabilityError{Op: "sac", Loss: loss}
	}
	return loss, nil
}

// Model returns the parameters trained by the SAC losses
func (s *SAC) Model() []G.ValueGrad {
	return append(s.policy.Model(), s.critic.Model()...)
}

// SyncTargets updates the target critic towards the trained critic
func (s *SAC) SyncTargets(tau float64) {
	if tau >= 1.0 {
		s.criticTarget.Set(s.critic)
		return
	}
	s.criticTarget.Polyak(s.critic, tau)
}
