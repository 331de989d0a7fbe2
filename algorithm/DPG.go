package algorithm

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
	"github.com/samuelfneumann/gorl/value"
)

// DPG implements the deterministic policy gradient losses. Critic
// targets are pessimistic over a lagged ensemble of critics
//
//	y = r + γ (1-done) min_i Q'_i(s', ã)    ã = μ'(s') + clip(ξ)
//
// where the target action is smoothed with clipped Gaussian noise ξ.
// A single-member ensemble with zero target noise recovers vanilla
// DDPG; two members with noise and delayed policy updates give TD3.
//
// The actor maximizes the first member's estimate at the noiseless
// action. SetUpdatePolicy gates the actor loss so that callers can
// delay policy updates relative to critic updates.
type DPG struct {
	policy        *policy.LinearDeterministic
	policyTarget  *policy.LinearDeterministic
	critics       *value.EnsembleQ
	criticTargets *value.EnsembleQ

	targetNoise distuv.Normal
	noiseClip   float64
	gamma       float64

	updatePolicy bool
}

// NewDPG creates a new DPG loss over the given actor and critic
// ensemble. Target actions are smoothed with zero-mean Gaussian noise
// of standard deviation targetNoiseStd, clipped to ±noiseClip; a zero
// targetNoiseStd disables smoothing.
func NewDPG(pol *policy.LinearDeterministic, critics *value.EnsembleQ,
	gamma, targetNoiseStd, noiseClip float64, seed uint64) *DPG {
	return &DPG{
		policy:        pol,
		policyTarget:  pol.Clone(),
		critics:       critics,
		criticTargets: critics.Clone(),
		targetNoise: distuv.Normal{
			Mu:    0,
			Sigma: targetNoiseStd,
			Src:   rand.NewSource(seed),
		},
		noiseClip:    noiseClip,
		gamma:        gamma,
		updatePolicy: true,
	}
}

// SetUpdatePolicy sets whether Forward computes the actor loss and
// gradient. Critic losses are always computed.
func (d *DPG) SetUpdatePolicy(update bool) {
	d.updatePolicy = update
}

// Forward computes the deterministic policy gradient losses on batch
// and accumulates their gradients
func (d *DPG) Forward(batch []timestep.Observation) (Loss, error) {
	if err := validateBatch("dpg", batch); err != nil {
		return Loss{}, err
	}

	n := float64(len(batch))
	m := float64(d.critics.NumMembers())
	minAction, maxAction := d.policy.Bounds()

	var loss Loss
	for _, obs := range batch {
		nextAction := d.policyTarget.Action(obs.NextState)
		if d.targetNoise.Sigma > 0 {
			for i := 0; i < nextAction.Len(); i++ {
				noise := floatutils.Clip(d.targetNoise.Rand(),
					-d.noiseClip, d.noiseClip)
				nextAction.SetVec(i, floatutils.Clip(
					nextAction.AtVec(i)+noise, minAction, maxAction))
			}
		}

		qNext, err := d.criticTargets.Min(obs.NextState, nextAction)
		if err != nil {
			return Loss{}, err
		}
		target := obs.Reward + d.gamma*obs.BootstrapMask()*qNext

		for i := 0; i < d.critics.NumMembers(); i++ {
			critic := d.critics.Member(i)
			q, err := critic.Q(obs.State, obs.Action)
			if err != nil {
				return Loss{}, err
			}
			delta := q - target
			loss.Critic += 0.5 * delta * delta / (n * m)
			loss.TDError += math.Abs(delta) / (n * m)
			critic.Accumulate(obs.State, obs.Action, delta/(n*m))
		}

		if d.updatePolicy {
			action := d.policy.Action(obs.State)
			q, err := d.critics.Member(0).Q(obs.State, action)
			if err != nil {
				return Loss{}, err
			}
			loss.Actor += -q / n
			d.policy.AccumulateActionGrad(obs.State,
				d.critics.Member(0).ActionGrad(), -1.0/n)
		}
	}

	if !floatutils.Finite(loss.Actor, loss.Critic) {
		return Loss{}, &NumericalInstabilityError{Op: "dpg", Loss: loss}
	}
	return loss, nil
}

// Model returns the parameters trained by the DPG losses
func (d *DPG) Model() []G.ValueGrad {
	return append(d.policy.Model(), d.critics.Model()...)
}

// SyncTargets updates the target actor and target critic ensemble
// towards their trained counterparts
func (d *DPG) SyncTargets(tau float64) {
	if tau >= 1.0 {
		d.policyTarget.Set(d.policy)
		d.criticTargets.Set(d.critics)
		return
	}
	d.policyTarget.Polyak(d.policy, tau)
	d.criticTargets.Polyak(d.critics, tau)
}
