package algorithm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/decay"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
	"github.com/samuelfneumann/gorl/value"
)

// MPO implements maximum a posteriori policy optimization. Each call
// to Forward runs three phases:
//
//  1. a TD critic update towards r + γ (1-done) Q'(s', a'), a' ~ π
//  2. DualSolve: numIter gradient steps on the temperature η of the
//     dual g(η) = ηε + η mean_s [log (1/N) Σ_a exp(Q(s,a)/η)]
//  3. PolicyFit: weighted maximum likelihood of the sampled actions
//     under weights softmax_a(Q(s,a)/η)
//
// The number of inner iterations is bounded: Forward never loops to
// convergence.
type MPO struct {
	policy       *policy.LinearGaussian
	critic       *value.LinearQ
	criticTarget *value.LinearQ

	eta        *decay.Learnable
	epsilon    float64
	numSamples int
	numIter    int
	gamma      float64
}

// NewMPO creates a new MPO loss. epsilon bounds the KL between the
// nonparametric and parametric policies; numSamples actions are drawn
// per state to estimate the expectations and numIter bounds the dual
// gradient steps per call.
func NewMPO(pol *policy.LinearGaussian, critic *value.LinearQ,
	eta *decay.Learnable, epsilon float64, numSamples, numIter int,
	gamma float64) *MPO {
	return &MPO{
		policy:       pol,
		critic:       critic,
		criticTarget: critic.Clone(),
		eta:          eta,
		epsilon:      epsilon,
		numSamples:   numSamples,
		numIter:      numIter,
		gamma:        gamma,
	}
}

// Forward computes the MPO losses on batch and accumulates their
// gradients
func (m *MPO) Forward(batch []timestep.Observation) (Loss, error) {
	if err := validateBatch("mpo", batch); err != nil {
		return Loss{}, err
	}

	loss, err := m.criticUpdate(batch)
	if err != nil {
		return Loss{}, err
	}

	actions, values, err := m.sampleValues(batch)
	if err != nil {
		return Loss{}, err
	}

	loss.Dual = m.dualSolve(values)
	loss.Actor, loss.KL, err = m.policyFit(batch, actions, values)
	if err != nil {
		return Loss{}, err
	}

	if !floatutils.Finite(loss.Actor, loss.Critic, loss.Dual, loss.KL) {
		return Loss{}, &NumericalInstabilityError{Op: "mpo", Loss: loss}
	}
	return loss, nil
}

func (m *MPO) criticUpdate(batch []timestep.Observation) (Loss, error) {
	n := float64(len(batch))

	var loss Loss
	for _, obs := range batch {
		nextAction, _, _ := m.policy.SelectAction(obs.NextState)
		qNext, err := m.criticTarget.Q(obs.NextState, nextAction)
		if err != nil {
			return Loss{}, err
		}
		target := obs.Reward + m.gamma*obs.BootstrapMask()*qNext

		q, err := m.critic.Q(obs.State, obs.Action)
		if err != nil {
			return Loss{}, err
		}
		delta := q - target
		loss.Critic += 0.5 * delta * delta / n
		loss.TDError += math.Abs(delta) / n
		m.critic.Accumulate(obs.State, obs.Action, delta/n)
	}
	return loss, nil
}

// sampleValues draws numSamples actions per state from the current
// policy and evaluates them under the target critic
func (m *MPO) sampleValues(batch []timestep.Observation) (
	[][]*mat.VecDense, [][]float64, error) {
	actions := make([][]*mat.VecDense, len(batch))
	values := make([][]float64, len(batch))
	for i, obs := range batch {
		actions[i] = make([]*mat.VecDense, m.numSamples)
		values[i] = make([]float64, m.numSamples)
		for j := 0; j < m.numSamples; j++ {
			action, _, _ := m.policy.SelectAction(obs.State)
			q, err := m.criticTarget.Q(obs.State, action)
			if err != nil {
				return nil, nil, err
			}
			actions[i][j] = action
			values[i][j] = q
		}
	}
	return actions, values, nil
}

// dualSolve runs numIter gradient steps on η and returns the final
// dual loss
func (m *MPO) dualSolve(values [][]float64) float64 {
	n := float64(len(values))
	logN := math.Log(float64(m.numSamples))

	var dual float64
	for iter := 0; iter < m.numIter; iter++ {
		eta := m.eta.Value()

		dual = eta * m.epsilon
		grad := m.epsilon
		scaled := make([]float64, m.numSamples)
		for _, qs := range values {
			for j, q := range qs {
				scaled[j] = q / eta
			}
			lse := floatutils.LogSumExp(scaled...) - logN

			// E_w[Q] under w = softmax(Q/η)
			var expected float64
			for j, q := range qs {
				expected += math.Exp(scaled[j]-lse-logN) * q
			}

			dual += eta * lse / n
			grad += (lse - expected/eta) / n
		}
		m.eta.Adapt(grad)
	}
	return dual
}

// policyFit accumulates the gradient of the weighted negative log
// likelihood of the sampled actions, returning the fit loss and the
// mean KL between the nonparametric weights and the uniform proposal
func (m *MPO) policyFit(batch []timestep.Observation,
	actions [][]*mat.VecDense, values [][]float64) (float64, float64,
	error) {
	n := float64(len(batch))
	logN := math.Log(float64(m.numSamples))
	eta := m.eta.Value()

	var fit, kl float64
	scaled := make([]float64, m.numSamples)
	for i, obs := range batch {
		for j, q := range values[i] {
			scaled[j] = q / eta
		}
		lse := floatutils.LogSumExp(scaled...)

		for j, action := range actions[i] {
			weight := math.Exp(scaled[j] - lse)
			logProb, err := m.policy.LogProb(obs.State, action)
			if err != nil {
				return 0, 0, fmt.Errorf("policyFit: %v", err)
			}
			fit += -weight * logProb / n
			kl += weight * (scaled[j] - lse + logN) / n
			m.policy.AccumulateScore(obs.State, action, -weight/n)
		}
	}
	return fit, kl, nil
}

// Model returns the parameters trained by the MPO losses. The dual
// variable η adapts itself and is not part of the model.
func (m *MPO) Model() []G.ValueGrad {
	return append(m.policy.Model(), m.critic.Model()...)
}

// SyncTargets updates the target critic towards the trained critic
func (m *MPO) SyncTargets(tau float64) {
	if tau >= 1.0 {
		m.criticTarget.Set(m.critic)
		return
	}
	m.criticTarget.Polyak(m.critic, tau)
}
