package algorithm

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/decay"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
	"github.com/samuelfneumann/gorl/value"
)

// REPS implements relative entropy policy search. Each call to
// Forward computes the Bellman errors
//
//	δ_i = r_i + γ (1-done_i) V(s'_i) - V(s_i)
//
// then runs two bounded phases: DualSolve takes numIter gradient
// steps on the temperature η of the dual
//
//	g(η) = ηε + η log (1/n) Σ_i exp(δ_i/η)
//
// and PolicyFit reweights the observed actions by softmax_i(δ_i/η)
// and fits the policy to them by weighted maximum likelihood. The
// value function is trained on the squared Bellman error with a
// semi-gradient.
type REPS struct {
	policy  *policy.LinearGaussian
	valueFn *value.LinearV

	eta     *decay.Learnable
	epsilon float64
	numIter int
	gamma   float64
}

// NewREPS creates a new REPS loss. epsilon bounds the relative
// entropy between successive state-action distributions and numIter
// bounds the dual gradient steps per call.
func NewREPS(pol *policy.LinearGaussian, valueFn *value.LinearV,
	eta *decay.Learnable, epsilon float64, numIter int,
	gamma float64) *REPS {
	return &REPS{
		policy:  pol,
		valueFn: valueFn,
		eta:     eta,
		epsilon: epsilon,
		numIter: numIter,
		gamma:   gamma,
	}
}

// Forward computes the REPS losses on batch and accumulates their
// gradients
func (r *REPS) Forward(batch []timestep.Observation) (Loss, error) {
	if err := validateBatch("reps", batch); err != nil {
		return Loss{}, err
	}

	n := float64(len(batch))

	deltas := make([]float64, len(batch))
	var loss Loss
	for i, obs := range batch {
		delta := obs.Reward + r.gamma*obs.BootstrapMask()*
			r.valueFn.V(obs.NextState) - r.valueFn.V(obs.State)
		deltas[i] = delta

		loss.Critic += 0.5 * delta * delta / n
		loss.TDError += math.Abs(delta) / n
		// semi-gradient: dδ/dV(s) = -1, the bootstrapped term is
		// treated as a constant
		r.valueFn.Accumulate(obs.State, -delta/n)
	}

	loss.Dual = r.dualSolve(deltas)
	var err error
	loss.Actor, loss.KL, err = r.policyFit(batch, deltas)
	if err != nil {
		return Loss{}, err
	}

	if !floatutils.Finite(loss.Actor, loss.Critic, loss.Dual, loss.KL) {
		return Loss{}, &NumericalInstabilityError{Op: "reps", Loss: loss}
	}
	return loss, nil
}

// dualSolve runs numIter gradient steps on η and returns the final
// dual loss
func (r *REPS) dualSolve(deltas []float64) float64 {
	n := len(deltas)
	logN := math.Log(float64(n))

	var dual float64
	scaled := make([]float64, n)
	for iter := 0; iter < r.numIter; iter++ {
		eta := r.eta.Value()

		for i, delta := range deltas {
			scaled[i] = delta / eta
		}
		lse := floatutils.LogSumExp(scaled...) - logN

		// E_w[δ] under w = softmax(δ/η)
		var expected float64
		for i, delta := range deltas {
			expected += math.Exp(scaled[i]-lse-logN) * delta
		}

		dual = eta*r.epsilon + eta*lse
		r.eta.Adapt(r.epsilon + lse - expected/eta)
	}
	return dual
}

// policyFit accumulates the gradient of the Bellman-error-weighted
// negative log likelihood of the observed actions
func (r *REPS) policyFit(batch []timestep.Observation,
	deltas []float64) (float64, float64, error) {
	n := len(batch)
	logN := math.Log(float64(n))
	eta := r.eta.Value()

	scaled := make([]float64, n)
	for i, delta := range deltas {
		scaled[i] = delta / eta
	}
	lse := floatutils.LogSumExp(scaled...)

	var fit, kl float64
	for i, obs := range batch {
		weight := math.Exp(scaled[i] - lse)
		logProb, err := r.policy.LogProb(obs.State, obs.Action)
		if err != nil {
			return 0, 0, fmt.Errorf("policyFit: %v", err)
		}
		fit += -weight * logProb
		kl += weight * (scaled[i] - lse + logN)
		r.policy.AccumulateScore(obs.State, obs.Action, -weight)
	}
	return fit, kl, nil
}

// Model returns the parameters trained by the REPS losses. The dual
// variable η adapts itself and is not part of the model.
func (r *REPS) Model() []G.ValueGrad {
	return append(r.policy.Model(), r.valueFn.Model()...)
}

// SyncTargets is a no-op: REPS bootstraps from the value function it
// trains and keeps no lagged copies
func (r *REPS) SyncTargets(tau float64) {}
