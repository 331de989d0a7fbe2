package policy

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/solver"
	"github.com/samuelfneumann/gorl/utils/floatutils"
)

// LinearDeterministic implements a deterministic policy that is
// linear in the state features, with clipped Gaussian exploration
// noise injection. It is the policy class used by deterministic
// policy gradient algorithms.
type LinearDeterministic struct {
	weights *mat.Dense
	param   *solver.Param

	noise     distuv.Normal
	minAction float64
	maxAction float64

	features   int
	actionDims int
	seed       uint64
}

// NewLinearDeterministic creates a new LinearDeterministic policy
// with zero-initialized weights. Actions are clipped to
// [minAction, maxAction] per dimension, and NoisyAction perturbs
// actions with zero-mean Gaussian noise of standard deviation
// noiseStd before clipping.
func NewLinearDeterministic(features, actionDims int, minAction, maxAction,
	noiseStd float64, seed uint64) *LinearDeterministic {
	weights := mat.NewDense(actionDims, features, nil)

	return &LinearDeterministic{
		weights:    weights,
		param:      solver.NewParam("policy/weights", weights),
		noise:      distuv.Normal{Mu: 0, Sigma: noiseStd, Src: rand.NewSource(seed)},
		minAction:  minAction,
		maxAction:  maxAction,
		features:   features,
		actionDims: actionDims,
		seed:       seed,
	}
}

// Action returns the noiseless action at state
func (l *LinearDeterministic) Action(state mat.Vector) *mat.VecDense {
	action := mat.NewVecDense(l.actionDims, nil)
	action.MulVec(l.weights, state)
	for i := 0; i < action.Len(); i++ {
		action.SetVec(i, floatutils.Clip(action.AtVec(i), l.minAction,
			l.maxAction))
	}
	return action
}

// NoisyAction returns the action at state perturbed by exploration
// noise
func (l *LinearDeterministic) NoisyAction(state mat.Vector) *mat.VecDense {
	action := l.Action(state)
	for i := 0; i < action.Len(); i++ {
		action.SetVec(i, floatutils.Clip(action.AtVec(i)+l.noise.Rand(),
			l.minAction, l.maxAction))
	}
	return action
}

// ActionDims returns the dimensionality of the policy's actions
func (l *LinearDeterministic) ActionDims() int {
	return l.actionDims
}

// Bounds returns the per-dimension action bounds of the policy
func (l *LinearDeterministic) Bounds() (min, max float64) {
	return l.minAction, l.maxAction
}

// Model returns the policy's trainable parameters
func (l *LinearDeterministic) Model() []G.ValueGrad {
	return []G.ValueGrad{l.param}
}

// AccumulateActionGrad accumulates scale * actionGrad ⊗ state into
// the policy's gradients, chaining a gradient with respect to the
// emitted action back onto the policy weights
func (l *LinearDeterministic) AccumulateActionGrad(state,
	actionGrad mat.Vector, scale float64) {
	for i := 0; i < l.actionDims; i++ {
		l.param.AddGrad(i, scale*actionGrad.AtVec(i), state)
	}
}

// Clone returns a copy of the policy with identical weights and an
// independent noise stream
func (l *LinearDeterministic) Clone() *LinearDeterministic {
	clone := NewLinearDeterministic(l.features, l.actionDims, l.minAction,
		l.maxAction, l.noise.Sigma, l.seed+1)
	clone.Set(l)
	return clone
}

// Set sets the policy's weights to those of other
func (l *LinearDeterministic) Set(other *LinearDeterministic) {
	l.weights.Copy(other.weights)
}

// Polyak updates the policy's weights towards those of other with
// averaging constant tau
func (l *LinearDeterministic) Polyak(other *LinearDeterministic,
	tau float64) {
	polyak(l.weights, other.weights, tau)
}
