// Package value implements state-value and action-value function
// approximators
package value

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/solver"
)

// QFunction estimates the value of taking an action in a state
type QFunction interface {
	Q(state, action mat.Vector) (float64, error)
}

// ValueFunction estimates the value of a state
type ValueFunction interface {
	V(state mat.Vector) float64
}

// LinearQ implements an action-value function that is linear in the
// concatenated state-action features
type LinearQ struct {
	weights *mat.Dense
	param   *solver.Param

	features   int
	actionDims int
}

// NewLinearQ creates a new LinearQ with zero-initialized weights
func NewLinearQ(features, actionDims int) *LinearQ {
	weights := mat.NewDense(1, features+actionDims, nil)
	return &LinearQ{
		weights:    weights,
		param:      solver.NewParam("critic/weights", weights),
		features:   features,
		actionDims: actionDims,
	}
}

// Q returns the estimated value of taking action in state
func (l *LinearQ) Q(state, action mat.Vector) (float64, error) {
	if state.Len() != l.features || action.Len() != l.actionDims {
		return 0, fmt.Errorf("q: invalid input lengths "+
			"\n\twant(%v, %v)\n\thave(%v, %v)", l.features, l.actionDims,
			state.Len(), action.Len())
	}

	var q float64
	for i := 0; i < l.features; i++ {
		q += l.weights.At(0, i) * state.AtVec(i)
	}
	for i := 0; i < l.actionDims; i++ {
		q += l.weights.At(0, l.features+i) * action.AtVec(i)
	}
	return q, nil
}

// ActionGrad returns ∂Q/∂action, which for a linear Q is the action
// portion of the weights, independent of the inputs
func (l *LinearQ) ActionGrad() *mat.VecDense {
	grad := mat.NewVecDense(l.actionDims, nil)
	for i := 0; i < l.actionDims; i++ {
		grad.SetVec(i, l.weights.At(0, l.features+i))
	}
	return grad
}

// Accumulate accumulates scale * ∇Q(state, action) into the critic's
// gradients. For a squared TD error 0.5*(Q - target)², scale is the
// per-sample TD error divided by the batch size.
func (l *LinearQ) Accumulate(state, action mat.Vector, scale float64) {
	for i := 0; i < l.features; i++ {
		l.param.AddGradAt(0, i, scale*state.AtVec(i))
	}
	for i := 0; i < l.actionDims; i++ {
		l.param.AddGradAt(0, l.features+i, scale*action.AtVec(i))
	}
}

// Model returns the critic's trainable parameters
func (l *LinearQ) Model() []G.ValueGrad {
	return []G.ValueGrad{l.param}
}

// Clone returns a copy of the critic with identical weights
func (l *LinearQ) Clone() *LinearQ {
	clone := NewLinearQ(l.features, l.actionDims)
	clone.Set(l)
	return clone
}

// Set sets the critic's weights to those of other
func (l *LinearQ) Set(other *LinearQ) {
	l.weights.Copy(other.weights)
}

// Polyak updates the critic's weights towards those of other with
// averaging constant tau
func (l *LinearQ) Polyak(other *LinearQ, tau float64) {
	r, c := l.weights.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			l.weights.Set(i, j, tau*other.weights.At(i, j)+
				(1-tau)*l.weights.At(i, j))
		}
	}
}
