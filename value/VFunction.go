package value

import (
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/solver"
)

// LinearV implements a state-value function that is linear in the
// state features
type LinearV struct {
	weights  *mat.Dense
	param    *solver.Param
	features int
}

// NewLinearV creates a new LinearV with zero-initialized weights
func NewLinearV(features int) *LinearV {
	weights := mat.NewDense(1, features, nil)
	return &LinearV{
		weights:  weights,
		param:    solver.NewParam("value/weights", weights),
		features: features,
	}
}

// V returns the estimated value of state
func (l *LinearV) V(state mat.Vector) float64 {
	var v float64
	for i := 0; i < l.features; i++ {
		v += l.weights.At(0, i) * state.AtVec(i)
	}
	return v
}

// Accumulate accumulates scale * ∇V(state) into the value function's
// gradients
func (l *LinearV) Accumulate(state mat.Vector, scale float64) {
	for i := 0; i < l.features; i++ {
		l.param.AddGradAt(0, i, scale*state.AtVec(i))
	}
}

// Model returns the value function's trainable parameters
func (l *LinearV) Model() []G.ValueGrad {
	return []G.ValueGrad{l.param}
}

// Clone returns a copy of the value function with identical weights
func (l *LinearV) Clone() *LinearV {
	clone := NewLinearV(l.features)
	clone.weights.Copy(l.weights)
	return clone
}

// Set sets the value function's weights to those of other
func (l *LinearV) Set(other *LinearV) {
	l.weights.Copy(other.weights)
}

// Polyak updates the value function's weights towards those of other
// with averaging constant tau
func (l *LinearV) Polyak(other *LinearV, tau float64) {
	_, c := l.weights.Dims()
	for j := 0; j < c; j++ {
		l.weights.Set(0, j, tau*other.weights.At(0, j)+
			(1-tau)*l.weights.At(0, j))
	}
}
