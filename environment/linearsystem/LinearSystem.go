// Package linearsystem implements a discrete-time linear dynamical
// system environment with quadratic cost
package linearsystem

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/gorl/environment"
)

// LinearSystem is an Environment whose dynamics are
//
//	x' = A x + B u
//
// with reward -(xᵀ x + ρ uᵀ u). The episode terminates when the state
// norm exceeds a divergence bound. Dynamics are deterministic, which
// makes the system convenient for validating rollout and model-based
// code against exact repeated applications of the transition map.
type LinearSystem struct {
	a *mat.Dense
	b *mat.Dense

	state      *mat.VecDense
	starter    environment.Starter
	actionCost float64
	divergence float64
	stateDims  int
	actionDims int
}

// New returns a new LinearSystem with dynamics matrices a and b,
// starting states drawn from starter, quadratic action cost weight
// actionCost, and episode termination once the Euclidean norm of the
// state exceeds divergence.
func New(a, b *mat.Dense, starter environment.Starter, actionCost,
	divergence float64) (*LinearSystem, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != ac {
		return nil, fmt.Errorf("new: dynamics matrix A must be square, "+
			"have (%v x %v)", ar, ac)
	}
	if br != ar {
		return nil, fmt.Errorf("new: control matrix B must have %v rows, "+
			"have %v", ar, br)
	}

	return &LinearSystem{
		a:          a,
		b:          b,
		starter:    starter,
		actionCost: actionCost,
		divergence: divergence,
		stateDims:  ar,
		actionDims: bc,
	}, nil
}

// NewDefault returns a 2-state, 1-action marginally stable system with
// starting states in [-1, 1]²
func NewDefault(seed uint64) *LinearSystem {
	a := mat.NewDense(2, 2, []float64{1.0, 0.1, 0.0, 1.0})
	b := mat.NewDense(2, 1, []float64{0.0, 0.1})
	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: -1.0, Max: 1.0},
		{Min: -1.0, Max: 1.0},
	}, seed)

	system, err := New(a, b, starter, 0.1, 100.0)
	if err != nil {
		panic(fmt.Sprintf("newDefault: %v", err))
	}
	return system
}

// Reset starts a new episode and returns its starting state
func (l *LinearSystem) Reset() (mat.Vector, error) {
	start := l.starter.Start()
	if start.Len() != l.stateDims {
		return nil, fmt.Errorf("reset: starter produced state of length "+
			"%v, system has %v dimensions", start.Len(), l.stateDims)
	}

	l.state = mat.NewVecDense(l.stateDims, nil)
	l.state.CopyVec(start)
	return mat.VecDenseCopyOf(l.state), nil
}

// Step applies one action to the system
func (l *LinearSystem) Step(action mat.Vector) (mat.Vector, float64, bool,
	error) {
	if l.state == nil {
		return nil, 0, false, fmt.Errorf("step: Reset must be called " +
			"before Step")
	}
	if action.Len() != l.actionDims {
		return nil, 0, false, fmt.Errorf("step: invalid action length "+
			"\n\twant(%v)\n\thave(%v)", l.actionDims, action.Len())
	}

	next := mat.NewVecDense(l.stateDims, nil)
	next.MulVec(l.a, l.state)

	controlled := mat.NewVecDense(l.stateDims, nil)
	controlled.MulVec(l.b, action)
	next.AddVec(next, controlled)

	reward := -(mat.Dot(l.state, l.state) +
		l.actionCost*mat.Dot(action, action))

	l.state = next
	done := math.Sqrt(mat.Dot(next, next)) > l.divergence

	return mat.VecDenseCopyOf(next), reward, done, nil
}

// ObservationDims returns the dimensionality of the system's states
func (l *LinearSystem) ObservationDims() int {
	return l.stateDims
}

// ActionDims returns the dimensionality of the system's actions
func (l *LinearSystem) ActionDims() int {
	return l.actionDims
}

// Dynamics returns the system's dynamics matrices
func (l *LinearSystem) Dynamics() (a, b *mat.Dense) {
	return l.a, l.b
}
