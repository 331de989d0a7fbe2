package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/timestep"
)

// ErrTooFewSamples indicates a fit attempted on fewer transitions
// than the least squares problem needs. Callers fitting on a cadence
// may treat it as "wait for more data".
var ErrTooFewSamples = errors.New("too few transitions to fit")

// LinearModel is a deterministic dynamics model that is linear in
// state and action:
//
//	x' = A x + B u
//
// The model can be fit to a batch of observed transitions by least
// squares, and predicts batches of successor states at once.
type LinearModel struct {
	a *mat.Dense
	b *mat.Dense

	stateDims  int
	actionDims int
}

// NewLinearModel creates a new LinearModel with zero dynamics
func NewLinearModel(stateDims, actionDims int) *LinearModel {
	return &LinearModel{
		a:          mat.NewDense(stateDims, stateDims, nil),
		b:          mat.NewDense(stateDims, actionDims, nil),
		stateDims:  stateDims,
		actionDims: actionDims,
	}
}

// NewLinearModelFrom creates a new LinearModel with the given
// dynamics matrices
func NewLinearModelFrom(a, b *mat.Dense) (*LinearModel, error) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != ac || br != ar {
		return nil, fmt.Errorf("newLinearModelFrom: incompatible dynamics "+
			"shapes (%v x %v) and (%v x %v)", ar, ac, br, bc)
	}
	return &LinearModel{
		a:          mat.DenseCopyOf(a),
		b:          mat.DenseCopyOf(b),
		stateDims:  ar,
		actionDims: bc,
	}, nil
}

// NextStates predicts the successor states of a batch of state-action
// pairs, one transition per row
func (l *LinearModel) NextStates(states, actions *mat.Dense) (*mat.Dense,
	error) {
	rows, stateCols := states.Dims()
	actionRows, actionCols := actions.Dims()
	if stateCols != l.stateDims || actionCols != l.actionDims {
		return nil, fmt.Errorf("nextStates: invalid input dimensions "+
			"\n\twant(%v, %v)\n\thave(%v, %v)", l.stateDims, l.actionDims,
			stateCols, actionCols)
	}
	if rows != actionRows {
		return nil, fmt.Errorf("nextStates: mismatched batch sizes "+
			"(%v states, %v actions)", rows, actionRows)
	}

	next := mat.NewDense(rows, l.stateDims, nil)
	next.Mul(states, l.a.T())

	controlled := mat.NewDense(rows, l.stateDims, nil)
	controlled.Mul(actions, l.b.T())

	next.Add(next, controlled)
	return next, nil
}

// Fit estimates the dynamics matrices from a batch of observed
// transitions by least squares. The batch must contain at least
// stateDims + actionDims transitions for the problem to be
// determined.
func (l *LinearModel) Fit(batch []timestep.Observation) error {
	if len(batch) < l.stateDims+l.actionDims {
		return fmt.Errorf("fit: %w: need at least %v transitions, have %v",
			ErrTooFewSamples, l.stateDims+l.actionDims, len(batch))
	}

	// Solve X' = [X U] Θᵀ for Θ = [A B]
	inputs := mat.NewDense(len(batch), l.stateDims+l.actionDims, nil)
	targets := mat.NewDense(len(batch), l.stateDims, nil)
	for i, obs := range batch {
		for j := 0; j < l.stateDims; j++ {
			inputs.Set(i, j, obs.State.AtVec(j))
			targets.Set(i, j, obs.NextState.AtVec(j))
		}
		for j := 0; j < l.actionDims; j++ {
			inputs.Set(i, l.stateDims+j, obs.Action.AtVec(j))
		}
	}

	var theta mat.Dense
	if err := theta.Solve(inputs, targets); err != nil {
		// An ill-conditioned system is a warning, not a failure
		if _, ok := err.(mat.Condition); !ok {
			return fmt.Errorf("fit: could not solve least squares: %v",
				err)
		}
	}

	for i := 0; i < l.stateDims; i++ {
		for j := 0; j < l.stateDims; j++ {
			l.a.Set(i, j, theta.At(j, i))
		}
		for j := 0; j < l.actionDims; j++ {
			l.b.Set(i, j, theta.At(l.stateDims+j, i))
		}
	}
	return nil
}

// Dynamics returns copies of the model's dynamics matrices
func (l *LinearModel) Dynamics() (a, b *mat.Dense) {
	return mat.DenseCopyOf(l.a), mat.DenseCopyOf(l.b)
}
