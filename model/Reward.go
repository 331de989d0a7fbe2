package model

import "gonum.org/v1/gonum/mat"

// QuadraticCost is a known reward model assigning reward
// -(xᵀx + ρ uᵀu) to each transition, the negative quadratic
// regulation cost of a linear system with action cost ρ
type QuadraticCost struct {
	ActionCost float64
}

// Reward returns the per-row rewards of a batch of transitions
func (q QuadraticCost) Reward(states, actions,
	_ *mat.Dense) ([]float64, error) {
	rows, stateDims := states.Dims()
	_, actionDims := actions.Dims()

	rewards := make([]float64, rows)
	for i := 0; i < rows; i++ {
		var cost float64
		for j := 0; j < stateDims; j++ {
			cost += states.At(i, j) * states.At(i, j)
		}
		for j := 0; j < actionDims; j++ {
			cost += q.ActionCost * actions.At(i, j) * actions.At(i, j)
		}
		rewards[i] = -cost
	}
	return rewards, nil
}
