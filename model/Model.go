// Package model outlines the interfaces of learned dynamics models
// and implements linear dynamics models learnable from replayed
// transitions
package model

import "gonum.org/v1/gonum/mat"

// Dynamics predicts successor states for a batch of state-action
// pairs. Inputs and outputs hold one transition per row.
type Dynamics interface {
	NextStates(states, actions *mat.Dense) (*mat.Dense, error)
}

// Rewards predicts per-row rewards for a batch of transitions
type Rewards interface {
	Reward(states, actions, nextStates *mat.Dense) ([]float64, error)
}

// Termination decides per-row episode termination for a batch of
// transitions
type Termination func(states, actions, nextStates *mat.Dense) []bool

// NeverTerminate is a Termination for continuing tasks
func NeverTerminate(states, _, _ *mat.Dense) []bool {
	rows, _ := states.Dims()
	return make([]bool, rows)
}
