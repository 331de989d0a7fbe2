// Package policy implements action-selection policies and outlines
// the interfaces algorithms use to interact with them
package policy

import "gonum.org/v1/gonum/mat"

// Policy is a stochastic policy: a state-conditional action
// distribution that can be sampled and scored
type Policy interface {
	// SelectAction samples an action from the policy's action
	// distribution at state, returning the action together with its
	// log probability and the distribution's entropy at state
	SelectAction(state mat.Vector) (action *mat.VecDense, logProb,
		entropy float64)

	// LogProb returns the log probability of taking action in state
	LogProb(state, action mat.Vector) (float64, error)

	ActionDims() int
}

// Deterministic is a policy that emits a point action per state, with
// optional exploration noise injection
type Deterministic interface {
	// Action returns the noiseless action at state
	Action(state mat.Vector) *mat.VecDense

	// NoisyAction returns the action at state perturbed by
	// exploration noise
	NoisyAction(state mat.Vector) *mat.VecDense

	ActionDims() int
}
