// Package environment outlines the interfaces that concrete
// environments must implement to interact with the training loop
package environment

import "gonum.org/v1/gonum/mat"

// Environment implements a simulated environment. The training loop
// treats Step and Reset as synchronous, opaque calls: an Environment
// carries its own state and must be re-usable after an episode
// terminates by calling Reset.
type Environment interface {
	// Reset starts a new episode and returns its starting state
	Reset() (mat.Vector, error)

	// Step applies one action, returning the next state, the reward
	// for the transition, and whether the episode terminated
	Step(action mat.Vector) (mat.Vector, float64, bool, error)

	// ObservationDims and ActionDims return the sizes of state and
	// action vectors produced and consumed by the Environment
	ObservationDims() int
	ActionDims() int
}

// Starter implements a distribution of starting states and samples
// starting states for environments and for imagined model rollouts
type Starter interface {
	Start() mat.Vector
}
