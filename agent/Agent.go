// Package agent defines the agent interface and its configurations
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/timestep"
)

// Agent couples a learning algorithm with the policy it trains.
//
// An Agent is driven through an episode lifecycle: ObserveFirst at
// each episode start, then repeated SelectAction, Observe, and Step
// calls for each transition, and EndEpisode when the episode finishes.
// Step may train after any transition, so online agents update
// mid-episode while batch agents wait for EndEpisode.
//
// Agents in evaluation mode act greedily and never record transitions
// or update weights.
type Agent interface {
	// ObserveFirst records the starting state of a new episode
	ObserveFirst(state mat.Vector)

	// SelectAction chooses the action to take at state
	SelectAction(state mat.Vector) *mat.VecDense

	// Observe records a single transition
	Observe(obs timestep.Observation) error

	// Step performs zero or more training updates
	Step() error

	// EndEpisode performs end-of-episode bookkeeping and training
	EndEpisode() error

	Eval()        // Set agent to evaluation mode
	Train()       // Set agent to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// Config represents a configuration for creating an agent
type Config interface {
	// CreateAgent creates the agent that the config describes
	CreateAgent(env environment.Environment, seed uint64) (Agent, error)

	// Validate returns an error describing whether or not the
	// configuration is valid
	Validate() error
}
