// Package timestep implements single timesteps of the agent-environment
// interaction and trajectories of such timesteps
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Observation packages together a single transition of the
// agent-environment interaction: the state the agent was in, the action
// it took, the reward it received, and the state it ended up in.
//
// Done records whether the environment terminated the episode on this
// transition. A trajectory that was cut off by a step limit has
// Done == false on its final Observation, distinguishing true terminal
// states from truncation. Bootstrapped targets rely on this
// distinction.
//
// An Observation is immutable once created: it is stored and read by
// replay buffers and algorithms but never modified.
type Observation struct {
	State     mat.Vector
	Action    mat.Vector
	Reward    float64
	NextState mat.Vector
	Done      bool
	LogProb   float64
	Entropy   float64
	Extra     map[string]float64
}

// New creates and returns a new Observation of a single transition
func New(state, action mat.Vector, reward float64, nextState mat.Vector,
	done bool) Observation {
	return Observation{
		State:     state,
		Action:    action,
		Reward:    reward,
		NextState: nextState,
		Done:      done,
	}
}

// BootstrapMask returns the discounting mask of the Observation: 0.0
// if the environment terminated on this transition and 1.0 otherwise
func (o Observation) BootstrapMask() float64 {
	if o.Done {
		return 0.0
	}
	return 1.0
}

func (o Observation) String() string {
	str := "Observation | Reward: %.2f  |  Done: %v  |  State: %v  |  " +
		"Action: %v"
	return fmt.Sprintf(str, o.Reward, o.Done, mat.Formatted(o.State.T()),
		mat.Formatted(o.Action.T()))
}

// Trajectory is an ordered sequence of Observations generated by a
// single rollout episode
type Trajectory []Observation

// States returns the states of the Trajectory as a matrix with one
// state per row
func (t Trajectory) States() *mat.Dense {
	return stack(t, func(o Observation) mat.Vector { return o.State })
}

// NextStates returns the successor states of the Trajectory as a
// matrix with one state per row
func (t Trajectory) NextStates() *mat.Dense {
	return stack(t, func(o Observation) mat.Vector { return o.NextState })
}

// Actions returns the actions of the Trajectory as a matrix with one
// action per row
func (t Trajectory) Actions() *mat.Dense {
	return stack(t, func(o Observation) mat.Vector { return o.Action })
}

// Rewards returns the per-transition rewards of the Trajectory
func (t Trajectory) Rewards() []float64 {
	rewards := make([]float64, len(t))
	for i, o := range t {
		rewards[i] = o.Reward
	}
	return rewards
}

// Return computes the discounted return of the Trajectory
func (t Trajectory) Return(gamma float64) float64 {
	var ret float64
	discount := 1.0
	for _, o := range t {
		ret += discount * o.Reward
		discount *= gamma
	}
	return ret
}

// Terminated returns whether the Trajectory ended because the
// environment signalled termination, as opposed to being cut off by a
// step limit
func (t Trajectory) Terminated() bool {
	if len(t) == 0 {
		return false
	}
	return t[len(t)-1].Done
}

func stack(t Trajectory, field func(Observation) mat.Vector) *mat.Dense {
	if len(t) == 0 {
		return &mat.Dense{}
	}
	cols := field(t[0]).Len()
	m := mat.NewDense(len(t), cols, nil)
	for i, o := range t {
		v := field(o)
		for j := 0; j < cols; j++ {
			m.Set(i, j, v.AtVec(j))
		}
	}
	return m
}
