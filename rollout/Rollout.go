// Package rollout implements the engine that drives interaction
// between policies or agents and environments or learned dynamics
// models, producing trajectories of observations
package rollout

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/model"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/timestep"
)

// StepEnv applies one action to a live environment and wraps the raw
// return into an Observation. The environment's reported termination
// is authoritative: the returned Observation carries it unmodified.
func StepEnv(env environment.Environment, state mat.Vector,
	action mat.Vector) (timestep.Observation, mat.Vector, bool, error) {
	nextState, reward, done, err := env.Step(action)
	if err != nil {
		return timestep.Observation{}, nil, false, &EnvironmentError{
			Op:  "stepEnv",
			Err: err,
		}
	}
	if nextState == nil || nextState.Len() != state.Len() {
		return timestep.Observation{}, nil, false, &EnvironmentError{
			Op: "stepEnv",
			Err: fmt.Errorf("malformed next state \n\twant length "+
				"(%v)\n\thave (%v)", state.Len(), lenOrNil(nextState)),
		}
	}

	obs := timestep.New(state, action, reward, nextState, done)
	return obs, nextState, done, nil
}

func lenOrNil(v mat.Vector) interface{} {
	if v == nil {
		return "nil"
	}
	return v.Len()
}

// StepModel applies one batch of actions to a learned dynamics model.
// Rows that are already terminated are not advanced: their successor
// state equals their state, their reward is zero, and they stay
// terminated.
func StepModel(dynamics model.Dynamics, rewards model.Rewards,
	termination model.Termination, states, actions *mat.Dense,
	done []bool) (timestep.BatchedObservation, *mat.Dense, []bool, error) {
	rows, cols := states.Dims()
	if len(done) != rows {
		return timestep.BatchedObservation{}, nil, nil,
			fmt.Errorf("stepModel: mismatched done mask length "+
				"\n\twant(%v)\n\thave(%v)", rows, len(done))
	}

	nextStates, err := dynamics.NextStates(states, actions)
	if err != nil {
		return timestep.BatchedObservation{}, nil, nil,
			fmt.Errorf("stepModel: %v", err)
	}

	rewardBatch, err := rewards.Reward(states, actions, nextStates)
	if err != nil {
		return timestep.BatchedObservation{}, nil, nil,
			fmt.Errorf("stepModel: %v", err)
	}

	terminated := termination(states, actions, nextStates)
	nextDone := make([]bool, rows)
	for i := 0; i < rows; i++ {
		if done[i] {
			// Carry terminated rows forward unchanged
			for j := 0; j < cols; j++ {
				nextStates.Set(i, j, states.At(i, j))
			}
			rewardBatch[i] = 0.0
			nextDone[i] = true
			continue
		}
		nextDone[i] = terminated[i]
	}

	obs := timestep.BatchedObservation{
		States:     mat.DenseCopyOf(states),
		Actions:    mat.DenseCopyOf(actions),
		NextStates: nextStates,
		Rewards:    rewardBatch,
		Dones:      append([]bool{}, done...),
	}
	return obs, nextStates, nextDone, nil
}

// RolloutPolicy runs numEpisodes episodes of a policy in an
// environment and returns one Trajectory per episode. Each episode
// ends when the environment reports termination or after maxSteps
// transitions, whichever comes first. A trajectory cut off by
// maxSteps has Done == false on its final Observation.
//
// RolloutPolicy keeps no state across calls besides the environment's
// own, so it is restartable.
func RolloutPolicy(env environment.Environment, pol policy.Policy,
	numEpisodes, maxSteps int) ([]timestep.Trajectory, error) {
	trajectories := make([]timestep.Trajectory, 0, numEpisodes)

	for episode := 0; episode < numEpisodes; episode++ {
		state, err := env.Reset()
		if err != nil {
			return nil, &EnvironmentError{Op: "rolloutPolicy", Err: err}
		}

		trajectory := make(timestep.Trajectory, 0, maxSteps)
		for step := 0; step < maxSteps; step++ {
			action, logProb, entropy := pol.SelectAction(state)

			obs, nextState, done, err := StepEnv(env, state, action)
			if err != nil {
				return nil, err
			}
			obs.LogProb = logProb
			obs.Entropy = entropy

			trajectory = append(trajectory, obs)
			state = nextState
			if done {
				break
			}
		}
		trajectories = append(trajectories, trajectory)
	}

	return trajectories, nil
}

// RolloutModel runs one imagined rollout of a policy through a
// learned dynamics model, starting from a batch of initial states
// with one state per row. The returned BatchedTrajectory conceptually
// holds one trajectory per batch row. Already-terminated rows are
// never advanced.
func RolloutModel(dynamics model.Dynamics, rewards model.Rewards,
	termination model.Termination, pol policy.Policy,
	initialStates *mat.Dense,
	maxSteps int) (timestep.BatchedTrajectory, error) {
	rows, _ := initialStates.Dims()
	states := mat.DenseCopyOf(initialStates)
	done := make([]bool, rows)

	trajectory := make(timestep.BatchedTrajectory, 0, maxSteps)
	for step := 0; step < maxSteps; step++ {
		actions := mat.NewDense(rows, pol.ActionDims(), nil)
		logProbs := make([]float64, rows)
		for i := 0; i < rows; i++ {
			action, logProb, _ := pol.SelectAction(states.RowView(i))
			actions.SetRow(i, action.RawVector().Data)
			logProbs[i] = logProb
		}

		obs, nextStates, nextDone, err := StepModel(dynamics, rewards,
			termination, states, actions, done)
		if err != nil {
			return nil, fmt.Errorf("rolloutModel: %v", err)
		}
		obs.LogProbs = logProbs

		trajectory = append(trajectory, obs)
		states = nextStates
		done = nextDone

		if allDone(done) {
			break
		}
	}

	return trajectory, nil
}

// RolloutActions runs one deterministic imagined rollout of a fixed
// action sequence through a learned dynamics model, with no policy
// sampling. Element t of actionSequence holds the batch of actions
// applied at step t, one row per initial state. The returned
// trajectory contains exactly len(actionSequence) steps unless every
// row terminates earlier.
func RolloutActions(dynamics model.Dynamics, rewards model.Rewards,
	termination model.Termination, actionSequence []*mat.Dense,
	initialStates *mat.Dense) (timestep.BatchedTrajectory, error) {
	rows, _ := initialStates.Dims()
	states := mat.DenseCopyOf(initialStates)
	done := make([]bool, rows)

	trajectory := make(timestep.BatchedTrajectory, 0, len(actionSequence))
	for t, actions := range actionSequence {
		actionRows, _ := actions.Dims()
		if actionRows != rows {
			return nil, fmt.Errorf("rolloutActions: step %v: mismatched "+
				"batch sizes (%v states, %v actions)", t, rows, actionRows)
		}

		obs, nextStates, nextDone, err := StepModel(dynamics, rewards,
			termination, states, actions, done)
		if err != nil {
			return nil, fmt.Errorf("rolloutActions: %v", err)
		}

		trajectory = append(trajectory, obs)
		states = nextStates
		done = nextDone

		if allDone(done) {
			break
		}
	}

	return trajectory, nil
}

func allDone(done []bool) bool {
	for _, d := range done {
		if !d {
			return false
		}
	}
	return len(done) > 0
}

// Agent is the view of an agent that RolloutAgent drives: an episode
// lifecycle around incremental observation and training
type Agent interface {
	// ObserveFirst records the starting state of a new episode
	ObserveFirst(state mat.Vector)

	// SelectAction chooses the action to take at state
	SelectAction(state mat.Vector) *mat.VecDense

	// Observe records a single transition
	Observe(obs timestep.Observation) error

	// Step performs zero or more training updates. Called after every
	// Observe, so agents may train mid-episode.
	Step() error

	// EndEpisode performs end-of-episode bookkeeping and training
	EndEpisode() error
}

// StepCallback is called with every Observation generated by
// RolloutAgent, in order. Callbacks are used by experiment drivers
// for tracking and checkpointing.
type StepCallback func(timestep.Observation)

// RolloutAgent runs numEpisodes episodes of an agent in an
// environment, feeding the agent each Observation as it is generated
// so that online algorithms can train mid-episode. Errors from the
// agent's update path propagate unmodified and terminate the run:
// silently continuing on corrupted gradients is never safe.
func RolloutAgent(env environment.Environment, agent Agent, numEpisodes,
	maxSteps int, callbacks ...StepCallback) error {
	if numEpisodes < 1 || maxSteps < 1 {
		return errors.New("rolloutAgent: numEpisodes and maxSteps must " +
			"be positive")
	}

	for episode := 0; episode < numEpisodes; episode++ {
		state, err := env.Reset()
		if err != nil {
			return &EnvironmentError{Op: "rolloutAgent", Err: err}
		}
		agent.ObserveFirst(state)

		for step := 0; step < maxSteps; step++ {
			action := agent.SelectAction(state)

			obs, nextState, done, err := StepEnv(env, state, action)
			if err != nil {
				return err
			}

			if err := agent.Observe(obs); err != nil {
				return fmt.Errorf("rolloutAgent: %v", err)
			}
			for _, callback := range callbacks {
				callback(obs)
			}

			if err := agent.Step(); err != nil {
				return fmt.Errorf("rolloutAgent: %v", err)
			}

			state = nextState
			if done {
				break
			}
		}

		if err := agent.EndEpisode(); err != nil {
			return fmt.Errorf("rolloutAgent: %v", err)
		}
	}

	return nil
}
