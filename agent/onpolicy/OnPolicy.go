// Package onpolicy implements agents that train on trajectories
// generated by the current policy: transitions accumulate into whole
// trajectories, the algorithm updates once enough trajectories have
// finished, and all accumulated data is discarded after every update.
package onpolicy

import (
	"fmt"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/algorithm"
	"github.com/samuelfneumann/gorl/decay"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/solver"
	"github.com/samuelfneumann/gorl/timestep"
)

// OnPolicy drives a trajectory algorithm through the agent lifecycle.
// Observed transitions accumulate into the current trajectory, which
// moves to the completed set at EndEpisode; once numRollouts
// trajectories have completed, the algorithm performs one update and
// every accumulated trajectory is discarded, trained on or not.
type OnPolicy struct {
	alg       algorithm.TrajectoryAlgorithm
	model     []G.ValueGrad
	sol       *solver.Solver
	pol       *policy.LinearGaussian
	schedules []decay.Schedule

	numRollouts int
	numEpochs   int
	maxKL       float64
	current     timestep.Trajectory
	completed   []timestep.Trajectory

	eval   bool
	logger zerolog.Logger
}

// New creates a new OnPolicy agent driving alg, updating after every
// numRollouts completed episodes
func New(alg algorithm.TrajectoryAlgorithm, sol *solver.Solver,
	pol *policy.LinearGaussian, schedules []decay.Schedule,
	numRollouts int, logger zerolog.Logger) (*OnPolicy, error) {
	if numRollouts < 1 {
		return nil, fmt.Errorf("onpolicy: rollout count must be "+
			"positive, got %v", numRollouts)
	}

	return &OnPolicy{
		alg:         alg,
		model:       alg.Model(),
		sol:         sol,
		pol:         pol,
		schedules:   schedules,
		numRollouts: numRollouts,
		numEpochs:   1,
		logger:      logger,
	}, nil
}

// SetEpochs sets the number of gradient steps taken over the
// accumulated trajectories at every update. When maxKL is positive,
// epochs stop early once the algorithm's KL estimate exceeds it, the
// way proximal methods bound policy drift between refreshes.
func (o *OnPolicy) SetEpochs(numEpochs int, maxKL float64) error {
	if numEpochs < 1 {
		return fmt.Errorf("setEpochs: epoch count must be positive, "+
			"got %v", numEpochs)
	}
	o.numEpochs = numEpochs
	o.maxKL = maxKL
	return nil
}

// ObserveFirst records the starting state of a new episode
func (o *OnPolicy) ObserveFirst(state mat.Vector) {
	o.current = o.current[:0]
}

// SelectAction chooses the action to take at state: a policy sample
// while training and the distribution mean while evaluating
func (o *OnPolicy) SelectAction(state mat.Vector) *mat.VecDense {
	if o.eval {
		return o.pol.Mean(state)
	}
	action, _, _ := o.pol.SelectAction(state)
	return action
}

// Observe appends a transition to the current trajectory, attaching
// the policy's log probability and entropy at the recorded action
func (o *OnPolicy) Observe(obs timestep.Observation) error {
	if o.eval {
		return nil
	}

	logProb, err := o.pol.LogProb(obs.State, obs.Action)
	if err != nil {
		return fmt.Errorf("observe: %v", err)
	}
	obs.LogProb = logProb
	obs.Entropy = o.pol.Entropy(obs.State)

	o.current = append(o.current, obs)
	return nil
}

// Step is a no-op: on-policy agents train only on whole trajectories
func (o *OnPolicy) Step() error {
	return nil
}

// EndEpisode completes the current trajectory and trains once enough
// trajectories have accumulated
func (o *OnPolicy) EndEpisode() error {
	if o.eval || len(o.current) == 0 {
		return nil
	}

	trajectory := make(timestep.Trajectory, len(o.current))
	copy(trajectory, o.current)
	o.completed = append(o.completed, trajectory)
	o.current = o.current[:0]

	if len(o.completed) < o.numRollouts {
		return nil
	}

	var loss algorithm.Loss
	for epoch := 0; epoch < o.numEpochs; epoch++ {
		solver.ZeroGrad(o.model)

		var err error
		loss, err = o.alg.ForwardTrajectories(o.completed)
		if err != nil {
			return fmt.Errorf("endEpisode: %v", err)
		}
		if err := o.sol.Step(o.model); err != nil {
			return fmt.Errorf("endEpisode: could not adapt weights: %v",
				err)
		}
		if o.maxKL > 0 && loss.KL > o.maxKL {
			break
		}
	}

	// Data is stale once the policy changes
	o.completed = o.completed[:0]

	for _, schedule := range o.schedules {
		schedule.Update()
	}

	o.logger.Debug().
		Float64("actorLoss", loss.Actor).
		Float64("criticLoss", loss.Critic).
		Float64("tdError", loss.TDError).
		Msg("train")

	return nil
}

// Eval sets the agent to evaluation mode
func (o *OnPolicy) Eval() { o.eval = true }

// Train sets the agent to training mode
func (o *OnPolicy) Train() { o.eval = false }

// IsEval indicates whether the agent is in evaluation mode
func (o *OnPolicy) IsEval() bool { return o.eval }
