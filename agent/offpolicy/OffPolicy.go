// Package offpolicy implements agents that train from replayed
// experience: an off-policy agent appends every transition to an
// experience replay buffer and periodically trains its algorithm on
// uniformly sampled minibatches.
package offpolicy

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/algorithm"
	"github.com/samuelfneumann/gorl/decay"
	"github.com/samuelfneumann/gorl/expreplay"
	"github.com/samuelfneumann/gorl/solver"
	"github.com/samuelfneumann/gorl/timestep"
)

// behaviour is the action-selection view of a trainable policy:
// exploratory actions during training and greedy actions during
// evaluation
type behaviour interface {
	TrainAction(state mat.Vector) *mat.VecDense
	EvalAction(state mat.Vector) *mat.VecDense
	ActionDims() int
}

// delayedPolicyUpdater is satisfied by algorithms whose actor loss
// can be gated off on a subset of updates
type delayedPolicyUpdater interface {
	SetUpdatePolicy(bool)
}

// OffPolicy drives any off-policy algorithm through the agent
// lifecycle. Every observed transition is appended to the replay
// buffer, and every trainFrequency'th environment step triggers one
// gradient update on a sampled minibatch. Target networks are synced
// every targetUpdateFrequency updates and the actor loss is gated to
// every policyUpdateFrequency'th update when the algorithm supports
// delayed policy updates.
//
// For the first explorationSteps environment steps the agent takes
// uniform random actions and never trains, seeding the buffer with
// off-policy data. An empty or underfilled buffer is never an error:
// training silently waits for data. All other errors from the update
// path propagate unmodified.
type OffPolicy struct {
	alg       algorithm.Algorithm
	model     []G.ValueGrad
	sol       *solver.Solver
	behaviour behaviour
	replay    *expreplay.ExperienceReplay
	schedules []decay.Schedule

	batchSize             int
	trainFrequency        int
	targetUpdateFrequency int
	policyUpdateFrequency int
	tau                   float64

	explorationSteps   int
	minAction          float64
	maxAction          float64
	rng                *rand.Rand

	steps   int
	updates int
	eval    bool
	logger  zerolog.Logger
}

// New creates a new OffPolicy agent driving alg. The model trained by
// sol is taken from alg, and minAction and maxAction bound the
// uniform random actions of the initial exploration phase.
func New(alg algorithm.Algorithm, sol *solver.Solver, b behaviour,
	replay *expreplay.ExperienceReplay, schedules []decay.Schedule,
	batchSize, trainFrequency, targetUpdateFrequency,
	policyUpdateFrequency, explorationSteps int, tau, minAction,
	maxAction float64, seed uint64,
	logger zerolog.Logger) (*OffPolicy, error) {
	if batchSize < 1 {
		return nil, fmt.Errorf("offpolicy: batch size must be positive, "+
			"got %v", batchSize)
	}
	if trainFrequency < 1 || targetUpdateFrequency < 1 ||
		policyUpdateFrequency < 1 {
		return nil, fmt.Errorf("offpolicy: update frequencies must be " +
			"positive")
	}

	return &OffPolicy{
		alg:                   alg,
		model:                 alg.Model(),
		sol:                   sol,
		behaviour:             b,
		replay:                replay,
		schedules:             schedules,
		batchSize:             batchSize,
		trainFrequency:        trainFrequency,
		targetUpdateFrequency: targetUpdateFrequency,
		policyUpdateFrequency: policyUpdateFrequency,
		tau:                   tau,
		explorationSteps:      explorationSteps,
		minAction:             minAction,
		maxAction:             maxAction,
		rng:                   rand.New(rand.NewSource(seed)),
		logger:                logger,
	}, nil
}

// ObserveFirst records the starting state of a new episode
func (o *OffPolicy) ObserveFirst(state mat.Vector) {}

// SelectAction chooses the action to take at state: greedy in
// evaluation mode, uniform random during the exploration phase, and
// exploratory otherwise
func (o *OffPolicy) SelectAction(state mat.Vector) *mat.VecDense {
	if o.eval {
		return o.behaviour.EvalAction(state)
	}
	if o.steps < o.explorationSteps {
		action := mat.NewVecDense(o.behaviour.ActionDims(), nil)
		for i := 0; i < action.Len(); i++ {
			action.SetVec(i, o.minAction+
				(o.maxAction-o.minAction)*o.rng.Float64())
		}
		return action
	}
	return o.behaviour.TrainAction(state)
}

// Observe appends a transition to the replay buffer
func (o *OffPolicy) Observe(obs timestep.Observation) error {
	if o.eval {
		return nil
	}
	o.replay.Append(obs)
	o.steps++
	return nil
}

// Step trains the algorithm on a sampled minibatch if the agent is
// due for an update
func (o *OffPolicy) Step() error {
	if o.eval || o.steps <= o.explorationSteps ||
		o.steps%o.trainFrequency != 0 {
		return nil
	}
	// Updates on a half-filled buffer would train on heavily repeated
	// samples
	if o.replay.Len() < o.batchSize {
		return nil
	}

	batch, err := o.replay.SampleBatch(o.batchSize)
	if err != nil {
		if expreplay.IsEmptyBuffer(err) {
			return nil
		}
		return err
	}

	if delayed, ok := o.alg.(delayedPolicyUpdater); ok {
		delayed.SetUpdatePolicy((o.updates+1)%o.policyUpdateFrequency == 0)
	}

	solver.ZeroGrad(o.model)
	loss, err := o.alg.Forward(batch)
	if err != nil {
		return fmt.Errorf("step: %v", err)
	}
	if err := o.sol.Step(o.model); err != nil {
		return fmt.Errorf("step: could not adapt weights: %v", err)
	}
	o.updates++

	if o.updates%o.targetUpdateFrequency == 0 {
		o.alg.SyncTargets(o.tau)
	}
	for _, schedule := range o.schedules {
		schedule.Update()
	}

	o.logger.Debug().
		Int("step", o.steps).
		Int("update", o.updates).
		Float64("actorLoss", loss.Actor).
		Float64("criticLoss", loss.Critic).
		Float64("tdError", loss.TDError).
		Msg("train")

	return nil
}

// EndEpisode performs end-of-episode bookkeeping
func (o *OffPolicy) EndEpisode() error {
	return nil
}

// Eval sets the agent to evaluation mode
func (o *OffPolicy) Eval() { o.eval = true }

// Train sets the agent to training mode
func (o *OffPolicy) Train() { o.eval = false }

// IsEval indicates whether the agent is in evaluation mode
func (o *OffPolicy) IsEval() bool { return o.eval }

// Model returns the parameters the agent trains, for checkpointing
func (o *OffPolicy) Model() []G.ValueGrad { return o.model }

// TotalSteps returns the number of environment steps observed
func (o *OffPolicy) TotalSteps() int { return o.steps }

// TotalUpdates returns the number of gradient updates performed
func (o *OffPolicy) TotalUpdates() int { return o.updates }
