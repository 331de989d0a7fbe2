// Package algorithm implements the loss construction of
// reinforcement-learning algorithms: given batches of transitions and
// the function approximators being trained, each algorithm produces a
// named set of scalar losses and accumulates the matching gradients,
// and maintains the lagged target copies its losses bootstrap from.
package algorithm

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/timestep"
)

// Loss is the named tuple of scalar loss terms produced by one
// algorithm update, plus auxiliary diagnostics for logging. A Loss is
// produced fresh on every call and is read-only.
type Loss struct {
	Actor   float64
	Critic  float64
	Dual    float64
	Entropy float64

	// Diagnostics
	TDError float64
	KL      float64
}

// Scalars returns the loss terms as named scalar metrics
func (l Loss) Scalars() map[string]float64 {
	return map[string]float64{
		"actor_loss":   l.Actor,
		"critic_loss":  l.Critic,
		"dual_loss":    l.Dual,
		"entropy_loss": l.Entropy,
		"td_error":     l.TDError,
		"kl":           l.KL,
	}
}

func (l Loss) String() string {
	return fmt.Sprintf("Loss | Actor: %.4f  |  Critic: %.4f  |  "+
		"Dual: %.4f  |  TD: %.4f", l.Actor, l.Critic, l.Dual, l.TDError)
}

// Algorithm converts a batch of transitions into a Loss, accumulating
// the gradients of the loss into the trainable parameters returned by
// Model as a side effect. The caller owns zeroing gradients before
// Forward and stepping a solver afterwards.
//
// Algorithms hold no per-call state, but own long-lived target-network
// state synchronized through SyncTargets.
type Algorithm interface {
	Forward(batch []timestep.Observation) (Loss, error)

	// Model returns the parameters trained by the algorithm's losses.
	// Target copies are never part of the model.
	Model() []G.ValueGrad

	// SyncTargets updates the algorithm's target copies towards the
	// trained parameters: a hard copy when tau >= 1 and an exponential
	// moving average otherwise
	SyncTargets(tau float64)
}

// TrajectoryAlgorithm converts whole trajectories into a Loss. It is
// the contract of on-policy algorithms, which must train on data from
// the current policy only.
type TrajectoryAlgorithm interface {
	ForwardTrajectories(trajectories []timestep.Trajectory) (Loss, error)
	Model() []G.ValueGrad
	SyncTargets(tau float64)
}

// validateBatch checks that every transition in a batch agrees on
// state and action dimensions
func validateBatch(op string, batch []timestep.Observation) error {
	if len(batch) == 0 {
		return fmt.Errorf("%v: cannot compute loss on empty batch", op)
	}

	stateDims := batch[0].State.Len()
	actionDims := batch[0].Action.Len()
	for _, obs := range batch {
		if obs.State.Len() != stateDims || obs.NextState.Len() != stateDims {
			return &ShapeMismatchError{
				Op:   op,
				Want: stateDims,
				Have: obs.NextState.Len(),
			}
		}
		if obs.Action.Len() != actionDims {
			return &ShapeMismatchError{
				Op:   op,
				Want: actionDims,
				Have: obs.Action.Len(),
			}
		}
	}
	return nil
}
