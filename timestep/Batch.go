package timestep

import "gonum.org/v1/gonum/mat"

// BatchedObservation packages together one step of many parallel
// imagined transitions, such as those generated by rolling a policy
// through a learned dynamics model. Each field holds one row per
// parallel transition.
//
// Rows whose Dones entry is true were already terminated before this
// step was taken and carry their previous state forward unchanged.
type BatchedObservation struct {
	States     *mat.Dense
	Actions    *mat.Dense
	NextStates *mat.Dense
	Rewards    []float64
	Dones      []bool
	LogProbs   []float64
}

// BatchSize returns the number of parallel transitions in the batch
func (b BatchedObservation) BatchSize() int {
	r, _ := b.States.Dims()
	return r
}

// BootstrapMasks returns the discounting masks of the batch: 0.0 for
// terminated rows and 1.0 otherwise
func (b BatchedObservation) BootstrapMasks() []float64 {
	masks := make([]float64, len(b.Dones))
	for i, done := range b.Dones {
		if !done {
			masks[i] = 1.0
		}
	}
	return masks
}

// BatchedTrajectory is an ordered sequence of batched steps produced
// by a single batched model rollout. Conceptually it holds one
// Trajectory per batch row, stored step-major.
type BatchedTrajectory []BatchedObservation
