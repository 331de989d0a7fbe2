package expreplay

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// StateExperienceReplay is a bounded ring buffer that stores only
// states. It is used to seed model-based rollouts with a diverse set
// of previously visited initial states. Ring and sampling semantics
// are identical to ExperienceReplay, restricted to the state field.
type StateExperienceReplay struct {
	states   []mat.Vector
	cursor   int
	count    int
	capacity int
	rng      *rand.Rand
}

// NewState creates and returns a new StateExperienceReplay with the
// given fixed capacity
func NewState(capacity int, seed uint64) (*StateExperienceReplay, error) {
	if capacity < 1 {
		return nil, &ExpReplayError{
			Op:  "newState",
			Err: errInvalidCapacity,
		}
	}
	return &StateExperienceReplay{
		states:   make([]mat.Vector, capacity),
		capacity: capacity,
		rng:      rand.New(rand.NewSource(seed)),
	}, nil
}

// Append inserts a state at the write cursor, overwriting the oldest
// state if the buffer is at capacity
func (s *StateExperienceReplay) Append(state mat.Vector) {
	s.states[s.cursor] = state
	s.cursor = (s.cursor + 1) % s.capacity
	if s.count < s.capacity {
		s.count++
	}
}

// SampleBatch draws batchSize states uniformly at random with
// replacement and returns them as a matrix with one state per row
func (s *StateExperienceReplay) SampleBatch(batchSize int) (*mat.Dense,
	error) {
	if s.count == 0 {
		return nil, &ExpReplayError{Op: "sampleBatch", Err: errEmptyBuffer}
	}

	dims := s.states[0].Len()
	batch := mat.NewDense(batchSize, dims, nil)
	for i := 0; i < batchSize; i++ {
		state := s.states[s.rng.Intn(s.count)]
		for j := 0; j < dims; j++ {
			batch.Set(i, j, state.AtVec(j))
		}
	}
	return batch, nil
}

// Len returns the current number of valid states in the buffer
func (s *StateExperienceReplay) Len() int {
	return s.count
}

// MaxCapacity returns the fixed capacity of the buffer
func (s *StateExperienceReplay) MaxCapacity() int {
	return s.capacity
}
