// Package expreplay implements experience replay buffers
package expreplay

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/samuelfneumann/gorl/timestep"
)

// DefaultMaskProb is the default Bernoulli inclusion probability for
// bootstrap masks. Each stored transition is included in the training
// set of each ensemble member independently with this probability.
const DefaultMaskProb float64 = 0.5

// ExperienceReplay is a bounded ring buffer of past transitions.
//
// The buffer has a fixed capacity set at construction. Appending once
// the buffer is full overwrites the oldest entry, so sampling is
// always over exactly the most recent Len() entries. Append is O(1)
// and sampling is O(batch size).
//
// If constructed with NewBootstrap, the buffer additionally draws a
// per-ensemble-member Bernoulli inclusion mask for every appended
// transition. SampleBootstrapBatch then restricts sampling to the
// entries whose mask includes a given member, so that each member of
// an ensemble trains on a different resampled view of the same
// underlying data.
//
// An ExperienceReplay is exclusively owned by a single agent and must
// not be mutated concurrently.
type ExperienceReplay struct {
	observations []timestep.Observation
	masks        [][]bool

	cursor   int
	count    int
	capacity int

	numEnsemble int
	maskDist    distuv.Bernoulli
	rng         *rand.Rand
}

// New creates and returns a new ExperienceReplay with the given fixed
// capacity
func New(capacity int, seed uint64) (*ExperienceReplay, error) {
	return NewBootstrap(capacity, 0, DefaultMaskProb, seed)
}

// NewBootstrap creates and returns a new ExperienceReplay that also
// stores bootstrap inclusion masks for numEnsemble ensemble members,
// each drawn Bernoulli(maskProb) at append time.
func NewBootstrap(capacity, numEnsemble int, maskProb float64,
	seed uint64) (*ExperienceReplay, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("newBootstrap: capacity must be >= 1, "+
			"got %v", capacity)
	}
	if numEnsemble < 0 {
		return nil, fmt.Errorf("newBootstrap: numEnsemble must be >= 0, "+
			"got %v", numEnsemble)
	}
	if maskProb <= 0 || maskProb > 1 {
		return nil, fmt.Errorf("newBootstrap: maskProb must be in (0, 1], "+
			"got %v", maskProb)
	}

	source := rand.NewSource(seed)
	e := &ExperienceReplay{
		observations: make([]timestep.Observation, capacity),
		capacity:     capacity,
		numEnsemble:  numEnsemble,
		maskDist:     distuv.Bernoulli{P: maskProb, Src: source},
		rng:          rand.New(source),
	}
	if numEnsemble > 0 {
		e.masks = make([][]bool, capacity)
	}
	return e, nil
}

// Append inserts an Observation at the write cursor, overwriting the
// oldest entry if the buffer is at capacity. If the buffer stores
// bootstrap masks, the inclusion mask of the new entry is drawn here,
// once, and never redrawn.
func (e *ExperienceReplay) Append(obs timestep.Observation) {
	e.observations[e.cursor] = obs

	if e.numEnsemble > 0 {
		mask := make([]bool, e.numEnsemble)
		for i := range mask {
			mask[i] = e.maskDist.Rand() != 0
		}
		e.masks[e.cursor] = mask
	}

	e.cursor = (e.cursor + 1) % e.capacity
	if e.count < e.capacity {
		e.count++
	}
}

// SampleBatch draws batchSize transitions uniformly at random with
// replacement from the buffer
func (e *ExperienceReplay) SampleBatch(batchSize int) ([]timestep.Observation,
	error) {
	if e.count == 0 {
		return nil, &ExpReplayError{Op: "sampleBatch", Err: errEmptyBuffer}
	}

	batch := make([]timestep.Observation, batchSize)
	for i := range batch {
		batch[i] = e.observations[e.rng.Intn(e.count)]
	}
	return batch, nil
}

// SampleBootstrapBatch draws batchSize transitions uniformly at random
// with replacement from the entries whose bootstrap mask includes the
// given ensemble member.
//
// Indices are rejection sampled. If no stored entry includes the
// member, sampling cannot terminate and an error is returned instead.
func (e *ExperienceReplay) SampleBootstrapBatch(batchSize,
	member int) ([]timestep.Observation, error) {
	if e.numEnsemble == 0 {
		return nil, fmt.Errorf("sampleBootstrapBatch: buffer does not " +
			"store bootstrap masks")
	}
	if member < 0 || member >= e.numEnsemble {
		return nil, fmt.Errorf("sampleBootstrapBatch: no such ensemble "+
			"member %v", member)
	}
	if e.count == 0 {
		return nil, &ExpReplayError{
			Op:  "sampleBootstrapBatch",
			Err: errEmptyBuffer,
		}
	}

	included := false
	for i := 0; i < e.count; i++ {
		if e.masks[i][member] {
			included = true
			break
		}
	}
	if !included {
		return nil, &ExpReplayError{
			Op:  "sampleBootstrapBatch",
			Err: errNoMaskedEntries,
		}
	}

	batch := make([]timestep.Observation, batchSize)
	for i := range batch {
		index := e.rng.Intn(e.count)
		for !e.masks[index][member] {
			index = e.rng.Intn(e.count)
		}
		batch[i] = e.observations[index]
	}
	return batch, nil
}

// Reset empties the buffer. Capacity is unchanged.
func (e *ExperienceReplay) Reset() {
	e.cursor = 0
	e.count = 0
}

// Len returns the current number of valid entries in the buffer
func (e *ExperienceReplay) Len() int {
	return e.count
}

// MaxCapacity returns the fixed capacity of the buffer
func (e *ExperienceReplay) MaxCapacity() int {
	return e.capacity
}

// NumEnsemble returns the number of ensemble members that bootstrap
// masks are stored for
func (e *ExperienceReplay) NumEnsemble() int {
	return e.numEnsemble
}

func (e *ExperienceReplay) String() string {
	return fmt.Sprintf("ExperienceReplay | Entries: %v/%v  |  Cursor: %v",
		e.count, e.capacity, e.cursor)
}
