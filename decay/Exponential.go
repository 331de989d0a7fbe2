package decay

import (
	"fmt"
	"math"
)

// ExponentialDecay is a Schedule that decays exponentially from a
// start value towards an end value:
//
//	value = end + (start - end) * exp(-step / decay)
//
// The value equals start at step 0 and approaches end asymptotically.
// The schedule may decay in either direction depending on whether
// start is larger or smaller than end.
type ExponentialDecay struct {
	start float64
	end   float64
	decay float64
	step  int
}

// NewExponential returns a new ExponentialDecay schedule. The decay
// parameter is the time constant of the decay in Update calls and must
// be positive.
func NewExponential(start, end, decay float64) (*ExponentialDecay, error) {
	if decay <= 0 {
		return nil, fmt.Errorf("newExponential: decay must be positive, "+
			"got %v", decay)
	}
	return &ExponentialDecay{start: start, end: end, decay: decay}, nil
}

// Value returns the current value of the schedule without advancing it
func (e *ExponentialDecay) Value() float64 {
	return e.end + (e.start-e.end)*math.Exp(-float64(e.step)/e.decay)
}

// Update advances the schedule by one step
func (e *ExponentialDecay) Update() {
	e.step++
}

// Step returns the number of times Update has been called
func (e *ExponentialDecay) Step() int {
	return e.step
}
