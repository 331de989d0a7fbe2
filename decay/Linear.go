package decay

import "fmt"

// LinearDecay is a Schedule that moves linearly from a start value
// towards an end value by a fixed step size, clamping at the end
// value once reached:
//
//	value = max(end, start - step*decay)    if start >= end
//	value = min(end, start + step*decay)    if start < end
type LinearDecay struct {
	start float64
	end   float64
	decay float64
	step  int
}

// NewLinear returns a new LinearDecay schedule. The decay parameter is
// the amount the value moves towards end per Update call and must be
// positive.
func NewLinear(start, end, decay float64) (*LinearDecay, error) {
	if decay <= 0 {
		return nil, fmt.Errorf("newLinear: decay must be positive, got %v",
			decay)
	}
	return &LinearDecay{start: start, end: end, decay: decay}, nil
}

// Value returns the current value of the schedule without advancing it
func (l *LinearDecay) Value() float64 {
	if l.start >= l.end {
		value := l.start - float64(l.step)*l.decay
		if value < l.end {
			return l.end
		}
		return value
	}

	value := l.start + float64(l.step)*l.decay
	if value > l.end {
		return l.end
	}
	return value
}

// Update advances the schedule by one step
func (l *LinearDecay) Update() {
	l.step++
}

// Step returns the number of times Update has been called
func (l *LinearDecay) Step() int {
	return l.step
}
