// Package decay implements time-indexed scalar schedules for
// exploration noise, entropy temperatures, and regularization weights
package decay

// Schedule is a stateful scalar schedule. Value returns the current
// scheduled value as a pure function of the schedule's internal step
// counter and never mutates state, so it may be queried any number of
// times per training step. Update is the only mutator and advances the
// schedule by exactly one step.
type Schedule interface {
	Value() float64
	Update()
}

// Constant is a degenerate Schedule that always returns the same
// value. It lets call sites treat fixed coefficients and decaying
// coefficients uniformly.
type Constant struct {
	value float64
}

// NewConstant returns a new Constant schedule
func NewConstant(value float64) *Constant {
	return &Constant{value: value}
}

// Value returns the constant value of the schedule
func (c *Constant) Value() float64 {
	return c.value
}

// Update is a no-op: a Constant never advances
func (c *Constant) Update() {}
