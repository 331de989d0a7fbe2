package algorithm

import (
	"errors"
	"fmt"
)

// ShapeMismatchError describes a batch whose transitions disagree on
// state or action dimensions, or disagree with the function
// approximators being trained. Shape mismatches are programming
// errors and are never retried.
type ShapeMismatchError struct {
	Op   string
	Want int
	Have int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%v: shape mismatch: want dimension %v, have %v",
		e.Op, e.Want, e.Have)
}

// NumericalInstabilityError describes a loss computation that produced
// a NaN or Inf. Instability is fatal to training and must propagate to
// the caller untouched.
type NumericalInstabilityError struct {
	Op   string
	Loss Loss
}

func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("%v: loss is NaN or Inf: %v", e.Op, e.Loss)
}

// IsShapeMismatch returns whether err indicates a batch or
// approximator shape mismatch
func IsShapeMismatch(err error) bool {
	var target *ShapeMismatchError
	return errors.As(err, &target)
}

// IsNumericalInstability returns whether err indicates a NaN or Inf
// loss
func IsNumericalInstability(err error) bool {
	var target *NumericalInstabilityError
	return errors.As(err, &target)
}
