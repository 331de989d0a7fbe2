// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Clip clips a floating point to within a minimum and maximum value.
// If the floating point exceeds max, then the function returns the
// max. If min exceeds the floating point, then the function returns
// the min.
func Clip(value, min, max float64) float64 {
	clipped := math.Min(value, max)
	return math.Max(clipped, min)
}

// Min calculates and returns the minimum float64 in a list
func Min(values ...float64) float64 {
	min := values[0]
	for _, val := range values {
		if val < min {
			min = val
		}
	}
	return min
}

// Max calculates and returns the maximum float64 in a list
func Max(values ...float64) float64 {
	max := values[0]
	for _, val := range values {
		if val > max {
			max = val
		}
	}
	return max
}

// Mean calculates and returns the arithmetic mean of a list
func Mean(values []float64) float64 {
	return floats.Sum(values) / float64(len(values))
}

// LogSumExp computes log(Σ exp(values)) with the usual max-shift
// stabilization
func LogSumExp(values ...float64) float64 {
	max := Max(values...)
	if math.IsInf(max, 0) {
		return max
	}

	var sum float64
	for _, val := range values {
		sum += math.Exp(val - max)
	}
	return max + math.Log(sum)
}

// Finite returns whether every value in a list is neither NaN nor an
// infinity
func Finite(values ...float64) bool {
	for _, val := range values {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return false
		}
	}
	return true
}
