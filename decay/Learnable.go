package decay

import "math"

// Learnable is a Schedule whose value is a positive Lagrange
// multiplier adapted by gradient steps rather than by a fixed decay
// rule. It is used for learned temperatures and dual variables, such
// as the entropy temperature of soft actor-critic or the KL multiplier
// of dual-constrained policy optimization.
//
// Positivity is enforced by storing the multiplier in log space:
// Value returns exp(raw). Adapt performs one gradient step on raw
// given the gradient of the loss with respect to the multiplier
// itself, applying the chain rule through the exponential.
type Learnable struct {
	raw      float64
	stepSize float64
}

// NewLearnable returns a new Learnable multiplier with the given
// initial value and gradient step size. The initial value must be
// positive.
func NewLearnable(initial, stepSize float64) *Learnable {
	return &Learnable{raw: math.Log(initial), stepSize: stepSize}
}

// Value returns the current value of the multiplier
func (l *Learnable) Value() float64 {
	return math.Exp(l.raw)
}

// Update is a no-op: a Learnable advances through Adapt, not through
// the passage of training steps
func (l *Learnable) Update() {}

// Adapt performs one gradient descent step on the multiplier. The
// grad argument is dLoss/dValue evaluated at the current value.
func (l *Learnable) Adapt(grad float64) {
	// d(loss)/d(raw) = d(loss)/d(value) * value
	l.raw -= l.stepSize * grad * l.Value()
}
