package offpolicy

import (
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/policy"
)

// gaussianBehaviour explores by sampling from the policy and
// evaluates with the distribution mean
type gaussianBehaviour struct {
	*policy.LinearGaussian
}

func (g gaussianBehaviour) TrainAction(state mat.Vector) *mat.VecDense {
	action, _, _ := g.SelectAction(state)
	return action
}

func (g gaussianBehaviour) EvalAction(state mat.Vector) *mat.VecDense {
	return g.Mean(state)
}

// deterministicBehaviour explores with additive clipped noise and
// evaluates with the noiseless action
type deterministicBehaviour struct {
	*policy.LinearDeterministic
}

func (d deterministicBehaviour) TrainAction(state mat.Vector) *mat.VecDense {
	return d.NoisyAction(state)
}

func (d deterministicBehaviour) EvalAction(state mat.Vector) *mat.VecDense {
	return d.Action(state)
}
