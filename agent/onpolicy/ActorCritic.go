package onpolicy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/algorithm"
	"github.com/samuelfneumann/gorl/decay"
	"github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/solver"
	"github.com/samuelfneumann/gorl/value"
)

// ActorCriticConfig describes an advantage actor-critic agent with a
// linear Gaussian policy and a linear state-value function
type ActorCriticConfig struct {
	Gamma    float64
	StepSize float64

	// Lambda of the GAE(λ) advantage estimator. Zero gives one-step
	// advantages.
	Lambda float64

	// Completed episodes per policy update
	NumRollouts int

	// Entropy bonus weight, decayed linearly from EntropyWeight to
	// zero over EntropyDecaySteps updates. Zero disables the bonus.
	EntropyWeight     float64
	EntropyDecaySteps float64

	Logger zerolog.Logger `json:"-"`
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c ActorCriticConfig) Validate() error {
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("actor-critic config: discount must be in "+
			"[0, 1], got %v", c.Gamma)
	}
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("actor-critic config: lambda must be in "+
			"[0, 1], got %v", c.Lambda)
	}
	if c.NumRollouts < 1 {
		return fmt.Errorf("actor-critic config: rollout count must be "+
			"positive, got %v", c.NumRollouts)
	}
	if c.EntropyWeight < 0 {
		return fmt.Errorf("actor-critic config: entropy weight must be "+
			"non-negative, got %v", c.EntropyWeight)
	}
	if c.EntropyWeight > 0 && c.EntropyDecaySteps <= 0 {
		return fmt.Errorf("actor-critic config: entropy decay requires "+
			"a positive horizon, got %v", c.EntropyDecaySteps)
	}
	return nil
}

// CreateAgent creates the advantage actor-critic agent that the
// config describes
func (c ActorCriticConfig) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	pol := policy.NewLinearGaussian(env.ObservationDims(),
		env.ActionDims(), seed)
	valueFn := value.NewLinearV(env.ObservationDims())

	var entropyWeight decay.Schedule
	if c.EntropyWeight > 0 {
		schedule, err := decay.NewLinear(c.EntropyWeight, 0,
			c.EntropyWeight/c.EntropyDecaySteps)
		if err != nil {
			return nil, fmt.Errorf("createAgent: %v", err)
		}
		entropyWeight = schedule
	} else {
		entropyWeight = decay.NewConstant(0)
	}

	alg := algorithm.NewA2C(pol, valueFn, entropyWeight, c.Gamma,
		c.Lambda)

	sol, err := solver.NewDefaultAdam(c.StepSize, 1)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	return New(alg, sol, pol, []decay.Schedule{entropyWeight},
		c.NumRollouts, c.Logger)
}
