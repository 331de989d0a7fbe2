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

// PPOConfig describes a proximal policy optimization agent with a
// linear Gaussian policy and a linear state-value function. Unlike
// the single-step actor-critic, PPO replays each batch of
// trajectories for NumEpochs gradient steps, relying on the clipped
// surrogate to keep the policy near the one that collected the data.
type PPOConfig struct {
	Gamma    float64
	StepSize float64

	// Lambda of the GAE(λ) advantage estimator. Zero gives one-step
	// advantages.
	Lambda float64

	// Completed episodes per policy update
	NumRollouts int

	// Clip radius ε of the surrogate objective
	Epsilon float64

	// Gradient steps over each batch of trajectories
	NumEpochs int

	// Epochs stop early once the KL estimate between the data's
	// policy and the current one exceeds MaxKL. Zero disables the
	// check.
	MaxKL float64

	Logger zerolog.Logger `json:"-"`
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c PPOConfig) Validate() error {
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("ppo config: discount must be in [0, 1], "+
			"got %v", c.Gamma)
	}
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("ppo config: lambda must be in [0, 1], got %v",
			c.Lambda)
	}
	if c.NumRollouts < 1 {
		return fmt.Errorf("ppo config: rollout count must be positive, "+
			"got %v", c.NumRollouts)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("ppo config: clip radius must be positive, "+
			"got %v", c.Epsilon)
	}
	if c.NumEpochs < 1 {
		return fmt.Errorf("ppo config: epoch count must be positive, "+
			"got %v", c.NumEpochs)
	}
	if c.MaxKL < 0 {
		return fmt.Errorf("ppo config: KL bound must be non-negative, "+
			"got %v", c.MaxKL)
	}
	return nil
}

// CreateAgent creates the proximal policy optimization agent that the
// config describes
func (c PPOConfig) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	pol := policy.NewLinearGaussian(env.ObservationDims(),
		env.ActionDims(), seed)
	valueFn := value.NewLinearV(env.ObservationDims())

	alg := algorithm.NewPPO(pol, valueFn, c.Epsilon, c.Gamma, c.Lambda)

	sol, err := solver.NewDefaultAdam(c.StepSize, 1)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	ag, err := New(alg, sol, pol, []decay.Schedule{}, c.NumRollouts,
		c.Logger)
	if err != nil {
		return nil, err
	}
	if err := ag.SetEpochs(c.NumEpochs, c.MaxKL); err != nil {
		return nil, err
	}
	return ag, nil
}
