package offpolicy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/algorithm"
	"github.com/samuelfneumann/gorl/decay"
	"github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/expreplay"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/solver"
	"github.com/samuelfneumann/gorl/value"
)

// SACConfig describes a soft actor-critic agent with a linear
// Gaussian policy and a linear critic
type SACConfig struct {
	BufferSize int
	BatchSize  int

	Gamma    float64
	Tau      float64
	StepSize float64

	TrainFrequency        int
	TargetUpdateFrequency int
	ExplorationSteps      int

	// Temperature of the entropy regularizer. When LearnTemperature is
	// set, the temperature becomes a learnable multiplier adapted with
	// TemperatureStepSize so that the policy entropy tracks
	// TargetEntropy.
	Temperature         float64
	LearnTemperature    bool
	TemperatureStepSize float64
	TargetEntropy       float64

	// Bounds of the uniform random actions taken during exploration
	MinAction float64
	MaxAction float64

	Logger zerolog.Logger `json:"-"`
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c SACConfig) Validate() error {
	if c.BufferSize < 1 {
		return fmt.Errorf("sac config: buffer size must be positive, "+
			"got %v", c.BufferSize)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("sac config: batch size must be positive, "+
			"got %v", c.BatchSize)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("sac config: discount must be in [0, 1], "+
			"got %v", c.Gamma)
	}
	if c.Temperature < 0 {
		return fmt.Errorf("sac config: temperature must be "+
			"non-negative, got %v", c.Temperature)
	}
	if c.LearnTemperature && c.TemperatureStepSize <= 0 {
		return fmt.Errorf("sac config: learnable temperature requires "+
			"a positive step size, got %v", c.TemperatureStepSize)
	}
	if c.MinAction >= c.MaxAction {
		return fmt.Errorf("sac config: invalid action bounds [%v, %v]",
			c.MinAction, c.MaxAction)
	}
	return nil
}

// CreateAgent creates the soft actor-critic agent that the config
// describes
func (c SACConfig) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	features := env.ObservationDims()
	actionDims := env.ActionDims()

	pol := policy.NewLinearGaussian(features, actionDims, seed)
	critic := value.NewLinearQ(features, actionDims)

	var temperature decay.Schedule
	if c.LearnTemperature {
		temperature = decay.NewLearnable(c.Temperature,
			c.TemperatureStepSize)
	} else {
		temperature = decay.NewConstant(c.Temperature)
	}

	alg := algorithm.NewSAC(pol, critic, temperature, c.TargetEntropy,
		c.Gamma)

	sol, err := solver.NewDefaultAdam(c.StepSize, c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	replay, err := expreplay.New(c.BufferSize, seed)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	return New(alg, sol, gaussianBehaviour{pol}, replay,
		[]decay.Schedule{temperature}, c.BatchSize, c.TrainFrequency,
		c.TargetUpdateFrequency, 1, c.ExplorationSteps, c.Tau,
		c.MinAction, c.MaxAction, seed, c.Logger)
}
