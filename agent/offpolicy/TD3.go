package offpolicy

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/algorithm"
	"github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/expreplay"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/solver"
	"github.com/samuelfneumann/gorl/value"
)

// TD3Config describes a twin delayed deep deterministic policy
// gradient agent with a linear deterministic policy and a linear
// critic ensemble. Setting NumCritics to 1, TargetNoiseStd to 0, and
// PolicyUpdateFrequency to 1 recovers vanilla DDPG.
type TD3Config struct {
	BufferSize int
	BatchSize  int

	Gamma    float64
	Tau      float64
	StepSize float64

	TrainFrequency        int
	TargetUpdateFrequency int
	PolicyUpdateFrequency int
	ExplorationSteps      int

	NumCritics int

	// Exploration noise injected into behaviour actions and smoothing
	// noise injected into target actions
	ExplorationNoiseStd float64
	TargetNoiseStd      float64
	TargetNoiseClip     float64

	MinAction float64
	MaxAction float64

	Logger zerolog.Logger `json:"-"`
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c TD3Config) Validate() error {
	if c.BufferSize < 1 || c.BatchSize < 1 {
		return fmt.Errorf("td3 config: buffer and batch sizes must be "+
			"positive, got %v and %v", c.BufferSize, c.BatchSize)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("td3 config: discount must be in [0, 1], "+
			"got %v", c.Gamma)
	}
	if c.NumCritics < 1 {
		return fmt.Errorf("td3 config: need at least one critic, got %v",
			c.NumCritics)
	}
	if c.TargetNoiseStd < 0 || c.TargetNoiseClip < 0 {
		return fmt.Errorf("td3 config: target noise parameters must be "+
			"non-negative, got %v and %v", c.TargetNoiseStd,
			c.TargetNoiseClip)
	}
	if c.MinAction >= c.MaxAction {
		return fmt.Errorf("td3 config: invalid action bounds [%v, %v]",
			c.MinAction, c.MaxAction)
	}
	return nil
}

// CreateAgent creates the TD3 agent that the config describes
func (c TD3Config) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	features := env.ObservationDims()
	actionDims := env.ActionDims()

	pol := policy.NewLinearDeterministic(features, actionDims,
		c.MinAction, c.MaxAction, c.ExplorationNoiseStd, seed)

	critics, err := value.NewEnsembleQ(features, actionDims,
		c.NumCritics)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	alg := algorithm.NewDPG(pol, critics, c.Gamma, c.TargetNoiseStd,
		c.TargetNoiseClip, seed)

	sol, err := solver.NewDefaultAdam(c.StepSize, c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	replay, err := expreplay.New(c.BufferSize, seed)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	return New(alg, sol, deterministicBehaviour{pol}, replay, nil,
		c.BatchSize, c.TrainFrequency, c.TargetUpdateFrequency,
		c.PolicyUpdateFrequency, c.ExplorationSteps, c.Tau,
		c.MinAction, c.MaxAction, seed, c.Logger)
}
