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

// MPOConfig describes a maximum a posteriori policy optimization
// agent with a linear Gaussian policy and a linear critic
type MPOConfig struct {
	BufferSize int
	BatchSize  int

	Gamma    float64
	Tau      float64
	StepSize float64

	TrainFrequency        int
	TargetUpdateFrequency int
	ExplorationSteps      int

	// KL bound of the nonparametric policy and the initial value and
	// step size of its dual temperature
	Epsilon     float64
	Eta         float64
	EtaStepSize float64

	// Action samples per state and inner dual iterations per update
	NumSamples int
	NumIter    int

	MinAction float64
	MaxAction float64

	Logger zerolog.Logger `json:"-"`
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c MPOConfig) Validate() error {
	if c.BufferSize < 1 || c.BatchSize < 1 {
		return fmt.Errorf("mpo config: buffer and batch sizes must be "+
			"positive, got %v and %v", c.BufferSize, c.BatchSize)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("mpo config: KL bound must be positive, "+
			"got %v", c.Epsilon)
	}
	if c.Eta <= 0 || c.EtaStepSize <= 0 {
		return fmt.Errorf("mpo config: dual temperature and its step "+
			"size must be positive, got %v and %v", c.Eta, c.EtaStepSize)
	}
	if c.NumSamples < 1 || c.NumIter < 1 {
		return fmt.Errorf("mpo config: sample and iteration counts "+
			"must be positive, got %v and %v", c.NumSamples, c.NumIter)
	}
	if c.MinAction >= c.MaxAction {
		return fmt.Errorf("mpo config: invalid action bounds [%v, %v]",
			c.MinAction, c.MaxAction)
	}
	return nil
}

// CreateAgent creates the MPO agent that the config describes
func (c MPOConfig) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	features := env.ObservationDims()
	actionDims := env.ActionDims()

	pol := policy.NewLinearGaussian(features, actionDims, seed)
	critic := value.NewLinearQ(features, actionDims)
	eta := decay.NewLearnable(c.Eta, c.EtaStepSize)

	alg := algorithm.NewMPO(pol, critic, eta, c.Epsilon, c.NumSamples,
		c.NumIter, c.Gamma)

	sol, err := solver.NewDefaultAdam(c.StepSize, c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	replay, err := expreplay.New(c.BufferSize, seed)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	return New(alg, sol, gaussianBehaviour{pol}, replay, nil,
		c.BatchSize, c.TrainFrequency, c.TargetUpdateFrequency, 1,
		c.ExplorationSteps, c.Tau, c.MinAction, c.MaxAction, seed,
		c.Logger)
}
