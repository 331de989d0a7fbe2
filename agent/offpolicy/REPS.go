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

// REPSConfig describes a relative entropy policy search agent with a
// linear Gaussian policy and a linear state-value function
type REPSConfig struct {
	BufferSize int
	BatchSize  int

	Gamma    float64
	StepSize float64

	TrainFrequency   int
	ExplorationSteps int

	// Relative entropy bound and the initial value and step size of
	// its dual temperature
	Epsilon     float64
	Eta         float64
	EtaStepSize float64

	// Inner dual iterations per update
	NumIter int

	MinAction float64
	MaxAction float64

	Logger zerolog.Logger `json:"-"`
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c REPSConfig) Validate() error {
	if c.BufferSize < 1 || c.BatchSize < 1 {
		return fmt.Errorf("reps config: buffer and batch sizes must be "+
			"positive, got %v and %v", c.BufferSize, c.BatchSize)
	}
	if c.Epsilon <= 0 {
		return fmt.Errorf("reps config: relative entropy bound must be "+
			"positive, got %v", c.Epsilon)
	}
	if c.Eta <= 0 || c.EtaStepSize <= 0 {
		return fmt.Errorf("reps config: dual temperature and its step "+
			"size must be positive, got %v and %v", c.Eta, c.EtaStepSize)
	}
	if c.NumIter < 1 {
		return fmt.Errorf("reps config: iteration count must be "+
			"positive, got %v", c.NumIter)
	}
	if c.MinAction >= c.MaxAction {
		return fmt.Errorf("reps config: invalid action bounds [%v, %v]",
			c.MinAction, c.MaxAction)
	}
	return nil
}

// CreateAgent creates the REPS agent that the config describes
func (c REPSConfig) CreateAgent(env environment.Environment,
	seed uint64) (agent.Agent, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	features := env.ObservationDims()
	actionDims := env.ActionDims()

	pol := policy.NewLinearGaussian(features, actionDims, seed)
	valueFn := value.NewLinearV(features)
	eta := decay.NewLearnable(c.Eta, c.EtaStepSize)

	alg := algorithm.NewREPS(pol, valueFn, eta, c.Epsilon, c.NumIter,
		c.Gamma)

	sol, err := solver.NewDefaultAdam(c.StepSize, c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	replay, err := expreplay.New(c.BufferSize, seed)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	return New(alg, sol, gaussianBehaviour{pol}, replay, nil,
		c.BatchSize, c.TrainFrequency, 1, 1, c.ExplorationSteps, 1.0,
		c.MinAction, c.MaxAction, seed, c.Logger)
}
