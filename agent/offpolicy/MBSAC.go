package offpolicy

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/algorithm"
	"github.com/samuelfneumann/gorl/decay"
	"github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/expreplay"
	"github.com/samuelfneumann/gorl/model"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/solver"
	"github.com/samuelfneumann/gorl/value"
)

// MBSACConfig describes a model-based soft actor-critic agent. The
// agent learns an ensemble of linear dynamics models alongside the
// policy and critic, sharing one bootstrap-masked replay buffer
// between policy training and model fitting. The reward model is the
// known quadratic regulation cost.
type MBSACConfig struct {
	BufferSize int
	BatchSize  int

	Gamma    float64
	Tau      float64
	StepSize float64

	TrainFrequency        int
	TargetUpdateFrequency int
	ExplorationSteps      int

	Temperature         float64
	LearnTemperature    bool
	TemperatureStepSize float64
	TargetEntropy       float64

	// Dynamics model ensemble and its training cadence
	NumModels         int
	MaskProbability   float64
	ModelFitFrequency int
	ModelBatchSize    int

	// Imagined rollouts per successor state and their horizon
	NumImagined     int
	ImaginedHorizon int

	// Action cost of the known quadratic reward model
	ActionCost float64

	MinAction float64
	MaxAction float64

	Logger zerolog.Logger `json:"-"`
}

// Validate returns an error describing whether or not the
// configuration is valid
func (c MBSACConfig) Validate() error {
	if c.BufferSize < 1 || c.BatchSize < 1 {
		return fmt.Errorf("mbsac config: buffer and batch sizes must "+
			"be positive, got %v and %v", c.BufferSize, c.BatchSize)
	}
	if c.NumModels < 1 {
		return fmt.Errorf("mbsac config: need at least one dynamics "+
			"model, got %v", c.NumModels)
	}
	if c.MaskProbability <= 0 || c.MaskProbability > 1 {
		return fmt.Errorf("mbsac config: mask probability must be in "+
			"(0, 1], got %v", c.MaskProbability)
	}
	if c.ModelFitFrequency < 1 || c.ModelBatchSize < 1 {
		return fmt.Errorf("mbsac config: model fit frequency and batch "+
			"size must be positive, got %v and %v", c.ModelFitFrequency,
			c.ModelBatchSize)
	}
	if c.NumImagined < 1 || c.ImaginedHorizon < 1 {
		return fmt.Errorf("mbsac config: imagined rollout counts must "+
			"be positive, got %v and %v", c.NumImagined,
			c.ImaginedHorizon)
	}
	if c.MinAction >= c.MaxAction {
		return fmt.Errorf("mbsac config: invalid action bounds [%v, %v]",
			c.MinAction, c.MaxAction)
	}
	return nil
}

// CreateAgent creates the model-based soft actor-critic agent that
// the config describes
func (c MBSACConfig) CreateAgent(env environment.Environment,
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

	dynamics, err := model.NewEnsemble(features, actionDims,
		c.NumModels, seed)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	alg := algorithm.NewMBSAC(pol, critic, dynamics,
		model.QuadraticCost{ActionCost: c.ActionCost},
		model.NeverTerminate, temperature, c.TargetEntropy,
		c.NumImagined, c.ImaginedHorizon, c.Gamma)

	sol, err := solver.NewDefaultAdam(c.StepSize, c.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	replay, err := expreplay.NewBootstrap(c.BufferSize, c.NumModels,
		c.MaskProbability, seed)
	if err != nil {
		return nil, fmt.Errorf("createAgent: %v", err)
	}

	base, err := New(alg, sol, gaussianBehaviour{pol}, replay,
		[]decay.Schedule{temperature}, c.BatchSize, c.TrainFrequency,
		c.TargetUpdateFrequency, 1, c.ExplorationSteps, c.Tau,
		c.MinAction, c.MaxAction, seed, c.Logger)
	if err != nil {
		return nil, err
	}

	return &mbsac{
		OffPolicy:         base,
		dynamics:          dynamics,
		replay:            replay,
		modelFitFrequency: c.ModelFitFrequency,
		modelBatchSize:    c.ModelBatchSize,
	}, nil
}

// mbsac wraps the off-policy lifecycle to also fit the dynamics model
// ensemble on a fixed cadence
type mbsac struct {
	*OffPolicy
	dynamics *model.Ensemble
	replay   *expreplay.ExperienceReplay

	modelFitFrequency int
	modelBatchSize    int
}

// Step fits the dynamics model when due, then trains the policy and
// critic
func (m *mbsac) Step() error {
	if !m.IsEval() && m.TotalSteps() > 0 &&
		m.TotalSteps()%m.modelFitFrequency == 0 {
		err := m.dynamics.Fit(m.replay, m.modelBatchSize)
		if err != nil && !isRecoverableSample(err) {
			return fmt.Errorf("step: could not fit dynamics model: %v",
				err)
		}
	}
	return m.OffPolicy.Step()
}

// isRecoverableSample reports whether a sampling error simply means
// the buffer has no usable data yet
func isRecoverableSample(err error) bool {
	if expreplay.IsEmptyBuffer(err) || expreplay.IsNoMaskedEntries(err) {
		return true
	}
	// A freshly started buffer may also lack enough rows for least
	// squares
	return errors.Is(err, model.ErrTooFewSamples)
}
