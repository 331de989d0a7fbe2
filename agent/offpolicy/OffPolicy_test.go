package offpolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/gorl/environment/linearsystem"
	"github.com/samuelfneumann/gorl/rollout"
)

func testSACConfig() SACConfig {
	return SACConfig{
		BufferSize:            100,
		BatchSize:             8,
		Gamma:                 0.99,
		Tau:                   0.01,
		StepSize:              1e-3,
		TrainFrequency:        1,
		TargetUpdateFrequency: 1,
		ExplorationSteps:      10,
		Temperature:           0.1,
		MinAction:             -1,
		MaxAction:             1,
	}
}

func TestSACTrainsOnLinearSystem(t *testing.T) {
	env := linearsystem.NewDefault(42)
	ag, err := testSACConfig().CreateAgent(env, 42)
	require.NoError(t, err)

	require.NoError(t, rollout.RolloutAgent(env, ag, 3, 20))

	base, ok := ag.(*OffPolicy)
	require.True(t, ok)
	assert.Greater(t, base.TotalSteps(), 10)
	assert.Greater(t, base.TotalUpdates(), 0)
}

func TestExplorationPhaseBoundsActions(t *testing.T) {
	env := linearsystem.NewDefault(42)
	config := testSACConfig()
	config.ExplorationSteps = 1000
	ag, err := config.CreateAgent(env, 42)
	require.NoError(t, err)

	state, err := env.Reset()
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		action := ag.SelectAction(state)
		for j := 0; j < action.Len(); j++ {
			assert.GreaterOrEqual(t, action.AtVec(j), config.MinAction)
			assert.LessOrEqual(t, action.AtVec(j), config.MaxAction)
		}
	}
}

// No update may run before the buffer holds a full batch of distinct
// transitions, even once the exploration phase has ended
func TestNoUpdatesBeforeBufferHoldsBatch(t *testing.T) {
	env := linearsystem.NewDefault(42)
	config := testSACConfig()
	config.ExplorationSteps = 2
	config.BatchSize = 8
	ag, err := config.CreateAgent(env, 42)
	require.NoError(t, err)

	base := ag.(*OffPolicy)

	state, err := env.Reset()
	require.NoError(t, err)
	base.ObserveFirst(state)
	for i := 0; i < 7; i++ {
		action := base.SelectAction(state)
		obs, next, _, err := rollout.StepEnv(env, state, action)
		require.NoError(t, err)
		require.NoError(t, base.Observe(obs))
		require.NoError(t, base.Step())
		state = next
	}
	// Past exploration but only 7 stored transitions for a batch of 8
	assert.Zero(t, base.TotalUpdates())

	action := base.SelectAction(state)
	obs, _, _, err := rollout.StepEnv(env, state, action)
	require.NoError(t, err)
	require.NoError(t, base.Observe(obs))
	require.NoError(t, base.Step())
	assert.Equal(t, 1, base.TotalUpdates())
}

func TestEvalModeNeverRecordsOrTrains(t *testing.T) {
	env := linearsystem.NewDefault(42)
	ag, err := testSACConfig().CreateAgent(env, 42)
	require.NoError(t, err)

	ag.Eval()
	require.True(t, ag.IsEval())
	require.NoError(t, rollout.RolloutAgent(env, ag, 2, 20))

	base := ag.(*OffPolicy)
	assert.Zero(t, base.TotalSteps())
	assert.Zero(t, base.TotalUpdates())

	ag.Train()
	assert.False(t, ag.IsEval())
}

// An eval-mode Gaussian agent acts with the distribution mean, so
// repeated selections at the same state agree exactly
func TestEvalActionsAreDeterministic(t *testing.T) {
	env := linearsystem.NewDefault(42)
	ag, err := testSACConfig().CreateAgent(env, 42)
	require.NoError(t, err)
	ag.Eval()

	state, err := env.Reset()
	require.NoError(t, err)
	first := ag.SelectAction(state)
	second := ag.SelectAction(state)
	assert.Equal(t, first.RawVector().Data, second.RawVector().Data)
}

func TestTD3TrainsOnLinearSystem(t *testing.T) {
	env := linearsystem.NewDefault(42)
	config := TD3Config{
		BufferSize:            100,
		BatchSize:             8,
		Gamma:                 0.99,
		Tau:                   0.01,
		StepSize:              1e-3,
		TrainFrequency:        1,
		TargetUpdateFrequency: 2,
		PolicyUpdateFrequency: 2,
		ExplorationSteps:      10,
		NumCritics:            2,
		ExplorationNoiseStd:   0.1,
		TargetNoiseStd:        0.2,
		TargetNoiseClip:       0.5,
		MinAction:             -1,
		MaxAction:             1,
	}
	ag, err := config.CreateAgent(env, 42)
	require.NoError(t, err)

	require.NoError(t, rollout.RolloutAgent(env, ag, 3, 20))
	assert.Greater(t, ag.(*OffPolicy).TotalUpdates(), 0)
}

func TestMBSACTrainsOnLinearSystem(t *testing.T) {
	env := linearsystem.NewDefault(42)
	config := MBSACConfig{
		BufferSize:            100,
		BatchSize:             8,
		Gamma:                 0.99,
		Tau:                   0.01,
		StepSize:              1e-3,
		TrainFrequency:        1,
		TargetUpdateFrequency: 1,
		ExplorationSteps:      10,
		Temperature:           0.1,
		NumModels:             2,
		MaskProbability:       0.7,
		ModelFitFrequency:     20,
		ModelBatchSize:        16,
		NumImagined:           3,
		ImaginedHorizon:       2,
		ActionCost:            0.1,
		MinAction:             -1,
		MaxAction:             1,
	}
	ag, err := config.CreateAgent(env, 42)
	require.NoError(t, err)

	require.NoError(t, rollout.RolloutAgent(env, ag, 3, 20))
}

func TestConfigValidation(t *testing.T) {
	valid := testSACConfig()
	assert.NoError(t, valid.Validate())

	invalid := valid
	invalid.BatchSize = 0
	assert.Error(t, invalid.Validate())

	invalid = valid
	invalid.MinAction = 1
	invalid.MaxAction = -1
	assert.Error(t, invalid.Validate())

	invalid = valid
	invalid.LearnTemperature = true
	invalid.TemperatureStepSize = 0
	assert.Error(t, invalid.Validate())
}
