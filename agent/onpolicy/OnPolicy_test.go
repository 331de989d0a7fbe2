package onpolicy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/gorl/environment/linearsystem"
	"github.com/samuelfneumann/gorl/rollout"
	"github.com/samuelfneumann/gorl/solver"
)

func testConfig() ActorCriticConfig {
	return ActorCriticConfig{
		Gamma:       0.99,
		StepSize:    1e-2,
		NumRollouts: 2,
	}
}

func TestActorCriticTrainsOnLinearSystem(t *testing.T) {
	env := linearsystem.NewDefault(42)
	ag, err := testConfig().CreateAgent(env, 42)
	require.NoError(t, err)

	require.NoError(t, rollout.RolloutAgent(env, ag, 4, 20))

	// Four episodes with two rollouts per update gives two updates,
	// which must have moved the zero-initialized value weights
	base, ok := ag.(*OnPolicy)
	require.True(t, ok)

	var moved bool
	for _, vg := range base.model {
		param := vg.(*solver.Param)
		rows, cols := param.Weights().Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				if param.Weights().At(i, j) != 0 {
					moved = true
				}
			}
		}
	}
	assert.True(t, moved)
}

// Trajectories accumulate across episodes and are discarded after
// every update, so the completed set never exceeds numRollouts
func TestTrajectoriesDiscardedAfterUpdate(t *testing.T) {
	env := linearsystem.NewDefault(42)
	ag, err := testConfig().CreateAgent(env, 42)
	require.NoError(t, err)

	base := ag.(*OnPolicy)
	require.NoError(t, rollout.RolloutAgent(env, ag, 1, 10))
	assert.Len(t, base.completed, 1)

	require.NoError(t, rollout.RolloutAgent(env, ag, 1, 10))
	assert.Empty(t, base.completed)
}

func TestEvalModeAccumulatesNothing(t *testing.T) {
	env := linearsystem.NewDefault(42)
	ag, err := testConfig().CreateAgent(env, 42)
	require.NoError(t, err)
	ag.Eval()

	require.NoError(t, rollout.RolloutAgent(env, ag, 2, 10))
	assert.Empty(t, ag.(*OnPolicy).completed)
}

func testPPOConfig() PPOConfig {
	return PPOConfig{
		Gamma:       0.99,
		StepSize:    1e-2,
		Lambda:      0.95,
		NumRollouts: 2,
		Epsilon:     0.2,
		NumEpochs:   4,
		MaxKL:       0.05,
	}
}

func TestPPOTrainsOnLinearSystem(t *testing.T) {
	env := linearsystem.NewDefault(42)
	ag, err := testPPOConfig().CreateAgent(env, 42)
	require.NoError(t, err)

	require.NoError(t, rollout.RolloutAgent(env, ag, 4, 20))

	base, ok := ag.(*OnPolicy)
	require.True(t, ok)

	var moved bool
	for _, vg := range base.model {
		param := vg.(*solver.Param)
		rows, cols := param.Weights().Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				if param.Weights().At(i, j) != 0 {
					moved = true
				}
			}
		}
	}
	assert.True(t, moved)
	assert.Empty(t, base.completed)
}

func TestPPOConfigValidation(t *testing.T) {
	assert.NoError(t, testPPOConfig().Validate())

	invalid := testPPOConfig()
	invalid.Epsilon = 0
	assert.Error(t, invalid.Validate())

	invalid = testPPOConfig()
	invalid.NumEpochs = 0
	assert.Error(t, invalid.Validate())

	invalid = testPPOConfig()
	invalid.MaxKL = -1
	assert.Error(t, invalid.Validate())
}

func TestSetEpochsRejectsZero(t *testing.T) {
	env := linearsystem.NewDefault(42)
	ag, err := testConfig().CreateAgent(env, 42)
	require.NoError(t, err)
	assert.Error(t, ag.(*OnPolicy).SetEpochs(0, 0))
}

// The entropy bonus must fade over the configured horizon, not
// vanish after the first update
func TestEntropyWeightDecaysOverHorizon(t *testing.T) {
	env := linearsystem.NewDefault(42)
	config := testConfig()
	config.EntropyWeight = 0.01
	config.EntropyDecaySteps = 1000

	ag, err := config.CreateAgent(env, 42)
	require.NoError(t, err)

	base := ag.(*OnPolicy)
	require.Len(t, base.schedules, 1)
	schedule := base.schedules[0]

	assert.InDelta(t, 0.01, schedule.Value(), 1e-12)

	schedule.Update()
	assert.InDelta(t, 0.01-0.01/1000, schedule.Value(), 1e-12)

	for i := 1; i < 1000; i++ {
		schedule.Update()
	}
	assert.InDelta(t, 0, schedule.Value(), 1e-12)
}

func TestActorCriticConfigValidation(t *testing.T) {
	assert.NoError(t, testConfig().Validate())

	invalid := testConfig()
	invalid.NumRollouts = 0
	assert.Error(t, invalid.Validate())

	invalid = testConfig()
	invalid.EntropyWeight = 0.1
	assert.Error(t, invalid.Validate())

	invalid.EntropyDecaySteps = 100
	assert.NoError(t, invalid.Validate())
}
