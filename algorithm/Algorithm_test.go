package algorithm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/decay"
	"github.com/samuelfneumann/gorl/policy"
	"github.com/samuelfneumann/gorl/solver"
	"github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/value"
)

func transition(state, action []float64, reward float64, next []float64,
	done bool) timestep.Observation {
	return timestep.New(
		mat.NewVecDense(len(state), state),
		mat.NewVecDense(len(action), action),
		reward,
		mat.NewVecDense(len(next), next),
		done,
	)
}

// setQWeights overwrites the weights of a linear critic through its
// solver parameter
func setQWeights(t *testing.T, q *value.LinearQ, weights []float64) {
	t.Helper()
	param, ok := q.Model()[0].(*solver.Param)
	require.True(t, ok)
	for i, w := range weights {
		param.Weights().Set(0, i, w)
	}
}

// Terminal transitions must bootstrap nothing: the critic target is
// exactly the reward no matter what the target critic or the sampled
// next action say.
func TestSACTerminalTargetIsReward(t *testing.T) {
	pol := policy.NewLinearGaussian(2, 1, 42)
	critic := value.NewLinearQ(2, 1)
	setQWeights(t, critic, []float64{1, 1, 1})

	sac := NewSAC(pol, critic, decay.NewConstant(0.5), 0, 0.99)

	// Q(s, a) = 1 + 2 + 0.5 = 3.5 equals the reward, so the TD error
	// of a terminal transition must vanish exactly
	obs := transition([]float64{1, 2}, []float64{0.5}, 3.5,
		[]float64{1, 1}, true)

	loss, err := sac.Forward([]timestep.Observation{obs})
	require.NoError(t, err)
	assert.Zero(t, loss.TDError)
	assert.Zero(t, loss.Critic)
}

func TestSACNaNRewardIsNumericalInstability(t *testing.T) {
	pol := policy.NewLinearGaussian(2, 1, 42)
	critic := value.NewLinearQ(2, 1)
	sac := NewSAC(pol, critic, decay.NewConstant(0.5), 0, 0.99)

	obs := transition([]float64{1, 2}, []float64{0.5}, math.NaN(),
		[]float64{1, 1}, true)

	_, err := sac.Forward([]timestep.Observation{obs})
	require.Error(t, err)
	assert.True(t, IsNumericalInstability(err))
	assert.False(t, IsShapeMismatch(err))
}

func TestSACInconsistentBatchIsShapeMismatch(t *testing.T) {
	pol := policy.NewLinearGaussian(2, 1, 42)
	critic := value.NewLinearQ(2, 1)
	sac := NewSAC(pol, critic, decay.NewConstant(0.5), 0, 0.99)

	batch := []timestep.Observation{
		transition([]float64{1, 2}, []float64{0.5}, 1.0,
			[]float64{1, 1}, false),
		transition([]float64{1}, []float64{0.5}, 1.0,
			[]float64{1}, false),
	}

	_, err := sac.Forward(batch)
	require.Error(t, err)
	assert.True(t, IsShapeMismatch(err))
}

func TestSACLearnableTemperatureAdapts(t *testing.T) {
	pol := policy.NewLinearGaussian(2, 1, 42)
	critic := value.NewLinearQ(2, 1)
	temperature := decay.NewLearnable(1.0, 0.1)
	sac := NewSAC(pol, critic, temperature, -5.0, 0.99)

	before := temperature.Value()
	obs := transition([]float64{1, 2}, []float64{0.5}, 1.0,
		[]float64{1, 1}, false)
	_, err := sac.Forward([]timestep.Observation{obs})
	require.NoError(t, err)
	assert.NotEqual(t, before, temperature.Value())
}

// DPG targets must be pessimistic: the target bootstraps the minimum
// across the target ensemble
func TestDPGTargetUsesEnsembleMin(t *testing.T) {
	pol := policy.NewLinearDeterministic(1, 1, -1, 1, 0, 42)
	critics, err := value.NewEnsembleQ(1, 1, 2)
	require.NoError(t, err)
	setQWeights(t, critics.Member(0), []float64{1, 1})
	setQWeights(t, critics.Member(1), []float64{2, 2})

	// Zero target noise keeps the target action at the (zero-weight)
	// target policy's output
	dpg := NewDPG(pol, critics, 0.5, 0, 0, 42)

	// a' = 0, so the target critics report 1 and 2 at s' = [1]:
	// y = 1 + 0.5 * min(1, 2) = 1.5
	// member TD errors: Q0 = 2, Q1 = 4 => deltas 0.5 and 2.5
	obs := transition([]float64{1}, []float64{1}, 1.0, []float64{1}, false)

	loss, err := dpg.Forward([]timestep.Observation{obs})
	require.NoError(t, err)
	assert.InDelta(t, 1.5, loss.TDError, 1e-12)
	assert.InDelta(t, 0.5*(0.25+6.25)/2, loss.Critic, 1e-12)

	// Actor evaluates member 0 at the noiseless action a = 0
	assert.InDelta(t, -1.0, loss.Actor, 1e-12)
}

func TestDPGDelayedPolicyUpdateGatesActorLoss(t *testing.T) {
	pol := policy.NewLinearDeterministic(1, 1, -1, 1, 0, 42)
	critics, err := value.NewEnsembleQ(1, 1, 2)
	require.NoError(t, err)
	setQWeights(t, critics.Member(0), []float64{1, 1})

	dpg := NewDPG(pol, critics, 0.5, 0, 0, 42)
	dpg.SetUpdatePolicy(false)

	obs := transition([]float64{1}, []float64{1}, 1.0, []float64{1}, false)
	loss, err := dpg.Forward([]timestep.Observation{obs})
	require.NoError(t, err)
	assert.Zero(t, loss.Actor)
	assert.NotZero(t, loss.Critic)
}

// With a constant action-value landscape the MPO dual gradient is
// exactly epsilon, so every inner iteration shrinks the temperature
// and the nonparametric weights stay uniform
func TestMPOConstantValuesShrinkTemperature(t *testing.T) {
	pol := policy.NewLinearGaussian(2, 1, 42)
	critic := value.NewLinearQ(2, 1)
	eta := decay.NewLearnable(1.0, 0.01)
	mpo := NewMPO(pol, critic, eta, 0.1, 8, 5, 0.99)

	before := eta.Value()
	obs := transition([]float64{1, 2}, []float64{0.5}, 1.0,
		[]float64{1, 1}, false)
	loss, err := mpo.Forward([]timestep.Observation{obs})
	require.NoError(t, err)

	assert.Less(t, eta.Value(), before)
	assert.InDelta(t, 0.0, loss.KL, 1e-10)
}

// Actions the policy cannot score must fail the whole update rather
// than silently dropping the actor term while the critic trains on
func TestREPSPolicyFitErrorPropagates(t *testing.T) {
	pol := policy.NewLinearGaussian(1, 1, 42)
	valueFn := value.NewLinearV(1)
	eta := decay.NewLearnable(1.0, 0.01)

	reps := NewREPS(pol, valueFn, eta, 0.1, 0, 1.0)

	// Two-dimensional actions, internally consistent but wider than
	// the policy's action space
	batch := []timestep.Observation{
		transition([]float64{1}, []float64{0, 0}, 1.0, []float64{1}, true),
		transition([]float64{1}, []float64{0, 0}, 0.0, []float64{1}, true),
	}

	_, err := reps.Forward(batch)
	require.Error(t, err)
}

func TestREPSFrozenDual(t *testing.T) {
	pol := policy.NewLinearGaussian(1, 1, 42)
	valueFn := value.NewLinearV(1)
	eta := decay.NewLearnable(1.0, 0.01)

	// numIter = 0 freezes the dual phase entirely
	reps := NewREPS(pol, valueFn, eta, 0.1, 0, 1.0)

	batch := []timestep.Observation{
		transition([]float64{1}, []float64{0}, 1.0, []float64{1}, true),
		transition([]float64{1}, []float64{0}, 0.0, []float64{1}, true),
	}

	before := eta.Value()
	loss, err := reps.Forward(batch)
	require.NoError(t, err)

	// V = 0 everywhere, so deltas are the rewards
	assert.InDelta(t, 0.25, loss.Critic, 1e-12)
	assert.InDelta(t, 0.5, loss.TDError, 1e-12)
	assert.Zero(t, loss.Dual)
	assert.Equal(t, before, eta.Value())
}

func TestREPSDualSolveAdaptsTemperature(t *testing.T) {
	pol := policy.NewLinearGaussian(1, 1, 42)
	valueFn := value.NewLinearV(1)
	eta := decay.NewLearnable(1.0, 0.01)
	reps := NewREPS(pol, valueFn, eta, 0.1, 10, 1.0)

	batch := []timestep.Observation{
		transition([]float64{1}, []float64{0}, 1.0, []float64{1}, true),
		transition([]float64{1}, []float64{0}, -1.0, []float64{1}, true),
	}

	before := eta.Value()
	_, err := reps.Forward(batch)
	require.NoError(t, err)
	assert.NotEqual(t, before, eta.Value())
}

func TestA2CAdvantageIsBellmanError(t *testing.T) {
	pol := policy.NewLinearGaussian(1, 1, 42)
	valueFn := value.NewLinearV(1)
	a2c := NewA2C(pol, valueFn, decay.NewConstant(0), 1.0, 0)

	obs := transition([]float64{1}, []float64{0}, 2.0, []float64{1}, true)
	obs.LogProb = -1.0

	loss, err := a2c.ForwardTrajectories(
		[]timestep.Trajectory{{obs}})
	require.NoError(t, err)

	// V = 0 and the transition is terminal, so the advantage is the
	// reward: actor loss -delta*logProb = 2, critic loss 0.5*delta^2
	assert.InDelta(t, 2.0, loss.Actor, 1e-12)
	assert.InDelta(t, 2.0, loss.Critic, 1e-12)
	assert.Zero(t, loss.Entropy)
}

func TestA2CEmptyTrajectoriesErrors(t *testing.T) {
	pol := policy.NewLinearGaussian(1, 1, 42)
	valueFn := value.NewLinearV(1)
	a2c := NewA2C(pol, valueFn, decay.NewConstant(0), 1.0, 0)

	_, err := a2c.ForwardTrajectories(nil)
	assert.Error(t, err)
}

func TestLossScalarsNamesEveryTerm(t *testing.T) {
	loss := Loss{Actor: 1, Critic: 2, Dual: 3, Entropy: 4, TDError: 5,
		KL: 6}
	scalars := loss.Scalars()
	assert.Len(t, scalars, 6)
	assert.Equal(t, 1.0, scalars["actor_loss"])
	assert.Equal(t, 5.0, scalars["td_error"])
}
