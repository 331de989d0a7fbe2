package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/expreplay"
	"github.com/samuelfneumann/gorl/timestep"
)

func TestLinearModelNextStates(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0.1, 0, 1})
	b := mat.NewDense(2, 1, []float64{0, 0.5})
	m, err := NewLinearModelFrom(a, b)
	require.NoError(t, err)

	states := mat.NewDense(2, 2, []float64{
		1, 2,
		0, 1,
	})
	actions := mat.NewDense(2, 1, []float64{2, -2})

	next, err := m.NextStates(states, actions)
	require.NoError(t, err)

	assert.InDelta(t, 1.2, next.At(0, 0), 1e-12)
	assert.InDelta(t, 3.0, next.At(0, 1), 1e-12)
	assert.InDelta(t, 0.1, next.At(1, 0), 1e-12)
	assert.InDelta(t, 0.0, next.At(1, 1), 1e-12)
}

func TestLinearModelRejectsBadShapes(t *testing.T) {
	m := NewLinearModel(2, 1)

	_, err := m.NextStates(mat.NewDense(1, 3, nil), mat.NewDense(1, 1, nil))
	assert.Error(t, err)

	_, err = m.NextStates(mat.NewDense(2, 2, nil), mat.NewDense(1, 1, nil))
	assert.Error(t, err)

	_, err = NewLinearModelFrom(mat.NewDense(2, 3, nil),
		mat.NewDense(2, 1, nil))
	assert.Error(t, err)
}

func TestLinearModelFitRecoversDynamics(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{0.9, 0.05, -0.02, 1.1})
	b := mat.NewDense(2, 1, []float64{0.3, -0.4})
	truth, err := NewLinearModelFrom(a, b)
	require.NoError(t, err)

	// Noiseless transitions sampled from the true dynamics
	rng := rand.New(rand.NewSource(42))
	batch := make([]timestep.Observation, 50)
	for i := range batch {
		state := mat.NewVecDense(2, []float64{rng.NormFloat64(),
			rng.NormFloat64()})
		action := mat.NewVecDense(1, []float64{rng.NormFloat64()})

		states := mat.NewDense(1, 2, state.RawVector().Data)
		actions := mat.NewDense(1, 1, action.RawVector().Data)
		next, err := truth.NextStates(states, actions)
		require.NoError(t, err)

		batch[i] = timestep.New(state, action, 0,
			mat.NewVecDense(2, []float64{next.At(0, 0), next.At(0, 1)}),
			false)
	}

	fitted := NewLinearModel(2, 1)
	require.NoError(t, fitted.Fit(batch))

	gotA, gotB := fitted.Dynamics()
	assert.InDelta(t, 0, mat.Norm(diff(gotA, a), 2), 1e-8)
	assert.InDelta(t, 0, mat.Norm(diff(gotB, b), 2), 1e-8)
}

func diff(x, y *mat.Dense) *mat.Dense {
	var d mat.Dense
	d.Sub(x, y)
	return &d
}

func TestLinearModelFitTooFewSamples(t *testing.T) {
	m := NewLinearModel(2, 1)
	batch := []timestep.Observation{
		timestep.New(mat.NewVecDense(2, nil), mat.NewVecDense(1, nil), 0,
			mat.NewVecDense(2, nil), false),
	}

	err := m.Fit(batch)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooFewSamples))
}

// A fit attempted before the buffer holds usable data must surface an
// error the agent's wait-for-data handling still recognizes after
// Fit's own wrapping.
func TestEnsembleFitErrorsStayRecognizable(t *testing.T) {
	ensemble, err := NewEnsemble(1, 1, 2, 42)
	require.NoError(t, err)

	replay, err := expreplay.NewBootstrap(10, 2, 0.5, 14)
	require.NoError(t, err)

	err = ensemble.Fit(replay, 4)
	require.Error(t, err)
	assert.True(t, expreplay.IsEmptyBuffer(err))

	replay.Append(timestep.New(mat.NewVecDense(1, []float64{1}),
		mat.NewVecDense(1, []float64{0}), 0,
		mat.NewVecDense(1, []float64{1}), false))

	// One stored transition cannot determine a 1-state 1-action
	// model: the fit fails whether or not the member's mask includes
	// the entry
	err = ensemble.Fit(replay, 1)
	require.Error(t, err)
	recoverable := expreplay.IsEmptyBuffer(err) ||
		expreplay.IsNoMaskedEntries(err) ||
		errors.Is(err, ErrTooFewSamples)
	assert.True(t, recoverable, "fit error lost its cause: %v", err)
}

func TestEnsembleRequiresMembers(t *testing.T) {
	_, err := NewEnsemble(2, 1, 0, 42)
	assert.Error(t, err)
}

func TestEnsemblePredictsWithSomeMember(t *testing.T) {
	ensemble, err := NewEnsemble(1, 1, 3, 42)
	require.NoError(t, err)

	// Each member maps x to a distinct multiple of x
	for i := 0; i < ensemble.NumMembers(); i++ {
		a := mat.NewDense(1, 1, []float64{float64(i + 1)})
		b := mat.NewDense(1, 1, []float64{0})
		member, err := NewLinearModelFrom(a, b)
		require.NoError(t, err)
		*ensemble.Member(i) = *member
	}

	states := mat.NewDense(1, 1, []float64{1})
	actions := mat.NewDense(1, 1, []float64{0})
	for i := 0; i < 20; i++ {
		next, err := ensemble.NextStates(states, actions)
		require.NoError(t, err)
		assert.Contains(t, []float64{1, 2, 3}, next.At(0, 0))
	}
}

func TestQuadraticCost(t *testing.T) {
	states := mat.NewDense(2, 2, []float64{
		1, 2,
		0, 0,
	})
	actions := mat.NewDense(2, 1, []float64{3, 1})

	rewards, err := QuadraticCost{ActionCost: 0.1}.Reward(states, actions,
		nil)
	require.NoError(t, err)

	assert.InDelta(t, -(1.0+4.0+0.1*9.0), rewards[0], 1e-12)
	assert.InDelta(t, -0.1, rewards[1], 1e-12)
}

func TestNeverTerminate(t *testing.T) {
	done := NeverTerminate(mat.NewDense(3, 1, nil), nil, nil)
	assert.Equal(t, []bool{false, false, false}, done)
}
