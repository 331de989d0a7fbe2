package linearsystem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	"github.com/samuelfneumann/gorl/environment"
)

func pointStarter(values ...float64) environment.Starter {
	intervals := make([]r1.Interval, len(values))
	for i, v := range values {
		intervals[i] = r1.Interval{Min: v, Max: v}
	}
	return environment.NewUniformStarter(intervals, 42)
}

func TestStepFollowsDynamics(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0.1, 0, 1})
	b := mat.NewDense(2, 1, []float64{0, 0.5})
	system, err := New(a, b, pointStarter(1, 2), 0.1, 100)
	require.NoError(t, err)

	_, err = system.Reset()
	require.NoError(t, err)

	next, reward, done, err := system.Step(mat.NewVecDense(1,
		[]float64{2}))
	require.NoError(t, err)

	assert.InDelta(t, 1.2, next.AtVec(0), 1e-12)
	assert.InDelta(t, 3.0, next.AtVec(1), 1e-12)
	assert.InDelta(t, -(1.0+4.0+0.1*4.0), reward, 1e-12)
	assert.False(t, done)
}

func TestDivergenceTerminates(t *testing.T) {
	// Unstable scalar system: x' = 10x
	a := mat.NewDense(1, 1, []float64{10})
	b := mat.NewDense(1, 1, []float64{0})
	system, err := New(a, b, pointStarter(1), 0, 50)
	require.NoError(t, err)

	_, err = system.Reset()
	require.NoError(t, err)

	action := mat.NewVecDense(1, []float64{0})
	_, _, done, err := system.Step(action)
	require.NoError(t, err)
	assert.False(t, done)

	_, _, done, err = system.Step(action)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestStepBeforeResetErrors(t *testing.T) {
	system := NewDefault(42)
	_, _, _, err := system.Step(mat.NewVecDense(1, []float64{0}))
	assert.Error(t, err)
}

func TestStepRejectsWrongActionLength(t *testing.T) {
	system := NewDefault(42)
	_, err := system.Reset()
	require.NoError(t, err)

	_, _, _, err = system.Step(mat.NewVecDense(2, nil))
	assert.Error(t, err)
}

func TestNewRejectsBadShapes(t *testing.T) {
	_, err := New(mat.NewDense(2, 3, nil), mat.NewDense(2, 1, nil),
		pointStarter(0, 0), 0, 100)
	assert.Error(t, err)

	_, err = New(mat.NewDense(2, 2, nil), mat.NewDense(1, 1, nil),
		pointStarter(0, 0), 0, 100)
	assert.Error(t, err)
}

func TestDefaultStartsWithinBounds(t *testing.T) {
	system := NewDefault(42)
	for i := 0; i < 10; i++ {
		state, err := system.Reset()
		require.NoError(t, err)
		for j := 0; j < state.Len(); j++ {
			assert.GreaterOrEqual(t, state.AtVec(j), -1.0)
			assert.LessOrEqual(t, state.AtVec(j), 1.0)
		}
	}
}
