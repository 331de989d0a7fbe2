package policy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/solver"
)

func TestLinearGaussianZeroWeightsIsStandardNormal(t *testing.T) {
	pol := NewLinearGaussian(2, 1, 42)
	state := mat.NewVecDense(2, []float64{1.5, -0.5})

	assert.Equal(t, 0.0, pol.Mean(state).AtVec(0))
	assert.InDelta(t, 1.0+StdOffset, pol.Std(state).AtVec(0), 1e-12)

	// Standard normal log density at the mean
	logProb, err := pol.LogProb(state, mat.NewVecDense(1, []float64{0}))
	require.NoError(t, err)
	assert.InDelta(t, -0.5*math.Log(2*math.Pi), logProb, 1e-3)
}

// LogProb accepts any mat.Vector action, not just *mat.VecDense
func TestLinearGaussianLogProbOfVectorView(t *testing.T) {
	pol := NewLinearGaussian(2, 1, 42)
	state := mat.NewVecDense(2, []float64{1, 0})

	actions := mat.NewDense(2, 1, []float64{0.5, -0.5})
	got, err := pol.LogProb(state, actions.RowView(0))
	require.NoError(t, err)

	want, err := pol.LogProb(state, mat.NewVecDense(1, []float64{0.5}))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLinearGaussianLogProbRejectsBadLengths(t *testing.T) {
	pol := NewLinearGaussian(2, 1, 42)

	_, err := pol.LogProb(mat.NewVecDense(3, nil), mat.NewVecDense(1, nil))
	assert.Error(t, err)

	_, err = pol.LogProb(mat.NewVecDense(2, nil), mat.NewVecDense(2, nil))
	assert.Error(t, err)
}

func TestLinearGaussianSelectActionConsistency(t *testing.T) {
	pol := NewLinearGaussian(2, 3, 42)
	state := mat.NewVecDense(2, []float64{1, 2})

	action, logProb, entropy := pol.SelectAction(state)
	require.Equal(t, 3, action.Len())

	want, err := pol.LogProb(state, action)
	require.NoError(t, err)
	assert.InDelta(t, want, logProb, 1e-12)
	assert.InDelta(t, pol.Entropy(state), entropy, 1e-12)
}

// The score of a Gaussian mean weight is z/sigma * state. With zero
// weights and unit state, sampling action a gives mean gradient
// scale * a / (1 + StdOffset)^2.
func TestLinearGaussianScoreDirection(t *testing.T) {
	pol := NewLinearGaussian(1, 1, 42)
	state := mat.NewVecDense(1, []float64{1})
	action := mat.NewVecDense(1, []float64{2})

	pol.AccumulateScore(state, action, 1.0)

	meanGrad := pol.Model()[0].(*solver.Param)
	sigma := 1.0 + StdOffset
	assert.InDelta(t, 2.0/(sigma*sigma), gradAt(t, meanGrad, 0, 0), 1e-12)
}

func gradAt(t *testing.T, p *solver.Param, i, j int) float64 {
	t.Helper()
	grad, err := p.Grad()
	require.NoError(t, err)
	data := grad.Data().([]float64)
	_, cols := p.Weights().Dims()
	return data[i*cols+j]
}

func TestLinearGaussianEntropyGradRaisesEntropy(t *testing.T) {
	pol := NewLinearGaussian(1, 1, 42)
	state := mat.NewVecDense(1, []float64{1})

	before := pol.Entropy(state)

	// Ascend the entropy gradient by hand
	pol.AccumulateEntropyGrad(state, 1.0)
	g := gradAt(t, pol.Model()[1].(*solver.Param), 0, 0)
	pol.logStdWeights.Set(0, 0, pol.logStdWeights.At(0, 0)+0.1*g)

	assert.Greater(t, pol.Entropy(state), before)
}

func TestLinearGaussianCloneIsIndependent(t *testing.T) {
	pol := NewLinearGaussian(2, 1, 42)
	pol.meanWeights.Set(0, 0, 3)

	clone := pol.Clone()
	state := mat.NewVecDense(2, []float64{1, 0})
	assert.Equal(t, 3.0, clone.Mean(state).AtVec(0))

	clone.meanWeights.Set(0, 0, -1)
	assert.Equal(t, 3.0, pol.Mean(state).AtVec(0))
}

func TestLinearGaussianPolyak(t *testing.T) {
	target := NewLinearGaussian(1, 1, 42)
	online := NewLinearGaussian(1, 1, 42)
	online.meanWeights.Set(0, 0, 10)

	target.Polyak(online, 0.1)
	assert.InDelta(t, 1.0, target.meanWeights.At(0, 0), 1e-12)
}

func TestLinearDeterministicClipsActions(t *testing.T) {
	pol := NewLinearDeterministic(1, 1, -1, 1, 0, 42)
	pol.weights.Set(0, 0, 100)

	state := mat.NewVecDense(1, []float64{1})
	assert.Equal(t, 1.0, pol.Action(state).AtVec(0))
	assert.Equal(t, 1.0, pol.NoisyAction(state).AtVec(0))

	state.SetVec(0, -1)
	assert.Equal(t, -1.0, pol.Action(state).AtVec(0))
}

func TestLinearDeterministicZeroNoiseIsDeterministic(t *testing.T) {
	pol := NewLinearDeterministic(2, 1, -5, 5, 0, 42)
	pol.weights.Set(0, 0, 0.5)
	pol.weights.Set(0, 1, -0.25)

	state := mat.NewVecDense(2, []float64{2, 4})
	want := 0.5*2 - 0.25*4
	assert.Equal(t, want, pol.Action(state).AtVec(0))
	assert.Equal(t, want, pol.NoisyAction(state).AtVec(0))
}

func TestLinearDeterministicActionGradChainsThroughWeights(t *testing.T) {
	pol := NewLinearDeterministic(2, 1, -1, 1, 0, 42)
	state := mat.NewVecDense(2, []float64{1, 2})
	actionGrad := mat.NewVecDense(1, []float64{3})

	pol.AccumulateActionGrad(state, actionGrad, -1.0)

	param := pol.Model()[0].(*solver.Param)
	assert.Equal(t, -3.0, gradAt(t, param, 0, 0))
	assert.Equal(t, -6.0, gradAt(t, param, 0, 1))
}
