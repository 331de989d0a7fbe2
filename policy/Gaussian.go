package policy

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/solver"
)

// StdOffset is added to standard deviations to keep action
// distributions from collapsing to a point
const StdOffset float64 = 1e-3

const halfLog2Pi = 0.9189385332046727

// LinearGaussian implements a multi-dimensional diagonal Gaussian
// policy whose mean and log standard deviation are linear in the
// state features.
//
// The policy owns its weights as solver Params, so any Gorgonia
// Solver can adapt them. Algorithms accumulate score-function
// gradients through AccumulateScore.
type LinearGaussian struct {
	meanWeights   *mat.Dense
	logStdWeights *mat.Dense
	mean          *solver.Param
	logStd        *solver.Param

	features   int
	actionDims int
	rng        *rand.Rand
	seed       uint64
}

// NewLinearGaussian creates a new LinearGaussian policy with
// zero-initialized weights, giving a standard normal action
// distribution in every state for unit features.
func NewLinearGaussian(features, actionDims int, seed uint64) *LinearGaussian {
	meanWeights := mat.NewDense(actionDims, features, nil)
	logStdWeights := mat.NewDense(actionDims, features, nil)

	return &LinearGaussian{
		meanWeights:   meanWeights,
		logStdWeights: logStdWeights,
		mean:          solver.NewParam("policy/mean", meanWeights),
		logStd:        solver.NewParam("policy/logstd", logStdWeights),
		features:      features,
		actionDims:    actionDims,
		rng:           rand.New(rand.NewSource(seed)),
		seed:          seed,
	}
}

// Mean returns the mean of the policy's action distribution at state
func (l *LinearGaussian) Mean(state mat.Vector) *mat.VecDense {
	mean := mat.NewVecDense(l.actionDims, nil)
	mean.MulVec(l.meanWeights, state)
	return mean
}

// Std returns the standard deviation of the policy's action
// distribution at state
func (l *LinearGaussian) Std(state mat.Vector) *mat.VecDense {
	std := mat.NewVecDense(l.actionDims, nil)
	std.MulVec(l.logStdWeights, state)
	for i := 0; i < std.Len(); i++ {
		std.SetVec(i, math.Exp(std.AtVec(i))+StdOffset)
	}
	return std
}

// SelectAction samples an action from the policy at state
func (l *LinearGaussian) SelectAction(state mat.Vector) (*mat.VecDense,
	float64, float64) {
	mean := l.Mean(state)
	std := l.Std(state)

	action := mat.NewVecDense(l.actionDims, nil)
	for i := 0; i < l.actionDims; i++ {
		action.SetVec(i, mean.AtVec(i)+std.AtVec(i)*l.rng.NormFloat64())
	}

	return action, l.logProb(mean, std, action), entropy(std)
}

// LogProb returns the log probability of taking action in state
func (l *LinearGaussian) LogProb(state, action mat.Vector) (float64, error) {
	if action.Len() != l.actionDims {
		return 0, fmt.Errorf("logProb: invalid action length "+
			"\n\twant(%v)\n\thave(%v)", l.actionDims, action.Len())
	}
	if state.Len() != l.features {
		return 0, fmt.Errorf("logProb: invalid state length "+
			"\n\twant(%v)\n\thave(%v)", l.features, state.Len())
	}
	return l.logProb(l.Mean(state), l.Std(state), action), nil
}

// Entropy returns the entropy of the policy's action distribution at
// state
func (l *LinearGaussian) Entropy(state mat.Vector) float64 {
	return entropy(l.Std(state))
}

func (l *LinearGaussian) logProb(mean, std *mat.VecDense,
	action mat.Vector) float64 {
	var lp float64
	for i := 0; i < l.actionDims; i++ {
		z := (action.AtVec(i) - mean.AtVec(i)) / std.AtVec(i)
		lp += -halfLog2Pi - math.Log(std.AtVec(i)) - 0.5*z*z
	}
	return lp
}

func entropy(std *mat.VecDense) float64 {
	var h float64
	for i := 0; i < std.Len(); i++ {
		h += 0.5 + halfLog2Pi + math.Log(std.AtVec(i))
	}
	return h
}

// ActionDims returns the dimensionality of the policy's actions
func (l *LinearGaussian) ActionDims() int {
	return l.actionDims
}

// Model returns the policy's trainable parameters
func (l *LinearGaussian) Model() []G.ValueGrad {
	return []G.ValueGrad{l.mean, l.logStd}
}

// AccumulateScore accumulates scale * ∇ log π(action|state) into the
// policy's gradients. Stochastic-gradient estimators of actor losses
// are built from repeated calls with per-sample scales.
func (l *LinearGaussian) AccumulateScore(state, action mat.Vector,
	scale float64) {
	mean := l.Mean(state)
	std := l.Std(state)

	for i := 0; i < l.actionDims; i++ {
		sigma := std.AtVec(i)
		z := (action.AtVec(i) - mean.AtVec(i)) / sigma

		l.mean.AddGrad(i, scale*z/sigma, state)
		l.logStd.AddGrad(i, scale*(z*z-1.0), state)
	}
}

// AccumulateEntropyGrad accumulates scale * ∇ H(π(·|state)) into the
// policy's gradients. For a diagonal Gaussian the entropy depends on
// the log standard deviation only, so the mean weights are untouched.
func (l *LinearGaussian) AccumulateEntropyGrad(state mat.Vector,
	scale float64) {
	std := l.Std(state)
	for i := 0; i < l.actionDims; i++ {
		sigma := std.AtVec(i)
		// d/dw log(exp(w·s) + offset) = s * exp(w·s) / sigma
		l.logStd.AddGrad(i, scale*(sigma-StdOffset)/sigma, state)
	}
}

// Clone returns a copy of the policy with identical weights and an
// independent random stream. Clones are used as lagged target
// policies and as frozen priors during policy fitting.
func (l *LinearGaussian) Clone() *LinearGaussian {
	clone := NewLinearGaussian(l.features, l.actionDims, l.seed+1)
	clone.Set(l)
	return clone
}

// Set sets the policy's weights to those of other
func (l *LinearGaussian) Set(other *LinearGaussian) {
	l.meanWeights.Copy(other.meanWeights)
	l.logStdWeights.Copy(other.logStdWeights)
}

// Polyak updates the policy's weights towards those of other with
// averaging constant tau: w <- tau*other + (1-tau)*w
func (l *LinearGaussian) Polyak(other *LinearGaussian, tau float64) {
	polyak(l.meanWeights, other.meanWeights, tau)
	polyak(l.logStdWeights, other.logStdWeights, tau)
}

func polyak(dst, src *mat.Dense, tau float64) {
	r, c := dst.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			dst.Set(i, j, tau*src.At(i, j)+(1-tau)*dst.At(i, j))
		}
	}
}
