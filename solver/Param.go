package solver

import (
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Param is a trainable parameter matrix that satisfies
// gorgonia.ValueGrad, so that any Gorgonia Solver can step it.
//
// The parameter's value tensor shares its backing storage with a
// gonum matrix: function approximators do their linear algebra
// through the gonum view while solvers update the identical memory
// in place through the tensor view. Gradients are accumulated
// analytically into the grad tensor by the owning function
// approximator between ZeroGrad and the solver's Step.
type Param struct {
	name  string
	value *tensor.Dense
	grad  *tensor.Dense

	weights  *mat.Dense
	gradData []float64
}

// NewParam wraps a gonum weight matrix as a trainable parameter. The
// matrix and the returned Param alias the same storage.
func NewParam(name string, weights *mat.Dense) *Param {
	r, c := weights.Dims()
	raw := weights.RawMatrix()

	gradData := make([]float64, r*c)
	return &Param{
		name: name,
		value: tensor.New(
			tensor.WithShape(r, c),
			tensor.WithBacking(raw.Data),
		),
		grad: tensor.New(
			tensor.WithShape(r, c),
			tensor.WithBacking(gradData),
		),
		weights:  weights,
		gradData: gradData,
	}
}

// Value satisfies gorgonia.Valuer
func (p *Param) Value() G.Value {
	return p.value
}

// Grad satisfies gorgonia.ValueGrad
func (p *Param) Grad() (G.Value, error) {
	return p.grad, nil
}

// Name returns the name of the parameter
func (p *Param) Name() string {
	return p.name
}

// Weights returns the gonum view of the parameter
func (p *Param) Weights() *mat.Dense {
	return p.weights
}

// ZeroGrad zeroes the accumulated gradient
func (p *Param) ZeroGrad() {
	for i := range p.gradData {
		p.gradData[i] = 0
	}
}

// AddGrad accumulates scale * v into the gradient of row
func (p *Param) AddGrad(row int, scale float64, v mat.Vector) {
	_, c := p.weights.Dims()
	offset := row * c
	for j := 0; j < c; j++ {
		p.gradData[offset+j] += scale * v.AtVec(j)
	}
}

// AddGradAt accumulates g into a single gradient entry
func (p *Param) AddGradAt(row, col int, g float64) {
	_, c := p.weights.Dims()
	p.gradData[row*c+col] += g
}
