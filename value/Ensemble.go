package value

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/utils/floatutils"
)

// EnsembleQ is an ensemble of action-value functions. Pessimistic
// targets take the minimum across the ensemble to reduce
// overestimation bias.
type EnsembleQ struct {
	members []*LinearQ
}

// NewEnsembleQ creates a new EnsembleQ of numMembers zero-initialized
// linear action-value functions
func NewEnsembleQ(features, actionDims, numMembers int) (*EnsembleQ, error) {
	if numMembers < 1 {
		return nil, fmt.Errorf("newEnsembleQ: ensemble must have at "+
			"least one member, got %v", numMembers)
	}

	members := make([]*LinearQ, numMembers)
	for i := range members {
		members[i] = NewLinearQ(features, actionDims)
	}
	return &EnsembleQ{members: members}, nil
}

// NumMembers returns the number of members in the ensemble
func (e *EnsembleQ) NumMembers() int {
	return len(e.members)
}

// Member returns the i'th member of the ensemble
func (e *EnsembleQ) Member(i int) *LinearQ {
	return e.members[i]
}

// All returns the per-member estimates of the value of taking action
// in state
func (e *EnsembleQ) All(state, action mat.Vector) ([]float64, error) {
	estimates := make([]float64, len(e.members))
	for i, member := range e.members {
		q, err := member.Q(state, action)
		if err != nil {
			return nil, err
		}
		estimates[i] = q
	}
	return estimates, nil
}

// Min returns the minimum estimate across the ensemble of the value
// of taking action in state
func (e *EnsembleQ) Min(state, action mat.Vector) (float64, error) {
	estimates, err := e.All(state, action)
	if err != nil {
		return 0, err
	}
	return floatutils.Min(estimates...), nil
}

// Q returns the first member's estimate, satisfying QFunction
func (e *EnsembleQ) Q(state, action mat.Vector) (float64, error) {
	return e.members[0].Q(state, action)
}

// Model returns the trainable parameters of every member
func (e *EnsembleQ) Model() []G.ValueGrad {
	var model []G.ValueGrad
	for _, member := range e.members {
		model = append(model, member.Model()...)
	}
	return model
}

// Clone returns a copy of the ensemble with identical weights
func (e *EnsembleQ) Clone() *EnsembleQ {
	members := make([]*LinearQ, len(e.members))
	for i, member := range e.members {
		members[i] = member.Clone()
	}
	return &EnsembleQ{members: members}
}

// Set sets the weights of every member to those of other
func (e *EnsembleQ) Set(other *EnsembleQ) {
	for i, member := range e.members {
		member.Set(other.members[i])
	}
}

// Polyak updates the weights of every member towards those of other
// with averaging constant tau
func (e *EnsembleQ) Polyak(other *EnsembleQ, tau float64) {
	for i, member := range e.members {
		member.Polyak(other.members[i], tau)
	}
}
