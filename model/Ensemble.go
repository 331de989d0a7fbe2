package model

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/expreplay"
)

// Ensemble is an ensemble of dynamics models. Each member is trained
// on its own bootstrap-masked view of a shared replay buffer, so the
// spread of member predictions reflects model uncertainty.
//
// As a Dynamics, the Ensemble predicts with a member chosen uniformly
// at random per call, so repeated imagined rollouts from the same
// initial states sample different plausible dynamics.
type Ensemble struct {
	members []*LinearModel
	rng     *rand.Rand
}

// NewEnsemble creates a new Ensemble of numMembers zero-initialized
// linear models
func NewEnsemble(stateDims, actionDims, numMembers int,
	seed uint64) (*Ensemble, error) {
	if numMembers < 1 {
		return nil, fmt.Errorf("newEnsemble: ensemble must have at least "+
			"one member, got %v", numMembers)
	}

	members := make([]*LinearModel, numMembers)
	for i := range members {
		members[i] = NewLinearModel(stateDims, actionDims)
	}
	return &Ensemble{
		members: members,
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// NumMembers returns the number of members in the ensemble
func (e *Ensemble) NumMembers() int {
	return len(e.members)
}

// Member returns the i'th member of the ensemble
func (e *Ensemble) Member(i int) *LinearModel {
	return e.members[i]
}

// NextStates predicts successor states with a uniformly random member
func (e *Ensemble) NextStates(states, actions *mat.Dense) (*mat.Dense,
	error) {
	member := e.members[e.rng.Intn(len(e.members))]
	return member.NextStates(states, actions)
}

// Fit trains each member on its own bootstrap-masked batch sampled
// from the replay buffer. The buffer must store bootstrap masks for
// at least NumMembers ensemble members.
func (e *Ensemble) Fit(replay *expreplay.ExperienceReplay,
	batchSize int) error {
	if replay.NumEnsemble() < len(e.members) {
		return fmt.Errorf("fit: replay stores masks for %v members, "+
			"ensemble has %v", replay.NumEnsemble(), len(e.members))
	}

	for i, member := range e.members {
		batch, err := replay.SampleBootstrapBatch(batchSize, i)
		if err != nil {
			return fmt.Errorf("fit: could not sample batch for member "+
				"%v: %w", i, err)
		}
		if err := member.Fit(batch); err != nil {
			return fmt.Errorf("fit: member %v: %w", i, err)
		}
	}
	return nil
}
