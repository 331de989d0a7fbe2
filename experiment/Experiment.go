// Package experiment implements functionality for running an
// experiment
package experiment

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/experiment/checkpointer"
	"github.com/samuelfneumann/gorl/experiment/tracker"
)

// Experiment outlines structs that can run experiments.
//
// Experiments feed every Observation an agent generates to their
// registered Trackers and Checkpointers; Save writes all tracked data
// to disk, usually after the experiment has run. Run runs episodes
// until the total step limit or an early-stopping condition is
// reached, and RunEpisode runs a single episode.
type Experiment interface {
	Run() error

	// RunEpisode runs one episode and reports whether the experiment
	// is finished
	RunEpisode() (bool, error)

	// Save all tracked data to disk
	Save() error

	// Register adds a Tracker to the (possibly already running)
	// experiment. Useful to track data only after a specified event.
	Register(t tracker.Tracker)
}

type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment
type Config struct {
	Type
	MaxSteps        uint
	MaxEpisodeSteps int
	AgentConfig     agent.Config `json:"-"`
}

// CreateExp creates the experiment that the config describes
func (c Config) CreateExp(env environment.Environment, seed uint64,
	trackers []tracker.Tracker, check []checkpointer.Checkpointer,
	logger zerolog.Logger) (Experiment, error) {
	ag, err := c.AgentConfig.CreateAgent(env, seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create agent: %v",
			err)
	}

	switch c.Type {
	case OnlineExp:
		return NewOnline(env, ag, c.MaxSteps, c.MaxEpisodeSteps,
			trackers, check, logger), nil
	}

	return nil, fmt.Errorf("createExp: no such experiment type %v",
		c.Type)
}
