package experiment

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/samuelfneumann/gorl/agent"
	"github.com/samuelfneumann/gorl/environment"
	"github.com/samuelfneumann/gorl/experiment/checkpointer"
	"github.com/samuelfneumann/gorl/experiment/tracker"
	"github.com/samuelfneumann/gorl/rollout"
	"github.com/samuelfneumann/gorl/timestep"
	"github.com/samuelfneumann/gorl/utils/floatutils"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed.
type Online struct {
	env   environment.Environment
	agent agent.Agent

	maxSteps        uint
	maxEpisodeSteps int
	currentSteps    uint
	episodes        int

	trackers       []tracker.Tracker
	checkpointers  []checkpointer.Checkpointer
	episodeReturns []float64
	stopWindow     int
	stopTarget     float64

	logger zerolog.Logger
}

// NewOnline creates and returns a new online experiment running agent
// on env. The experiment ends once maxSteps total environment steps
// have been taken, and single episodes are cut off after
// maxEpisodeSteps transitions.
func NewOnline(env environment.Environment, ag agent.Agent,
	maxSteps uint, maxEpisodeSteps int, trackers []tracker.Tracker,
	checkpointers []checkpointer.Checkpointer,
	logger zerolog.Logger) *Online {
	return &Online{
		env:             env,
		agent:           ag,
		maxSteps:        maxSteps,
		maxEpisodeSteps: maxEpisodeSteps,
		trackers:        trackers,
		checkpointers:   checkpointers,
		logger:          logger,
	}
}

// Register registers a Tracker with the experiment so that data
// generated while the experiment runs can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// StopEarly ends the experiment once the mean return of the last
// window episodes reaches target
func (o *Online) StopEarly(window int, target float64) {
	o.stopWindow = window
	o.stopTarget = target
}

// RunEpisode runs a single episode of the experiment and reports
// whether the experiment is finished
func (o *Online) RunEpisode() (bool, error) {
	if o.currentSteps >= o.maxSteps {
		return true, nil
	}
	budget := o.maxEpisodeSteps
	if remaining := int(o.maxSteps - o.currentSteps); remaining < budget {
		budget = remaining
	}

	var episodeReturn float64
	var episodeLength int
	track := func(obs timestep.Observation) {
		o.currentSteps++
		episodeReturn += obs.Reward
		episodeLength++

		for _, t := range o.trackers {
			t.Track(obs)
		}
		for _, c := range o.checkpointers {
			if err := c.Checkpoint(int(o.currentSteps)); err != nil {
				o.logger.Warn().Err(err).Msg("checkpoint failed")
			}
		}
	}

	if err := rollout.RolloutAgent(o.env, o.agent, 1, budget,
		track); err != nil {
		return false, fmt.Errorf("runEpisode: %v", err)
	}

	o.episodes++
	o.episodeReturns = append(o.episodeReturns, episodeReturn)
	for _, t := range o.trackers {
		t.EndEpisode()
	}
	for _, c := range o.checkpointers {
		if err := c.EndEpisode(o.episodes); err != nil {
			o.logger.Warn().Err(err).Msg("checkpoint failed")
		}
	}

	o.logger.Info().
		Int("episode", o.episodes).
		Uint("totalSteps", o.currentSteps).
		Int("length", episodeLength).
		Float64("return", episodeReturn).
		Msg("episode finished")

	return o.currentSteps >= o.maxSteps || o.stoppedEarly(), nil
}

// Run runs the entire experiment until the step limit or the
// early-stopping condition is reached
func (o *Online) Run() error {
	for {
		ended, err := o.RunEpisode()
		if err != nil {
			return err
		}
		if ended {
			return nil
		}
	}
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

// EpisodeReturns returns the return of every finished episode
func (o *Online) EpisodeReturns() []float64 {
	return o.episodeReturns
}

func (o *Online) stoppedEarly() bool {
	if o.stopWindow < 1 || len(o.episodeReturns) < o.stopWindow {
		return false
	}
	recent := o.episodeReturns[len(o.episodeReturns)-o.stopWindow:]
	return floatutils.Mean(recent) >= o.stopTarget
}
