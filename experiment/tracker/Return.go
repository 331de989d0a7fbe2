package tracker

import (
	"github.com/samuelfneumann/gorl/timestep"
)

// Return tracks and saves the episodic return in an experiment,
// accumulating the reward of every tracked Observation and cutting
// the accumulated return at every episode boundary.
//
// An episode must finish for this Tracker to record its data: if the
// last episode in an experiment never reaches EndEpisode, that
// episode's return is not saved.
type Return struct {
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker that saves its
// data at filename
func NewReturn(filename string) *Return {
	return &Return{filename: filename}
}

// Track accumulates the reward of obs into the current episode's
// return
func (r *Return) Track(obs timestep.Observation) {
	r.currentReturn += obs.Reward
}

// EndEpisode records the finished episode's return and starts
// accumulating the next episode's
func (r *Return) EndEpisode() {
	r.episodeReturns = append(r.episodeReturns, r.currentReturn)
	r.currentReturn = 0.0
}

// Returns returns the recorded episodic returns so far
func (r *Return) Returns() []float64 {
	return r.episodeReturns
}

// Save saves the data tracked by the Return Tracker to disk
func (r *Return) Save() error {
	return save(r.filename, r.episodeReturns)
}
