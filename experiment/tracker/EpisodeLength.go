package tracker

import (
	"github.com/samuelfneumann/gorl/timestep"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment. An episode must finish for this Tracker to record its
// data.
type EpisodeLength struct {
	currentLength  int
	episodeLengths []int
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength Tracker which will
// save its data at filename
func NewEpisodeLength(filename string) *EpisodeLength {
	return &EpisodeLength{filename: filename}
}

// Track counts obs towards the current episode's length
func (e *EpisodeLength) Track(timestep.Observation) {
	e.currentLength++
}

// EndEpisode records the finished episode's length
func (e *EpisodeLength) EndEpisode() {
	e.episodeLengths = append(e.episodeLengths, e.currentLength)
	e.currentLength = 0
}

// Lengths returns the recorded episode lengths so far
func (e *EpisodeLength) Lengths() []int {
	return e.episodeLengths
}

// Save saves the data tracked by the EpisodeLength Tracker to disk
func (e *EpisodeLength) Save() error {
	return save(e.filename, e.episodeLengths)
}
