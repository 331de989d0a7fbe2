// Package checkpointer implements checkpointing of serializable
// objects while an experiment runs
package checkpointer

// Serializable is an object that can save itself to a file
type Serializable interface {
	Save(filename string) error
}

// Checkpointer saves serializable objects on a cadence decided by the
// progress of an experiment. An experiment calls Checkpoint with the
// total step count after every transition and EndEpisode with the
// episode count after every episode.
type Checkpointer interface {
	Checkpoint(step int) error
	EndEpisode(episode int) error
}
