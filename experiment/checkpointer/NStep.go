package checkpointer

// nStep implements checkpointing every N steps
type nStep struct {
	interval int
	object   Serializable

	// filename returns the name of the file to save the object in.
	// Use FilenameEnumerator for numbered files or FileTimer for
	// timestamped files.
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints every n steps
func NewNStep(n int, object Serializable,
	filename func() string) Checkpointer {
	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}
}

// Checkpoint saves the tracked object if step falls on the
// checkpointer's interval
func (n *nStep) Checkpoint(step int) error {
	if step%n.interval == 0 {
		return n.object.Save(n.filename())
	}
	return nil
}

// EndEpisode is a no-op: an nStep checkpointer follows steps only
func (n *nStep) EndEpisode(int) error {
	return nil
}
