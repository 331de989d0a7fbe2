package checkpointer

// milestone implements checkpointing at a fixed list of episode
// milestones, useful for saving weights at publication-relevant
// points of training
type milestone struct {
	episodes map[int]bool
	object   Serializable
	filename func() string
}

// NewMilestone returns a checkpointer that checkpoints after each of
// the given episodes finishes
func NewMilestone(episodes []int, object Serializable,
	filename func() string) Checkpointer {
	set := make(map[int]bool, len(episodes))
	for _, episode := range episodes {
		set[episode] = true
	}
	return &milestone{
		episodes: set,
		object:   object,
		filename: filename,
	}
}

// Checkpoint is a no-op: a milestone checkpointer follows episodes
// only
func (m *milestone) Checkpoint(int) error {
	return nil
}

// EndEpisode saves the tracked object if episode is one of the
// checkpointer's milestones
func (m *milestone) EndEpisode(episode int) error {
	if m.episodes[episode] {
		return m.object.Save(m.filename())
	}
	return nil
}
