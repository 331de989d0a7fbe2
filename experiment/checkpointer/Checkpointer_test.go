package checkpointer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/solver"
)

// recorder counts saves and remembers the filenames used
type recorder struct {
	filenames []string
}

func (r *recorder) Save(filename string) error {
	r.filenames = append(r.filenames, filename)
	return nil
}

func TestNStepSavesOnInterval(t *testing.T) {
	rec := &recorder{}
	check := NewNStep(10, rec, FilenameEnumerator(0, "weights", ".bin"))

	for step := 1; step <= 35; step++ {
		require.NoError(t, check.Checkpoint(step))
	}
	require.NoError(t, check.EndEpisode(1))

	assert.Equal(t, []string{"weights1.bin", "weights2.bin",
		"weights3.bin"}, rec.filenames)
}

func TestMilestoneSavesOnListedEpisodes(t *testing.T) {
	rec := &recorder{}
	check := NewMilestone([]int{2, 5}, rec,
		FilenameEnumerator(0, "m", ".bin"))

	for episode := 1; episode <= 6; episode++ {
		require.NoError(t, check.Checkpoint(episode*100))
		require.NoError(t, check.EndEpisode(episode))
	}

	assert.Equal(t, []string{"m1.bin", "m2.bin"}, rec.filenames)
}

func TestFilenameEnumerator(t *testing.T) {
	next := FilenameEnumerator(4, "data/run", ".gob")
	assert.Equal(t, "data/run5.gob", next())
	assert.Equal(t, "data/run6.gob", next())
}

func TestWeightsSaveWritesEveryParam(t *testing.T) {
	weights := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	param := solver.NewParam("test/weights", weights)

	filename := filepath.Join(t.TempDir(), "weights.bin")
	w := NewWeights([]G.ValueGrad{param})
	require.NoError(t, w.Save(filename))

	info, err := os.Stat(filename)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
