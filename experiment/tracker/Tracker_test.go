package tracker

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/gorl/timestep"
)

func reward(r float64) timestep.Observation {
	return timestep.New(mat.NewVecDense(1, nil), mat.NewVecDense(1, nil),
		r, mat.NewVecDense(1, nil), false)
}

func TestReturnCutsAtEpisodeBoundaries(t *testing.T) {
	tr := NewReturn(filepath.Join(t.TempDir(), "returns.bin"))

	tr.Track(reward(1))
	tr.Track(reward(2))
	tr.EndEpisode()
	tr.Track(reward(-3))
	tr.EndEpisode()

	// An unfinished episode is not recorded
	tr.Track(reward(100))

	assert.Equal(t, []float64{3, -3}, tr.Returns())
}

func TestReturnSaveRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")
	tr := NewReturn(filename)
	tr.Track(reward(2.5))
	tr.EndEpisode()
	require.NoError(t, tr.Save())

	loaded, err := LoadData(filename)
	require.NoError(t, err)
	assert.Equal(t, []float64{2.5}, loaded)
}

func TestEpisodeLengthSaveRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "lengths.bin")
	tr := NewEpisodeLength(filename)

	for i := 0; i < 4; i++ {
		tr.Track(reward(0))
	}
	tr.EndEpisode()
	tr.Track(reward(0))
	tr.EndEpisode()
	require.NoError(t, tr.Save())

	loaded, err := LoadInts(filename)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 1}, loaded)
}

func TestLoadDataMissingFile(t *testing.T) {
	_, err := LoadData(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}
