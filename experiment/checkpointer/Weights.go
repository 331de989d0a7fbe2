package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/gorl/solver"
)

// Weights makes the trainable parameters of an agent Serializable.
// Saving snapshots the named weight matrices; the weights keep
// changing as training continues, so each checkpoint reflects the
// values at save time.
type Weights struct {
	model []G.ValueGrad
}

// NewWeights returns the Serializable view of a trained model
func NewWeights(model []G.ValueGrad) *Weights {
	return &Weights{model: model}
}

// snapshot is the on-disk form of one parameter
type snapshot struct {
	Name string
	Rows int
	Cols int
	Data []float64
}

// Save writes every parameter's current weights to filename
func (w *Weights) Save(filename string) error {
	snapshots := make([]snapshot, 0, len(w.model))
	for _, vg := range w.model {
		param, ok := vg.(*solver.Param)
		if !ok {
			continue
		}
		rows, cols := param.Weights().Dims()
		data := make([]float64, 0, rows*cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				data = append(data, param.Weights().At(i, j))
			}
		}
		snapshots = append(snapshots, snapshot{
			Name: param.Name(),
			Rows: rows,
			Cols: cols,
			Data: data,
		})
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(snapshots); err != nil {
		return fmt.Errorf("save: could not encode weights: %v", err)
	}
	return nil
}
