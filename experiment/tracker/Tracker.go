// Package tracker implements Trackers, which track and save data
// generated while an experiment runs
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/gorl/timestep"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished. An experiment feeds a Tracker every
// Observation it generates, in order, and calls EndEpisode at every
// episode boundary so that trackers of episodic quantities know when
// to cut.
type Tracker interface {
	Track(obs timestep.Observation)
	EndEpisode()
	Save() error
}

// LoadData loads and returns the float64 data saved by a Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open data file: %v",
			err)
	}
	defer file.Close()

	var data []float64
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %v", err)
	}
	return data, nil
}

// LoadInts loads and returns the int data saved by a Tracker
func LoadInts(filename string) ([]int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadInts: could not open data file: %v",
			err)
	}
	defer file.Close()

	var data []int
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("loadInts: could not decode data: %v", err)
	}
	return data, nil
}

// save gob-encodes data to filename
func save(filename string, data interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(data); err != nil {
		return fmt.Errorf("save: could not encode data: %v", err)
	}
	return nil
}
