package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/samuelfneumann/gorl/agent/offpolicy"
	"github.com/samuelfneumann/gorl/environment/linearsystem"
	"github.com/samuelfneumann/gorl/experiment"
	"github.com/samuelfneumann/gorl/experiment/tracker"
	"github.com/samuelfneumann/gorl/utils/floatutils"
)

func main() {
	var seed uint64 = 192382

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()

	// Create the environment
	env := linearsystem.NewDefault(seed)

	// Create the agent
	config := offpolicy.SACConfig{
		BufferSize:            10000,
		BatchSize:             32,
		Gamma:                 0.99,
		Tau:                   0.01,
		StepSize:              1e-3,
		TrainFrequency:        1,
		TargetUpdateFrequency: 1,
		ExplorationSteps:      500,
		Temperature:           0.2,
		MinAction:             -2,
		MaxAction:             2,
		Logger:                logger,
	}
	ag, err := config.CreateAgent(env, seed)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not create agent")
	}

	// Run the experiment, tracking episodic returns
	returns := tracker.NewReturn("returns.bin")
	exp := experiment.NewOnline(env, ag, 50000, 200,
		[]tracker.Tracker{returns}, nil, logger)

	if err := exp.Run(); err != nil {
		logger.Fatal().Err(err).Msg("experiment failed")
	}
	if err := exp.Save(); err != nil {
		logger.Fatal().Err(err).Msg("could not save data")
	}

	data, err := tracker.LoadData("returns.bin")
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load data")
	}
	fmt.Printf("episodes: %v  mean return: %v\n", len(data),
		floatutils.Mean(data))
}
