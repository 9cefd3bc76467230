// Package app wires configuration, logging, events and training for the
// binaries under cmd/.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/qdungeon/internal/common"
	"github.com/mitchelldurbincs/qdungeon/internal/config"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/events"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/events/subscribers"
	"github.com/mitchelldurbincs/qdungeon/internal/qlearning"
	"github.com/mitchelldurbincs/qdungeon/internal/report"
)

// Options are the command line settings shared by all binaries. Empty or
// negative values leave the configured value in place.
type Options struct {
	ConfigPath  string
	Environment string
	LogLevel    string
	Seed        int64
	ChartPath   string
}

// Setup loads configuration, applies flag overrides and installs logging.
func Setup(opts Options) (*config.Config, error) {
	if err := config.Init(opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	if err := config.LoadEnvironmentConfig(opts.Environment); err != nil {
		return nil, err
	}
	// Flag overrides go on a private copy; the shared instance is only ever swapped.
	snapshot := *config.Get()
	cfg := &snapshot

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.Seed != 0 {
		cfg.Training.Seed = opts.Seed
	}
	if opts.ChartPath != "" {
		cfg.Report.ChartPath = opts.ChartPath
	}

	common.SetupLogging(cfg.Logging.Level, cfg.Logging.Format)
	if path := config.ConfigFilePath(); path != "" {
		log.Info().Str("file", path).Msg("Config loaded")
	} else {
		log.Info().Msg("No config file found; using defaults")
	}
	return cfg, nil
}

// ResolveSeed returns seed, or a time-based seed when it is zero.
func ResolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// NewEventBus returns a bus whose events are logged at level.
func NewEventBus(logger zerolog.Logger, level zerolog.Level) *events.EventBus {
	bus := events.NewEventBus()
	bus.Subscribe(subscribers.NewLoggerSubscriber("event_logger", logger, level))
	return bus
}

// Policy is a trained value table with the rng that continues its stream.
type Policy struct {
	Values *qlearning.ValueTable
	Stats  *qlearning.TrainingStats
	RNG    *rand.Rand
	Seed   int64
}

// TrainPolicy trains on the configured grid and writes the training chart
// when a chart path is configured.
func TrainPolicy(ctx context.Context, cfg *config.Config, publisher events.Publisher) (*Policy, error) {
	seed := ResolveSeed(cfg.Training.Seed)
	rng := rand.New(rand.NewSource(seed))

	log.Info().
		Int64("seed", seed).
		Int("width", cfg.Dungeon.Width).
		Int("height", cfg.Dungeon.Height).
		Int("episodes", cfg.Training.Episodes).
		Msg("Training dungeon policy")

	opts := []qlearning.Option{}
	if publisher != nil {
		opts = append(opts, qlearning.WithPublisher(publisher))
	}
	values, stats, err := qlearning.Run(ctx, cfg.Dungeon.Width, cfg.Dungeon.Height,
		cfg.Hyperparameters(), cfg.RewardConfig(), rng, opts...)
	if err != nil {
		return nil, fmt.Errorf("training failed: %w", err)
	}

	if cfg.Report.ChartPath != "" {
		if err := report.SaveTrainingChart(cfg.Report.ChartPath, stats, cfg.Report.Window); err != nil {
			return nil, fmt.Errorf("failed to write training chart: %w", err)
		}
		log.Info().Str("path", cfg.Report.ChartPath).Msg("Training chart written")
	}

	return &Policy{Values: values, Stats: stats, RNG: rng, Seed: seed}, nil
}
