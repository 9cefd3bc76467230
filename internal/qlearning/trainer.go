package qlearning

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/events"
)

// Hyperparameters controls a training run.
//
// Epsilon is the probability of exploiting, i.e. choosing among the
// ExploitCandidates best entries of the whole table. With probability
// 1-Epsilon a uniformly random (row, col, action) is explored instead. This
// is the reverse of the usual epsilon-greedy naming and is kept as is: the
// learned tables depend on it.
type Hyperparameters struct {
	Epsilon           float64
	DiscountFactor    float64
	LearningRate      float64
	Episodes          int
	ExploitCandidates int
}

// DefaultHyperparameters returns the settings the generator was tuned with.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{
		Epsilon:           0.1,
		DiscountFactor:    0.8,
		LearningRate:      0.8,
		Episodes:          2000,
		ExploitCandidates: 5,
	}
}

// Validate checks ranges before a run is started.
func (h Hyperparameters) Validate() error {
	switch {
	case h.Epsilon < 0 || h.Epsilon > 1:
		return fmt.Errorf("epsilon %.3f not in [0, 1]: %w", h.Epsilon, core.ErrConfiguration)
	case h.DiscountFactor < 0 || h.DiscountFactor > 1:
		return fmt.Errorf("discount factor %.3f not in [0, 1]: %w", h.DiscountFactor, core.ErrConfiguration)
	case h.LearningRate <= 0 || h.LearningRate > 1:
		return fmt.Errorf("learning rate %.3f not in (0, 1]: %w", h.LearningRate, core.ErrConfiguration)
	case h.Episodes < 0:
		return fmt.Errorf("episodes %d must be non-negative: %w", h.Episodes, core.ErrConfiguration)
	case h.ExploitCandidates < 1:
		return fmt.Errorf("exploit candidates %d must be at least 1: %w", h.ExploitCandidates, core.ErrConfiguration)
	}
	return nil
}

// BellmanUpdate returns the value after one temporal-difference step:
// oldQ + lr * (reward + discount*maxNextQ - oldQ).
func BellmanUpdate(oldQ, reward, maxNextQ, discount, lr float64) float64 {
	td := reward + discount*maxNextQ - oldQ
	return oldQ + lr*td
}

// Sample is one chosen (row, col, action) triplet.
type Sample struct {
	Row, Col int
	Action   int
	Exploit  bool
}

// TrainingStats summarises a finished run.
type TrainingStats struct {
	RunID    string
	Episodes int
	Exploits int
	TDErrors []float64
	Rewards  []float64
	Duration time.Duration
}

// MeanReward returns the average reward over all episodes.
func (s *TrainingStats) MeanReward() float64 {
	if len(s.Rewards) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range s.Rewards {
		sum += r
	}
	return sum / float64(len(s.Rewards))
}

// MovingAverageReward smooths the reward curve over a trailing window.
func (s *TrainingStats) MovingAverageReward(window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(s.Rewards))
	sum := 0.0
	for i, r := range s.Rewards {
		sum += r
		if i >= window {
			sum -= s.Rewards[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger replaces the default component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// WithPublisher publishes training events to p.
func WithPublisher(p events.Publisher) Option {
	return func(t *Trainer) { t.publisher = p }
}

// Trainer runs Q-learning over a training grid. It owns no tables: the
// reward table is read, the value table is written in place.
type Trainer struct {
	params    Hyperparameters
	rewards   *RewardTable
	values    *ValueTable
	grid      *core.Grid
	rng       *rand.Rand
	logger    zerolog.Logger
	publisher events.Publisher
}

// NewTrainer checks that the tables and grid share one shape.
func NewTrainer(params Hyperparameters, rewards *RewardTable, values *ValueTable, grid *core.Grid, rng *rand.Rand, opts ...Option) (*Trainer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rewards == nil || values == nil || grid == nil || rng == nil {
		return nil, fmt.Errorf("trainer needs rewards, values, grid and rng: %w", core.ErrConfiguration)
	}
	if rewards.Shape() != values.Shape() {
		return nil, fmt.Errorf("reward shape %s differs from value shape %s: %w",
			rewards.Shape(), values.Shape(), core.ErrConfiguration)
	}
	if s := values.Shape(); s.Rows != grid.H || s.Cols != grid.W {
		return nil, fmt.Errorf("value shape %s does not fit %dx%d grid: %w", s, grid.W, grid.H, core.ErrConfiguration)
	}

	t := &Trainer{
		params:  params,
		rewards: rewards,
		values:  values,
		grid:    grid,
		rng:     rng,
		logger:  log.With().Str("component", "trainer").Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// SelectAction picks the next triplet to update.
func (t *Trainer) SelectAction() Sample {
	data := t.values.t.data
	if t.rng.Float64() < t.params.Epsilon {
		flat := PickTopK(data, t.params.ExploitCandidates, t.rng)
		cell, action := flat/core.NumWallTypes, flat%core.NumWallTypes
		return Sample{
			Row:     cell / t.values.t.cols,
			Col:     cell % t.values.t.cols,
			Action:  action,
			Exploit: true,
		}
	}
	return Sample{
		Row:    t.rng.Intn(t.values.t.rows),
		Col:    t.rng.Intn(t.values.t.cols),
		Action: t.rng.Intn(core.NumWallTypes),
	}
}

// Step runs one episode and returns the chosen sample, its reward and the
// temporal difference used for the update.
func (t *Trainer) Step() (Sample, float64, float64) {
	s := t.SelectAction()

	t.grid.C[t.grid.Idx(s.Col, s.Row)].Wall = core.WallType(s.Action)

	reward := t.rewards.At(s.Row, s.Col, s.Action)
	oldQ := t.values.At(s.Row, s.Col, s.Action)
	maxQ := t.values.MaxAt(s.Row, s.Col)
	td := reward + t.params.DiscountFactor*maxQ - oldQ

	t.values.t.set(s.Row, s.Col, s.Action, oldQ+t.params.LearningRate*td)
	return s, reward, td
}

// Train runs exactly params.Episodes steps. Cancelling ctx stops the run
// between episodes; the table keeps every update made so far.
func (t *Trainer) Train(ctx context.Context) (*TrainingStats, error) {
	stats := &TrainingStats{
		RunID:    uuid.NewString(),
		TDErrors: make([]float64, 0, t.params.Episodes),
		Rewards:  make([]float64, 0, t.params.Episodes),
	}
	start := time.Now()
	shape := t.values.Shape()

	t.logger.Info().
		Str("run_id", stats.RunID).
		Int("rows", shape.Rows).
		Int("cols", shape.Cols).
		Int("episodes", t.params.Episodes).
		Float64("epsilon", t.params.Epsilon).
		Float64("discount_factor", t.params.DiscountFactor).
		Float64("learning_rate", t.params.LearningRate).
		Msg("Training the agent")
	t.publish(events.NewTrainingStartedEvent(stats.RunID, shape.Rows, shape.Cols, t.params.Episodes))

	progressEvery := t.params.Episodes / 10
	for episode := 0; episode < t.params.Episodes; episode++ {
		if err := ctx.Err(); err != nil {
			stats.Duration = time.Since(start)
			return stats, fmt.Errorf("training stopped after %d episodes: %w", episode, err)
		}

		s, reward, td := t.Step()
		if s.Exploit {
			stats.Exploits++
		}
		stats.Episodes++
		stats.Rewards = append(stats.Rewards, reward)
		stats.TDErrors = append(stats.TDErrors, td)

		if progressEvery > 0 && (episode+1)%progressEvery == 0 {
			t.logger.Debug().
				Int("episode", episode+1).
				Float64("td_error", td).
				Int("exploits", stats.Exploits).
				Msg("Training progress")
		}
	}

	stats.Duration = time.Since(start)
	t.logger.Info().
		Str("run_id", stats.RunID).
		Int("exploits", stats.Exploits).
		Float64("mean_reward", stats.MeanReward()).
		Dur("duration", stats.Duration).
		Msg("Training complete")
	t.publish(events.NewTrainingCompletedEvent(stats.RunID, stats.Episodes, stats.Exploits, stats.MeanReward(), stats.Duration))

	return stats, nil
}

func (t *Trainer) publish(e events.Event) {
	if t.publisher != nil {
		t.publisher.Publish(e)
	}
}

// Run trains a fresh value table for a width x height dungeon. The training
// grid starts with random walls and is discarded afterwards.
func Run(ctx context.Context, width, height int, params Hyperparameters, rewardCfg *RewardConfig, rng *rand.Rand, opts ...Option) (*ValueTable, *TrainingStats, error) {
	rewards, err := NewRewardTable(height, width, rewardCfg)
	if err != nil {
		return nil, nil, err
	}
	values, err := NewValueTable(height, width)
	if err != nil {
		return nil, nil, err
	}
	trainer, err := NewTrainer(params, rewards, values, core.NewRandomGrid(width, height, rng), rng, opts...)
	if err != nil {
		return nil, nil, err
	}
	stats, err := trainer.Train(ctx)
	if err != nil {
		return nil, stats, err
	}
	return values, stats, nil
}
