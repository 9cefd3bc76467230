package mapgen

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/connectivity"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/events"
	"github.com/mitchelldurbincs/qdungeon/internal/qlearning"
)

// Config holds configuration for dungeon generation
type Config struct {
	Width             int
	Height            int
	SizeThreshold     int     // minimum size of the largest connected component
	Keypoints         bool    // place entrance, treasure and exit on acceptance
	MaxAttempts       int     // full sweeps tried before giving up
	GreedyProbability float64 // chance of following the value table for a cell
	Candidates        int     // best actions a greedy pick chooses among
}

// DefaultConfig returns the settings the trained policy was tuned for
func DefaultConfig(w, h int) Config {
	return Config{
		Width:             w,
		Height:            h,
		SizeThreshold:     12,
		Keypoints:         true,
		MaxAttempts:       1000,
		GreedyProbability: 1,
		Candidates:        3,
	}
}

// Validate fails fast on settings that could never produce a dungeon.
func (c Config) Validate() error {
	cells := c.Width * c.Height
	switch {
	case c.Width < 2 || c.Height < 2:
		return fmt.Errorf("grid %dx%d must be at least 2x2: %w", c.Width, c.Height, core.ErrConfiguration)
	case c.SizeThreshold < 1 || c.SizeThreshold > cells:
		return fmt.Errorf("size threshold %d not in [1, %d]: %w", c.SizeThreshold, cells, core.ErrConfiguration)
	case c.Keypoints && c.SizeThreshold < len(core.KeypointRoles):
		return fmt.Errorf("keypoints need a size threshold of at least %d, got %d: %w",
			len(core.KeypointRoles), c.SizeThreshold, core.ErrConfiguration)
	case c.MaxAttempts < 1:
		return fmt.Errorf("max attempts %d must be at least 1: %w", c.MaxAttempts, core.ErrConfiguration)
	case c.GreedyProbability < 0 || c.GreedyProbability > 1:
		return fmt.Errorf("greedy probability %.3f not in [0, 1]: %w", c.GreedyProbability, core.ErrConfiguration)
	case c.Candidates < 1 || c.Candidates > core.NumWallTypes:
		return fmt.Errorf("candidates %d not in [1, %d]: %w", c.Candidates, core.NumWallTypes, core.ErrConfiguration)
	}
	return nil
}

// Dungeon is an accepted grid together with its largest connected component.
type Dungeon struct {
	ID        string
	Grid      *core.Grid
	Component []core.Coordinate
	Attempts  int
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger replaces the default component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithPublisher publishes generation events to p.
func WithPublisher(p events.Publisher) Option {
	return func(g *Generator) { g.publisher = p }
}

// Generator applies a trained value table to random grids with a
// deterministic RNG. The value table is only read.
type Generator struct {
	config    Config
	values    *qlearning.ValueTable
	rng       *rand.Rand
	logger    zerolog.Logger
	publisher events.Publisher
}

// NewGenerator creates a new dungeon generator. The value table must have
// been trained on a grid of the same size.
func NewGenerator(config Config, values *qlearning.ValueTable, rng *rand.Rand, opts ...Option) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if values == nil || rng == nil {
		return nil, fmt.Errorf("generator needs a value table and an rng: %w", core.ErrConfiguration)
	}
	if s := values.Shape(); s.Rows != config.Height || s.Cols != config.Width {
		return nil, fmt.Errorf("value table %s trained for another size than %dx%d: %w",
			s, config.Width, config.Height, core.ErrConfiguration)
	}

	g := &Generator{
		config: config,
		values: values,
		rng:    rng,
		logger: log.With().Str("component", "generator").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Config returns the generator's settings.
func (g *Generator) Config() Config { return g.config }

// Generate sweeps fresh random grids with the trained policy until one has a
// large enough connected region. Each rejected grid is discarded entirely.
// After MaxAttempts sweeps it returns core.ErrGenerationExhausted.
func (g *Generator) Generate(ctx context.Context) (*Dungeon, error) {
	id := uuid.NewString()
	best := 0

	for attempt := 1; attempt <= g.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled after %d attempts: %w", attempt-1, err)
		}

		grid := core.NewRandomGrid(g.config.Width, g.config.Height, g.rng)
		g.ApplyPolicy(grid)

		component, err := connectivity.LargestComponent(grid, grid.CenterCoordinates())
		if err != nil {
			return nil, err
		}
		if len(component) > best {
			best = len(component)
		}

		if len(component) < g.config.SizeThreshold {
			g.logger.Debug().
				Str("dungeon_id", id).
				Int("attempt", attempt).
				Int("component_size", len(component)).
				Msg("Candidate rejected")
			g.publish(events.NewCandidateRejectedEvent(id, attempt, len(component), g.config.SizeThreshold))
			continue
		}

		if g.config.Keypoints {
			if err := PlaceKeypoints(grid, component, g.rng); err != nil {
				return nil, err
			}
		}

		g.logger.Info().
			Str("dungeon_id", id).
			Int("attempts", attempt).
			Int("component_size", len(component)).
			Msg("Dungeon generated")
		g.publish(events.NewDungeonGeneratedEvent(id, grid.W, grid.H, attempt, len(component), g.config.Keypoints))

		return &Dungeon{ID: id, Grid: grid, Component: component, Attempts: attempt}, nil
	}

	g.logger.Warn().
		Str("dungeon_id", id).
		Int("attempts", g.config.MaxAttempts).
		Int("best_size", best).
		Int("threshold", g.config.SizeThreshold).
		Msg("Dungeon generation exhausted")
	g.publish(events.NewGenerationExhaustedEvent(id, g.config.MaxAttempts, best, g.config.SizeThreshold))

	return nil, fmt.Errorf("no component of size %d within %d attempts (best %d): %w",
		g.config.SizeThreshold, g.config.MaxAttempts, best, core.ErrGenerationExhausted)
}

// ApplyPolicy sets every cell of grid to the action chosen by the localized
// policy for its position.
func (g *Generator) ApplyPolicy(grid *core.Grid) {
	for y := 0; y < grid.H; y++ {
		for x := 0; x < grid.W; x++ {
			action := g.values.PolicyAction(y, x, g.config.Candidates, g.config.GreedyProbability, g.rng)
			grid.C[grid.Idx(x, y)].Wall = core.WallType(action)
		}
	}
}

// PlaceKeypoints samples three distinct cells of component without
// replacement and marks them entrance, treasure and exit. Existing roles are
// cleared first so each role appears exactly once.
func PlaceKeypoints(grid *core.Grid, component []core.Coordinate, rng *rand.Rand) error {
	if len(component) < len(core.KeypointRoles) {
		return fmt.Errorf("component of %d cells cannot hold %d keypoints: %w",
			len(component), len(core.KeypointRoles), core.ErrConfiguration)
	}
	grid.ClearRoles()

	picks := rng.Perm(len(component))[:len(core.KeypointRoles)]
	for i, role := range core.KeypointRoles {
		cell := grid.At(component[picks[i]])
		if cell == nil {
			return fmt.Errorf("keypoint %s at %s: %w", role, component[picks[i]], core.ErrOutOfBounds)
		}
		cell.Role = role
	}
	return nil
}

func (g *Generator) publish(e events.Event) {
	if g.publisher != nil {
		g.publisher.Publish(e)
	}
}
