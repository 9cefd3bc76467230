package qlearning

import (
	"fmt"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
)

// RewardConfig holds configurable reward values
type RewardConfig struct {
	Penalty          float64 // baseline for every (row, col, action)
	BoundaryBonus    float64 // closing the outer wall(s) of a boundary cell
	InteriorBonus    float64 // leaving an interior cell open
	InteriorMaxWalls int     // interior actions with at most this many walls earn InteriorBonus
}

// DefaultRewardConfig returns the default reward configuration
func DefaultRewardConfig() *RewardConfig {
	return &RewardConfig{
		Penalty:          -20,
		BoundaryBonus:    20,
		InteriorBonus:    10,
		InteriorMaxWalls: 1,
	}
}

// Codes closing both exterior sides of each corner. Code 15 is not among them.
var (
	topLeftCorner     = []core.WallType{8, 13, 14}
	topRightCorner    = []core.WallType{5, 11, 14}
	bottomRightCorner = []core.WallType{6, 11, 12}
	bottomLeftCorner  = []core.WallType{7, 12, 13}
)

// RewardTable is the immutable reward for choosing each wall configuration at
// each position of the grid.
type RewardTable struct {
	t *table
}

// NewRewardTable builds the reward table for a rows x cols grid.
func NewRewardTable(rows, cols int, cfg *RewardConfig) (*RewardTable, error) {
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("reward table needs at least 2x2, got %dx%d: %w", rows, cols, core.ErrConfiguration)
	}
	if cfg == nil {
		cfg = DefaultRewardConfig()
	}

	t := newTable(rows, cols, cfg.Penalty)
	lastRow, lastCol := rows-1, cols-1

	setAll := func(row, col int, codes []core.WallType, v float64) {
		for _, code := range codes {
			t.set(row, col, int(code), v)
		}
	}

	// Corners
	setAll(0, 0, topLeftCorner, cfg.BoundaryBonus)
	setAll(0, lastCol, topRightCorner, cfg.BoundaryBonus)
	setAll(lastRow, lastCol, bottomRightCorner, cfg.BoundaryBonus)
	setAll(lastRow, 0, bottomLeftCorner, cfg.BoundaryBonus)

	// Edges, corners excluded
	for col := 1; col < lastCol; col++ {
		setAll(0, col, core.WallTypesWith(core.North), cfg.BoundaryBonus)
		setAll(lastRow, col, core.WallTypesWith(core.South), cfg.BoundaryBonus)
	}
	for row := 1; row < lastRow; row++ {
		setAll(row, 0, core.WallTypesWith(core.West), cfg.BoundaryBonus)
		setAll(row, lastCol, core.WallTypesWith(core.East), cfg.BoundaryBonus)
	}

	// Interior rooms stay open to favour long connected regions.
	var open []core.WallType
	for code := 0; code < core.NumWallTypes; code++ {
		if core.WallType(code).WallCount() <= cfg.InteriorMaxWalls {
			open = append(open, core.WallType(code))
		}
	}
	for row := 1; row < lastRow; row++ {
		for col := 1; col < lastCol; col++ {
			setAll(row, col, open, cfg.InteriorBonus)
		}
	}

	return &RewardTable{t: t}, nil
}

func (r *RewardTable) Shape() Shape { return r.t.shape() }

// At returns the reward for applying action at (row, col).
func (r *RewardTable) At(row, col, action int) float64 {
	return r.t.at(row, col, action)
}
