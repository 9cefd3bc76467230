// Package qlearning trains the per-cell wall-configuration values that steer
// dungeon generation.
//
// The problem is treated as a bandit per cell: each update picks one
// (row, col, action) triplet, applies it to the training grid and moves that
// single value toward the Bellman target. There is no trajectory and no
// terminal state.
package qlearning

import (
	"fmt"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
)

// table is a dense rows x cols x NumWallTypes array of scores.
type table struct {
	rows, cols int
	data       []float64
}

func newTable(rows, cols int, fill float64) *table {
	t := &table{rows: rows, cols: cols, data: make([]float64, rows*cols*core.NumWallTypes)}
	if fill != 0 {
		for i := range t.data {
			t.data[i] = fill
		}
	}
	return t
}

func (t *table) offset(row, col int) int {
	return (row*t.cols + col) * core.NumWallTypes
}

func (t *table) inBounds(row, col, action int) bool {
	return row >= 0 && row < t.rows && col >= 0 && col < t.cols &&
		action >= 0 && action < core.NumWallTypes
}

func (t *table) at(row, col, action int) float64 {
	return t.data[t.offset(row, col)+action]
}

func (t *table) set(row, col, action int, v float64) {
	t.data[t.offset(row, col)+action] = v
}

func (t *table) slice(row, col int) []float64 {
	off := t.offset(row, col)
	return t.data[off : off+core.NumWallTypes]
}

// Shape is the (rows, cols, actions) extent of a table.
type Shape struct {
	Rows, Cols, Actions int
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s.Rows, s.Cols, s.Actions)
}

func (t *table) shape() Shape {
	return Shape{Rows: t.rows, Cols: t.cols, Actions: core.NumWallTypes}
}

// ValueTable holds the learned Q-values. It is written by a Trainer and read
// by the generator afterwards; it is not safe for concurrent writes.
type ValueTable struct {
	t *table
}

// NewValueTable returns a zero-initialised table for a rows x cols grid.
func NewValueTable(rows, cols int) (*ValueTable, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("value table %dx%d: %w", rows, cols, core.ErrConfiguration)
	}
	return &ValueTable{t: newTable(rows, cols, 0)}, nil
}

func (v *ValueTable) Shape() Shape { return v.t.shape() }

// At returns Q[row, col, action]. It panics on out-of-range indices.
func (v *ValueTable) At(row, col, action int) float64 {
	return v.t.at(row, col, action)
}

// Set overwrites Q[row, col, action].
func (v *ValueTable) Set(row, col, action int, value float64) error {
	if !v.t.inBounds(row, col, action) {
		return fmt.Errorf("value table set (%d, %d, %d) on shape %s: %w",
			row, col, action, v.Shape(), core.ErrOutOfBounds)
	}
	v.t.set(row, col, action, value)
	return nil
}

// Values returns a copy of the action values of one cell.
func (v *ValueTable) Values(row, col int) []float64 {
	out := make([]float64, core.NumWallTypes)
	copy(out, v.t.slice(row, col))
	return out
}

// MaxAt returns max over actions of Q[row, col, :].
func (v *ValueTable) MaxAt(row, col int) float64 {
	s := v.t.slice(row, col)
	best := s[0]
	for _, x := range s[1:] {
		if x > best {
			best = x
		}
	}
	return best
}

// BestActions returns the highest-valued action at every cell, ties going to
// the lowest code. Useful for inspecting what training converged to.
func (v *ValueTable) BestActions() [][]core.WallType {
	out := make([][]core.WallType, v.t.rows)
	for r := 0; r < v.t.rows; r++ {
		out[r] = make([]core.WallType, v.t.cols)
		for c := 0; c < v.t.cols; c++ {
			s := v.t.slice(r, c)
			best := 0
			for a := 1; a < len(s); a++ {
				if s[a] > s[best] {
					best = a
				}
			}
			out[r][c] = core.WallType(best)
		}
	}
	return out
}
