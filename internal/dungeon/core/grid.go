package core

import (
	"fmt"
	"math/rand"
)

// Role marks a special cell of a generated dungeon.
type Role int

const (
	RoleNone Role = iota
	RoleEntrance
	RoleTreasure
	RoleExit
)

// KeypointRoles lists the roles placed on an accepted dungeon, in placement order.
var KeypointRoles = [3]Role{RoleEntrance, RoleTreasure, RoleExit}

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleEntrance:
		return "entrance"
	case RoleTreasure:
		return "treasure"
	case RoleExit:
		return "exit"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Cell is a single room of the dungeon.
// Wall: which of the four sides are closed.
// Role: RoleNone unless the cell is a keypoint.
type Cell struct {
	Wall WallType
	Role Role
}

// HasWall reports whether the cell is closed on side d.
func (c *Cell) HasWall(d Direction) bool { return c.Wall.HasWall(d) }

// IsKeypoint reports whether the cell carries a role.
func (c *Cell) IsKeypoint() bool { return c.Role != RoleNone }

type Grid struct {
	W, H int
	C    []Cell // length = W*H (row-major)
}

// NewGrid returns a grid of open cells (wall type 0) with no roles.
func NewGrid(w, h int) *Grid {
	return &Grid{W: w, H: h, C: make([]Cell, w*h)}
}

// NewRandomGrid returns a grid whose wall types are drawn independently and
// uniformly from the 16 configurations.
func NewRandomGrid(w, h int, rng *rand.Rand) *Grid {
	g := NewGrid(w, h)
	for i := range g.C {
		g.C[i].Wall = WallType(rng.Intn(NumWallTypes))
	}
	return g
}

// FilledGrid returns a grid where every cell has the same wall type.
func FilledGrid(w, h int, wall WallType) *Grid {
	g := NewGrid(w, h)
	for i := range g.C {
		g.C[i].Wall = wall
	}
	return g
}

func (g *Grid) Idx(x, y int) int      { return y*g.W + x }
func (g *Grid) XY(idx int) (int, int) { return idx % g.W, idx / g.W }

// CellCount returns rows*cols.
func (g *Grid) CellCount() int { return g.W * g.H }

// InBounds checks if a coordinate is within the grid
func (g *Grid) InBounds(c Coordinate) bool {
	return c.IsValid(g.W, g.H)
}

// At returns a pointer to the cell at c, or nil when c is outside the grid.
func (g *Grid) At(c Coordinate) *Cell {
	if !g.InBounds(c) {
		return nil
	}
	return &g.C[c.ToIndex(g.W)]
}

// SetWall changes the wall type of the cell at c.
func (g *Grid) SetWall(c Coordinate, w WallType) error {
	cell := g.At(c)
	if cell == nil {
		return fmt.Errorf("set wall at %s on %dx%d grid: %w", c, g.W, g.H, ErrOutOfBounds)
	}
	cell.Wall = w
	return nil
}

// CenterCoordinates returns the most central cells: the middle row(s)
// crossed with the middle column(s). A 4x4 grid yields its inner 2x2 block,
// a 5x5 grid its single centre cell.
func (g *Grid) CenterCoordinates() []Coordinate {
	rows := middleIndices(g.H)
	cols := middleIndices(g.W)
	out := make([]Coordinate, 0, len(rows)*len(cols))
	for _, y := range rows {
		for _, x := range cols {
			out = append(out, Coordinate{X: x, Y: y})
		}
	}
	return out
}

func middleIndices(n int) []int {
	if n <= 0 {
		return nil
	}
	if n%2 == 1 {
		return []int{n / 2}
	}
	return []int{n/2 - 1, n / 2}
}

// ClearRoles resets every cell to RoleNone.
func (g *Grid) ClearRoles() {
	for i := range g.C {
		g.C[i].Role = RoleNone
	}
}

// FindRole returns every coordinate carrying the given role, row-major.
func (g *Grid) FindRole(r Role) []Coordinate {
	var out []Coordinate
	for i := range g.C {
		if g.C[i].Role == r {
			out = append(out, FromIndex(i, g.W))
		}
	}
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{W: g.W, H: g.H, C: make([]Cell, len(g.C))}
	copy(c.C, g.C)
	return c
}
