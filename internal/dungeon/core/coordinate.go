package core

import "fmt"

// Coordinate addresses a cell of a dungeon grid. X is the column, Y the row.
type Coordinate struct {
	X, Y int
}

// NewCoordinate creates a coordinate from a column and a row.
func NewCoordinate(x, y int) Coordinate {
	return Coordinate{X: x, Y: y}
}

// FromIndex creates a coordinate from a row-major grid index.
func FromIndex(idx, width int) Coordinate {
	return Coordinate{
		X: idx % width,
		Y: idx / width,
	}
}

// IsValid reports whether the coordinate lies inside a width x height grid.
func (c Coordinate) IsValid(width, height int) bool {
	return c.X >= 0 && c.X < width && c.Y >= 0 && c.Y < height
}

// ToIndex converts the coordinate to a row-major grid index.
func (c Coordinate) ToIndex(width int) int {
	return c.Y*width + c.X
}

// Less orders coordinates row-major: by row, then by column.
func (c Coordinate) Less(other Coordinate) bool {
	if c.Y != other.Y {
		return c.Y < other.Y
	}
	return c.X < other.X
}

// IsAdjacentTo checks if this coordinate is orthogonally adjacent to another
func (c Coordinate) IsAdjacentTo(other Coordinate) bool {
	dx := c.X - other.X
	dy := c.Y - other.Y
	return (dx == 0 && (dy == 1 || dy == -1)) || (dy == 0 && (dx == 1 || dx == -1))
}

// Move returns the coordinate one step away in the given direction.
func (c Coordinate) Move(d Direction) Coordinate {
	if offset, ok := directionOffsets[d]; ok {
		return Coordinate{X: c.X + offset.X, Y: c.Y + offset.Y}
	}
	return c
}

// DirectionTo returns the direction from c to an adjacent coordinate.
// The second result is false when the two are not adjacent.
func (c Coordinate) DirectionTo(other Coordinate) (Direction, bool) {
	if !c.IsAdjacentTo(other) {
		return North, false
	}
	switch {
	case other.Y < c.Y:
		return North, true
	case other.X > c.X:
		return East, true
	case other.Y > c.Y:
		return South, true
	default:
		return West, true
	}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Direction is one of the four sides of a cell.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Directions lists the four sides in clockwise order starting at North.
var Directions = [4]Direction{North, East, South, West}

var directionOffsets = map[Direction]Coordinate{
	North: {X: 0, Y: -1},
	East:  {X: 1, Y: 0},
	South: {X: 0, Y: 1},
	West:  {X: -1, Y: 0},
}

// Opposite returns the side facing d across a shared wall.
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}
