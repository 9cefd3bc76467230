package core

import "fmt"

// WallType is one of the 16 canonical wall configurations of a cell.
type WallType uint8

// NumWallTypes is the number of wall configurations, and so the size of the
// action space of the trainer.
const NumWallTypes = 16

// Wall bits, used only to express the canonical table below.
const (
	wallN uint8 = 1 << iota
	wallE
	wallS
	wallW
)

// wallTable maps each configuration code to the sides it closes.
// The codes are not the bit pattern itself; the numbering follows the
// tile set: singles, then doubles, then triples, then the closed room.
var wallTable = [NumWallTypes]uint8{
	0:  0,
	1:  wallN,
	2:  wallE,
	3:  wallS,
	4:  wallW,
	5:  wallN | wallE,
	6:  wallE | wallS,
	7:  wallS | wallW,
	8:  wallW | wallN,
	9:  wallN | wallS,
	10: wallE | wallW,
	11: wallN | wallE | wallS,
	12: wallE | wallS | wallW,
	13: wallS | wallW | wallN,
	14: wallW | wallN | wallE,
	15: wallN | wallE | wallS | wallW,
}

func directionBit(d Direction) uint8 {
	switch d {
	case North:
		return wallN
	case East:
		return wallE
	case South:
		return wallS
	case West:
		return wallW
	}
	return 0
}

// Valid reports whether w is one of the canonical codes.
func (w WallType) Valid() bool {
	return int(w) < NumWallTypes
}

// HasWall reports whether the configuration closes the given side.
func (w WallType) HasWall(d Direction) bool {
	if !w.Valid() {
		return false
	}
	return wallTable[w]&directionBit(d) != 0
}

// WallCount returns how many of the four sides are closed.
func (w WallType) WallCount() int {
	n := 0
	for _, d := range Directions {
		if w.HasWall(d) {
			n++
		}
	}
	return n
}

func (w WallType) String() string {
	return fmt.Sprintf("wall(%d)", uint8(w))
}

var wallSets = func() map[Direction][]WallType {
	sets := make(map[Direction][]WallType, len(Directions))
	for _, d := range Directions {
		for code := 0; code < NumWallTypes; code++ {
			if WallType(code).HasWall(d) {
				sets[d] = append(sets[d], WallType(code))
			}
		}
	}
	return sets
}()

// WallTypesWith returns, in ascending order, every configuration that closes
// side d. The returned slice is a copy.
func WallTypesWith(d Direction) []WallType {
	set := wallSets[d]
	out := make([]WallType, len(set))
	copy(out, set)
	return out
}

// ParseWallType converts an integer code into a WallType.
func ParseWallType(code int) (WallType, error) {
	if code < 0 || code >= NumWallTypes {
		return 0, fmt.Errorf("%w: %d", ErrInvalidWallType, code)
	}
	return WallType(code), nil
}
