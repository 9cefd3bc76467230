// Package connectivity finds the rooms of a dungeon grid that can reach each
// other through open walls.
//
// Two grid-adjacent cells are connected only when both agree the shared side
// is open: each cell's own wall flags are authoritative and there is no
// separate shared-wall object.
//
// LargestComponent measures the biggest connected region, which the generator
// historically called the "longest path". It is a component size, cycles and
// branches included, not a longest simple path.
package connectivity

import (
	"fmt"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
)

// Connected reports whether a and b are grid-adjacent and both leave the
// facing walls open.
func Connected(g *core.Grid, a, b core.Coordinate) bool {
	d, ok := a.DirectionTo(b)
	if !ok {
		return false
	}
	ca, cb := g.At(a), g.At(b)
	if ca == nil || cb == nil {
		return false
	}
	return !ca.HasWall(d) && !cb.HasWall(d.Opposite())
}

// FindNeighbors returns the in-bounds neighbours of c reachable through a
// mutually open wall, in North, East, South, West order.
func FindNeighbors(g *core.Grid, c core.Coordinate) ([]core.Coordinate, error) {
	if !g.InBounds(c) {
		return nil, fmt.Errorf("neighbors of %s on %dx%d grid: %w", c, g.W, g.H, core.ErrOutOfBounds)
	}
	out := make([]core.Coordinate, 0, 4)
	for _, d := range core.Directions {
		n := c.Move(d)
		if !g.InBounds(n) {
			continue
		}
		if Connected(g, c, n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// Component expands outward from seed until no unvisited neighbour remains
// and returns every cell reached, sorted row-major.
func Component(g *core.Grid, seed core.Coordinate) ([]core.Coordinate, error) {
	visited, err := expand(g, seed)
	if err != nil {
		return nil, err
	}
	return sortedCoordinates(g, visited), nil
}

// LargestComponent runs Component from each seed and returns the largest
// result. Ties keep the earliest seed. Seeds already absorbed by a previous
// component are skipped since they would reproduce it.
func LargestComponent(g *core.Grid, seeds []core.Coordinate) ([]core.Coordinate, error) {
	var best []bool
	bestSize := 0
	covered := make([]bool, g.CellCount())

	for _, seed := range seeds {
		if !g.InBounds(seed) {
			return nil, fmt.Errorf("component seed %s on %dx%d grid: %w", seed, g.W, g.H, core.ErrOutOfBounds)
		}
		if covered[seed.ToIndex(g.W)] {
			continue
		}
		visited, err := expand(g, seed)
		if err != nil {
			return nil, err
		}
		size := 0
		for i, v := range visited {
			if v {
				covered[i] = true
				size++
			}
		}
		if size > bestSize {
			best, bestSize = visited, size
		}
	}

	if best == nil {
		return []core.Coordinate{}, nil
	}
	return sortedCoordinates(g, best), nil
}

// expand is the frontier traversal shared by Component and LargestComponent.
func expand(g *core.Grid, seed core.Coordinate) ([]bool, error) {
	if !g.InBounds(seed) {
		return nil, fmt.Errorf("component seed %s on %dx%d grid: %w", seed, g.W, g.H, core.ErrOutOfBounds)
	}
	visited := make([]bool, g.CellCount())
	visited[seed.ToIndex(g.W)] = true
	frontier := []core.Coordinate{seed}

	for len(frontier) > 0 {
		var next []core.Coordinate
		for _, c := range frontier {
			neighbors, err := FindNeighbors(g, c)
			if err != nil {
				return nil, err
			}
			for _, n := range neighbors {
				idx := n.ToIndex(g.W)
				if visited[idx] {
					continue
				}
				visited[idx] = true
				next = append(next, n)
			}
		}
		frontier = next
	}
	return visited, nil
}

// sortedCoordinates lists the visited cells. Walking the index space yields
// row-major order, so no further sort is needed.
func sortedCoordinates(g *core.Grid, visited []bool) []core.Coordinate {
	out := make([]core.Coordinate, 0, len(visited))
	for i, v := range visited {
		if v {
			out = append(out, core.FromIndex(i, g.W))
		}
	}
	return out
}
