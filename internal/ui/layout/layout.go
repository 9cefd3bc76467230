// Package layout computes where each part of a dungeon cell is drawn. It has
// no graphics dependency so it can be tested headless.
package layout

import (
	"image"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
)

// HeaderHeight is the space reserved above the board for status text.
const HeaderHeight = 40

// Board places a w x h grid of square tiles below the header.
type Board struct {
	Cols, Rows int
	TileSize   int
	Origin     image.Point
}

// Fit chooses the largest tile size, at most maxTile, that shows the whole
// grid inside a screenW x screenH window, and centres the board horizontally.
func Fit(cols, rows, screenW, screenH, maxTile int) Board {
	tile := maxTile
	if cols > 0 {
		tile = min(tile, screenW/cols)
	}
	if rows > 0 {
		tile = min(tile, (screenH-HeaderHeight)/rows)
	}
	tile = max(tile, 3)

	x := (screenW - cols*tile) / 2
	return Board{
		Cols:     cols,
		Rows:     rows,
		TileSize: tile,
		Origin:   image.Pt(max(x, 0), HeaderHeight),
	}
}

// Size returns the board's pixel dimensions.
func (b Board) Size() (int, int) {
	return b.Cols * b.TileSize, b.Rows * b.TileSize
}

// Tile returns the screen rectangle of cell c.
func (b Board) Tile(c core.Coordinate) image.Rectangle {
	tl := b.Origin.Add(image.Pt(c.X*b.TileSize, c.Y*b.TileSize))
	return image.Rectangle{Min: tl, Max: tl.Add(image.Pt(b.TileSize, b.TileSize))}
}

// CellAt returns the cell under screen point p.
func (b Board) CellAt(p image.Point) (core.Coordinate, bool) {
	rel := p.Sub(b.Origin)
	if rel.X < 0 || rel.Y < 0 || b.TileSize <= 0 {
		return core.Coordinate{}, false
	}
	c := core.Coordinate{X: rel.X / b.TileSize, Y: rel.Y / b.TileSize}
	if c.X >= b.Cols || c.Y >= b.Rows {
		return core.Coordinate{}, false
	}
	return c, true
}

// Cell splits a tile into the same 3x3 arrangement the text renderer uses:
// four corner blocks, one segment per side and the centre.
type Cell struct {
	Corners [4]image.Rectangle
	Sides   [4]image.Rectangle // indexed by core.Direction
	Center  image.Rectangle
}

// Split divides tile into its 3x3 parts. The middle band takes whatever the
// integer division leaves over.
func Split(tile image.Rectangle) Cell {
	edge := max(tile.Dx()/4, 1)
	x0, x1, x2, x3 := tile.Min.X, tile.Min.X+edge, tile.Max.X-edge, tile.Max.X
	y0, y1, y2, y3 := tile.Min.Y, tile.Min.Y+edge, tile.Max.Y-edge, tile.Max.Y

	var c Cell
	c.Corners = [4]image.Rectangle{
		image.Rect(x0, y0, x1, y1),
		image.Rect(x2, y0, x3, y1),
		image.Rect(x2, y2, x3, y3),
		image.Rect(x0, y2, x1, y3),
	}
	c.Sides[core.North] = image.Rect(x1, y0, x2, y1)
	c.Sides[core.East] = image.Rect(x2, y1, x3, y2)
	c.Sides[core.South] = image.Rect(x1, y2, x2, y3)
	c.Sides[core.West] = image.Rect(x0, y1, x1, y2)
	c.Center = image.Rect(x1, y1, x2, y2)
	return c
}

// Marker is the square drawn in the centre of a keypoint cell.
func (c Cell) Marker() image.Rectangle {
	inset := c.Center.Dx() / 4
	return c.Center.Inset(inset)
}
