// Package rendering draws dungeons as text. Each cell is a 3x3 block of
// two-character glyphs: solid corners, a wall or opening on each side and the
// cell's role in the middle.
package rendering

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
)

const (
	Wall   = "██"
	Open   = "::"
	Floor  = "  "
	Marker = "██"

	// RowsPerCell and ColumnsPerCell give the size of one cell in glyph
	// cells of the terminal.
	RowsPerCell    = 3
	ColumnsPerCell = 6
)

var plainMarkers = map[core.Role]string{
	core.RoleEntrance: "EE",
	core.RoleTreasure: "$$",
	core.RoleExit:     "XX",
}

// Renderer turns grids into text. Colour mode paints role cells green,
// yellow or red; plain mode uses letter markers instead.
type Renderer struct {
	au    aurora.Aurora
	color bool
}

// NewRenderer returns a renderer. With color false no escape sequences
// are emitted.
func NewRenderer(color bool) *Renderer {
	return &Renderer{au: aurora.NewAurora(color), color: color}
}

// Render returns the whole grid as text, one line per glyph row.
func (r *Renderer) Render(g *core.Grid) string {
	var b strings.Builder
	for _, line := range r.Lines(g) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// Write renders g to w.
func (r *Renderer) Write(w io.Writer, g *core.Grid) error {
	_, err := io.WriteString(w, r.Render(g))
	return err
}

// Lines returns the RowsPerCell*H text rows of g without line terminators.
func (r *Renderer) Lines(g *core.Grid) []string {
	lines := make([]string, 0, g.H*RowsPerCell)
	for y := 0; y < g.H; y++ {
		var rows [RowsPerCell]strings.Builder
		for x := 0; x < g.W; x++ {
			block := r.Cell(g.C[g.Idx(x, y)])
			for i := range rows {
				rows[i].WriteString(block[i])
			}
		}
		for i := range rows {
			lines = append(lines, rows[i].String())
		}
	}
	return lines
}

// Cell returns the three rows of a single cell.
func (r *Renderer) Cell(c core.Cell) [RowsPerCell]string {
	side := func(d core.Direction) string {
		if c.HasWall(d) {
			return Wall
		}
		return Open
	}
	return [RowsPerCell]string{
		Wall + side(core.North) + Wall,
		side(core.West) + r.center(c.Role) + side(core.East),
		Wall + side(core.South) + Wall,
	}
}

func (r *Renderer) center(role core.Role) string {
	if !r.color {
		if m, ok := plainMarkers[role]; ok {
			return m
		}
		return Floor
	}
	switch role {
	case core.RoleEntrance:
		return r.au.Green(Marker).String()
	case core.RoleTreasure:
		return r.au.Yellow(Marker).String()
	case core.RoleExit:
		return r.au.Red(Marker).String()
	}
	return Floor
}

// Legend describes the role markers in the current mode.
func (r *Renderer) Legend() string {
	parts := make([]string, 0, len(core.KeypointRoles))
	for _, role := range core.KeypointRoles {
		parts = append(parts, fmt.Sprintf("%s %s", r.center(role), role))
	}
	return strings.Join(parts, "  ")
}
