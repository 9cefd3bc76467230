package renderer

import (
	"image"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"

	"github.com/mitchelldurbincs/qdungeon/internal/common"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
	"github.com/mitchelldurbincs/qdungeon/internal/ui/layout"
)

// BoardRenderer draws a dungeon grid as coloured rectangles.
type BoardRenderer struct {
	defaultFont font.Face
	pixel       *ebiten.Image
}

// NewBoardRenderer returns a renderer ready to use.
func NewBoardRenderer(f font.Face) *BoardRenderer {
	pixel := ebiten.NewImage(1, 1)
	pixel.Fill(color.White)
	return &BoardRenderer{defaultFont: f, pixel: pixel}
}

// Draw renders grid on screen at the board's position. Cells in component
// get a lighter floor; selected, if non-nil, is outlined.
func (br *BoardRenderer) Draw(screen *ebiten.Image, board layout.Board, grid *core.Grid, component []core.Coordinate, selected *core.Coordinate) {
	if grid == nil {
		return
	}

	inComponent := make(map[core.Coordinate]bool, len(component))
	for _, c := range component {
		inComponent[c] = true
	}

	for i, cell := range grid.C {
		x, y := grid.XY(i)
		coord := core.Coordinate{X: x, Y: y}
		parts := layout.Split(board.Tile(coord))

		floor := color.Color(common.FloorColor)
		if inComponent[coord] {
			floor = common.ComponentColor
		}
		br.fill(screen, parts.Center, floor)

		for _, r := range parts.Corners {
			br.fill(screen, r, common.WallColor)
		}
		for _, d := range core.Directions {
			side := floor
			if cell.HasWall(d) {
				side = common.WallColor
			}
			br.fill(screen, parts.Sides[d], side)
		}

		if c, ok := common.RoleColor(cell.Role); ok {
			marker := parts.Marker()
			br.fill(screen, marker, c)
			br.label(screen, marker, cell.Role)
		}
	}

	if selected != nil && grid.InBounds(*selected) {
		br.outline(screen, board.Tile(*selected), common.TextColor)
	}
}

// fill paints r by scaling the 1x1 white pixel.
func (br *BoardRenderer) fill(screen *ebiten.Image, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(r.Dx()), float64(r.Dy()))
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	op.ColorScale.ScaleWithColor(c)
	screen.DrawImage(br.pixel, op)
}

func (br *BoardRenderer) outline(screen *ebiten.Image, r image.Rectangle, c color.Color) {
	const w = 2
	br.fill(screen, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+w), c)
	br.fill(screen, image.Rect(r.Min.X, r.Max.Y-w, r.Max.X, r.Max.Y), c)
	br.fill(screen, image.Rect(r.Min.X, r.Min.Y, r.Min.X+w, r.Max.Y), c)
	br.fill(screen, image.Rect(r.Max.X-w, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// label writes the role's initial centred in r when the font fits.
func (br *BoardRenderer) label(screen *ebiten.Image, r image.Rectangle, role core.Role) {
	if br.defaultFont == nil {
		return
	}
	s := strings.ToUpper(role.String()[:1])

	b := text.BoundString(br.defaultFont, s)
	textW := b.Max.X - b.Min.X
	textH := b.Max.Y - b.Min.Y
	if textW > r.Dx() || textH > r.Dy() {
		return
	}

	x := r.Min.X + (r.Dx()-textW)/2
	y := r.Min.Y + (r.Dy()+textH)/2
	text.Draw(screen, s, br.defaultFont, x, y, color.Black)
}
