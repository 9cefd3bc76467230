package ui

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/mitchelldurbincs/qdungeon/internal/common"
	"github.com/mitchelldurbincs/qdungeon/internal/config"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/mapgen"
	"github.com/mitchelldurbincs/qdungeon/internal/ui/input"
	"github.com/mitchelldurbincs/qdungeon/internal/ui/layout"
	"github.com/mitchelldurbincs/qdungeon/internal/ui/renderer"
)

// UI configuration functions
func ScreenWidth() int {
	return config.Get().UI.Window.Width
}

func ScreenHeight() int {
	return config.Get().UI.Window.Height
}

func TileSize() int {
	return config.Get().UI.TileSize
}

const generateTimeout = 30 * time.Second

// Source produces dungeons for the viewer. Both a local generator and a
// remote dungeon server client satisfy it.
type Source interface {
	Generate(ctx context.Context) (*mapgen.Dungeon, error)
}

type result struct {
	dungeon *mapgen.Dungeon
	err     error
}

// Viewer is the ebiten game that shows one dungeon at a time. Generation
// runs off the draw loop so a slow source does not freeze the window.
type Viewer struct {
	source        Source
	boardRenderer *renderer.BoardRenderer
	input         *input.Handler
	defaultFont   font.Face
	logger        zerolog.Logger

	ctx     context.Context
	dungeon *mapgen.Dungeon
	board   layout.Board
	pending chan result
	status  string
	count   int

	selected *core.Coordinate
}

// NewViewer creates the viewer and starts generating the first dungeon.
func NewViewer(ctx context.Context, source Source) *Viewer {
	v := &Viewer{
		source:      source,
		input:       input.NewHandler(),
		defaultFont: basicfont.Face7x13,
		logger:      log.With().Str("component", "ui").Logger(),
		ctx:         ctx,
	}
	v.boardRenderer = renderer.NewBoardRenderer(v.defaultFont)
	v.regenerate()
	return v
}

func (v *Viewer) regenerate() {
	if v.pending != nil {
		return
	}
	ch := make(chan result, 1)
	v.pending = ch
	v.status = "Generating..."

	go func() {
		ctx, cancel := context.WithTimeout(v.ctx, generateTimeout)
		defer cancel()
		d, err := v.source.Generate(ctx)
		ch <- result{dungeon: d, err: err}
	}()
}

// Update proceeds the viewer state.
func (v *Viewer) Update() error {
	switch v.input.Update() {
	case input.CommandQuit:
		return ebiten.Termination
	case input.CommandRegenerate:
		v.regenerate()
	}

	if v.pending != nil {
		select {
		case r := <-v.pending:
			v.pending = nil
			v.accept(r)
		default:
		}
	}

	if v.dungeon != nil && v.input.Clicked() {
		x, y := v.input.Cursor()
		if c, ok := v.board.CellAt(image.Pt(x, y)); ok {
			v.selected = &c
		} else {
			v.selected = nil
		}
	}
	return nil
}

func (v *Viewer) accept(r result) {
	if r.err != nil {
		v.logger.Error().Err(r.err).Msg("Failed to generate dungeon")
		v.status = fmt.Sprintf("Generation failed: %v", r.err)
		return
	}
	v.count++
	v.dungeon = r.dungeon
	v.selected = nil
	v.board = layout.Fit(r.dungeon.Grid.W, r.dungeon.Grid.H, ScreenWidth(), ScreenHeight(), TileSize())
	v.status = fmt.Sprintf("Dungeon #%d after %d attempts", v.count, r.dungeon.Attempts)
	v.logger.Info().
		Str("dungeon_id", r.dungeon.ID).
		Int("attempts", r.dungeon.Attempts).
		Msg("Dungeon displayed")
}

// Draw renders the viewer screen.
func (v *Viewer) Draw(screen *ebiten.Image) {
	screen.Fill(common.BackgroundColor)

	if v.dungeon != nil {
		v.boardRenderer.Draw(screen, v.board, v.dungeon.Grid, v.dungeon.Component, v.selected)
	}

	ebitenutil.DebugPrintAt(screen, v.status, 5, 5)
	help := "Space/Enter: new dungeon  Q/Esc: quit"
	if v.selected != nil {
		cell := v.dungeon.Grid.At(*v.selected)
		help = fmt.Sprintf("%s wall %d (%s) %s", v.selected, int(cell.Wall), cell.Wall, cell.Role)
	}
	ebitenutil.DebugPrintAt(screen, help, 5, 20)
}

// Layout defines the Ebitengine screen size.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return ScreenWidth(), ScreenHeight()
}
