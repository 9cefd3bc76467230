package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Command is what the viewer should do after a frame's input.
type Command int

const (
	CommandNone Command = iota
	CommandRegenerate
	CommandQuit
)

// DefaultBindings maps keys to viewer commands.
var DefaultBindings = map[Command][]ebiten.Key{
	CommandRegenerate: {ebiten.KeySpace, ebiten.KeyEnter},
	CommandQuit:       {ebiten.KeyQ, ebiten.KeyEscape},
}

// Handler polls the keyboard and mouse once per frame.
type Handler struct {
	bindings map[Command][]ebiten.Key

	mouseX, mouseY int
	clicked        bool
}

func NewHandler() *Handler {
	return &Handler{bindings: DefaultBindings}
}

// Update reads this frame's input and returns the command it triggers.
// Quit wins over regenerate when both are pressed.
func (h *Handler) Update() Command {
	h.mouseX, h.mouseY = ebiten.CursorPosition()
	h.clicked = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)

	for _, cmd := range []Command{CommandQuit, CommandRegenerate} {
		for _, key := range h.bindings[cmd] {
			if inpututil.IsKeyJustPressed(key) {
				return cmd
			}
		}
	}
	return CommandNone
}

// Cursor returns the cursor position from the last Update.
func (h *Handler) Cursor() (int, int) {
	return h.mouseX, h.mouseY
}

// Clicked reports whether the left button went down during the last Update.
func (h *Handler) Clicked() bool {
	return h.clicked
}
