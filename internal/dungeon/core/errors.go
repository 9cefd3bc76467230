package core

import "errors"

var (
	ErrConfiguration       = errors.New("invalid dungeon configuration")
	ErrOutOfBounds         = errors.New("coordinate outside grid bounds")
	ErrInvalidWallType     = errors.New("invalid wall type")
	ErrGenerationExhausted = errors.New("dungeon generation attempts exhausted")
)
