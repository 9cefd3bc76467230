package common

import (
	"image/color"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
)

// RoleColors defines the marker colour for each keypoint role
var RoleColors = map[core.Role]color.Color{
	core.RoleEntrance: color.RGBA{50, 200, 50, 255},  // Green
	core.RoleTreasure: color.RGBA{220, 200, 40, 255}, // Yellow
	core.RoleExit:     color.RGBA{200, 50, 50, 255},  // Red
}

// Tile colors
var (
	WallColor      = color.RGBA{80, 80, 80, 255}
	FloorColor     = color.RGBA{190, 180, 160, 255}
	ComponentColor = color.RGBA{225, 215, 190, 255}
)

// UI colors
var (
	BackgroundColor = color.Black
	GridLineColor   = color.RGBA{50, 50, 50, 255}
	TextColor       = color.White
)

// RoleColor returns the colour for role and whether the role has one.
func RoleColor(role core.Role) (color.Color, bool) {
	c, ok := RoleColors[role]
	return c, ok
}
