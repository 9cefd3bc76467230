package dungeonserver

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/connectivity"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/mapgen"
)

// Request fields
const (
	fieldSizeThreshold = "size_threshold"
	fieldKeypoints     = "keypoints"
)

// Response fields
const (
	fieldID            = "id"
	fieldWidth         = "width"
	fieldHeight        = "height"
	fieldAttempts      = "attempts"
	fieldComponentSize = "component_size"
	fieldCells         = "cells"
	fieldRendered      = "rendered"
	fieldX             = "x"
	fieldY             = "y"
	fieldWall          = "wall"
	fieldRole          = "role"
)

// GenerateRequest holds the optional overrides of a Generate call.
type GenerateRequest struct {
	SizeThreshold *int
	Keypoints     *bool
}

// NewGenerateRequest builds the Struct sent by clients. Nil fields are left
// out and fall back to the server's configuration.
func NewGenerateRequest(sizeThreshold *int, keypoints *bool) *structpb.Struct {
	fields := make(map[string]*structpb.Value)
	if sizeThreshold != nil {
		fields[fieldSizeThreshold] = structpb.NewNumberValue(float64(*sizeThreshold))
	}
	if keypoints != nil {
		fields[fieldKeypoints] = structpb.NewBoolValue(*keypoints)
	}
	return &structpb.Struct{Fields: fields}
}

// parseGenerateRequest reads the optional overrides from req. Errors wrap
// core.ErrConfiguration.
func parseGenerateRequest(req *structpb.Struct) (GenerateRequest, error) {
	var out GenerateRequest
	fields := req.GetFields()

	if v, ok := fields[fieldSizeThreshold]; ok {
		n, err := intValue(fieldSizeThreshold, v)
		if err != nil {
			return out, err
		}
		out.SizeThreshold = &n
	}
	if v, ok := fields[fieldKeypoints]; ok {
		b, isBool := v.GetKind().(*structpb.Value_BoolValue)
		if !isBool {
			return out, fmt.Errorf("%s must be a bool: %w", fieldKeypoints, core.ErrConfiguration)
		}
		out.Keypoints = &b.BoolValue
	}
	return out, nil
}

// apply returns base with the request's overrides.
func (r GenerateRequest) apply(base mapgen.Config) mapgen.Config {
	if r.SizeThreshold != nil {
		base.SizeThreshold = *r.SizeThreshold
	}
	if r.Keypoints != nil {
		base.Keypoints = *r.Keypoints
	}
	return base
}

func intValue(name string, v *structpb.Value) (int, error) {
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%s must be a number: %w", name, core.ErrConfiguration)
	}
	if n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, fmt.Errorf("%s must be an integer, got %v: %w", name, n.NumberValue, core.ErrConfiguration)
	}
	return int(n.NumberValue), nil
}

// dungeonToStruct encodes an accepted dungeon for the wire.
func dungeonToStruct(d *mapgen.Dungeon, rendered string) (*structpb.Struct, error) {
	cells := make([]interface{}, 0, d.Grid.CellCount())
	for i, c := range d.Grid.C {
		x, y := d.Grid.XY(i)
		cells = append(cells, map[string]interface{}{
			fieldX:    x,
			fieldY:    y,
			fieldWall: int(c.Wall),
			fieldRole: c.Role.String(),
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		fieldID:            d.ID,
		fieldWidth:         d.Grid.W,
		fieldHeight:        d.Grid.H,
		fieldAttempts:      d.Attempts,
		fieldComponentSize: len(d.Component),
		fieldCells:         cells,
		fieldRendered:      rendered,
	})
}

// MaxGridCells bounds the grid a Generate response may describe.
const MaxGridCells = 1 << 16

// DungeonFromStruct decodes a Generate response into a dungeon. The
// component is rebuilt from the decoded walls and must match the advertised
// component_size, which is also returned.
func DungeonFromStruct(s *structpb.Struct) (*mapgen.Dungeon, int, error) {
	fields := s.GetFields()
	w, err := intField(fields, fieldWidth)
	if err != nil {
		return nil, 0, err
	}
	h, err := intField(fields, fieldHeight)
	if err != nil {
		return nil, 0, err
	}
	if w < 1 || h < 1 || w > MaxGridCells/h {
		return nil, 0, fmt.Errorf("grid %dx%d in response: %w", w, h, core.ErrConfiguration)
	}
	attempts, err := intField(fields, fieldAttempts)
	if err != nil {
		return nil, 0, err
	}
	size, err := intField(fields, fieldComponentSize)
	if err != nil {
		return nil, 0, err
	}
	items := fields[fieldCells].GetListValue().GetValues()
	if len(items) != w*h {
		return nil, 0, fmt.Errorf("%d cells for %dx%d grid in response: %w", len(items), w, h, core.ErrConfiguration)
	}

	grid := core.NewGrid(w, h)
	for _, item := range items {
		cf := item.GetStructValue().GetFields()
		x, err := intField(cf, fieldX)
		if err != nil {
			return nil, 0, err
		}
		y, err := intField(cf, fieldY)
		if err != nil {
			return nil, 0, err
		}
		code, err := intField(cf, fieldWall)
		if err != nil {
			return nil, 0, err
		}
		wall, err := core.ParseWallType(code)
		if err != nil {
			return nil, 0, err
		}
		cell := grid.At(core.Coordinate{X: x, Y: y})
		if cell == nil {
			return nil, 0, fmt.Errorf("cell (%d,%d) in response: %w", x, y, core.ErrOutOfBounds)
		}
		cell.Wall = wall
		cell.Role = roleFromString(cf[fieldRole].GetStringValue())
	}

	component, err := connectivity.LargestComponent(grid, grid.CenterCoordinates())
	if err != nil {
		return nil, 0, err
	}
	if len(component) != size {
		return nil, 0, fmt.Errorf("component_size %d in response, walls give %d: %w",
			size, len(component), core.ErrConfiguration)
	}

	return &mapgen.Dungeon{
		ID:        fields[fieldID].GetStringValue(),
		Grid:      grid,
		Component: component,
		Attempts:  attempts,
	}, size, nil
}

func intField(fields map[string]*structpb.Value, name string) (int, error) {
	v, ok := fields[name]
	if !ok {
		return 0, fmt.Errorf("missing field %s: %w", name, core.ErrConfiguration)
	}
	return intValue(name, v)
}

func roleFromString(s string) core.Role {
	for _, r := range core.KeypointRoles {
		if r.String() == s {
			return r
		}
	}
	return core.RoleNone
}
