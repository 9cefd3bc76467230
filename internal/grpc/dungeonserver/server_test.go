package dungeonserver

import (
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/events"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/mapgen"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/rendering"
	"github.com/mitchelldurbincs/qdungeon/internal/testutil"
)

const bufSize = 1024 * 1024

// setupTestServer creates an in-memory gRPC server for testing
func setupTestServer(t *testing.T, srv DungeonServiceServer) *Client {
	t.Helper()
	lis := bufconn.Listen(bufSize)
	s := grpc.NewServer()
	RegisterDungeonServiceServer(s, srv)

	go func() {
		if err := s.Serve(lis); err != nil {
			t.Logf("Server exited with error: %v", err)
		}
	}()

	client, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}))
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		s.Stop()
		lis.Close()
	})
	return client
}

// openServer always accepts on the first attempt: every cell prefers no walls.
func openServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cfg := mapgen.DefaultConfig(4, 4)
	cfg.Candidates = 1
	opts = append([]Option{WithLogger(testutil.NopLogger())}, opts...)
	srv, err := NewServer(cfg, testutil.FavoringValues(t, 4, 4, 0), testutil.NewTestRNG(1), opts...)
	require.NoError(t, err)
	return srv
}

// staticServer answers every Generate call with the same response.
type staticServer struct {
	resp *structpb.Struct
}

func (s staticServer) Generate(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return s.resp, nil
}

// responseFields returns a well-formed w x h response with every cell open.
func responseFields(w, h int) map[string]interface{} {
	cells := make([]interface{}, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cells = append(cells, map[string]interface{}{"x": x, "y": y, "wall": 0, "role": "none"})
		}
	}
	return map[string]interface{}{
		"id": "d", "width": w, "height": h, "attempts": 1, "component_size": w * h, "cells": cells,
	}
}

func newResponse(t *testing.T, fields map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func TestNewServer_RejectsMismatchedTable(t *testing.T) {
	_, err := NewServer(mapgen.DefaultConfig(5, 5), testutil.FavoringValues(t, 4, 4, 0), testutil.NewTestRNG(1))
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestGenerate_RoundTrip(t *testing.T) {
	client := setupTestServer(t, openServer(t))

	d, err := client.Generate(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, 1, d.Attempts)
	assert.Equal(t, 4, d.Grid.W)
	assert.Equal(t, 4, d.Grid.H)
	for _, c := range d.Grid.C {
		assert.Equal(t, core.WallType(0), c.Wall)
	}
	for _, role := range core.KeypointRoles {
		assert.Len(t, d.Grid.FindRole(role), 1, "one %s", role)
	}
	assert.Len(t, d.Component, 16)
	assert.GreaterOrEqual(t, len(d.Component), mapgen.DefaultConfig(4, 4).SizeThreshold)
}

func TestGenerate_RawResponse(t *testing.T) {
	srv := openServer(t)
	resp, err := srv.Generate(context.Background(), &structpb.Struct{})
	require.NoError(t, err)

	fields := resp.GetFields()
	assert.Equal(t, float64(4), fields["width"].GetNumberValue())
	assert.Equal(t, float64(4), fields["height"].GetNumberValue())
	assert.Equal(t, float64(16), fields["component_size"].GetNumberValue())
	assert.Len(t, fields["cells"].GetListValue().GetValues(), 16)

	d, size, err := DungeonFromStruct(resp)
	require.NoError(t, err)
	assert.Equal(t, 16, size)
	assert.Equal(t, rendering.NewRenderer(false).Render(d.Grid), fields["rendered"].GetStringValue())
}

func TestGenerate_Overrides(t *testing.T) {
	client := setupTestServer(t, openServer(t))

	off := false
	client.Keypoints = &off
	d, err := client.Generate(context.Background())
	require.NoError(t, err)
	for _, c := range d.Grid.C {
		assert.Equal(t, core.RoleNone, c.Role)
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  *structpb.Struct
		code codes.Code
	}{
		{
			name: "ThresholdTooLarge",
			req:  NewGenerateRequest(intPtr(17), nil),
			code: codes.InvalidArgument,
		},
		{
			name: "FractionalThreshold",
			req: &structpb.Struct{Fields: map[string]*structpb.Value{
				"size_threshold": structpb.NewNumberValue(3.5),
			}},
			code: codes.InvalidArgument,
		},
		{
			name: "KeypointsNotBool",
			req: &structpb.Struct{Fields: map[string]*structpb.Value{
				"keypoints": structpb.NewStringValue("yes"),
			}},
			code: codes.InvalidArgument,
		},
	}

	srv := openServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.Generate(context.Background(), tt.req)
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
		})
	}
}

func TestGenerate_Exhausted(t *testing.T) {
	cfg := mapgen.DefaultConfig(4, 4)
	cfg.Candidates = 1
	cfg.MaxAttempts = 5
	bus := events.NewEventBus()
	exhausted := 0
	bus.SubscribeFunc(events.TypeGenerationExhausted, func(events.Event) { exhausted++ })

	srv, err := NewServer(cfg, testutil.FavoringValues(t, 4, 4, 15), testutil.NewTestRNG(1),
		WithLogger(testutil.NopLogger()), WithPublisher(bus))
	require.NoError(t, err)
	client := setupTestServer(t, srv)

	_, err = client.Generate(context.Background())
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
	assert.Equal(t, 1, exhausted)
}

func TestGenerate_Concurrent(t *testing.T) {
	client := setupTestServer(t, openServer(t))

	var wg sync.WaitGroup
	ids := make([]string, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := client.Generate(context.Background())
			errs[i] = err
			if err == nil {
				ids[i] = d.ID
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i := range ids {
		require.NoError(t, errs[i])
		assert.False(t, seen[ids[i]], "duplicate id %s", ids[i])
		seen[ids[i]] = true
	}
}

func TestToStatus(t *testing.T) {
	assert.Equal(t, codes.Canceled, status.Code(toStatus(context.Canceled)))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(toStatus(context.DeadlineExceeded)))
	assert.Equal(t, codes.InvalidArgument, status.Code(toStatus(core.ErrInvalidWallType)))
	assert.Equal(t, codes.Internal, status.Code(toStatus(assert.AnError)))
}

func TestDungeonFromStruct_Invalid(t *testing.T) {
	_, _, err := DungeonFromStruct(&structpb.Struct{})
	assert.ErrorIs(t, err, core.ErrConfiguration)

	fields := responseFields(2, 2)
	fields["cells"].([]interface{})[0] = map[string]interface{}{"x": 0, "y": 0, "wall": 16, "role": "none"}
	_, _, err = DungeonFromStruct(newResponse(t, fields))
	assert.ErrorIs(t, err, core.ErrInvalidWallType)

	fields = responseFields(2, 2)
	fields["cells"].([]interface{})[3] = map[string]interface{}{"x": 2, "y": 0, "wall": 0, "role": "none"}
	_, _, err = DungeonFromStruct(newResponse(t, fields))
	assert.ErrorIs(t, err, core.ErrOutOfBounds)
}

func TestDungeonFromStruct_GridBounds(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"Huge", 100000, 100000},
		{"WideStrip", MaxGridCells + 1, 1},
		{"TallStrip", 1, MaxGridCells + 1},
		{"ZeroWidth", 0, 4},
		{"NegativeHeight", 4, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := responseFields(1, 1)
			fields["width"] = tt.w
			fields["height"] = tt.h

			_, _, err := DungeonFromStruct(newResponse(t, fields))
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}

func TestDungeonFromStruct_CellCount(t *testing.T) {
	fields := responseFields(3, 3)
	fields["cells"] = fields["cells"].([]interface{})[:8]

	_, _, err := DungeonFromStruct(newResponse(t, fields))
	assert.ErrorIs(t, err, core.ErrConfiguration)
}

func TestDungeonFromStruct_Component(t *testing.T) {
	d, size, err := DungeonFromStruct(newResponse(t, responseFields(3, 3)))
	require.NoError(t, err)
	assert.Equal(t, 9, size)
	assert.Len(t, d.Component, 9)
	assert.Contains(t, d.Component, core.Coordinate{X: 1, Y: 1})

	// A fully walled corner drops out of the centre's component.
	fields := responseFields(3, 3)
	fields["component_size"] = 8
	cells := fields["cells"].([]interface{})
	cells[8] = map[string]interface{}{"x": 2, "y": 2, "wall": 15, "role": "none"}
	d, size, err = DungeonFromStruct(newResponse(t, fields))
	require.NoError(t, err)
	assert.Equal(t, 8, size)
	assert.NotContains(t, d.Component, core.Coordinate{X: 2, Y: 2})
}

func TestClientGenerate_RejectsComponentMismatch(t *testing.T) {
	fields := responseFields(4, 4)
	fields["component_size"] = 12
	client := setupTestServer(t, staticServer{resp: newResponse(t, fields)})

	d, err := client.Generate(context.Background())
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.Nil(t, d)
}

func TestClientGenerate_RejectsOversizedGrid(t *testing.T) {
	fields := responseFields(1, 1)
	fields["width"] = 100000
	fields["height"] = 100000
	client := setupTestServer(t, staticServer{resp: newResponse(t, fields)})

	d, err := client.Generate(context.Background())
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.Nil(t, d)
}

func intPtr(n int) *int { return &n }
