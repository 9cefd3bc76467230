// Package dungeonserver exposes dungeon generation over gRPC.
package dungeonserver

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/events"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/mapgen"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/rendering"
	"github.com/mitchelldurbincs/qdungeon/internal/qlearning"
)

// Server implements DungeonService over a trained value table.
type Server struct {
	// mu serialises Generate: the generator's rng is not safe for concurrent use.
	mu sync.Mutex

	config    mapgen.Config
	values    *qlearning.ValueTable
	rng       *rand.Rand
	renderer  *rendering.Renderer
	logger    zerolog.Logger
	publisher events.Publisher
}

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the default component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithPublisher publishes generation events to p.
func WithPublisher(p events.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// NewServer creates a dungeon server. config holds the defaults requests
// may override; it is validated against the value table up front.
func NewServer(config mapgen.Config, values *qlearning.ValueTable, rng *rand.Rand, opts ...Option) (*Server, error) {
	if _, err := mapgen.NewGenerator(config, values, rng); err != nil {
		return nil, err
	}
	s := &Server{
		config:   config,
		values:   values,
		rng:      rng,
		renderer: rendering.NewRenderer(false),
		logger:   log.With().Str("component", "dungeonserver").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Generate produces one dungeon. Request fields size_threshold and keypoints
// override the server defaults for this call only.
func (s *Server) Generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	params, err := parseGenerateRequest(req)
	if err != nil {
		return nil, toStatus(err)
	}
	cfg := params.apply(s.config)

	s.mu.Lock()
	defer s.mu.Unlock()

	opts := []mapgen.Option{mapgen.WithLogger(s.logger)}
	if s.publisher != nil {
		opts = append(opts, mapgen.WithPublisher(s.publisher))
	}
	gen, err := mapgen.NewGenerator(cfg, s.values, s.rng, opts...)
	if err != nil {
		return nil, toStatus(err)
	}

	d, err := gen.Generate(ctx)
	if err != nil {
		s.logger.Warn().Err(err).
			Int("size_threshold", cfg.SizeThreshold).
			Msg("Generate failed")
		return nil, toStatus(err)
	}

	resp, err := dungeonToStruct(d, s.renderer.Render(d.Grid))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode dungeon %s: %v", d.ID, err)
	}
	return resp, nil
}

// toStatus maps domain errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, core.ErrConfiguration), errors.Is(err, core.ErrInvalidWallType):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, core.ErrGenerationExhausted):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
