package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/mitchelldurbincs/qdungeon/internal/app"
	"github.com/mitchelldurbincs/qdungeon/internal/config"
	"github.com/mitchelldurbincs/qdungeon/internal/grpc/dungeonserver"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	env := flag.String("env", "", "Environment overlay (loads config.<env>.yaml)")
	port := flag.Int("port", -1, "The server port (-1 to use config default)")
	host := flag.String("host", "", "The server host (empty to use config default)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	seed := flag.Int64("seed", 0, "RNG seed (0 to use config, or the clock when unset)")
	chart := flag.String("chart", "", "Write an HTML training chart to this path")
	enableReflection := flag.Bool("enable-reflection", false, "Enable gRPC reflection for debugging")
	flag.Parse()

	cfg, err := app.Setup(app.Options{
		ConfigPath:  *configPath,
		Environment: *env,
		LogLevel:    *logLevel,
		Seed:        *seed,
		ChartPath:   *chart,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}

	// Use config defaults if not overridden by flags
	if *port == -1 {
		*port = cfg.Server.Port
	}
	if *host == "" {
		*host = cfg.Server.Host
	}
	if !*enableReflection {
		*enableReflection = cfg.Server.EnableReflection
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := app.NewEventBus(log.Logger, zerolog.DebugLevel)
	policy, err := app.TrainPolicy(ctx, cfg, bus)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to train policy")
	}

	dungeonService, err := dungeonserver.NewServer(cfg.GeneratorConfig(), policy.Values, policy.RNG,
		dungeonserver.WithPublisher(bus))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create dungeon service")
	}

	config.WatchConfig(func(next *config.Config) {
		log.Warn().
			Int("size_threshold", next.Generation.SizeThreshold).
			Int("graceful_shutdown_delay", next.Server.GracefulShutdownDelay).
			Msg("Config changed; generation settings apply after restart")
	})

	log.Info().
		Int("port", *port).
		Str("host", *host).
		Int64("seed", policy.Seed).
		Msg("Starting gRPC dungeon server")

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", *host, *port))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to listen")
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			dungeonserver.LoggingInterceptor,
			dungeonserver.RecoveryInterceptor,
		),
	)
	dungeonserver.RegisterDungeonServiceServer(grpcServer, dungeonService)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(dungeonserver.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	if *enableReflection {
		reflection.Register(grpcServer)
		log.Info().Msg("gRPC reflection enabled")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
		healthServer.SetServingStatus(dungeonserver.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		// Give ongoing requests time to complete
		time.Sleep(time.Duration(config.Get().Server.GracefulShutdownDelay) * time.Second)

		log.Info().Msg("Gracefully stopping gRPC server")
		grpcServer.GracefulStop()
		cancel()
	}()

	log.Info().Str("address", lis.Addr().String()).Msg("gRPC server listening")

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutdown complete")
}
