package main

import (
	"context"
	"flag"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/qdungeon/internal/app"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/mapgen"
	"github.com/mitchelldurbincs/qdungeon/internal/grpc/dungeonserver"
	"github.com/mitchelldurbincs/qdungeon/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	env := flag.String("env", "", "Environment overlay (loads config.<env>.yaml)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	seed := flag.Int64("seed", 0, "RNG seed (0 to use config, or the clock when unset)")
	server := flag.String("server", "", "Fetch dungeons from this dungeon server instead of training locally")
	flag.Parse()

	cfg, err := app.Setup(app.Options{
		ConfigPath:  *configPath,
		Environment: *env,
		LogLevel:    *logLevel,
		Seed:        *seed,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var source ui.Source
	if *server != "" {
		client, err := dungeonserver.Dial(*server)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to dungeon server")
		}
		defer client.Close()
		source = client
		log.Info().Str("server", *server).Msg("Using remote dungeon server")
	} else {
		bus := app.NewEventBus(log.Logger, zerolog.DebugLevel)
		policy, err := app.TrainPolicy(ctx, cfg, bus)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to train policy")
		}
		gen, err := mapgen.NewGenerator(cfg.GeneratorConfig(), policy.Values, policy.RNG, mapgen.WithPublisher(bus))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create generator")
		}
		source = gen
	}

	viewer := ui.NewViewer(ctx, source)

	ebiten.SetWindowSize(ui.ScreenWidth(), ui.ScreenHeight())
	ebiten.SetWindowTitle(cfg.UI.Window.Title)

	if err := ebiten.RunGame(viewer); err != nil {
		log.Fatal().Err(err).Msg("UI exited with error")
	}
}
