package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/qdungeon/internal/app"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/mapgen"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/rendering"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	env := flag.String("env", "", "Environment overlay (loads config.<env>.yaml)")
	seed := flag.Int64("seed", 0, "RNG seed (0 to use config, or the clock when unset)")
	chart := flag.String("chart", "", "Write an HTML training chart to this path")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	plain := flag.Bool("plain", false, "Print role markers as letters instead of ANSI colours")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := app.NewEventBus(log.Logger, zerolog.DebugLevel)

	policy, err := app.TrainPolicy(ctx, cfg, bus)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to train policy")
	}
	log.Info().
		Int("episodes", policy.Stats.Episodes).
		Int("exploits", policy.Stats.Exploits).
		Float64("mean_reward", policy.Stats.MeanReward()).
		Dur("duration", policy.Stats.Duration).
		Msg("Training complete")

	gen, err := mapgen.NewGenerator(cfg.GeneratorConfig(), policy.Values, policy.RNG, mapgen.WithPublisher(bus))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create generator")
	}

	renderer := rendering.NewRenderer(!*plain)
	in := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println("Generating a dungeon...")
		fmt.Println()

		d, err := gen.Generate(ctx)
		switch {
		case errors.Is(err, core.ErrGenerationExhausted):
			fmt.Printf("No suitable dungeon found: %v\n", err)
		case err != nil:
			log.Error().Err(err).Msg("Generation stopped")
			return
		default:
			if err := renderer.Write(os.Stdout, d.Grid); err != nil {
				log.Fatal().Err(err).Msg("Failed to print dungeon")
			}
			if cfg.Generation.Keypoints {
				fmt.Println(renderer.Legend())
			}
			fmt.Printf("\nDungeon generated after %d attempts (region of %d cells).\n", d.Attempts, len(d.Component))
		}

		fmt.Println("Generate another one? (Enter for yes, Q to quit)")
		if !in.Scan() || strings.EqualFold(strings.TrimSpace(in.Text()), "q") {
			return
		}
	}
}
