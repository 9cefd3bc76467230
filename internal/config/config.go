package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/mapgen"
	"github.com/mitchelldurbincs/qdungeon/internal/qlearning"
)

// Config holds all configuration for the application
type Config struct {
	Dungeon    DungeonConfig    `mapstructure:"dungeon"`
	Training   TrainingConfig   `mapstructure:"training"`
	Rewards    RewardsConfig    `mapstructure:"rewards"`
	Generation GenerationConfig `mapstructure:"generation"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Server     ServerConfig     `mapstructure:"server"`
	UI         UIConfig         `mapstructure:"ui"`
	Report     ReportConfig     `mapstructure:"report"`
}

// DungeonConfig holds the grid size shared by training and generation
type DungeonConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// TrainingConfig holds Q-learning hyperparameters
type TrainingConfig struct {
	Epsilon           float64 `mapstructure:"epsilon"`
	DiscountFactor    float64 `mapstructure:"discount_factor"`
	LearningRate      float64 `mapstructure:"learning_rate"`
	Episodes          int     `mapstructure:"episodes"`
	ExploitCandidates int     `mapstructure:"exploit_candidates"`
	Seed              int64   `mapstructure:"seed"`
}

// RewardsConfig holds the reward shaping values
type RewardsConfig struct {
	Penalty          float64 `mapstructure:"penalty"`
	BoundaryBonus    float64 `mapstructure:"boundary_bonus"`
	InteriorBonus    float64 `mapstructure:"interior_bonus"`
	InteriorMaxWalls int     `mapstructure:"interior_max_walls"`
}

// GenerationConfig holds dungeon acceptance settings
type GenerationConfig struct {
	SizeThreshold     int     `mapstructure:"size_threshold"`
	Keypoints         bool    `mapstructure:"keypoints"`
	MaxAttempts       int     `mapstructure:"max_attempts"`
	GreedyProbability float64 `mapstructure:"greedy_probability"`
	Candidates        int     `mapstructure:"candidates"`
}

// LoggingConfig holds zerolog settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds gRPC server configuration
type ServerConfig struct {
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	EnableReflection      bool   `mapstructure:"enable_reflection"`
	GracefulShutdownDelay int    `mapstructure:"graceful_shutdown_delay"`
}

// UIConfig holds UI/client configuration
type UIConfig struct {
	Window   WindowConfig `mapstructure:"window"`
	TileSize int          `mapstructure:"tile_size"`
}

// WindowConfig holds window settings
type WindowConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
}

// ReportConfig holds training chart settings
type ReportConfig struct {
	ChartPath string `mapstructure:"chart_path"`
	Window    int    `mapstructure:"window"`
}

var (
	// mu guards the global instances. A reload swaps cfg for a new value
	// and never writes through a pointer already handed out by Get.
	mu  sync.RWMutex
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	hp := qlearning.DefaultHyperparameters()
	rw := qlearning.DefaultRewardConfig()
	gen := mapgen.DefaultConfig(4, 4)

	v.SetDefault("dungeon.width", gen.Width)
	v.SetDefault("dungeon.height", gen.Height)

	// Training defaults
	v.SetDefault("training.epsilon", hp.Epsilon)
	v.SetDefault("training.discount_factor", hp.DiscountFactor)
	v.SetDefault("training.learning_rate", hp.LearningRate)
	v.SetDefault("training.episodes", hp.Episodes)
	v.SetDefault("training.exploit_candidates", hp.ExploitCandidates)
	v.SetDefault("training.seed", 0)

	// Reward defaults
	v.SetDefault("rewards.penalty", rw.Penalty)
	v.SetDefault("rewards.boundary_bonus", rw.BoundaryBonus)
	v.SetDefault("rewards.interior_bonus", rw.InteriorBonus)
	v.SetDefault("rewards.interior_max_walls", rw.InteriorMaxWalls)

	// Generation defaults
	v.SetDefault("generation.size_threshold", gen.SizeThreshold)
	v.SetDefault("generation.keypoints", gen.Keypoints)
	v.SetDefault("generation.max_attempts", gen.MaxAttempts)
	v.SetDefault("generation.greedy_probability", gen.GreedyProbability)
	v.SetDefault("generation.candidates", gen.Candidates)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// gRPC server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 50051)
	v.SetDefault("server.enable_reflection", true)
	v.SetDefault("server.graceful_shutdown_delay", 5)

	// UI defaults
	v.SetDefault("ui.window.width", 640)
	v.SetDefault("ui.window.height", 640)
	v.SetDefault("ui.window.title", "QDungeon")
	v.SetDefault("ui.tile_size", 96)

	v.SetDefault("report.chart_path", "")
	v.SetDefault("report.window", 50)
}

// Init initializes the configuration. Variables from a .env file in the
// working directory are loaded first; existing environment variables win.
// A missing config file falls back to defaults; any other read error fails.
func Init(configPath string) error {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	nv := viper.New()

	// Set defaults before loading any config
	setViperDefaults(nv)

	if configPath != "" {
		nv.SetConfigFile(configPath)
	} else {
		nv.SetConfigName("config")
		nv.SetConfigType("yaml")
		nv.AddConfigPath(".")
		nv.AddConfigPath("./config")
		nv.AddConfigPath("/etc/qdungeon")
	}

	nv.SetEnvPrefix("QDUNGEON")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	if err := nv.ReadInConfig(); err != nil && !isMissingFile(err) {
		return fmt.Errorf("error reading config file %q: %w", nv.ConfigFileUsed(), err)
	}

	next := &Config{}
	if err := nv.Unmarshal(next); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := Validate(next); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	mu.Lock()
	v, cfg = nv, next
	mu.Unlock()
	return nil
}

// isMissingFile reports whether err only says the config file is absent.
func isMissingFile(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

// Get returns the global config instance
func Get() *Config {
	mu.RLock()
	c := cfg
	mu.RUnlock()
	if c != nil {
		return c
	}

	if err := Init(""); err != nil {
		panic("failed to initialize config with defaults: " + err.Error())
	}
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// LoadEnvironmentConfig merges config.<env>.yaml over the loaded settings.
// A missing overlay is ignored.
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	envFile := fmt.Sprintf("config.%s.yaml", env)

	mu.Lock()
	defer mu.Unlock()
	if v == nil {
		return fmt.Errorf("config not initialized: %w", core.ErrConfiguration)
	}

	base := v.ConfigFileUsed()
	v.SetConfigFile(envFile)
	err := v.MergeInConfig()
	// Keep reporting and watching the base file.
	v.SetConfigFile(base)
	if err != nil && !isMissingFile(err) {
		return fmt.Errorf("error merging environment config %s: %w", envFile, err)
	}

	next := &Config{}
	if err := v.Unmarshal(next); err != nil {
		return fmt.Errorf("unable to decode merged config into struct: %w", err)
	}
	if err := Validate(next); err != nil {
		return err
	}
	cfg = next
	return nil
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	mu.RLock()
	defer mu.RUnlock()
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// WatchConfig enables hot-reloading of the config file. Each valid change
// replaces the global instance and is passed to onChange; changes that fail
// validation are logged and the previous settings are kept.
func WatchConfig(onChange func(*Config)) {
	mu.RLock()
	wv := v
	mu.RUnlock()

	wv.OnConfigChange(func(e fsnotify.Event) {
		next := &Config{}
		if err := wv.Unmarshal(next); err != nil {
			log.Error().Err(err).Str("file", e.Name).Msg("Failed to decode reloaded config")
			return
		}
		if err := Validate(next); err != nil {
			log.Error().Err(err).Str("file", e.Name).Msg("Reloaded config rejected")
			return
		}

		mu.Lock()
		cfg = next
		mu.Unlock()

		log.Info().Str("file", e.Name).Msg("Config reloaded")
		if onChange != nil {
			onChange(next)
		}
	})
	wv.WatchConfig()
}

// Hyperparameters returns the trainer settings.
func (c *Config) Hyperparameters() qlearning.Hyperparameters {
	return qlearning.Hyperparameters{
		Epsilon:           c.Training.Epsilon,
		DiscountFactor:    c.Training.DiscountFactor,
		LearningRate:      c.Training.LearningRate,
		Episodes:          c.Training.Episodes,
		ExploitCandidates: c.Training.ExploitCandidates,
	}
}

// RewardConfig returns the reward shaping settings.
func (c *Config) RewardConfig() *qlearning.RewardConfig {
	return &qlearning.RewardConfig{
		Penalty:          c.Rewards.Penalty,
		BoundaryBonus:    c.Rewards.BoundaryBonus,
		InteriorBonus:    c.Rewards.InteriorBonus,
		InteriorMaxWalls: c.Rewards.InteriorMaxWalls,
	}
}

// GeneratorConfig returns the generator settings for the configured grid.
func (c *Config) GeneratorConfig() mapgen.Config {
	return mapgen.Config{
		Width:             c.Dungeon.Width,
		Height:            c.Dungeon.Height,
		SizeThreshold:     c.Generation.SizeThreshold,
		Keypoints:         c.Generation.Keypoints,
		MaxAttempts:       c.Generation.MaxAttempts,
		GreedyProbability: c.Generation.GreedyProbability,
		Candidates:        c.Generation.Candidates,
	}
}

// Validate validates the configuration values. Every failure wraps
// core.ErrConfiguration.
func Validate(c *Config) error {
	if err := c.Hyperparameters().Validate(); err != nil {
		return err
	}
	if err := c.GeneratorConfig().Validate(); err != nil {
		return err
	}
	if c.Rewards.InteriorMaxWalls < 0 || c.Rewards.InteriorMaxWalls > 4 {
		return invalid("rewards.interior_max_walls must be between 0 and 4")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return invalid("logging.format must be json or console")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return invalid("server.port must be between 1 and 65535")
	}
	if c.Server.GracefulShutdownDelay < 0 {
		return invalid("server.graceful_shutdown_delay must be non-negative")
	}

	if c.UI.Window.Width <= 0 || c.UI.Window.Height <= 0 {
		return invalid("ui.window dimensions must be positive")
	}
	if c.UI.TileSize <= 0 {
		return invalid("ui.tile_size must be positive")
	}

	if c.Report.Window < 1 {
		return invalid("report.window must be at least 1")
	}

	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%s: %w", msg, core.ErrConfiguration)
}
