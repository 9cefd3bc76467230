package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/mapgen"
	"github.com/mitchelldurbincs/qdungeon/internal/qlearning"
)

// reset clears global state and runs the test from an empty directory so no
// stray config.yaml or .env is picked up.
func reset(t *testing.T) string {
	t.Helper()
	cfg = nil
	v = nil
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestInit(t *testing.T) {
	tmpDir := reset(t)
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
dungeon:
  width: 6
  height: 5
training:
  episodes: 500
  seed: 99
generation:
  size_threshold: 20
  keypoints: false
server:
  port: 8080
ui:
  window:
    width: 1024
    height: 768
`
	err := os.WriteFile(configFile, []byte(configContent), 0644)
	require.NoError(t, err)

	err = Init(configFile)
	require.NoError(t, err)

	c := Get()
	assert.Equal(t, 6, c.Dungeon.Width)
	assert.Equal(t, 5, c.Dungeon.Height)
	assert.Equal(t, 500, c.Training.Episodes)
	assert.Equal(t, int64(99), c.Training.Seed)
	assert.Equal(t, 20, c.Generation.SizeThreshold)
	assert.False(t, c.Generation.Keypoints)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 1024, c.UI.Window.Width)
	assert.Equal(t, 768, c.UI.Window.Height)
	assert.Equal(t, configFile, ConfigFilePath())

	// Untouched keys keep their defaults
	assert.Equal(t, 0.8, c.Training.DiscountFactor)
	assert.Equal(t, 1000, c.Generation.MaxAttempts)
}

func TestInitWithDefaults(t *testing.T) {
	reset(t)

	err := Init("/non/existent/path/config.yaml")
	require.NoError(t, err)

	c := Get()
	assert.Equal(t, qlearning.DefaultHyperparameters(), c.Hyperparameters())
	assert.Equal(t, qlearning.DefaultRewardConfig(), c.RewardConfig())
	assert.Equal(t, mapgen.DefaultConfig(4, 4), c.GeneratorConfig())
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, "console", c.Logging.Format)
	assert.Equal(t, 50051, c.Server.Port)
	assert.Equal(t, 50, c.Report.Window)
}

func TestEnvironmentVariables(t *testing.T) {
	reset(t)

	t.Setenv("QDUNGEON_TRAINING_EPISODES", "300")
	t.Setenv("QDUNGEON_GENERATION_SIZE_THRESHOLD", "10")
	t.Setenv("QDUNGEON_SERVER_PORT", "9090")

	err := Init("")
	require.NoError(t, err)

	c := Get()
	assert.Equal(t, 300, c.Training.Episodes)
	assert.Equal(t, 10, c.Generation.SizeThreshold)
	assert.Equal(t, 9090, c.Server.Port)
}

func TestDotEnvFile(t *testing.T) {
	dir := reset(t)

	envContent := "QDUNGEON_LOGGING_LEVEL=debug\nQDUNGEON_DUNGEON_WIDTH=5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(envContent), 0644))
	t.Cleanup(func() {
		os.Unsetenv("QDUNGEON_LOGGING_LEVEL")
		os.Unsetenv("QDUNGEON_DUNGEON_WIDTH")
	})

	require.NoError(t, Init(""))

	c := Get()
	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, 5, c.Dungeon.Width)
}

func TestInitRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"ThresholdAboveCells", "generation:\n  size_threshold: 17\n"},
		{"KeypointsWithTinyThreshold", "generation:\n  size_threshold: 2\n"},
		{"EpsilonOutOfRange", "training:\n  epsilon: 1.5\n"},
		{"NegativeEpisodes", "training:\n  episodes: -1\n"},
		{"BadLogFormat", "logging:\n  format: xml\n"},
		{"BadPort", "server:\n  port: 70000\n"},
		{"ZeroTileSize", "ui:\n  tile_size: 0\n"},
		{"ZeroChartWindow", "report:\n  window: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := reset(t)
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			err := Init(path)
			assert.ErrorIs(t, err, core.ErrConfiguration)
		})
	}
}

func TestInitRejectsUnreadableFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"UnclosedFlowSequence", "dungeon:\n  width: 6\n  height: [unclosed\n"},
		{"TabIndented", "dungeon:\n\twidth: 6\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := reset(t)
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			err := Init(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "error reading config file")
			assert.Nil(t, cfg, "no settings installed from a broken file")
		})
	}
}

func TestInitFailureKeepsPreviousConfig(t *testing.T) {
	dir := reset(t)
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("dungeon:\n  width: 6\n"), 0644))
	require.NoError(t, Init(good))
	before := Get()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("dungeon: [\n"), 0644))
	require.Error(t, Init(bad))

	assert.Same(t, before, Get())
	assert.Equal(t, 6, Get().Dungeon.Width)
}

func TestLoadEnvironmentConfig(t *testing.T) {
	tmpDir := reset(t)

	baseConfig := filepath.Join(tmpDir, "config.yaml")
	baseContent := `
training:
  episodes: 2000
server:
  port: 50051
`
	err := os.WriteFile(baseConfig, []byte(baseContent), 0644)
	require.NoError(t, err)

	envConfig := filepath.Join(tmpDir, "config.prod.yaml")
	envContent := `
training:
  episodes: 5000
server:
  port: 8080
logging:
  format: "json"
`
	err = os.WriteFile(envConfig, []byte(envContent), 0644)
	require.NoError(t, err)

	err = Init(baseConfig)
	require.NoError(t, err)

	err = LoadEnvironmentConfig("prod")
	require.NoError(t, err)

	c := Get()
	assert.Equal(t, 5000, c.Training.Episodes) // Overridden
	assert.Equal(t, 8080, c.Server.Port)       // Overridden
	assert.Equal(t, "json", c.Logging.Format)  // New value
	assert.Equal(t, 4, c.Dungeon.Width)        // Default
	assert.Equal(t, baseConfig, ConfigFilePath(), "the base file stays the one reported and watched")

	assert.NoError(t, LoadEnvironmentConfig(""))
	assert.NoError(t, LoadEnvironmentConfig("staging"), "a missing overlay is ignored")
}

func TestLoadEnvironmentConfig_Malformed(t *testing.T) {
	dir := reset(t)
	require.NoError(t, Init(""))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.dev.yaml"), []byte("training: [\n"), 0644))

	err := LoadEnvironmentConfig("dev")
	assert.Error(t, err)
}

func TestLoadEnvironmentConfig_Invalid(t *testing.T) {
	dir := reset(t)
	require.NoError(t, Init(""))
	before := Get()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.dev.yaml"), []byte("server:\n  port: 0\n"), 0644))

	err := LoadEnvironmentConfig("dev")
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.Same(t, before, Get(), "rejected overlays leave the settings alone")
}

func TestWatchConfig(t *testing.T) {
	dir := reset(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training:\n  episodes: 100\n"), 0644))
	require.NoError(t, Init(path))
	before := Get()

	reloaded := make(chan *Config, 16)
	WatchConfig(func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})

	require.NoError(t, os.WriteFile(path, []byte("training:\n  episodes: 250\n"), 0644))

	// A write can surface as several events; wait for the one carrying the new value.
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case next := <-reloaded:
			if next.Training.Episodes == 250 {
				assert.Same(t, next, Get())
				done = true
			}
		case <-timeout:
			t.Fatal("config change was not picked up")
		}
	}
	assert.Equal(t, 100, before.Training.Episodes, "earlier snapshots are never written to")
}

func TestConversions(t *testing.T) {
	c := &Config{
		Dungeon:    DungeonConfig{Width: 5, Height: 3},
		Training:   TrainingConfig{Epsilon: 0.2, DiscountFactor: 0.9, LearningRate: 0.5, Episodes: 10, ExploitCandidates: 4},
		Rewards:    RewardsConfig{Penalty: -1, BoundaryBonus: 2, InteriorBonus: 3, InteriorMaxWalls: 2},
		Generation: GenerationConfig{SizeThreshold: 9, Keypoints: true, MaxAttempts: 7, GreedyProbability: 0.5, Candidates: 2},
	}

	assert.Equal(t, qlearning.Hyperparameters{
		Epsilon: 0.2, DiscountFactor: 0.9, LearningRate: 0.5, Episodes: 10, ExploitCandidates: 4,
	}, c.Hyperparameters())
	assert.Equal(t, &qlearning.RewardConfig{
		Penalty: -1, BoundaryBonus: 2, InteriorBonus: 3, InteriorMaxWalls: 2,
	}, c.RewardConfig())
	assert.Equal(t, mapgen.Config{
		Width: 5, Height: 3, SizeThreshold: 9, Keypoints: true, MaxAttempts: 7, GreedyProbability: 0.5, Candidates: 2,
	}, c.GeneratorConfig())
}
