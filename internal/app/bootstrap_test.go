package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/qdungeon/internal/config"
	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/events"
	"github.com/mitchelldurbincs/qdungeon/internal/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	require.NoError(t, config.Init(""))
	cfg := *config.Get()
	cfg.Training.Episodes = 200
	return &cfg
}

func TestResolveSeed(t *testing.T) {
	assert.Equal(t, int64(42), ResolveSeed(42))
	assert.NotZero(t, ResolveSeed(0))
}

func TestSetup_FlagOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	oldLevel := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(oldLevel) })

	cfg, err := Setup(Options{LogLevel: "warn", Seed: 7, ChartPath: "out.html"})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, int64(7), cfg.Training.Seed)
	assert.Equal(t, "out.html", cfg.Report.ChartPath)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	shared := config.Get()
	assert.NotSame(t, shared, cfg)
	assert.Equal(t, int64(0), shared.Training.Seed, "overrides stay off the shared instance")
	assert.Empty(t, shared.Report.ChartPath)
}

func TestSetup_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("training:\n  epsilon: 2\n"), 0644))

	_, err := Setup(Options{ConfigPath: path})
	assert.Error(t, err)
}

func TestTrainPolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Training.Seed = 11
	cfg.Report.ChartPath = filepath.Join(t.TempDir(), "chart.html")

	bus := NewEventBus(testutil.NopLogger(), zerolog.DebugLevel)
	completed := 0
	bus.SubscribeFunc(events.TypeTrainingCompleted, func(events.Event) { completed++ })

	policy, err := TrainPolicy(context.Background(), cfg, bus)
	require.NoError(t, err)
	assert.Equal(t, int64(11), policy.Seed)
	assert.Equal(t, 200, policy.Stats.Episodes)
	assert.Equal(t, 4, policy.Values.Shape().Rows)
	assert.Equal(t, 1, completed)
	assert.FileExists(t, cfg.Report.ChartPath)
	assert.Equal(t, 1, bus.GetSubscriberCount())
}

func TestTrainPolicy_Deterministic(t *testing.T) {
	cfg := testConfig(t)
	cfg.Training.Seed = 5

	a, err := TrainPolicy(context.Background(), cfg, nil)
	require.NoError(t, err)
	b, err := TrainPolicy(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, a.Values.BestActions(), b.Values.BestActions())
}

func TestTrainPolicy_Cancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := TrainPolicy(ctx, cfg, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
