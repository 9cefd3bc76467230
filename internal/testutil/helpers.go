package testutil

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/qdungeon/internal/dungeon/core"
	"github.com/mitchelldurbincs/qdungeon/internal/qlearning"
)

// NewTestRNG creates a deterministic random number generator for tests
func NewTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NopLogger returns a no-op logger for tests
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// FavoringValues returns a w x h value table where action `wall` scores 1
// at every cell and every other action 0.
func FavoringValues(t *testing.T, w, h int, wall core.WallType) *qlearning.ValueTable {
	t.Helper()
	values, err := qlearning.NewValueTable(h, w)
	require.NoError(t, err)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			require.NoError(t, values.Set(row, col, int(wall), 1))
		}
	}
	return values
}

// TrainedValues trains a value table with the default hyperparameters and a
// fixed seed.
func TrainedValues(t *testing.T, w, h int, seed int64) *qlearning.ValueTable {
	t.Helper()
	values, _, err := qlearning.Run(t.Context(), w, h, qlearning.DefaultHyperparameters(),
		qlearning.DefaultRewardConfig(), NewTestRNG(seed), qlearning.WithLogger(NopLogger()))
	require.NoError(t, err)
	return values
}
