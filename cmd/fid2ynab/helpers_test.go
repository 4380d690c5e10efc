package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ynabtools/fid2ynab/internal/storage"
)

func newTestSettings(t *testing.T) *storage.SettingsStore {
	t.Helper()
	settings, err := storage.NewSettingsStore(filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, settings.Close())
	})
	return settings
}

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestMatchConfigPrecedence(t *testing.T) {
	resetViper(t)
	ctx := context.Background()
	settings := newTestSettings(t)

	// Nothing configured anywhere: built-in default.
	assert.Equal(t, 5, matchConfig(ctx, settings).ToleranceDays)

	// Saved settings take over when config is silent.
	require.NoError(t, settings.Set(ctx, storage.KeyDateTolerance, "9"))
	assert.Equal(t, 9, matchConfig(ctx, settings).ToleranceDays)

	// Explicit config wins over saved settings.
	viper.Set("tolerance_days", 2)
	assert.Equal(t, 2, matchConfig(ctx, settings).ToleranceDays)
}

func TestMatchConfigIgnoresUnparseableSetting(t *testing.T) {
	resetViper(t)
	ctx := context.Background()
	settings := newTestSettings(t)

	require.NoError(t, settings.Set(ctx, storage.KeyDateTolerance, "soon-ish"))
	assert.Equal(t, 5, matchConfig(ctx, settings).ToleranceDays)
}

func TestSkipCoreFundsPrecedence(t *testing.T) {
	resetViper(t)
	ctx := context.Background()
	settings := newTestSettings(t)

	// On by default.
	assert.True(t, skipCoreFunds(ctx, settings))

	require.NoError(t, settings.Set(ctx, storage.KeySkipCoreFunds, "false"))
	assert.False(t, skipCoreFunds(ctx, settings))

	viper.Set("skip_core_funds", true)
	assert.True(t, skipCoreFunds(ctx, settings))
}

func TestLoadFeedHonorsSkipCoreFundsSetting(t *testing.T) {
	resetViper(t)
	ctx := context.Background()
	settings := newTestSettings(t)

	feed := `[
		{"date": "Jan-12-2026", "description": "STARBUCKS COFFEE", "amountValue": -6.75},
		{"date": "Jan-12-2026", "description": "YOU BOUGHT FIDELITY GOVERNMENT MONEY MARKET (Cash)", "amountValue": -100}
	]`
	path := filepath.Join(t.TempDir(), "activity.json")
	require.NoError(t, os.WriteFile(path, []byte(feed), 0600))

	txns, err := loadFeed(ctx, path, "json", settings)
	require.NoError(t, err)
	assert.Len(t, txns, 1, "core funds filtered by default")

	require.NoError(t, settings.Set(ctx, storage.KeySkipCoreFunds, "false"))
	txns, err = loadFeed(ctx, path, "json", settings)
	require.NoError(t, err)
	assert.Len(t, txns, 2, "saved setting disables the filter")
}

func TestParseSkipList(t *testing.T) {
	skipped, err := parseSkipList("1, 3,7")
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 3: true, 7: true}, skipped)

	skipped, err = parseSkipList("")
	require.NoError(t, err)
	assert.Empty(t, skipped)

	_, err = parseSkipList("1,x")
	assert.Error(t, err)
}
