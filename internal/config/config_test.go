package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := &Config{
		DedupCapacity:   5000,
		CardHistorySize: 50,
		FeedMaxAge:      48 * time.Hour,
		CardMaxAge:      8 * time.Hour,
	}
	assert.NoError(t, valid.Validate())

	badGates := &Config{
		DedupCapacity:   5000,
		CardHistorySize: 50,
		FeedMaxAge:      8 * time.Hour,
		CardMaxAge:      48 * time.Hour,
	}
	assert.Error(t, badGates.Validate())

	badCapacity := &Config{CardHistorySize: 50}
	assert.Error(t, badCapacity.Validate())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NEWSWIRE_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Port)
	assert.Equal(t, 5000, cfg.DedupCapacity)
	assert.Equal(t, 50, cfg.CardHistorySize)
	assert.Equal(t, 48*time.Hour, cfg.FeedMaxAge)
	assert.Equal(t, 8*time.Hour, cfg.CardMaxAge)
	assert.Equal(t, 5, cfg.BreakerFailureThreshold)
	assert.Equal(t, "@every 2m", cfg.BreakingPollSpec)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NEWSWIRE_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9999")
	t.Setenv("DEDUP_CAPACITY", "100")
	t.Setenv("CARD_MAX_AGE_HOURS", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, 100, cfg.DedupCapacity)
	assert.Equal(t, 4*time.Hour, cfg.CardMaxAge)
}

func TestLoadFeedsDefaults(t *testing.T) {
	cfg := &Config{}

	feeds, err := cfg.LoadFeeds()
	require.NoError(t, err)
	assert.NotEmpty(t, feeds)

	for _, f := range feeds {
		assert.NotEmpty(t, f.Name)
		assert.NotEmpty(t, f.URL)
		assert.Contains(t, []string{GroupBreaking, GroupPeriodic}, f.Group)
	}
}

func TestLoadFeedsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feeds.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name":"Custom","url":"https://example.com/rss","column":"breaking","group":"breaking"}
	]`), 0644))

	cfg := &Config{FeedsFile: path}
	feeds, err := cfg.LoadFeeds()
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, "Custom", feeds[0].Name)
}

func TestLoadFeedsRejectsEmptyOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feeds.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0644))

	cfg := &Config{FeedsFile: path}
	_, err := cfg.LoadFeeds()
	assert.Error(t, err)

	cfg.FeedsFile = filepath.Join(dir, "missing.json")
	_, err = cfg.LoadFeeds()
	assert.Error(t, err)
}
