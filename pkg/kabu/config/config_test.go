package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/kabu/pkg/kabu/provider"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, provider.NameLive, cfg.Provider)
	assert.Equal(t, DefaultSymbols, cfg.Symbols)
	assert.Equal(t, 2, cfg.Live.Attempts)
	assert.Equal(t, time.Second, cfg.Live.BaseDelay)
	assert.Equal(t, 10*time.Minute, cfg.Live.CacheTTL)
	assert.Equal(t, 0, cfg.Live.CacheMaxItems)
	assert.Equal(t, "test_data", cfg.Fixture.Dir)
	assert.Equal(t, 60*time.Second, cfg.Fixture.DedupWindow)
	assert.Equal(t, "5d", cfg.Fixture.Period)
	assert.Equal(t, 2*time.Second, cfg.Fixture.Delay)
	assert.Equal(t, ":8501", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionIdle)

	assert.Equal(t, provider.DefaultRetryPolicy(), cfg.RetryPolicy())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KABU_LOG_LEVEL", "debug")
	t.Setenv("KABU_LOG_PRETTY", "false")
	t.Setenv("KABU_PROVIDER", "fixture")
	t.Setenv("KABU_LIVE_BASE_DELAY", "250ms")
	t.Setenv("KABU_LIVE_ATTEMPTS", "3")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.Equal(t, provider.NameFixture, cfg.Provider)
	assert.Equal(t, provider.RetryPolicy{Attempts: 3, BaseDelay: 250 * time.Millisecond}, cfg.RetryPolicy())
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kabu.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fixture:\n  dir: snapshots\n  period: 1mo\nserver:\n  addr: \":9000\"\n"), 0o644))

	v := New()
	v.SetConfigFile(path)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "snapshots", cfg.Fixture.Dir)
	assert.Equal(t, "1mo", cfg.Fixture.Period)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	// untouched keys keep defaults
	assert.Equal(t, 60*time.Second, cfg.Fixture.DedupWindow)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kabu.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fixture:\n  dir: from-file\n"), 0o644))
	t.Setenv("KABU_FIXTURE_DIR", "from-env")

	v := New()
	v.SetConfigFile(path)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Fixture.Dir)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(New())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "csv" }, "provider must be"},
		{"zero attempts", func(c *Config) { c.Live.Attempts = 0 }, "live.attempts"},
		{"negative delay", func(c *Config) { c.Live.BaseDelay = -time.Second }, "live.base_delay"},
		{"negative cache size", func(c *Config) { c.Live.CacheMaxItems = -1 }, "live.cache_max_items"},
		{"bad history period", func(c *Config) { c.Live.HistoryPeriod = "3w" }, "live.history_period"},
		{"bad fixture period", func(c *Config) { c.Fixture.Period = "" }, "fixture.period"},
		{"empty fixture dir", func(c *Config) { c.Fixture.Dir = "" }, "fixture.dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.NoError(t, base().Validate())
}
