// Package config loads kabu settings from flags, environment, an optional
// kabu.yaml and defaults, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/komsit37/kabu/pkg/kabu/provider"
	"github.com/komsit37/kabu/pkg/kabu/yahoo"
)

// EnvPrefix is prepended to every environment key, e.g. KABU_LOG_LEVEL.
const EnvPrefix = "KABU"

// DefaultSymbols are used when no symbols are given anywhere.
const DefaultSymbols = "8194.T,9699.T,9715.T"

// Config holds application configuration
type Config struct {
	Log      LogConfig     `mapstructure:"log"`
	Provider string        `mapstructure:"provider"`
	Symbols  string        `mapstructure:"symbols"`
	Live     LiveConfig    `mapstructure:"live"`
	Fixture  FixtureConfig `mapstructure:"fixture"`
	Server   ServerConfig  `mapstructure:"server"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type LiveConfig struct {
	Attempts      int           `mapstructure:"attempts"`
	BaseDelay     time.Duration `mapstructure:"base_delay"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	CacheMaxItems int           `mapstructure:"cache_max_items"`
	Concurrency   int           `mapstructure:"concurrency"`
	HistoryPeriod string        `mapstructure:"history_period"`
}

type FixtureConfig struct {
	Dir         string        `mapstructure:"dir"`
	DedupWindow time.Duration `mapstructure:"dedup_window"`
	Period      string        `mapstructure:"period"`
	Delay       time.Duration `mapstructure:"delay"`
}

type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	SessionIdle time.Duration `mapstructure:"session_idle"`
}

// New returns a viper instance with defaults, env binding and config file
// search paths set. Callers bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("kabu")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "kabu"))
	}
	return v
}

// SetDefaults registers every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("provider", provider.NameLive)
	v.SetDefault("symbols", DefaultSymbols)

	v.SetDefault("live.attempts", provider.DefaultAttempts)
	v.SetDefault("live.base_delay", provider.DefaultBaseDelay)
	v.SetDefault("live.timeout", yahoo.DefaultTimeout)
	v.SetDefault("live.cache_ttl", provider.DefaultCacheTTL)
	v.SetDefault("live.cache_max_items", 0)
	v.SetDefault("live.concurrency", 4)
	v.SetDefault("live.history_period", "5d")

	v.SetDefault("fixture.dir", "test_data")
	v.SetDefault("fixture.dedup_window", 60*time.Second)
	v.SetDefault("fixture.period", "5d")
	v.SetDefault("fixture.delay", 2*time.Second)

	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.session_idle", 30*time.Minute)
}

// Load reads .env (if present) and kabu.yaml (if found), then decodes v.
func Load(v *viper.Viper) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	switch c.Provider {
	case provider.NameLive, provider.NameFixture:
	default:
		return fmt.Errorf("provider must be %q or %q, got %q", provider.NameLive, provider.NameFixture, c.Provider)
	}
	if c.Live.Attempts < 1 {
		return fmt.Errorf("live.attempts must be at least 1, got %d", c.Live.Attempts)
	}
	if c.Live.BaseDelay < 0 {
		return fmt.Errorf("live.base_delay must not be negative")
	}
	if c.Live.CacheMaxItems < 0 {
		return fmt.Errorf("live.cache_max_items must not be negative")
	}
	if c.Live.HistoryPeriod != "" {
		if err := yahoo.ValidatePeriod(c.Live.HistoryPeriod); err != nil {
			return fmt.Errorf("live.history_period: %w", err)
		}
	}
	if err := yahoo.ValidatePeriod(c.Fixture.Period); err != nil {
		return fmt.Errorf("fixture.period: %w", err)
	}
	if c.Fixture.Dir == "" {
		return errors.New("fixture.dir is required")
	}
	return nil
}

// RetryPolicy returns the live retry policy.
func (c *Config) RetryPolicy() provider.RetryPolicy {
	return provider.RetryPolicy{Attempts: c.Live.Attempts, BaseDelay: c.Live.BaseDelay}
}
