// Package config loads runtime configuration from the environment, with
// optional .env files for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable. Fields load from GHSUMMARY_* environment
// variables (split words: GHSUMMARY_GITHUB_TOKEN and so on).
type Config struct {
	// GitHub
	GithubToken     string        `split_words:"true" validate:"required"`
	GraphqlEndpoint string        `split_words:"true" default:"https://api.github.com/graphql" validate:"url"`
	HTTPTimeout     time.Duration `split_words:"true" default:"5m" validate:"gt=0"`

	// Retry / rate limiting
	MaxRetries        int           `split_words:"true" default:"4" validate:"gt=0"`
	RetryBaseDelay    time.Duration `split_words:"true" default:"1s" validate:"gt=0"`
	RequestsPerMinute int           `split_words:"true" default:"80" validate:"gte=0"`
	RateLimitFloor    int           `split_words:"true" default:"100" validate:"gt=0"`
	RateLimitMaxSleep time.Duration `split_words:"true" default:"10m" validate:"gt=0"`
	MaxPages          int           `split_words:"true" default:"50" validate:"gt=0"`

	// Cache
	CacheBackend string        `split_words:"true" default:"sqlite" validate:"oneof=sqlite redis memory none"`
	SqlitePath   string        `split_words:"true" default:"gh-summary.db"`
	RedisURL     string        `split_words:"true"`
	CacheTTL     time.Duration `split_words:"true" default:"24h" validate:"gt=0"`
	CacheSize    int           `split_words:"true" default:"1000" validate:"gt=0"`

	// Analysis
	EpochYear int `split_words:"true" default:"2008" validate:"gte=2008"`

	// Logging
	LogLevel string `split_words:"true" default:"info" validate:"oneof=debug info warn error"`
}

const envPrefix = "GHSUMMARY"

// Load reads .env files (when present), the environment, and validates
// the result.
func Load() (Config, error) {
	var cfg Config

	loadDotEnv()
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("env load: %w", err)
	}
	if cfg.CacheBackend == "redis" && cfg.RedisURL == "" {
		return cfg, fmt.Errorf("config validation: redis cache backend requires GHSUMMARY_REDIS_URL")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadDotEnv() {
	files := []string{".env"}
	if appEnv := os.Getenv("APP_ENV"); appEnv != "" {
		files = append(files, ".env."+appEnv)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Overload(f)
		}
	}
}
