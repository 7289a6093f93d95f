package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AntonProkopyev/gh-summary-bot/internal/config"
	"github.com/AntonProkopyev/gh-summary-bot/internal/gateway"
	"github.com/AntonProkopyev/gh-summary-bot/internal/storage"
	"github.com/AntonProkopyev/gh-summary-bot/internal/usecase"
)

// runtime bundles the wired dependencies every command needs.
type runtime struct {
	cfg        config.Config
	logger     *logrus.Logger
	aggregator *usecase.Aggregator
	cache      storage.ReportCache // nil when the backend is "none"
	sqlStore   *storage.SQLStore   // nil unless the backend is "sqlite"
	progress   usecase.Progress
}

// newRuntime loads config and wires tracker, transport, retrying client,
// source, cache and aggregator together.
func newRuntime(cmd *cobra.Command) (*runtime, error) {
	logger := newLogger(cmd)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil && !verboseFlag(cmd) {
		logger.SetLevel(level)
	}

	tracker := gateway.NewTracker(gateway.TrackerOptions{
		MinFloor: cfg.RateLimitFloor,
		MaxSleep: cfg.RateLimitMaxSleep,
	})
	transport := gateway.NewTransport(cfg.GraphqlEndpoint, cfg.GithubToken, cfg.HTTPTimeout, tracker, logger)
	client := gateway.NewClient(transport, tracker, gateway.ClientOptions{
		MaxAttempts:       cfg.MaxRetries,
		BaseDelay:         cfg.RetryBaseDelay,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, logger)
	source := gateway.NewSource(client, cfg.MaxPages, logger)

	rt := &runtime{cfg: cfg, logger: logger}
	if err := rt.openCache(); err != nil {
		return nil, err
	}
	rt.aggregator = usecase.NewAggregator(source, rt.cache, logger)
	rt.progress = newProgress(cmd)
	return rt, nil
}

func (rt *runtime) openCache() error {
	switch rt.cfg.CacheBackend {
	case "sqlite":
		store, err := storage.NewSQLStore(storage.WithSqlite(rt.cfg.SqlitePath))
		if err != nil {
			return err
		}
		rt.sqlStore = store
		rt.cache = store
	case "redis":
		cache, err := storage.ConnectRedis(rt.cfg.RedisURL, rt.cfg.CacheTTL)
		if err != nil {
			return err
		}
		rt.cache = cache
	case "memory":
		cache, err := storage.NewMemoryCache(rt.cfg.CacheSize, rt.cfg.CacheTTL)
		if err != nil {
			return err
		}
		rt.cache = cache
	case "none":
		// Cache-free operation: every analysis hits the API.
	}
	return nil
}

func newLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if verboseFlag(cmd) {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// newProgress writes progress notifications to stderr unless --quiet.
func newProgress(cmd *cobra.Command) usecase.Progress {
	quiet, _ := cmd.InheritedFlags().GetBool("quiet")
	if quiet {
		return nil
	}
	return func(message string) {
		fmt.Fprintln(os.Stderr, message)
	}
}

func verboseFlag(cmd *cobra.Command) bool {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	return verbose
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
