package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"horse.fit/localwire/internal/cli"
	"horse.fit/localwire/internal/config"
	"horse.fit/localwire/internal/db"
	"horse.fit/localwire/internal/logging"
	"horse.fit/localwire/internal/seen"
)

const (
	defaultConfigDir = "config"
	defaultStateDir  = "state"
)

func loadEnv(envLoader *cli.EnvLoader) {
	if envLoader == nil {
		return
	}
	if _, err := envLoader.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

// loadRuntime reads process configuration and builds the logger. debug
// overrides LOG_LEVEL.
func loadRuntime(debug bool) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logger, err := logging.New(cfg.Environment, level)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, logger, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// openDatabase returns nil when no DATABASE_URL is configured.
func openDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*db.Pool, error) {
	if !cfg.HasDatabase() {
		return nil, nil
	}
	pool, err := db.NewPool(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}

// seenBackend picks the Postgres backend when a pool is open and the state
// directory file otherwise.
func seenBackend(pool *db.Pool, stateDir, region string) seen.Backend {
	if pool != nil {
		return seen.NewDBBackend(pool, region)
	}
	return seen.NewFileBackend(seen.FilePath(stateDir, region))
}

func openSeen(ctx context.Context, cfg *config.Config, pool *db.Pool, stateDir, region string, logger zerolog.Logger) *seen.Store {
	return seen.Open(ctx, seenBackend(pool, stateDir, region), cfg.SeenMaxSize, logger.With().Str("region", region).Logger())
}

func normalizeRegion(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
