package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/localwire/internal/cli"
	"horse.fit/localwire/internal/config"
	"horse.fit/localwire/internal/feed"
	"horse.fit/localwire/internal/notify"
	"horse.fit/localwire/internal/oracle"
	"horse.fit/localwire/internal/pipeline"
	"horse.fit/localwire/internal/reader"
	"horse.fit/localwire/internal/seen"
)

const flushTimeout = 15 * time.Second

func runScrape(args []string) int {
	fs := flag.NewFlagSet("scrape", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	regionFlag := fs.String("region", "", "Region name; reads <config-dir>/<region>_county.yaml")
	configDir := fs.String("config-dir", defaultConfigDir, "Directory holding region YAML files")
	stateDir := fs.String("state-dir", defaultStateDir, "Directory for file-backed seen stores")
	debug := fs.Bool("debug", false, "Enable debug logging")
	dryRun := fs.Bool("dry-run", false, "Log notifications instead of posting; nothing is marked seen")
	timeout := fs.Duration("timeout", 0, "Overall run timeout (0 disables)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	region := normalizeRegion(*regionFlag)
	if region == "" {
		fmt.Fprintln(os.Stderr, "--region is required")
		return 2
	}
	if *timeout < 0 {
		fmt.Fprintln(os.Stderr, "--timeout must be >= 0")
		return 2
	}

	loadEnv(envLoader)

	cfg, logger, err := loadRuntime(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	logger = logger.With().Str("region", region).Logger()

	regionCfg, err := config.LoadRegion(config.RegionPath(*configDir, region))
	if err != nil {
		logger.Error().Err(err).Msg("region config load failed")
		fmt.Fprintf(os.Stderr, "Failed to load region %s: %v\n", region, err)
		return 1
	}

	poster, err := newPoster(cfg, regionCfg, *dryRun, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	ctx, cancel := signalContext()
	defer cancel()
	if *timeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, *timeout)
		defer timeoutCancel()
	}

	pool, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("scrape failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	if pool != nil {
		defer pool.Close()
	}

	store := openSeen(ctx, cfg, pool, *stateDir, region, logger)
	defer flushSeen(store, logger)

	opts := pipeline.Options{
		Region: regionCfg,
		Fetcher: feed.NewFetcher(feed.Options{
			Timeout:  cfg.FeedTimeout,
			Location: cfg.Location(),
		}),
		Poster: poster,
		Store:  store,
		Formatter: notify.Formatter{
			ExcerptLength: regionCfg.ExcerptLength,
			Location:      cfg.Location(),
		},
		FeedDelay: cfg.FeedDelay,
		DryRun:    *dryRun,
		Logger:    logger,
	}
	if client := oracle.New(cfg, logger); client.Available() || client.EmbeddingsAvailable() {
		opts.Oracle = client
	} else {
		logger.Info().Msg("oracle not configured, AI features disabled")
	}
	if regionCfg.FetchMissingBody {
		opts.Body = reader.New(reader.Options{Timeout: cfg.FeedTimeout})
	}

	svc, err := pipeline.NewService(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		return 1
	}

	result, err := svc.Run(ctx)
	fmt.Printf(
		"scrape region=%s run_id=%s feeds=%d feed_errors=%d entries=%d seen=%d matched=%d ai_matched=%d groups=%d delivered=%d failed=%d\n",
		region,
		result.RunID,
		result.FeedsChecked,
		result.FeedsFailed,
		result.Entries,
		result.AlreadySeen,
		result.Matched,
		result.AIMatched,
		result.Groups,
		result.Delivered,
		result.Failed,
	)
	if err != nil {
		logger.Error().Err(err).Msg("scrape interrupted")
		fmt.Fprintf(os.Stderr, "Scrape interrupted: %v\n", err)
		return 1
	}
	return 0
}

// newPoster resolves the webhook from the env var the region names. Dry runs
// never need one.
func newPoster(cfg *config.Config, region *config.Region, dryRun bool, logger zerolog.Logger) (notify.Poster, error) {
	if dryRun {
		return notify.NewDryRun(logger), nil
	}

	webhook := strings.TrimSpace(os.Getenv(region.WebhookEnvVar))
	if webhook == "" {
		return nil, fmt.Errorf("%s is not set; export the Slack webhook URL or pass --dry-run", region.WebhookEnvVar)
	}
	return notify.NewSlack(webhook, notify.SlackOptions{
		Timeout:     cfg.NotifyTimeout,
		MaxAttempts: cfg.NotifyMaxAttempts,
		BackoffBase: cfg.NotifyBackoffBase,
	}, logger), nil
}

// flushSeen runs on every exit path with its own context; the run context may
// already be cancelled.
func flushSeen(store *seen.Store, logger zerolog.Logger) {
	if store == nil || !store.Dirty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := store.Flush(ctx); err != nil {
		logger.Error().Err(err).Msg("seen store flush failed")
		return
	}
	logger.Debug().Int("entries", store.Len()).Msg("seen store flushed")
}
