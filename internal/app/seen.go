package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/localwire/internal/cli"
	"horse.fit/localwire/internal/seen"
)

func runSeen(args []string) int {
	fs := flag.NewFlagSet("seen", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	regionFlag := fs.String("region", "", "Region whose store to open")
	stateDir := fs.String("state-dir", defaultStateDir, "Directory for file-backed seen stores")
	check := fs.String("check", "", "Report whether a link has been seen")
	mark := fs.String("mark", "", "Mark a link as seen and flush the store")
	stats := fs.Bool("stats", false, "Print store size and backend")
	timeout := fs.Duration("timeout", 10*time.Second, "Store load/flush timeout")

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
	checkLink := strings.TrimSpace(*check)
	markLink := strings.TrimSpace(*mark)
	if checkLink == "" && markLink == "" && !*stats {
		fmt.Fprintln(os.Stderr, "one of --check, --mark or --stats is required")
		return 2
	}

	loadEnv(envLoader)

	cfg, logger, err := loadRuntime(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	if pool != nil {
		defer pool.Close()
	}

	backend := seenBackend(pool, *stateDir, region)
	store := seen.Open(ctx, backend, cfg.SeenMaxSize, logger)

	if checkLink != "" {
		state := "not seen"
		if store.Has(checkLink) {
			state = "seen"
		}
		fmt.Printf("%s %s key=%s\n", state, checkLink, seen.NormalizeKey(checkLink))
	}

	if markLink != "" {
		store.Mark(markLink)
		if err := store.Flush(ctx); err != nil {
			logger.Error().Err(err).Msg("seen store flush failed")
			fmt.Fprintf(os.Stderr, "Failed to save seen store: %v\n", err)
			return 1
		}
		fmt.Printf("marked %s key=%s\n", markLink, seen.NormalizeKey(markLink))
	}

	if *stats {
		fmt.Printf(
			"seen region=%s backend=%s entries=%d max=%d\n",
			region,
			backend.Describe(),
			store.Len(),
			store.MaxSize(),
		)
	}
	return 0
}
