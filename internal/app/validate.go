package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"horse.fit/localwire/internal/cli"
	"horse.fit/localwire/internal/config"
)

type validateResult struct {
	Scanned int
	Valid   int
	Invalid int
}

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	configDir := fs.String("config-dir", defaultConfigDir, "Directory holding region YAML files")
	regionFlag := fs.String("region", "", "Validate one region (default: every *_county.yaml)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	loadEnv(envLoader)

	dir := strings.TrimSpace(*configDir)
	regions := []string{normalizeRegion(*regionFlag)}
	if regions[0] == "" {
		listed, err := config.ListRegions(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Validation setup failed: %v\n", err)
			return 1
		}
		regions = listed
	}

	result := validateResult{}
	for _, region := range regions {
		result.Scanned++

		path := config.RegionPath(dir, region)
		cfg, err := config.LoadRegion(path)
		if err != nil {
			result.Invalid++
			fmt.Fprintf(os.Stderr, "INVALID %s: %v\n", path, err)
			continue
		}

		result.Valid++
		fmt.Printf("ok %s communities=%d feeds=%d threshold=%.2f\n", region, len(cfg.Communities), len(cfg.Feeds), cfg.Threshold())
	}

	fmt.Printf(
		"validate scanned=%d valid=%d invalid=%d dir=%s\n",
		result.Scanned,
		result.Valid,
		result.Invalid,
		dir,
	)

	if result.Scanned == 0 {
		fmt.Fprintf(os.Stderr, "Validation failed: no region files found under %s\n", dir)
		return 1
	}
	if result.Invalid > 0 {
		return 1
	}
	return 0
}
