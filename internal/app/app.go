package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "scrape", "run":
		return runScrape(args[1:])
	case "validate":
		return runValidate(args[1:])
	case "seen":
		return runSeen(args[1:])
	case "group":
		return runGroup(args[1:])
	case "health":
		return runHealth(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "localwire CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  localwire <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  scrape    Fetch a region's feeds, match, group and notify once")
	fmt.Fprintln(os.Stderr, "  run       Alias for scrape")
	fmt.Fprintln(os.Stderr, "  validate  Validate region configuration files")
	fmt.Fprintln(os.Stderr, "  seen      Inspect or update a region's seen-link store")
	fmt.Fprintln(os.Stderr, "  group     Group candidate articles from a JSON file")
	fmt.Fprintln(os.Stderr, "  health    Report oracle availability and database connectivity")
	fmt.Fprintln(os.Stderr, "  serve     Start Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"localwire <command> -h\" for command-specific flags.")
}
