package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"

	"horse.fit/localwire/internal/config"
	"horse.fit/localwire/internal/grouping"
	"horse.fit/localwire/internal/news"
)

type groupOutput struct {
	Metric grouping.Metric `json:"metric"`
	Groups []news.Group    `json:"groups"`
}

func runGroup(args []string) int {
	fs := flag.NewFlagSet("group", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	input := fs.String("input", "", "JSON file holding an array of candidates (- for stdin)")
	threshold := fs.Float64("threshold", config.DefaultSimilarityThreshold, "Similarity threshold in [0, 1.01]")
	asJSON := fs.Bool("json", false, "Print groups as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	path := strings.TrimSpace(*input)
	if path == "" && fs.NArg() > 0 {
		path = strings.TrimSpace(fs.Arg(0))
	}
	if path == "" {
		fmt.Fprintln(os.Stderr, "--input is required")
		return 2
	}
	if *threshold < 0 || *threshold > 1.01 {
		fmt.Fprintln(os.Stderr, "--threshold must be within [0, 1.01]")
		return 2
	}

	candidates, err := readCandidates(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read candidates: %v\n", err)
		return 1
	}

	groups, metric := grouping.GroupWithMetric(candidates, nil, *threshold)

	if *asJSON {
		raw, err := json.MarshalIndent(groupOutput{Metric: metric, Groups: groups}, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode groups: %v\n", err)
			return 1
		}
		fmt.Println(string(raw))
		return 0
	}

	for i, group := range groups {
		fmt.Printf("group %d (%d articles)\n", i+1, len(group))
		for _, member := range group {
			marker := " "
			if member.IsPriority {
				marker = "*"
			}
			fmt.Printf("  %s %s <%s>\n", marker, member.Title, member.Link)
		}
	}
	fmt.Printf(
		"group candidates=%d groups=%d metric=%s threshold=%.2f\n",
		len(candidates),
		len(groups),
		metric,
		*threshold,
	)
	return 0
}

func readCandidates(path string) ([]news.Candidate, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var candidates []news.Candidate
	if err := json.Unmarshal(raw, &candidates); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return candidates, nil
}
