package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleRegion = `
region: north
webhook_env_var: NORTH_WEBHOOK
communities:
  - Encinitas
  - name: Vista
    exclude: ["Chula Vista"]
feeds:
  - https://www.thecoastnews.com/feed/
  - "  "
priority_sources:
  - thecoastnews.com
syndication_phrases:
  - Associated Press
max_age_hours: 48
languages: [EN]
`

func TestParseRegion(t *testing.T) {
	t.Parallel()

	region, err := ParseRegion([]byte(sampleRegion))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if region.WebhookEnvVar != "NORTH_WEBHOOK" {
		t.Fatalf("unexpected webhook env var: %q", region.WebhookEnvVar)
	}
	if got := region.CommunityNames(); len(got) != 2 || got[0] != "Encinitas" || got[1] != "Vista" {
		t.Fatalf("unexpected community names: %v", got)
	}
	exclusions := region.Exclusions()
	if len(exclusions) != 1 || exclusions["Vista"][0] != "Chula Vista" {
		t.Fatalf("unexpected exclusions: %v", exclusions)
	}
	if len(region.Feeds) != 1 {
		t.Fatalf("expected blank feed to be dropped, got %v", region.Feeds)
	}
	if region.ExcerptLength != DefaultExcerptLength {
		t.Fatalf("unexpected excerpt length: got %d want %d", region.ExcerptLength, DefaultExcerptLength)
	}
	if region.Threshold() != DefaultSimilarityThreshold {
		t.Fatalf("unexpected threshold: %v", region.Threshold())
	}
	if !region.GroupingEnabled() || !region.AIRelevanceEnabled() {
		t.Fatalf("expected grouping and ai relevance to default on")
	}
	if region.Languages[0] != "en" {
		t.Fatalf("expected lower-cased language codes, got %v", region.Languages)
	}
}

func TestParseRegionDefaultsWebhookEnvVar(t *testing.T) {
	t.Parallel()

	region, err := ParseRegion([]byte("communities: [Oceanside]\nfeeds: [https://example.com/rss]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if region.WebhookEnvVar != DefaultWebhookEnvVar {
		t.Fatalf("unexpected webhook env var: %q", region.WebhookEnvVar)
	}
}

func TestParseRegionValidation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no communities": "feeds: [https://example.com/rss]\n",
		"no feeds":       "communities: [Oceanside]\n",
		"duplicate":      "communities: [Oceanside, oceanside]\nfeeds: [https://example.com/rss]\n",
		"threshold":      "communities: [Oceanside]\nfeeds: [https://example.com/rss]\nsimilarity_threshold: 2\n",
		"bad yaml":       "communities: [Oceanside\n",
	}
	for name, raw := range cases {
		if _, err := ParseRegion([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestExplicitThresholdAboveOneIsAllowed(t *testing.T) {
	t.Parallel()

	region, err := ParseRegion([]byte("communities: [Oceanside]\nfeeds: [https://example.com/rss]\nsimilarity_threshold: 1.01\ngroup_stories: false\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if region.Threshold() != 1.01 {
		t.Fatalf("unexpected threshold: %v", region.Threshold())
	}
	if region.GroupingEnabled() {
		t.Fatalf("expected grouping to be disabled")
	}
}

func TestLoadRegionAndList(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(RegionPath(dir, "North"), []byte(sampleRegion), 0o600); err != nil {
		t.Fatalf("write region: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write noise: %v", err)
	}

	regions, err := ListRegions(dir)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(regions) != 1 || regions[0] != "north" {
		t.Fatalf("unexpected regions: %v", regions)
	}

	if _, err := LoadRegion(RegionPath(dir, "north")); err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if _, err := LoadRegion(RegionPath(dir, "south")); err == nil {
		t.Fatalf("expected error for missing region file")
	}
}
