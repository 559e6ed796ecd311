package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWebhookEnvVar       = "SLACK_WEBHOOK_URL"
	DefaultExcerptLength       = 250
	DefaultSimilarityThreshold = 0.6
	regionFileSuffix           = "_county.yaml"
)

// Community is a configured locality plus the phrases that veto a match on it.
type Community struct {
	Name    string   `yaml:"name"`
	Exclude []string `yaml:"exclude,omitempty"`
}

// UnmarshalYAML accepts either a bare name or a {name, exclude} mapping.
func (c *Community) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		c.Name = strings.TrimSpace(node.Value)
		c.Exclude = nil
		return nil
	}

	type plain Community
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}
	*c = Community(decoded)
	c.Name = strings.TrimSpace(c.Name)
	return nil
}

// Region is one <region>_county.yaml file.
type Region struct {
	Region                string      `yaml:"region"`
	WebhookEnvVar         string      `yaml:"webhook_env_var"`
	Communities           []Community `yaml:"communities"`
	Feeds                 []string    `yaml:"feeds"`
	PrioritySources       []string    `yaml:"priority_sources"`
	SyndicationPhrases    []string    `yaml:"syndication_phrases"`
	DisjointRegionPhrases []string    `yaml:"disjoint_region_phrases"`
	MaxAgeHours           int         `yaml:"max_age_hours"`
	ExcerptLength         int         `yaml:"excerpt_length"`
	SimilarityThreshold   *float64    `yaml:"similarity_threshold"`
	GroupStories          *bool       `yaml:"group_stories"`
	AIRelevance           *bool       `yaml:"ai_relevance"`
	AISummaries           bool        `yaml:"ai_summaries"`
	SemanticGrouping      bool        `yaml:"semantic_grouping"`
	Languages             []string    `yaml:"languages"`
	FetchMissingBody      bool        `yaml:"fetch_missing_body"`
}

// RegionPath returns the conventional file path for a region.
func RegionPath(configDir, region string) string {
	return filepath.Join(configDir, strings.ToLower(strings.TrimSpace(region))+regionFileSuffix)
}

// LoadRegion reads, defaults and validates a region file.
func LoadRegion(path string) (*Region, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read region config %s: %w", path, err)
	}
	return ParseRegion(raw)
}

// ParseRegion decodes region YAML, applies defaults and validates the result.
func ParseRegion(raw []byte) (*Region, error) {
	var region Region
	if err := yaml.Unmarshal(raw, &region); err != nil {
		return nil, fmt.Errorf("decode region config: %w", err)
	}
	region.applyDefaults()
	if err := region.Validate(); err != nil {
		return nil, fmt.Errorf("region config validation failed: %w", err)
	}
	return &region, nil
}

// ListRegions returns the region names that have a config file in configDir.
func ListRegions(configDir string) ([]string, error) {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		return nil, fmt.Errorf("read config dir %s: %w", configDir, err)
	}
	var regions []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, regionFileSuffix) {
			regions = append(regions, strings.TrimSuffix(name, regionFileSuffix))
		}
	}
	sort.Strings(regions)
	return regions, nil
}

func (r *Region) applyDefaults() {
	r.Region = strings.TrimSpace(r.Region)
	if strings.TrimSpace(r.WebhookEnvVar) == "" {
		r.WebhookEnvVar = DefaultWebhookEnvVar
	}
	if r.ExcerptLength <= 0 {
		r.ExcerptLength = DefaultExcerptLength
	}
	if r.SimilarityThreshold == nil {
		threshold := DefaultSimilarityThreshold
		r.SimilarityThreshold = &threshold
	}
	if r.GroupStories == nil {
		enabled := true
		r.GroupStories = &enabled
	}
	if r.AIRelevance == nil {
		enabled := true
		r.AIRelevance = &enabled
	}
	r.Feeds = compact(r.Feeds)
	r.PrioritySources = compact(r.PrioritySources)
	r.SyndicationPhrases = compact(r.SyndicationPhrases)
	r.DisjointRegionPhrases = compact(r.DisjointRegionPhrases)
	r.Languages = compact(r.Languages)
	for i := range r.Languages {
		r.Languages[i] = strings.ToLower(r.Languages[i])
	}
}

func (r *Region) Validate() error {
	if r == nil {
		return errors.New("region config is nil")
	}
	if len(r.Communities) == 0 {
		return errors.New("no communities configured")
	}
	if len(r.Feeds) == 0 {
		return errors.New("no feeds configured")
	}

	seen := make(map[string]struct{}, len(r.Communities))
	for i, community := range r.Communities {
		if community.Name == "" {
			return fmt.Errorf("communities[%d] has an empty name", i)
		}
		key := strings.ToLower(community.Name)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("community %q is listed more than once", community.Name)
		}
		seen[key] = struct{}{}
	}

	if r.MaxAgeHours < 0 {
		return errors.New("max_age_hours must be >= 0")
	}
	if threshold := r.Threshold(); threshold < 0 || threshold > 1.01 {
		return fmt.Errorf("similarity_threshold must be within [0, 1.01], got %v", threshold)
	}
	return nil
}

// CommunityNames returns community names in configured order.
func (r *Region) CommunityNames() []string {
	names := make([]string, 0, len(r.Communities))
	for _, community := range r.Communities {
		names = append(names, community.Name)
	}
	return names
}

// Exclusions returns the exclusion phrases keyed by community name.
func (r *Region) Exclusions() map[string][]string {
	out := make(map[string][]string)
	for _, community := range r.Communities {
		if phrases := compact(community.Exclude); len(phrases) > 0 {
			out[community.Name] = phrases
		}
	}
	return out
}

func (r *Region) Threshold() float64 {
	if r == nil || r.SimilarityThreshold == nil {
		return DefaultSimilarityThreshold
	}
	return *r.SimilarityThreshold
}

func (r *Region) GroupingEnabled() bool {
	return r != nil && (r.GroupStories == nil || *r.GroupStories)
}

func (r *Region) AIRelevanceEnabled() bool {
	return r != nil && (r.AIRelevance == nil || *r.AIRelevance)
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
