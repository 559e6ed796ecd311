package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horse.fit/localwire/internal/config"
	"horse.fit/localwire/internal/grouping"
	"horse.fit/localwire/internal/news"
	"horse.fit/localwire/internal/seen"
)

const (
	feedA = "https://feeds.example.com/north"
	feedB = "https://thecoastnews.com/feed/"
)

const regionYAML = `
region: north
communities:
  - Encinitas
  - name: Vista
    exclude: [Chula Vista]
  - San Marcos
feeds:
  - https://feeds.example.com/north
  - https://thecoastnews.com/feed/
priority_sources: [thecoastnews.com]
syndication_phrases: [Associated Press]
disjoint_region_phrases: [Chula Vista]
max_age_hours: 48
similarity_threshold: 0.5
`

type fakeFetcher struct {
	entries map[string][]news.Entry
	errs    map[string]error
	onFetch func(feedURL string)
	calls   []string
}

func (f *fakeFetcher) Fetch(_ context.Context, feedURL string) ([]news.Entry, error) {
	f.calls = append(f.calls, feedURL)
	if f.onFetch != nil {
		f.onFetch(feedURL)
	}
	if err := f.errs[feedURL]; err != nil {
		return nil, err
	}
	return f.entries[feedURL], nil
}

type recordingPoster struct {
	texts []string
	fail  bool
}

func (p *recordingPoster) Post(_ context.Context, text string) error {
	if p.fail {
		return errors.New("webhook down")
	}
	p.texts = append(p.texts, text)
	return nil
}

type fakeOracle struct {
	proposals map[string][]string
	verified  map[string]bool
	urgency   map[string]news.Urgency
	verifies  int
}

func (o *fakeOracle) BatchRelevance(_ context.Context, items []news.Brief, _ []string) [][]string {
	out := make([][]string, len(items))
	for i, item := range items {
		out[i] = o.proposals[item.Title]
	}
	return out
}

func (o *fakeOracle) VerifyRelevance(_ context.Context, item news.Brief, community string) bool {
	o.verifies++
	return o.verified[item.Title+"|"+community]
}

func (o *fakeOracle) ClassifyUrgency(_ context.Context, title, _ string) news.Urgency {
	if u, ok := o.urgency[title]; ok {
		return u
	}
	return news.UrgencyRoutine
}

func (o *fakeOracle) Summarize(context.Context, string, string) string { return "" }

func (o *fakeOracle) GroupSummaryAndAngle(context.Context, news.Group) (string, string) {
	return "", ""
}

func (o *fakeOracle) Embed(context.Context, []string) [][]float64 { return nil }

func hoursAgo(h int) *time.Time {
	ts := time.Now().Add(-time.Duration(h) * time.Hour)
	return &ts
}

func entry(title, link, summary string, published *time.Time) news.Entry {
	return news.Entry{Title: title, Link: link, Summary: summary, PublishedAt: published}
}

type harness struct {
	service *Service
	fetcher *fakeFetcher
	poster  *recordingPoster
	store   *seen.Store
}

func newHarness(t *testing.T, mutate func(*config.Region), oracle Oracle, dryRun bool) *harness {
	t.Helper()

	region, err := config.ParseRegion([]byte(regionYAML))
	require.NoError(t, err)
	if mutate != nil {
		mutate(region)
	}

	h := &harness{
		fetcher: &fakeFetcher{entries: map[string][]news.Entry{}, errs: map[string]error{}},
		poster:  &recordingPoster{},
		store:   seen.Open(context.Background(), nil, 100, zerolog.Nop()),
	}
	opts := Options{
		Region:  region,
		Fetcher: h.fetcher,
		Poster:  h.poster,
		Store:   h.store,
		DryRun:  dryRun,
		Logger:  zerolog.Nop(),
	}
	if oracle != nil {
		opts.Oracle = oracle
	}
	h.service, err = NewService(opts)
	require.NoError(t, err)
	return h
}

func TestRunFiltersMatchesAndMarksDelivered(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil, false)
	h.store.Mark("https://example.com/old-news")

	h.fetcher.entries[feedA] = []news.Entry{
		entry("Encinitas library expands hours", "https://example.com/library?utm=1", "", hoursAgo(1)),
		entry("Encinitas library expands hours", "https://example.com/library?utm=2", "", hoursAgo(1)),
		entry("Old story in Vista", "https://example.com/old-news?x=1", "", hoursAgo(2)),
		entry("", "https://example.com/no-title", "Vista", nil),
		entry("Stale San Marcos story", "https://example.com/stale", "", hoursAgo(100)),
		{Title: "Wire story about Vista", Link: "https://example.com/wire", Author: "Associated Press"},
		entry("Weather is nice", "https://example.com/weather", "Sunny all week.", nil),
	}
	h.fetcher.entries[feedB] = []news.Entry{
		entry("Council meets Tuesday", "https://thecoastnews.com/council/", "The San Marcos council will meet.", hoursAgo(3)),
	}

	result, err := h.service.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.FeedsChecked)
	assert.Equal(t, 8, result.Entries)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 1, result.AlreadySeen)
	assert.Equal(t, 1, result.Invalid)
	assert.Equal(t, 1, result.TooOld)
	assert.Equal(t, 1, result.Syndicated)
	assert.Equal(t, 1, result.Unmatched)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 2, result.Delivered)
	require.Len(t, h.poster.texts, 2)

	assert.True(t, h.store.Has("https://example.com/library"))
	assert.True(t, h.store.Has("https://thecoastnews.com/council/"))
	assert.False(t, h.store.Has("https://example.com/weather"))

	joined := strings.Join(h.poster.texts, "\n")
	assert.Contains(t, joined, "*Encinitas* · Encinitas library expands hours")
	assert.Contains(t, joined, "_The Coast News_ :star: local")
}

func TestRunGroupsSimilarStories(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil, false)
	h.fetcher.entries[feedA] = []news.Entry{
		entry("Vista brush fire contained overnight", "https://a.example/fire", "", hoursAgo(2)),
		entry("Encinitas pier reopens", "https://a.example/pier", "", hoursAgo(1)),
	}
	h.fetcher.entries[feedB] = []news.Entry{
		entry("Vista brush fire contained", "https://thecoastnews.com/fire/", "", hoursAgo(3)),
	}

	result, err := h.service.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Groups)
	assert.Equal(t, grouping.MetricLexical, result.Metric)
	assert.Equal(t, 3, result.Delivered)
	require.Len(t, h.poster.texts, 2)

	// Newest first: the pier story leads, the fire group follows.
	assert.Contains(t, h.poster.texts[0], "Encinitas pier reopens")
	assert.Contains(t, h.poster.texts[1], "*2 outlets on one story*")
	assert.Less(t,
		strings.Index(h.poster.texts[1], "thecoastnews.com/fire"),
		strings.Index(h.poster.texts[1], "a.example/fire"),
		"priority source should lead the group")
	assert.True(t, h.store.Has("https://thecoastnews.com/fire/"))
	assert.True(t, h.store.Has("https://a.example/fire"))
}

func TestRunGroupingDisabledDeliversIndividually(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(r *config.Region) {
		disabled := false
		r.GroupStories = &disabled
	}, nil, false)
	h.fetcher.entries[feedA] = []news.Entry{
		entry("Vista brush fire contained", "https://a.example/1", "", hoursAgo(1)),
		entry("Vista brush fire contained", "https://a.example/2", "", hoursAgo(2)),
	}

	result, err := h.service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Groups)
	assert.Len(t, h.poster.texts, 2)
}

func TestRunFailedDeliveryLeavesLinksUnseen(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil, false)
	h.poster.fail = true
	h.fetcher.entries[feedA] = []news.Entry{entry("Vista council votes", "https://a.example/v", "", nil)}

	result, err := h.service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Zero(t, result.Delivered)
	assert.False(t, h.store.Has("https://a.example/v"))
}

func TestRunDryRunDoesNotMark(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil, true)
	h.fetcher.entries[feedA] = []news.Entry{entry("Vista council votes", "https://a.example/v", "", nil)}

	result, err := h.service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)
	assert.Len(t, h.poster.texts, 1)
	assert.False(t, h.store.Has("https://a.example/v"))
}

func TestRunFeedErrorContinues(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil, false)
	h.fetcher.errs[feedA] = errors.New("timeout")
	h.fetcher.entries[feedB] = []news.Entry{entry("Vista council votes", "https://b.example/v", "", nil)}

	result, err := h.service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.FeedsFailed)
	assert.Equal(t, 1, result.Delivered)
}

func TestRunStopsBetweenFeedsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newHarness(t, nil, nil, false)
	h.fetcher.entries[feedA] = []news.Entry{entry("Vista council votes", "https://a.example/v", "", nil)}
	h.fetcher.onFetch = func(string) { cancel() }

	_, err := h.service.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{feedA}, h.fetcher.calls)
	assert.Empty(t, h.poster.texts)
}

func TestRunAIFallbackVerifiesAssignments(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{
		proposals: map[string][]string{
			"New trail opens near the lagoon":  {"encinitas", "Atlantis"},
			"Mall renovation approved":         {"San Marcos"},
			"Chula Vista bayfront hotel opens": {"Vista"},
		},
		verified: map[string]bool{
			"New trail opens near the lagoon|Encinitas": true,
		},
		urgency: map[string]news.Urgency{
			"New trail opens near the lagoon": news.UrgencyDeveloping,
		},
	}
	h := newHarness(t, nil, oracle, false)
	h.fetcher.entries[feedA] = []news.Entry{
		entry("New trail opens near the lagoon", "https://a.example/trail", "Hikers welcome.", nil),
		entry("Mall renovation approved", "https://a.example/mall", "Construction starts soon.", nil),
		entry("Chula Vista bayfront hotel opens", "https://a.example/hotel", "A big hotel.", nil),
	}

	result, err := h.service.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Disjoint)
	assert.Equal(t, 1, result.AIMatched)
	assert.Equal(t, 1, result.Unmatched)
	assert.Equal(t, 2, oracle.verifies)
	require.Len(t, h.poster.texts, 1)
	assert.Contains(t, h.poster.texts[0], ":hourglass_flowing_sand: *DEVELOPING* :bell: *Encinitas* · New trail opens near the lagoon")
	assert.True(t, h.store.Has("https://a.example/trail"))
	assert.False(t, h.store.Has("https://a.example/mall"))
}

func TestRunAIFallbackDisabledByRegion(t *testing.T) {
	t.Parallel()

	oracle := &fakeOracle{proposals: map[string][]string{"Mall renovation approved": {"San Marcos"}}}
	h := newHarness(t, func(r *config.Region) {
		disabled := false
		r.AIRelevance = &disabled
	}, oracle, false)
	h.fetcher.entries[feedA] = []news.Entry{entry("Mall renovation approved", "https://a.example/mall", "", nil)}

	result, err := h.service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Unmatched)
	assert.Zero(t, oracle.verifies)
	assert.Empty(t, h.poster.texts)
}

func TestSortCandidates(t *testing.T) {
	t.Parallel()

	candidates := []news.Candidate{
		{Link: "routine-old", Urgency: news.UrgencyRoutine, PublishedAt: hoursAgo(5)},
		{Link: "routine-undated", Urgency: news.UrgencyRoutine},
		{Link: "breaking", Urgency: news.UrgencyBreaking, PublishedAt: hoursAgo(9)},
		{Link: "routine-new", Urgency: news.UrgencyRoutine, PublishedAt: hoursAgo(1)},
		{Link: "developing", Urgency: news.UrgencyDeveloping},
	}
	SortCandidates(candidates)

	links := news.Group(candidates).Links()
	assert.Equal(t, []string{"breaking", "developing", "routine-new", "routine-old", "routine-undated"}, links)
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := NewService(Options{})
	assert.Error(t, err)
}
