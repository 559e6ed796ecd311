package grouping

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horse.fit/localwire/internal/news"
)

func candidate(title string) news.Candidate {
	return news.Candidate{Title: title, Link: "https://example.com/" + title}
}

func at(hour int) *time.Time {
	ts := time.Date(2026, 10, 19, hour, 0, 0, 0, time.UTC)
	return &ts
}

func flatten(groups []news.Group) []string {
	var links []string
	for _, group := range groups {
		links = append(links, group.Links()...)
	}
	return links
}

func TestGroupBikeLaneThresholds(t *testing.T) {
	t.Parallel()

	articles := []news.Candidate{
		candidate("Encinitas council approves new bike lane"),
		candidate("Encinitas City Council OKs bike lane project"),
	}

	assert.Len(t, Group(articles, nil, 0.6), 2)
	assert.Len(t, Group(articles, nil, 0.5), 2)
	assert.Len(t, Group(articles, nil, 0.44), 1)
}

func TestGroupIsPartition(t *testing.T) {
	t.Parallel()

	articles := []news.Candidate{
		candidate("Vista fire contained"),
		candidate("Oceanside pier reopens"),
		candidate("Brush fire in Vista contained overnight"),
		candidate("Pier in Oceanside reopens after repairs"),
		candidate("Library hours expand"),
		candidate(""),
	}

	groups := Group(articles, nil, 0.3)

	var inputLinks []string
	for _, a := range articles {
		inputLinks = append(inputLinks, a.Link)
	}
	assert.ElementsMatch(t, inputLinks, flatten(groups))
	for _, group := range groups {
		assert.NotEmpty(t, group)
	}
}

func TestGroupThresholdAboveOneYieldsSingletons(t *testing.T) {
	t.Parallel()

	articles := []news.Candidate{
		candidate("Pier reopens"),
		candidate("Pier reopens"),
		candidate("pier REOPENS"),
	}
	groups := Group(articles, nil, 1.01)
	require.Len(t, groups, 3)
	for _, group := range groups {
		assert.Len(t, group, 1)
	}
}

func TestGroupZeroThresholdWithSharedTokensYieldsOneGroup(t *testing.T) {
	t.Parallel()

	articles := []news.Candidate{
		candidate("Carlsbad flower fields open"),
		candidate("Carlsbad traffic advisory"),
		candidate("Storm hits Carlsbad coast"),
		candidate("Carlsbad schools close early"),
	}
	groups := Group(articles, nil, 0)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0], 4)
}

func TestGroupZeroThresholdStillNeedsPositiveSimilarity(t *testing.T) {
	t.Parallel()

	groups := Group([]news.Candidate{candidate("Pier reopens"), candidate("Library closes")}, nil, 0)
	assert.Len(t, groups, 2)
}

func TestGroupSingleLinkageUsesBestMember(t *testing.T) {
	t.Parallel()

	// c scores 1/8 against a but 4/6 against b.
	articles := []news.Candidate{
		candidate("harbor dredging begins monday"),
		candidate("harbor dredging schedule released oceanside"),
		candidate("dredging schedule released oceanside officials"),
	}
	groups := Group(articles, nil, 0.25)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0], 3)
}

func TestGroupTiesGoToEarliestGroup(t *testing.T) {
	t.Parallel()

	articles := []news.Candidate{
		candidate("alpha beta"),
		candidate("gamma delta"),
		candidate("alpha gamma"),
	}
	groups := Group(articles, nil, 0.3)
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"https://example.com/alpha beta", "https://example.com/alpha gamma"}, groups[0].Links())
}

func TestGroupBlankTitlesStayAlone(t *testing.T) {
	t.Parallel()

	groups := Group([]news.Candidate{candidate(""), candidate("  ")}, nil, 0)
	assert.Len(t, groups, 2)
}

func TestGroupUsesEmbeddingsWhenAligned(t *testing.T) {
	t.Parallel()

	articles := []news.Candidate{
		candidate("Crews battle blaze"),
		candidate("Pier reopens"),
		candidate("Firefighters contain wildfire"),
	}
	embeddings := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}

	groups, metric := GroupWithMetric(articles, embeddings, 0.8)
	assert.Equal(t, MetricSemantic, metric)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)

	// Misaligned vectors fall back to titles, which share nothing here.
	groups, metric = GroupWithMetric(articles, embeddings[:2], 0.8)
	assert.Equal(t, MetricLexical, metric)
	assert.Len(t, groups, 3)
}

func TestGroupEmbeddingDimensionMismatchScoresZero(t *testing.T) {
	t.Parallel()

	articles := []news.Candidate{candidate("a"), candidate("a")}
	groups := Group(articles, [][]float64{{1, 0}, {1, 0, 0}}, 0)
	assert.Len(t, groups, 2)
}

func TestSortMembersOrdering(t *testing.T) {
	t.Parallel()

	group := news.Group{
		{Title: "undated", Link: "u"},
		{Title: "old", Link: "o", PublishedAt: at(1)},
		{Title: "priority-old", Link: "po", PublishedAt: at(2), IsPriority: true},
		{Title: "new", Link: "n", PublishedAt: at(9)},
		{Title: "priority-undated", Link: "pu", IsPriority: true},
		{Title: "priority-new", Link: "pn", PublishedAt: at(8), IsPriority: true},
	}
	SortMembers(group)

	assert.Equal(t, []string{"pn", "po", "pu", "n", "o", "u"}, group.Links())
}

func TestGroupOrderIndependentOfInputOrderWithinGroup(t *testing.T) {
	t.Parallel()

	base := []news.Candidate{
		{Title: "Vista fire contained", Link: "a", PublishedAt: at(3)},
		{Title: "Vista fire contained quickly", Link: "b", PublishedAt: at(5), IsPriority: true},
		{Title: "Vista fire contained overnight", Link: "c", PublishedAt: at(7)},
	}
	reversed := []news.Candidate{base[2], base[1], base[0]}

	first := Group(base, nil, 0.5)
	second := Group(reversed, nil, 0.5)
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Links(), second[0].Links())
	assert.Equal(t, []string{"b", "c", "a"}, first[0].Links())
}

func TestGroupEmptyInput(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Group(nil, nil, 0.6))
}

func BenchmarkGroupLexical(b *testing.B) {
	articles := make([]news.Candidate, 150)
	for i := range articles {
		articles[i] = candidate(fmt.Sprintf("Story %d about topic %d in Encinitas", i, i%11))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Group(articles, nil, 0.6)
	}
}
