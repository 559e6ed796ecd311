package grouping

import (
	"sort"
	"strings"

	"horse.fit/localwire/internal/news"
)

// Metric names the similarity used for one Group call.
type Metric string

const (
	MetricLexical  Metric = "lexical"
	MetricSemantic Metric = "semantic"
)

// pairScorer returns the similarity of articles i and j of the batch.
type pairScorer func(i, j int) float64

// Group clusters articles with greedy incremental single-linkage in input
// order. When embeddings are aligned with articles they drive cosine
// similarity; otherwise titles drive Jaccard similarity. Members of each
// group are then ordered for display.
func Group(articles []news.Candidate, embeddings [][]float64, threshold float64) []news.Group {
	groups, _ := GroupWithMetric(articles, embeddings, threshold)
	return groups
}

// GroupWithMetric is Group that also reports which metric was used.
func GroupWithMetric(articles []news.Candidate, embeddings [][]float64, threshold float64) ([]news.Group, Metric) {
	if len(articles) == 0 {
		return nil, MetricLexical
	}

	score, metric := scorerFor(articles, embeddings)
	clusters := cluster(len(articles), score, threshold)

	groups := make([]news.Group, 0, len(clusters))
	for _, members := range clusters {
		group := make(news.Group, 0, len(members))
		for _, idx := range members {
			group = append(group, articles[idx])
		}
		SortMembers(group)
		groups = append(groups, group)
	}
	return groups, metric
}

func scorerFor(articles []news.Candidate, embeddings [][]float64) (pairScorer, Metric) {
	if len(embeddings) > 0 && len(embeddings) == len(articles) {
		return func(i, j int) float64 {
			return Cosine(embeddings[i], embeddings[j])
		}, MetricSemantic
	}

	tokens := make([]map[string]struct{}, len(articles))
	blank := make([]bool, len(articles))
	for i, article := range articles {
		blank[i] = strings.TrimSpace(article.Title) == ""
		tokens[i] = TitleTokens(article.Title)
	}
	return func(i, j int) float64 {
		// An article without any title stays on its own.
		if blank[i] || blank[j] {
			return 0
		}
		return Jaccard(tokens[i], tokens[j])
	}, MetricLexical
}

// cluster returns groups of indices. An item joins the earliest-created group
// with the highest single-linkage score when that score is > 0 and >= threshold.
func cluster(n int, score pairScorer, threshold float64) [][]int {
	var groups [][]int
	for i := 0; i < n; i++ {
		bestGroup := -1
		bestScore := 0.0
		for g, members := range groups {
			linkage := 0.0
			for _, member := range members {
				if s := score(i, member); s > linkage {
					linkage = s
				}
			}
			if linkage > bestScore {
				bestScore = linkage
				bestGroup = g
			}
		}

		if bestGroup >= 0 && bestScore > 0 && bestScore >= threshold {
			groups[bestGroup] = append(groups[bestGroup], i)
			continue
		}
		groups = append(groups, []int{i})
	}
	return groups
}

// SortMembers orders a group in place: priority sources first, then dated
// articles before undated ones, then newest first. Ties keep input order.
func SortMembers(group news.Group) {
	sort.SliceStable(group, func(i, j int) bool {
		a, b := group[i], group[j]
		if a.IsPriority != b.IsPriority {
			return a.IsPriority
		}
		if (a.PublishedAt == nil) != (b.PublishedAt == nil) {
			return a.PublishedAt != nil
		}
		if a.PublishedAt == nil {
			return false
		}
		return a.PublishedAt.After(*b.PublishedAt)
	})
}
