package matcher

import (
	"context"

	"horse.fit/localwire/internal/news"
)

// MaxAICommunities caps how many communities one article may receive from the oracle.
const MaxAICommunities = 3

// RelevanceOracle answers community questions for text that failed literal
// matching. Implementations must return neutral answers instead of errors.
type RelevanceOracle interface {
	BatchRelevance(ctx context.Context, items []news.Brief, communities []string) [][]string
	VerifyRelevance(ctx context.Context, item news.Brief, community string) bool
}

// Fallback asks the oracle for community assignments and keeps only those
// that survive a per-item verification query. The result is aligned with
// items; an empty slice means no match.
func (m *Matcher) Fallback(ctx context.Context, oracle RelevanceOracle, items []news.Brief) [][]string {
	out := make([][]string, len(items))
	if oracle == nil || len(items) == 0 || len(m.communities) == 0 {
		return out
	}

	proposed := oracle.BatchRelevance(ctx, items, m.Communities())
	for i, item := range items {
		if i >= len(proposed) {
			break
		}
		text := item.Title + " " + item.Excerpt
		claimed := m.canonicalSet(proposed[i])
		for _, name := range claimed {
			if m.Excluded(name, text) {
				continue
			}
			if ctx.Err() != nil {
				return out
			}
			if oracle.VerifyRelevance(ctx, item, name) {
				out[i] = append(out[i], name)
			}
		}
	}
	return out
}

func (m *Matcher) canonicalSet(names []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name, ok := m.Canonical(raw)
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
		if len(out) == MaxAICommunities {
			break
		}
	}
	return out
}
