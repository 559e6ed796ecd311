package oracle

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"horse.fit/localwire/internal/news"
)

const maxAssignedCommunities = 3

var (
	articlePrefix = regexp.MustCompile(`(?i)^\s*(?:article\s*)?\d+\s*[:.)\-]\s*`)
	codeFence     = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// ClassifyUrgency defaults to routine when the oracle is unavailable or
// replies with anything but one of the three labels.
func (c *Client) ClassifyUrgency(ctx context.Context, title, excerpt string) news.Urgency {
	reply, err := c.complete(ctx, ChatRequest{Prompt: urgencyPrompt(title, excerpt), MaxTokens: 10})
	if err != nil {
		c.logFailure(err, "classify urgency")
		return news.UrgencyRoutine
	}
	return news.ParseUrgency(reply)
}

// Summarize returns a one-sentence summary, or "" when none is available.
func (c *Client) Summarize(ctx context.Context, title, excerpt string) string {
	reply, err := c.complete(ctx, ChatRequest{Prompt: summaryPrompt(title, excerpt), MaxTokens: 150})
	if err != nil {
		c.logFailure(err, "summarize")
		return ""
	}
	return firstParagraph(reply)
}

// BatchRelevance proposes communities for each item. The result is always
// aligned with items; unanswered or unparsable items get no communities.
func (c *Client) BatchRelevance(ctx context.Context, items []news.Brief, communities []string) [][]string {
	out := make([][]string, len(items))
	if len(items) == 0 || len(communities) == 0 {
		return out
	}

	reply, err := c.complete(ctx, ChatRequest{
		Prompt:    batchRelevancePrompt(items, communities),
		MaxTokens: 400,
		Schema:    relevanceSchemaJSON,
	})
	if err != nil {
		c.logFailure(err, "batch relevance")
		return out
	}
	return parseRelevance(reply, len(items), communities)
}

// VerifyRelevance is true only for an explicit yes.
func (c *Client) VerifyRelevance(ctx context.Context, item news.Brief, community string) bool {
	reply, err := c.complete(ctx, ChatRequest{Prompt: verifyPrompt(item, community), MaxTokens: 5})
	if err != nil {
		c.logFailure(err, "verify relevance")
		return false
	}
	answer := strings.ToLower(strings.Trim(strings.TrimSpace(reply), ".!\"'"))
	return answer == "yes"
}

// GroupSummaryAndAngle asks for a combined summary and follow-up angle for
// the first members of a group. Either value may be empty.
func (c *Client) GroupSummaryAndAngle(ctx context.Context, group news.Group) (string, string) {
	if len(group) == 0 {
		return "", ""
	}
	reply, err := c.complete(ctx, ChatRequest{Prompt: groupPrompt(group), MaxTokens: 300})
	if err != nil {
		c.logFailure(err, "group summary")
		return "", ""
	}
	return parseSummaryAndAngle(reply)
}

// Embed returns nil when embeddings are unavailable or fail, which callers
// treat as "use lexical similarity".
func (c *Client) Embed(ctx context.Context, texts []string) [][]float64 {
	if !c.EmbeddingsAvailable() || len(texts) == 0 {
		return nil
	}
	vectors, err := c.embedder.Embed(ctx, texts)
	if err != nil {
		c.logFailure(err, "embed")
		return nil
	}
	return vectors
}

func (c *Client) logFailure(err error, op string) {
	if c == nil || errors.Is(err, ErrUnavailable) {
		return
	}
	c.log.Warn().Err(err).Str("op", op).Msg("oracle call failed; using neutral default")
}

func parseRelevance(reply string, count int, communities []string) [][]string {
	out := make([][]string, count)
	body := stripCodeFence(reply)
	if body == "" {
		return out
	}

	if strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[") {
		parsed, err := decodeRelevanceJSON(body)
		if err != nil {
			return out
		}
		for _, assignment := range parsed.Articles {
			idx := assignment.Article - 1
			if idx < 0 || idx >= count {
				continue
			}
			out[idx] = resolveNames(assignment.Communities, communities)
		}
		return out
	}

	i := 0
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i >= count {
			break
		}
		line = articlePrefix.ReplaceAllString(line, "")
		if !strings.EqualFold(strings.Trim(line, " ."), "none") {
			out[i] = resolveNames(strings.Split(line, ","), communities)
		}
		i++
	}
	return out
}

// resolveNames maps oracle names onto configured names case-insensitively,
// dropping unknown names and duplicates.
func resolveNames(names []string, communities []string) []string {
	var found []string
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.Trim(strings.TrimSpace(raw), ".;\"'")
		if name == "" {
			continue
		}
		for _, community := range communities {
			if !strings.EqualFold(community, name) {
				continue
			}
			if _, dup := seen[community]; !dup {
				seen[community] = struct{}{}
				found = append(found, community)
			}
			break
		}
		if len(found) == maxAssignedCommunities {
			break
		}
	}
	return found
}

func parseSummaryAndAngle(reply string) (string, string) {
	var summary, angle string
	if _, after, ok := strings.Cut(reply, "SUMMARY:"); ok {
		if before, rest, hasAngle := strings.Cut(after, "ANGLE:"); hasAngle {
			summary = before
			angle = rest
		} else {
			summary = after
		}
	} else if _, after, ok := strings.Cut(reply, "ANGLE:"); ok {
		angle = after
	}
	return cleanLabelled(summary), cleanLabelled(angle)
}

// cleanLabelled drops the "2)" enumerator that precedes the next label.
func cleanLabelled(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimSpace(strings.TrimSuffix(text, "2)"))
	return text
}

func stripCodeFence(reply string) string {
	trimmed := strings.TrimSpace(reply)
	if match := codeFence.FindStringSubmatch(trimmed); match != nil {
		return strings.TrimSpace(match[1])
	}
	return trimmed
}

func firstParagraph(text string) string {
	text = strings.TrimSpace(text)
	if before, _, ok := strings.Cut(text, "\n\n"); ok {
		return strings.TrimSpace(before)
	}
	return text
}
