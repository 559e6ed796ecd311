package oracle

import (
	"fmt"
	"strings"

	"horse.fit/localwire/internal/news"
)

const maxGroupArticles = 5

func summaryPrompt(title, excerpt string) string {
	return fmt.Sprintf(`Summarize this news item in one clear sentence for a journalist scanning a digest. Be factual and neutral.

Title: %s
Summary: %s

Reply with only the one-sentence summary, no preamble.`, title, orNone(clip(excerpt, 800)))
}

func urgencyPrompt(title, excerpt string) string {
	return fmt.Sprintf(`Classify this news headline and summary as exactly one word: breaking, developing, or routine.
- breaking: just happened, urgent, breaking news
- developing: story still unfolding
- routine: standard coverage, not urgent

Title: %s
Summary: %s

Reply with only one word: breaking, developing, or routine.`, title, clip(excerpt, 500))
}

func batchRelevancePrompt(items []news.Brief, communities []string) string {
	var articles strings.Builder
	for i, item := range items {
		if i > 0 {
			articles.WriteString("\n\n")
		}
		fmt.Fprintf(&articles, "Article %d:\nTitle: %s\nSummary: %s", i+1, item.Title, clip(item.Excerpt, 400))
	}

	return fmt.Sprintf(`These are local community names: %s

For each article below, which of these communities is the story DIRECTLY and SPECIFICALLY about? Only assign a community if the story is clearly about something IN that community or that specifically affects it (an event in that city, local government, a local school, a local business). Do NOT assign a community just because the story mentions the wider region or comes from a regional outlet.

Leave the list empty for an article if the story is about a named place that is not in the list, if it is general human interest with no clear community tie, if it only has broad regional relevance, or if you are unsure. Do not guess; omitting is better than being wrong.

Reply with a JSON object of the form {"articles": [{"article": 1, "communities": ["Name"]}]} with one entry per article, at most 3 names each, using names from the list above only.

%s`, strings.Join(communities, ", "), articles.String())
}

func verifyPrompt(item news.Brief, community string) string {
	return fmt.Sprintf(`Is this news story clearly and specifically about %[1]s, meaning something that happened in %[1]s or that directly affects %[1]s? A passing mention, a nearby place or broad regional coverage does not count.

Title: %[2]s
Summary: %[3]s

Reply with only one word: yes or no.`, community, item.Title, clip(item.Excerpt, 600))
}

func groupPrompt(group news.Group) string {
	var parts strings.Builder
	for i, article := range group {
		if i == maxGroupArticles {
			break
		}
		if i > 0 {
			parts.WriteString("\n")
		}
		fmt.Fprintf(&parts, "%d. %s\n   %s", i+1, article.Title, clip(article.Excerpt, 250))
	}

	return fmt.Sprintf(`These are about the same story from different outlets.

%s

Reply with exactly two short paragraphs:
1) SUMMARY: One clear 1-2 sentence summary of the main fact.
2) ANGLE: One to two sentences suggesting an undercovered angle or follow-up for a journalist.

Use the labels "SUMMARY:" and "ANGLE:" so they can be parsed.`, parts.String())
}

func clip(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func orNone(text string) string {
	if text == "" {
		return "(none)"
	}
	return text
}
