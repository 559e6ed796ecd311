package news

import (
	"strings"
	"time"
)

// Entry is one feed item as handed over by the feed collaborator. Summary is
// plain text; HTML has already been stripped.
type Entry struct {
	Title       string
	Link        string
	Summary     string
	PublishedAt *time.Time
	Author      string
	FeedURL     string
}

// Valid reports whether the entry carries the minimum needed to be considered.
func (e Entry) Valid() bool {
	return strings.TrimSpace(e.Title) != "" && strings.TrimSpace(e.Link) != ""
}

// Excerpt returns the summary, or the title when no summary exists.
func (e Entry) Excerpt() string {
	if summary := strings.TrimSpace(e.Summary); summary != "" {
		return summary
	}
	return strings.TrimSpace(e.Title)
}

// Brief is the title/excerpt pair sent to the relevance oracle.
type Brief struct {
	Title   string
	Excerpt string
}
