package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"horse.fit/localwire/internal/reader"
	"horse.fit/localwire/internal/news"
)

const (
	DefaultTimeout   = 15 * time.Second
	defaultUserAgent = "localwire/1.0 (+https://horse.fit/localwire)"
	maxFeedBytes     = 10 << 20
)

type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Location is the display timezone for publication times. Nil keeps UTC.
	Location *time.Location
	Client   *http.Client
}

// Fetcher downloads RSS/Atom/JSON feeds and turns their items into entries.
type Fetcher struct {
	client    *http.Client
	userAgent string
	location  *time.Location
}

func NewFetcher(opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	location := opts.Location
	if location == nil {
		location = time.UTC
	}
	return &Fetcher{client: client, userAgent: userAgent, location: location}
}

// Fetch returns the feed's items in document order.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) ([]news.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("feed status %d", resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]news.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, f.toEntry(item, feedURL))
	}
	return entries, nil
}

func (f *Fetcher) toEntry(item *gofeed.Item, feedURL string) news.Entry {
	summary := item.Description
	if strings.TrimSpace(summary) == "" {
		summary = item.Content
	}

	entry := news.Entry{
		Title:   reader.StripHTML(item.Title),
		Link:    strings.TrimSpace(item.Link),
		Summary: reader.StripHTML(summary),
		Author:  itemAuthor(item),
		FeedURL: feedURL,
	}

	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}
	if published != nil {
		local := published.In(f.location)
		entry.PublishedAt = &local
	}
	return entry
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
		return strings.TrimSpace(item.Author.Name)
	}
	for _, author := range item.Authors {
		if author != nil && strings.TrimSpace(author.Name) != "" {
			return strings.TrimSpace(author.Name)
		}
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return strings.TrimSpace(item.DublinCoreExt.Creator[0])
	}
	return ""
}
