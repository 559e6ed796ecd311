package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel>
  <title>Coast News</title>
  <item>
    <title>Encinitas council approves new bike lane</title>
    <link>https://thecoastnews.com/bike-lane/?utm_source=rss</link>
    <description><![CDATA[<p>The <b>council</b> voted 4-1.</p><script>track()</script>]]></description>
    <pubDate>Mon, 19 Oct 2026 17:00:00 GMT</pubDate>
    <dc:creator>Staff Reporter</dc:creator>
  </item>
  <item>
    <title>Undated item</title>
    <link>https://thecoastnews.com/undated/</link>
  </item>
</channel>
</rss>`

func TestFetchParsesItems(t *testing.T) {
	t.Parallel()

	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(rssFixture))
	}))
	defer server.Close()

	location := time.FixedZone("PDT", -7*3600)
	fetcher := NewFetcher(Options{Location: location, UserAgent: "test-agent"})

	entries, err := fetcher.Fetch(context.Background(), server.URL+"/feed")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if userAgent != "test-agent" {
		t.Fatalf("User-Agent = %q", userAgent)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	first := entries[0]
	if first.Title != "Encinitas council approves new bike lane" {
		t.Fatalf("Title = %q", first.Title)
	}
	if first.Summary != "The council voted 4-1." {
		t.Fatalf("Summary = %q", first.Summary)
	}
	if first.Author != "Staff Reporter" {
		t.Fatalf("Author = %q", first.Author)
	}
	if first.FeedURL != server.URL+"/feed" {
		t.Fatalf("FeedURL = %q", first.FeedURL)
	}
	if first.PublishedAt == nil {
		t.Fatalf("PublishedAt is nil")
	}
	if first.PublishedAt.Location() != location || first.PublishedAt.Hour() != 10 {
		t.Fatalf("PublishedAt = %v, want 10:00 in display zone", first.PublishedAt)
	}

	if entries[1].PublishedAt != nil {
		t.Fatalf("undated PublishedAt = %v, want nil", entries[1].PublishedAt)
	}
}

func TestFetchRejectsErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if _, err := NewFetcher(Options{}).Fetch(context.Background(), server.URL); err == nil {
		t.Fatalf("expected error for 502")
	}
}

func TestFetchRejectsGarbage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	if _, err := NewFetcher(Options{}).Fetch(context.Background(), server.URL); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestSourceName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://thecoastnews.com/feed/":                 "The Coast News",
		"https://www.kpbs.org/news/rss":                  "KPBS",
		"https://feeds.nbcsandiego.com/rss":              "NBC San Diego",
		"https://patch.com/california/encinitas/rss":     "Patch (Encinitas)",
		"https://patch.com/california/carmel-valley/rss": "Patch (Carmel Valley)",
		"https://patch.com/feed":                         "Patch",
		"https://www.north-county-daily.com/local/feed":  "North County Daily",
		"not a url":                                      "Unknown Source",
	}
	for in, want := range cases {
		if got := SourceName(in); got != want {
			t.Fatalf("SourceName(%q) = %q, want %q", in, got, want)
		}
	}
}
