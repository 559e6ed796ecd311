package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horse.fit/localwire/internal/config"
	"horse.fit/localwire/internal/feed"
	"horse.fit/localwire/internal/globaltime"
	"horse.fit/localwire/internal/grouping"
	"horse.fit/localwire/internal/langdetect"
	"horse.fit/localwire/internal/matcher"
	"horse.fit/localwire/internal/news"
	"horse.fit/localwire/internal/notify"
	"horse.fit/localwire/internal/seen"
)

const DefaultFeedDelay = time.Second

type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]news.Entry, error)
}

// Oracle is every AI-assisted call the run makes. Implementations return
// neutral answers when unavailable.
type Oracle interface {
	matcher.RelevanceOracle
	ClassifyUrgency(ctx context.Context, title, excerpt string) news.Urgency
	Summarize(ctx context.Context, title, excerpt string) string
	GroupSummaryAndAngle(ctx context.Context, group news.Group) (string, string)
	Embed(ctx context.Context, texts []string) [][]float64
}

type SeenStore interface {
	Has(link string) bool
	Mark(link string)
}

type BodyFetcher interface {
	FetchBody(ctx context.Context, link string) (string, error)
}

type Options struct {
	Region  *config.Region
	Fetcher FeedFetcher
	Poster  notify.Poster
	Store   SeenStore
	// Oracle and Body are optional.
	Oracle    Oracle
	Body      BodyFetcher
	Formatter notify.Formatter
	FeedDelay time.Duration
	// DryRun renders and posts through Poster but never marks links seen.
	DryRun bool
	Logger zerolog.Logger
}

type Service struct {
	region    *config.Region
	fetcher   FeedFetcher
	poster    notify.Poster
	store     SeenStore
	oracle    Oracle
	body      BodyFetcher
	matcher   *matcher.Matcher
	languages *langdetect.Gate
	formatter notify.Formatter
	feedDelay time.Duration
	dryRun    bool
	sleep     func(ctx context.Context, d time.Duration) error
	logger    zerolog.Logger
}

// Result counts what one run did.
type Result struct {
	RunID        string
	FeedsChecked int
	FeedsFailed  int
	Entries      int
	Invalid      int
	Duplicates   int
	AlreadySeen  int
	TooOld       int
	Syndicated   int
	WrongLang    int
	Disjoint     int
	Unmatched    int
	Matched      int
	AIMatched    int
	Groups       int
	Metric       grouping.Metric
	Delivered    int
	Failed       int
}

func NewService(opts Options) (*Service, error) {
	if opts.Region == nil {
		return nil, fmt.Errorf("region config is required")
	}
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("feed fetcher is required")
	}
	if opts.Poster == nil {
		return nil, fmt.Errorf("poster is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("seen store is required")
	}

	delay := opts.FeedDelay
	if delay < 0 {
		delay = 0
	}
	formatter := opts.Formatter
	if formatter.ExcerptLength <= 0 {
		formatter.ExcerptLength = opts.Region.ExcerptLength
	}

	return &Service{
		region:    opts.Region,
		fetcher:   opts.Fetcher,
		poster:    opts.Poster,
		store:     opts.Store,
		oracle:    opts.Oracle,
		body:      opts.Body,
		matcher:   NewMatcher(opts.Region),
		languages: langdetect.NewGate(opts.Region.Languages),
		formatter: formatter,
		feedDelay: delay,
		dryRun:    opts.DryRun,
		sleep:     sleepContext,
		logger:    opts.Logger,
	}, nil
}

// NewMatcher builds the community matcher for a region.
func NewMatcher(region *config.Region) *matcher.Matcher {
	return matcher.New(matcher.Options{
		Communities:        region.CommunityNames(),
		Exclusions:         region.Exclusions(),
		PrioritySources:    region.PrioritySources,
		SyndicationPhrases: region.SyndicationPhrases,
	})
}

// Run fetches every feed, matches, groups and delivers. When ctx is
// cancelled between feeds the run stops collecting, delivers nothing and
// returns ctx's error with the counts so far.
func (s *Service) Run(ctx context.Context) (Result, error) {
	result := Result{RunID: uuid.NewString()}
	logger := s.logger.With().Str("run_id", result.RunID).Str("region", s.region.Region).Logger()
	logger.Info().Int("feeds", len(s.region.Feeds)).Msg("run started")

	candidates, pending, err := s.collect(ctx, logger, &result)
	if err != nil {
		logger.Warn().Err(err).Msg("run interrupted while collecting feeds")
		return result, err
	}

	if len(pending) > 0 {
		candidates = append(candidates, s.fallback(ctx, pending, &result)...)
	}
	result.Unmatched += len(pending) - result.AIMatched
	if len(candidates) == 0 {
		logger.Info().Msg("no matching articles found")
		return result, nil
	}

	s.annotate(ctx, candidates)
	SortCandidates(candidates)

	groups := s.group(ctx, candidates, &result)
	result.Groups = len(groups)

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Msg("run interrupted before delivery finished")
			return result, err
		}
		s.deliver(ctx, logger, group, &result)
	}

	logger.Info().
		Int("matched", result.Matched).
		Int("ai_matched", result.AIMatched).
		Int("groups", result.Groups).
		Int("delivered", result.Delivered).
		Int("failed", result.Failed).
		Msg("run finished")
	return result, nil
}

type pendingEntry struct {
	entry   news.Entry
	excerpt string
}

func (s *Service) collect(ctx context.Context, logger zerolog.Logger, result *Result) ([]news.Candidate, []pendingEntry, error) {
	var (
		candidates []news.Candidate
		pending    []pendingEntry
	)
	visited := make(map[string]struct{})

	for i, feedURL := range s.region.Feeds {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if i > 0 && s.feedDelay > 0 {
			if err := s.sleep(ctx, s.feedDelay); err != nil {
				return nil, nil, err
			}
		}

		result.FeedsChecked++
		entries, err := s.fetcher.Fetch(ctx, feedURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			result.FeedsFailed++
			logger.Warn().Err(err).Str("feed", feedURL).Msg("feed fetch failed")
			continue
		}
		logger.Debug().Str("feed", feedURL).Int("entries", len(entries)).Msg("feed fetched")

		for _, entry := range entries {
			result.Entries++
			if entry.FeedURL == "" {
				entry.FeedURL = feedURL
			}

			candidate, outcome, excerpt := s.consider(ctx, entry, visited)
			switch outcome {
			case outcomeMatched:
				result.Matched++
				logger.Info().
					Strs("communities", candidate.Communities).
					Str("title", candidate.Title).
					Msg("match found")
				candidates = append(candidates, candidate)
			case outcomePending:
				pending = append(pending, pendingEntry{entry: entry, excerpt: excerpt})
			case outcomeUnmatched:
				result.Unmatched++
			case outcomeInvalid:
				result.Invalid++
			case outcomeDuplicate:
				result.Duplicates++
			case outcomeSeen:
				result.AlreadySeen++
			case outcomeTooOld:
				result.TooOld++
			case outcomeSyndicated:
				result.Syndicated++
			case outcomeLanguage:
				result.WrongLang++
			case outcomeDisjoint:
				result.Disjoint++
			}
		}
	}
	return candidates, pending, nil
}

type outcome int

const (
	outcomeMatched outcome = iota
	outcomePending
	outcomeUnmatched
	outcomeInvalid
	outcomeDuplicate
	outcomeSeen
	outcomeTooOld
	outcomeSyndicated
	outcomeLanguage
	outcomeDisjoint
)

// consider applies the per-entry filters in order and runs the literal
// matcher.
func (s *Service) consider(ctx context.Context, entry news.Entry, visited map[string]struct{}) (news.Candidate, outcome, string) {
	if !entry.Valid() {
		return news.Candidate{}, outcomeInvalid, ""
	}

	key := seen.NormalizeKey(entry.Link)
	if _, dup := visited[key]; dup {
		return news.Candidate{}, outcomeDuplicate, ""
	}
	visited[key] = struct{}{}

	if s.store.Has(entry.Link) {
		return news.Candidate{}, outcomeSeen, ""
	}
	if s.tooOld(entry.PublishedAt) {
		return news.Candidate{}, outcomeTooOld, ""
	}

	excerpt := s.excerptFor(ctx, entry)
	if s.matcher.IsSyndicated(entry.Author, excerpt) {
		return news.Candidate{}, outcomeSyndicated, ""
	}
	if !s.languages.Allows(entry.Title + "\n" + excerpt) {
		return news.Candidate{}, outcomeLanguage, ""
	}

	if match, ok := s.matcher.Match(entry.Title, excerpt); ok {
		return s.candidate(entry, excerpt, match.Communities, match.Location, false), outcomeMatched, excerpt
	}

	if !s.aiRelevance() {
		return news.Candidate{}, outcomeUnmatched, ""
	}
	if matcher.MentionsAny(entry.Title+" "+excerpt, s.region.DisjointRegionPhrases) {
		return news.Candidate{}, outcomeDisjoint, ""
	}
	return news.Candidate{}, outcomePending, excerpt
}

func (s *Service) tooOld(published *time.Time) bool {
	if s.region.MaxAgeHours <= 0 || published == nil {
		return false
	}
	maxAge := time.Duration(s.region.MaxAgeHours) * time.Hour
	return globaltime.Now().Sub(*published) > maxAge
}

func (s *Service) excerptFor(ctx context.Context, entry news.Entry) string {
	if strings.TrimSpace(entry.Summary) != "" || s.body == nil || !s.region.FetchMissingBody {
		return entry.Excerpt()
	}
	body, err := s.body.FetchBody(ctx, entry.Link)
	if err != nil {
		s.logger.Debug().Err(err).Str("link", entry.Link).Msg("article body fetch failed")
		return entry.Excerpt()
	}
	return body
}

func (s *Service) aiRelevance() bool {
	return s.oracle != nil && s.region.AIRelevanceEnabled()
}

func (s *Service) candidate(entry news.Entry, excerpt string, communities []string, location news.MatchLocation, viaAI bool) news.Candidate {
	return news.Candidate{
		Title:         strings.TrimSpace(entry.Title),
		Excerpt:       excerpt,
		Link:          strings.TrimSpace(entry.Link),
		PublishedAt:   entry.PublishedAt,
		Source:        feed.SourceName(entry.FeedURL),
		Communities:   communities,
		MatchLocation: location,
		IsPriority:    s.matcher.IsPriority(entry.FeedURL),
		Urgency:       news.UrgencyRoutine,
		ViaAI:         viaAI,
	}
}

func (s *Service) fallback(ctx context.Context, pending []pendingEntry, result *Result) []news.Candidate {
	briefs := make([]news.Brief, 0, len(pending))
	for _, p := range pending {
		briefs = append(briefs, news.Brief{Title: p.entry.Title, Excerpt: p.excerpt})
	}

	assigned := s.matcher.Fallback(ctx, s.oracle, briefs)
	var out []news.Candidate
	for i, communities := range assigned {
		if len(communities) == 0 {
			continue
		}
		result.AIMatched++
		out = append(out, s.candidate(pending[i].entry, pending[i].excerpt, communities, news.MatchBody, true))
	}
	return out
}

func (s *Service) annotate(ctx context.Context, candidates []news.Candidate) {
	if s.oracle == nil {
		return
	}
	for i := range candidates {
		candidates[i].Urgency = s.oracle.ClassifyUrgency(ctx, candidates[i].Title, candidates[i].Excerpt)
		if s.region.AISummaries {
			candidates[i].Summary = s.oracle.Summarize(ctx, candidates[i].Title, candidates[i].Excerpt)
		}
	}
}

// SortCandidates orders by urgency, then newest first; undated articles
// follow dated ones of the same urgency.
func SortCandidates(candidates []news.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if ra, rb := a.Urgency.Rank(), b.Urgency.Rank(); ra != rb {
			return ra < rb
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

func (s *Service) group(ctx context.Context, candidates []news.Candidate, result *Result) []news.Group {
	result.Metric = grouping.MetricLexical
	if !s.region.GroupingEnabled() || len(candidates) < 2 {
		groups := make([]news.Group, 0, len(candidates))
		for _, c := range candidates {
			groups = append(groups, news.Group{c})
		}
		return groups
	}

	var embeddings [][]float64
	if s.region.SemanticGrouping && s.oracle != nil {
		texts := make([]string, 0, len(candidates))
		for _, c := range candidates {
			texts = append(texts, c.Title+"\n"+c.Excerpt)
		}
		embeddings = s.oracle.Embed(ctx, texts)
	}

	groups, metric := grouping.GroupWithMetric(candidates, embeddings, s.region.Threshold())
	result.Metric = metric
	return groups
}

func (s *Service) deliver(ctx context.Context, logger zerolog.Logger, group news.Group, result *Result) {
	var text string
	if len(group) > 1 {
		digest := notify.GroupDigest{Members: group}
		if s.oracle != nil && s.region.AISummaries {
			digest.Summary, digest.Angle = s.oracle.GroupSummaryAndAngle(ctx, group)
		}
		text = s.formatter.Group(digest)
	} else {
		text = s.formatter.Article(group[0])
	}

	if err := s.poster.Post(ctx, text); err != nil {
		result.Failed += len(group)
		event := logger.Error()
		if errors.Is(err, context.Canceled) {
			event = logger.Warn()
		}
		event.Err(err).Strs("links", group.Links()).Msg("delivery failed")
		return
	}

	result.Delivered += len(group)
	logger.Info().Int("articles", len(group)).Str("title", group[0].Title).Msg("notification posted")
	if s.dryRun {
		return
	}
	for _, c := range group {
		s.store.Mark(c.Link)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
