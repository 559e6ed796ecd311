package httpapi

import (
	"errors"
	"io/fs"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/localwire/internal/config"
	"horse.fit/localwire/internal/globaltime"
	"horse.fit/localwire/internal/grouping"
	"horse.fit/localwire/internal/matcher"
	"horse.fit/localwire/internal/news"
	"horse.fit/localwire/internal/pipeline"
	"horse.fit/localwire/internal/reader"
	"horse.fit/localwire/internal/seen"
)

var regionPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

type matchRequest struct {
	Region  string `json:"region"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Author  string `json:"author"`
	FeedURL string `json:"feed_url"`
}

type matchResponse struct {
	Matched     bool               `json:"matched"`
	Communities []string           `json:"communities"`
	Location    news.MatchLocation `json:"location,omitempty"`
	Syndicated  bool               `json:"syndicated"`
	Priority    bool               `json:"priority"`
	Disjoint    bool               `json:"disjoint"`
}

type groupRequest struct {
	Threshold  *float64         `json:"threshold"`
	Articles   []news.Candidate `json:"articles"`
	Embeddings [][]float64      `json:"embeddings"`
}

type groupResponse struct {
	Metric grouping.Metric `json:"metric"`
	Groups []news.Group    `json:"groups"`
}

type seenResponse struct {
	Region  string `json:"region"`
	URL     string `json:"url"`
	Key     string `json:"key"`
	Seen    bool   `json:"seen"`
	Entries int    `json:"entries"`
}

func (s *Server) handleHealth(c echo.Context) error {
	oracle := map[string]any{"available": false}
	if s.deps.Oracle != nil {
		oracle["available"] = s.deps.Oracle.Available()
		oracle["embeddings"] = s.deps.Oracle.EmbeddingsAvailable()
		if name := s.deps.Oracle.ProviderName(); name != "" {
			oracle["provider"] = name
		}
	}

	database := "unconfigured"
	if s.deps.Database != nil {
		database = "ok"
		if err := s.deps.Database.Ping(c.Request().Context()); err != nil {
			s.logger.Warn().Err(err).Msg("database ping failed")
			database = "unreachable"
		}
	}

	return succeed(c, map[string]any{
		"service":  "localwire",
		"time":     globaltime.UTC(),
		"oracle":   oracle,
		"database": database,
	})
}

func (s *Server) handleRegions(c echo.Context) error {
	regions, err := config.ListRegions(s.deps.ConfigDir)
	if err != nil {
		s.logger.Error().Err(err).Msg("list regions failed")
		return serverError(c, "Failed to list regions")
	}
	if regions == nil {
		regions = []string{}
	}
	return succeed(c, map[string]any{"items": regions})
}

func (s *Server) handleMatch(c echo.Context) error {
	var req matchRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body", nil)
	}

	fieldErrors := map[string]string{}
	region := strings.ToLower(strings.TrimSpace(req.Region))
	if !regionPattern.MatchString(region) {
		fieldErrors["region"] = "must be a region name"
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Summary) == "" {
		fieldErrors["title"] = "title or summary is required"
	}
	if len(fieldErrors) > 0 {
		return invalid(c, fieldErrors)
	}

	cfg, err := s.loadRegion(region)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound(c, "Region not found")
		}
		s.logger.Error().Err(err).Str("region", region).Msg("load region failed")
		return serverError(c, "Failed to load region")
	}

	m := pipeline.NewMatcher(cfg)

	summary := reader.StripHTML(req.Summary)
	resp := matchResponse{
		Communities: []string{},
		Syndicated:  m.IsSyndicated(req.Author, summary),
		Priority:    req.FeedURL != "" && m.IsPriority(req.FeedURL),
	}
	if result, ok := m.Match(req.Title, summary); ok {
		resp.Matched = true
		resp.Communities = result.Communities
		resp.Location = result.Location
	} else {
		resp.Disjoint = matcher.MentionsAny(req.Title+" "+summary, cfg.DisjointRegionPhrases)
	}
	return succeed(c, resp)
}

func (s *Server) handleGroup(c echo.Context) error {
	var req groupRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid JSON body", nil)
	}

	threshold := config.DefaultSimilarityThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	fieldErrors := map[string]string{}
	if threshold < 0 || threshold > 1.01 {
		fieldErrors["threshold"] = "must be within [0, 1.01]"
	}
	if len(req.Embeddings) > 0 && len(req.Embeddings) != len(req.Articles) {
		fieldErrors["embeddings"] = "must have one vector per article"
	}
	if len(fieldErrors) > 0 {
		return invalid(c, fieldErrors)
	}

	groups, metric := grouping.GroupWithMetric(req.Articles, req.Embeddings, threshold)
	if groups == nil {
		groups = []news.Group{}
	}
	return succeed(c, groupResponse{Metric: metric, Groups: groups})
}

func (s *Server) handleSeen(c echo.Context) error {
	region := strings.ToLower(strings.TrimSpace(c.QueryParam("region")))
	link := strings.TrimSpace(c.QueryParam("url"))

	fieldErrors := map[string]string{}
	if !regionPattern.MatchString(region) {
		fieldErrors["region"] = "must be a region name"
	}
	if link == "" {
		fieldErrors["url"] = "is required"
	}
	if len(fieldErrors) > 0 {
		return invalid(c, fieldErrors)
	}
	if s.deps.OpenSeen == nil {
		return serverError(c, "Seen store is not configured")
	}

	store, err := s.deps.OpenSeen(c.Request().Context(), region)
	if err != nil {
		s.logger.Error().Err(err).Str("region", region).Msg("open seen store failed")
		return serverError(c, "Failed to open seen store")
	}

	return succeed(c, seenResponse{
		Region:  region,
		URL:     link,
		Key:     seen.NormalizeKey(link),
		Seen:    store.Has(link),
		Entries: store.Len(),
	})
}

func (s *Server) loadRegion(region string) (*config.Region, error) {
	return config.LoadRegion(config.RegionPath(s.deps.ConfigDir, region))
}

