package news

import (
	"strings"
	"time"
)

type Urgency string

const (
	UrgencyBreaking   Urgency = "breaking"
	UrgencyDeveloping Urgency = "developing"
	UrgencyRoutine    Urgency = "routine"
)

// ParseUrgency maps free text onto an urgency, defaulting to routine.
func ParseUrgency(raw string) Urgency {
	switch Urgency(strings.ToLower(strings.Trim(strings.TrimSpace(raw), ".!\"'"))) {
	case UrgencyBreaking:
		return UrgencyBreaking
	case UrgencyDeveloping:
		return UrgencyDeveloping
	default:
		return UrgencyRoutine
	}
}

// Rank orders urgencies: breaking < developing < routine.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyBreaking:
		return 0
	case UrgencyDeveloping:
		return 1
	default:
		return 2
	}
}

type MatchLocation string

const (
	MatchTitle MatchLocation = "title"
	MatchBody  MatchLocation = "body"
)

// Candidate is a matched article waiting for grouping and delivery.
type Candidate struct {
	Title         string        `json:"title"`
	Excerpt       string        `json:"excerpt"`
	Link          string        `json:"link"`
	PublishedAt   *time.Time    `json:"published_at,omitempty"`
	Source        string        `json:"source"`
	Communities   []string      `json:"communities"`
	MatchLocation MatchLocation `json:"match_location"`
	IsPriority    bool          `json:"is_priority"`
	Urgency       Urgency       `json:"urgency"`
	Summary       string        `json:"summary,omitempty"`
	ViaAI         bool          `json:"via_ai,omitempty"`
}

// Group is a non-empty ordered cluster of candidates about one event.
type Group []Candidate

// Links returns every member link in group order.
func (g Group) Links() []string {
	links := make([]string, 0, len(g))
	for _, c := range g {
		links = append(links, c.Link)
	}
	return links
}
