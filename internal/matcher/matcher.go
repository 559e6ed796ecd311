package matcher

import (
	"strings"

	"horse.fit/localwire/internal/news"
)

// syndicationWindow is how many leading runes of an excerpt are checked for
// wire-service phrases.
const syndicationWindow = 300

type Options struct {
	Communities        []string
	Exclusions         map[string][]string
	PrioritySources    []string
	SyndicationPhrases []string
}

// Result lists every surviving community in configured order.
type Result struct {
	Communities []string
	Location    news.MatchLocation
}

type community struct {
	name     string
	folded   string
	excludes []string
}

// Matcher decides which configured communities a piece of text concerns.
type Matcher struct {
	communities []community
	byFolded    map[string]int
	priority    []string
	syndication []string
}

func New(opts Options) *Matcher {
	m := &Matcher{byFolded: make(map[string]int)}

	exclusions := make(map[string][]string, len(opts.Exclusions))
	for name, phrases := range opts.Exclusions {
		exclusions[foldText(name)] = append(exclusions[foldText(name)], phrases...)
	}

	for _, name := range opts.Communities {
		folded := foldText(name)
		if folded == "" {
			continue
		}
		if _, dup := m.byFolded[folded]; dup {
			continue
		}
		c := community{name: strings.TrimSpace(name), folded: folded}
		for _, phrase := range exclusions[folded] {
			if f := foldText(phrase); f != "" {
				c.excludes = append(c.excludes, f)
			}
		}
		m.byFolded[folded] = len(m.communities)
		m.communities = append(m.communities, c)
	}

	for _, source := range opts.PrioritySources {
		if s := strings.ToLower(strings.TrimSpace(source)); s != "" {
			m.priority = append(m.priority, s)
		}
	}
	for _, phrase := range opts.SyndicationPhrases {
		if f := foldText(phrase); f != "" {
			m.syndication = append(m.syndication, f)
		}
	}
	return m
}

// Match tests every community as a whole word against title plus body.
// A community is dropped when one of its exclusion phrases is also present.
func (m *Matcher) Match(title, body string) (Result, bool) {
	foldedTitle := foldText(title)
	combined := foldText(title + " " + body)

	var result Result
	inTitle := false
	for _, c := range m.communities {
		if !containsWord(combined, c.folded) || c.excluded(combined) {
			continue
		}
		result.Communities = append(result.Communities, c.name)
		if containsWord(foldedTitle, c.folded) {
			inTitle = true
		}
	}
	if len(result.Communities) == 0 {
		return Result{}, false
	}

	result.Location = news.MatchBody
	if inTitle {
		result.Location = news.MatchTitle
	}
	return result, true
}

func (c community) excluded(text string) bool {
	for _, phrase := range c.excludes {
		if containsWord(text, phrase) {
			return true
		}
	}
	return false
}

// IsSyndicated reports whether the byline or the start of the excerpt names
// a configured wire source.
func (m *Matcher) IsSyndicated(author, excerpt string) bool {
	if len(m.syndication) == 0 {
		return false
	}
	byline := foldText(author)
	lead := foldText(excerpt)
	if runes := []rune(lead); len(runes) > syndicationWindow {
		lead = string(runes[:syndicationWindow])
	}
	for _, phrase := range m.syndication {
		if strings.Contains(byline, phrase) || strings.Contains(lead, phrase) {
			return true
		}
	}
	return false
}

// IsPriority reports whether feedURL contains any priority source pattern.
func (m *Matcher) IsPriority(feedURL string) bool {
	lowered := strings.ToLower(feedURL)
	for _, pattern := range m.priority {
		if strings.Contains(lowered, pattern) {
			return true
		}
	}
	return false
}

// MentionsAny reports whether text contains any of phrases as a whole word.
func MentionsAny(text string, phrases []string) bool {
	folded := foldText(text)
	for _, phrase := range phrases {
		if containsWord(folded, foldText(phrase)) {
			return true
		}
	}
	return false
}

// Canonical maps a free-text community name onto the configured spelling.
func (m *Matcher) Canonical(name string) (string, bool) {
	idx, ok := m.byFolded[foldText(strings.Trim(name, " .,;:\"'"))]
	if !ok {
		return "", false
	}
	return m.communities[idx].name, true
}

// Communities returns the configured names in order.
func (m *Matcher) Communities() []string {
	names := make([]string, 0, len(m.communities))
	for _, c := range m.communities {
		names = append(names, c.name)
	}
	return names
}

// Excluded reports whether text carries an exclusion phrase for the named community.
func (m *Matcher) Excluded(name, text string) bool {
	idx, ok := m.byFolded[foldText(name)]
	if !ok {
		return false
	}
	return m.communities[idx].excluded(foldText(text))
}
