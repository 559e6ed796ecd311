package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// minLetters is the shortest sample lingua is asked to classify.
const minLetters = 12

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectISO6391 returns the two-letter code of text's language, or "" when
// the sample is too short or the detector is unsure.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letters := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < minLetters {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

// Gate admits text written in one of a configured set of languages.
type Gate struct {
	allowed map[string]struct{}
}

// NewGate builds a gate from ISO 639-1 codes. An empty list admits
// everything.
func NewGate(codes []string) *Gate {
	allowed := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if normalized := strings.ToLower(strings.TrimSpace(code)); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}
	return &Gate{allowed: allowed}
}

func (g *Gate) Enabled() bool {
	return g != nil && len(g.allowed) > 0
}

// Allows reports whether text may pass. Undetectable text passes so short
// headlines are never dropped on a guess.
func (g *Gate) Allows(text string) bool {
	if !g.Enabled() {
		return true
	}
	code := DetectISO6391(text)
	if code == "" {
		return true
	}
	_, ok := g.allowed[code]
	return ok
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
