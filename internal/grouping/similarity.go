package grouping

import (
	"math"
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "as": {}, "is": {}, "was": {},
	"are": {}, "were": {}, "been": {}, "be": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "will": {}, "would": {}, "could": {}, "should": {}, "may": {},
	"might": {}, "must": {}, "can": {},
}

// TitleTokens lower-cases title, splits it into word tokens and removes stop words.
func TitleTokens(title string) map[string]struct{} {
	parts := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return r != '_' && !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	set := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		if _, stop := stopWords[part]; stop {
			continue
		}
		set[part] = struct{}{}
	}
	return set
}

// Jaccard is |a∩b| / |a∪b|. Two empty sets are identical (1.0); exactly one
// empty set shares nothing (0.0).
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	intersection := 0
	for token := range small {
		if _, ok := large[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// TitleSimilarity is the lexical metric between two titles.
func TitleSimilarity(left, right string) float64 {
	return Jaccard(TitleTokens(left), TitleTokens(right))
}

// Cosine returns the cosine of the angle between a and b, or 0 when either
// vector is empty, has zero norm or the dimensions differ.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(score) {
		return 0
	}
	return score
}
