package matcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// foldText prepares text for matching: NFKC, lower case, single spaces.
func foldText(text string) string {
	return collapseSpaces(strings.ToLower(norm.NFKC.String(text)))
}

func collapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// containsWord reports whether phrase occurs in text delimited by word
// boundaries. Both arguments must already be folded.
func containsWord(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	for offset := 0; offset <= len(text)-len(phrase); {
		idx := strings.Index(text[offset:], phrase)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(phrase)
		if boundaryBefore(text, start, phrase) && boundaryAfter(text, end, phrase) {
			return true
		}
		offset = start + 1
	}
	return false
}

func boundaryBefore(text string, start int, phrase string) bool {
	if start == 0 || !isWordRune(firstRune(phrase)) {
		return true
	}
	return !isWordRune(lastRune(text[:start]))
}

func boundaryAfter(text string, end int, phrase string) bool {
	if end >= len(text) || !isWordRune(lastRune(phrase)) {
		return true
	}
	return !isWordRune(firstRune(text[end:]))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
