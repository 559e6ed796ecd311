package seen

import (
	"net/url"
	"strings"
)

// NormalizeKey reduces an article URL to scheme, host and path. Query strings
// and fragments are dropped so tracking variants of a link share one key.
// Scheme and host are lower-cased; the path is kept as published.
func NormalizeKey(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}

	normalized := url.URL{
		Scheme:  strings.ToLower(parsed.Scheme),
		Opaque:  parsed.Opaque,
		User:    parsed.User,
		Host:    strings.ToLower(parsed.Host),
		Path:    parsed.Path,
		RawPath: parsed.RawPath,
	}
	return normalized.String()
}
