package seen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKeyStripsQueryAndFragment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/a/story", NormalizeKey("https://example.com/a/story?utm_source=x"))
	assert.Equal(t, "https://example.com/a/story", NormalizeKey("https://example.com/a/story#comments"))
	assert.Equal(t, "https://example.com/a/story", NormalizeKey("  HTTPS://Example.COM/a/story?x=1#y "))
}

func TestNormalizeKeyKeepsPathCaseAndPort(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://example.com:8080/News/Story", NormalizeKey("http://example.com:8080/News/Story?id=4"))
}

func TestNormalizeKeyIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://example.com/a/story?utm_source=x",
		"https://www.thecoastnews.com/2026/10/19/pier-reopens/",
		"https://example.com/path%20with%20space?q=1",
		"https://example.com/caf%C3%A9",
		"not a url",
		"mailto:desk@example.com",
		"",
	}
	for _, raw := range inputs {
		once := NormalizeKey(raw)
		assert.Equal(t, once, NormalizeKey(once), "input %q", raw)
	}
}

func TestNormalizeKeyEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, NormalizeKey("   "))
}
