package feed

import (
	"net/url"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var sourceNames = map[string]string{
	"thecoastnews.com":            "The Coast News",
	"northcoastcurrent.com":       "North Coast Current",
	"timesofsandiego.com":         "Times of San Diego",
	"voiceofsandiego.org":         "Voice of San Diego",
	"sandiegouniontribune.com":    "San Diego Union-Tribune",
	"nbcsandiego.com":             "NBC San Diego",
	"cbs8.com":                    "CBS 8",
	"fox5sandiego.com":            "FOX 5 San Diego",
	"kpbs.org":                    "KPBS",
	"countynewscenter.com":        "County News Center",
	"sdnews.com":                  "SD News",
	"delmartimes.net":             "Del Mar Times",
	"sandiegonewsdesk.com":        "San Diego News Desk",
	"chulavistatoday.com":         "Chula Vista Today",
	"sandiegoreader.com":          "San Diego Reader",
	"ranchosfnews.com":            "Rancho Santa Fe News",
	"valleycenter.com":            "Valley Center News",
	"escondidotimes-advocate.com": "Escondido Times-Advocate",
	"myvalleynews.com":            "My Valley News",
	"villagenews.com":             "Village News",
	"ramonasentinel.com":          "Ramona Sentinel",
	"powaynewschieftain.com":      "Poway News Chieftain",
	"sandiegobusiness.com":        "San Diego Business Journal",
	"coronadotimes.com":           "Coronado Times",
	"laprensa.org":                "La Prensa",
	"clairemonttimes.com":         "Clairemont Times",
	"thecoronadonews.com":         "The Coronado News",
}

var titleCaser = cases.Title(language.English)

// SourceName derives a display name for a feed. Patch feeds carry their
// locality in the path (/california/encinitas/rss.xml → "Patch (Encinitas)").
func SourceName(feedURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(feedURL))
	if err != nil || parsed.Host == "" {
		return "Unknown Source"
	}

	domain := strings.ToLower(parsed.Hostname())
	domain = strings.TrimPrefix(domain, "www.")
	domain = strings.TrimPrefix(domain, "feeds.")

	if name, ok := sourceNames[domain]; ok {
		return name
	}

	if domain == "patch.com" || strings.HasSuffix(domain, ".patch.com") {
		parts := strings.Split(parsed.Path, "/")
		if len(parts) > 2 {
			return "Patch (" + humanize(parts[len(parts)-2]) + ")"
		}
		return "Patch"
	}

	label, _, _ := strings.Cut(domain, ".")
	return humanize(label)
}

func humanize(slug string) string {
	return titleCaser.String(strings.ReplaceAll(slug, "-", " "))
}
