package reader

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// StripHTML returns the visible text of an HTML fragment with one space
// between text nodes and collapsed whitespace.
func StripHTML(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	if !strings.ContainsAny(fragment, "<&") {
		return collapseSpaces(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return collapseSpaces(fragment)
	}

	var parts []string
	for _, node := range doc.Nodes {
		collectText(node, &parts)
	}
	return collapseSpaces(strings.Join(parts, " "))
}

func collectText(node *html.Node, parts *[]string) {
	switch node.Type {
	case html.TextNode:
		if text := strings.TrimSpace(node.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	case html.ElementNode:
		switch node.Data {
		case "script", "style", "noscript":
			return
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, parts)
	}
}

func collapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
