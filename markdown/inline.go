package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"
)

var spaceRe = regexp.MustCompile(`\s{2,}`)

// CleanInline strips inline Markdown (emphasis, links, code spans) from a
// paragraph by rendering it to HTML and extracting the text content, then
// collapses runs of whitespace. Block structure has already been handled by
// the parser, so a single-paragraph render is enough.
func CleanInline(s string) string {
	rendered := blackfriday.Run([]byte(s))
	doc, err := html.Parse(bytes.NewReader(rendered))
	if err != nil {
		// blackfriday output is well-formed; if parsing still fails the raw
		// text is better than nothing.
		return strings.TrimSpace(s)
	}
	text := textContent(doc)
	text = cleanQuotes(text)
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// cleanQuotes normalizes typographic characters that core PDF fonts cannot
// encode.
func cleanQuotes(text string) string {
	r := strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
		"…", "...",
		" ", " ",
	)
	return r.Replace(text)
}
