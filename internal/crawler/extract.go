package crawler

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// anchorHrefPattern captures the quoted href value of an <a> tag.
// Other attributes may precede href; tag and attribute names match case-insensitively.
var anchorHrefPattern = regexp.MustCompile(`(?i)<a\s+(?:[^>]*?\s)?href\s*=\s*["']([^"']+)["']`)

// ExtractLinks returns the raw href value of every anchor in body, in document order.
// Values are not decoded; see DecodeHref.
func ExtractLinks(body []byte) []string {
	matches := anchorHrefPattern.FindAllSubmatch(body, -1)
	hrefs := make([]string, 0, len(matches))
	for _, m := range matches {
		hrefs = append(hrefs, string(m[1]))
	}
	return hrefs
}

// DecodeHref decodes HTML entities in a raw href ("&amp;" becomes "&").
func DecodeHref(raw string) string {
	return strings.TrimSpace(html.UnescapeString(raw))
}
