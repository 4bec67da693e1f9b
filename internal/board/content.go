package board

import (
	"html"
	"regexp"
	"strings"
)

var (
	blockTagRe = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/li)\s*/?>`)
	anyTagRe   = regexp.MustCompile(`<[^>]*>`)
	spaceRe    = regexp.MustCompile(`[ \t]+`)
)

// Text returns the displayable text of the item: content, falling back to
// title, with markup removed.
func (it Item) Text() string {
	raw := it.Content
	if strings.TrimSpace(raw) == "" {
		raw = it.Title
	}
	return StripMarkup(raw)
}

// StripMarkup turns the rich text the Miro API returns ("<p>a</p><p>b</p>")
// into plain text. Block-closing tags become spaces so words do not run together.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	s = blockTagRe.ReplaceAllString(s, " ")
	s = anyTagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
