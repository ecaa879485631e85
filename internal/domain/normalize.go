package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText prepares text for comparison:
//   - applies Unicode NFC so composed and decomposed spellings compare equal
//   - trims leading/trailing whitespace
//   - converts to lowercase
//   - compresses any run of whitespace into one space
//
// Diacritics, hyphens, and apostrophes are preserved.
func NormalizeText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = norm.NFC.String(strings.ToLower(text))
	return strings.Join(strings.Fields(text), " ")
}

// StripMarks removes the combining marks in marks from s. The string is
// decomposed first, so precomposed letters lose the mark too, and then
// recomposed so unaffected letters keep their canonical form.
func StripMarks(s string, marks *unicode.RangeTable) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(marks)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	wikiLinkRe   = regexp.MustCompile(`\[\[([^|\]]*\|)?([^\]]*)\]\]`)
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
)

// StripMarkup removes HTML tags and wiki-style links from s,
// collapses multiple spaces, and trims whitespace.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}

	s = htmlTagRe.ReplaceAllString(s, "")

	// [[link|display]] → display, [[word]] → word.
	s = wikiLinkRe.ReplaceAllString(s, "$2")

	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
