package dialect

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/daxida/kty/internal/domain"
)

// Japanese derives kana readings and splits terms into script runs.
type Japanese struct{}

func (Japanese) Languages() []string { return []string{"ja"} }

// HeadwordReading prefers a form tagged hiragana or kana, then a
// kana-only headword.
func (Japanese) HeadwordReading(rec *domain.RawRecord) (string, error) {
	for _, f := range rec.Forms {
		tags := f.AllTags()
		if slices.Contains(tags, "hiragana") || slices.Contains(tags, "kana") {
			if !isKana(f.Form) {
				return "", &domain.FieldError{Field: "forms.form", Message: fmt.Sprintf("kana form %q contains non-kana characters", f.Form)}
			}
			return f.Form, nil
		}
	}
	if isKana(rec.Word) {
		return rec.Word, nil
	}
	return "", nil
}

// FormReading builds the reading from ruby annotations when present.
func (Japanese) FormReading(form domain.RawForm) (string, string, error) {
	if len(form.Ruby) == 0 {
		if isKana(form.Form) {
			return form.Form, form.Form, nil
		}
		return form.Form, "", nil
	}

	rest := form.Form
	var reading strings.Builder
	for _, pair := range form.Ruby {
		if len(pair) != 2 {
			return form.Form, "", &domain.FieldError{Field: "forms.ruby", Message: "annotation must be [base, reading]"}
		}
		base, kana := pair[0], pair[1]
		i := strings.Index(rest, base)
		if i < 0 {
			return form.Form, "", &domain.FieldError{Field: "forms.ruby", Message: fmt.Sprintf("base %q not found in %q", base, form.Form)}
		}
		reading.WriteString(rest[:i])
		reading.WriteString(kana)
		rest = rest[i+len(base):]
	}
	reading.WriteString(rest)
	return form.Form, reading.String(), nil
}

// SegmentTerm splits term at script boundaries: 食べ物 → [食 べ 物].
func (Japanese) SegmentTerm(term string) ([]string, error) {
	return splitRuns(term, japaneseScript), nil
}

func japaneseScript(r rune) int {
	switch {
	case unicode.Is(unicode.Han, r):
		return 1
	case unicode.Is(unicode.Hiragana, r):
		return 2
	case unicode.Is(unicode.Katakana, r) || r == 'ー':
		return 3
	default:
		return 0
	}
}

func isKana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if script := japaneseScript(r); script != 2 && script != 3 {
			return false
		}
	}
	return true
}

// splitRuns groups consecutive runes of equal class.
func splitRuns(s string, class func(rune) int) []string {
	var (
		out   []string
		start int
		prev  = -1
	)
	for i, r := range s {
		c := class(r)
		if prev >= 0 && c != prev {
			out = append(out, s[start:i])
			start = i
		}
		prev = c
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
