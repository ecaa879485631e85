package dialect

import (
	"slices"
	"unicode"

	"github.com/daxida/kty/internal/domain"
)

// Chinese derives pinyin readings and indexes terms per Han character.
type Chinese struct{}

func (Chinese) Languages() []string { return []string{"zh"} }

// HeadwordReading returns the first Mandarin pinyin pronunciation.
func (Chinese) HeadwordReading(rec *domain.RawRecord) (string, error) {
	for _, s := range rec.Sounds {
		if s.ZhPron == "" {
			continue
		}
		tags := s.AllTags()
		if slices.Contains(tags, "Mandarin") && slices.Contains(tags, "Pinyin") {
			return s.ZhPron, nil
		}
	}
	return "", nil
}

// FormReading keeps Chinese variant forms as written; they share the
// headword reading.
func (Chinese) FormReading(form domain.RawForm) (string, string, error) {
	return form.Form, "", nil
}

// SegmentTerm splits Han characters individually and keeps other runs whole.
func (Chinese) SegmentTerm(term string) ([]string, error) {
	var out []string
	for _, run := range splitRuns(term, func(r rune) int {
		if unicode.Is(unicode.Han, r) {
			return 1
		}
		return 0
	}) {
		first := []rune(run)[0]
		if unicode.Is(unicode.Han, first) {
			for _, r := range run {
				out = append(out, string(r))
			}
			continue
		}
		out = append(out, run)
	}
	return out, nil
}
