package dialect

import (
	"slices"
	"unicode"

	"github.com/daxida/kty/internal/domain"
)

var (
	// Stress marks written in Slavic dictionary forms.
	acuteGrave = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x0301, Stride: 1}}}
	// Vowel length marks written in Latin, Old English and Ancient Greek
	// dictionary forms. Greek accents and breathings are kept.
	macronBreve = &unicode.RangeTable{R16: []unicode.Range16{{Lo: 0x0304, Hi: 0x0306, Stride: 2}}}
)

// Diacritic handles languages whose dictionary forms carry marks the
// running text omits. The written form drops the marks; the marked
// spelling becomes the reading.
type Diacritic struct {
	langs []string
	marks *unicode.RangeTable
}

func NewDiacritic(langs []string, marks *unicode.RangeTable) Diacritic {
	return Diacritic{langs: langs, marks: marks}
}

func (d Diacritic) Languages() []string { return d.langs }

// HeadwordReading returns the marked canonical form of the headword.
func (d Diacritic) HeadwordReading(rec *domain.RawRecord) (string, error) {
	for _, f := range rec.Forms {
		if !slices.Contains(f.AllTags(), "canonical") {
			continue
		}
		if d.strip(f.Form) != d.strip(rec.Word) {
			return "", &domain.FieldError{Field: "forms.canonical", Message: "canonical form " + f.Form + " does not spell " + rec.Word}
		}
		if f.Form == rec.Word {
			return "", nil
		}
		return f.Form, nil
	}
	return "", nil
}

func (d Diacritic) FormReading(form domain.RawForm) (string, string, error) {
	written := d.strip(form.Form)
	if written == form.Form {
		return written, "", nil
	}
	return written, form.Form, nil
}

func (d Diacritic) strip(s string) string {
	return domain.StripMarks(s, d.marks)
}
