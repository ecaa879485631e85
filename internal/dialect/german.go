package dialect

import (
	"fmt"
	"strings"

	"github.com/daxida/kty/internal/domain"
)

// German expands the abbreviated tags of inflection tables.
type German struct{}

func (German) Languages() []string { return []string{"de"} }

var germanAbbreviations = map[string]string{
	"1":    "first-person",
	"2":    "second-person",
	"3":    "third-person",
	"sing": "singular",
	"sg":   "singular",
	"pl":   "plural",
	"pres": "present",
	"pret": "preterite",
	"ind":  "indicative",
	"subj": "subjunctive",
	"impr": "imperative",
	"part": "participle",
	"nom":  "nominative",
	"gen":  "genitive",
	"dat":  "dative",
	"acc":  "accusative",
}

func (German) MapTags(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		if strings.TrimSpace(t) == "" {
			return raw, &domain.FieldError{Field: "tags", Message: fmt.Sprintf("empty tag in %q", raw)}
		}
		if full, ok := germanAbbreviations[strings.ToLower(t)]; ok {
			out = append(out, full)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
