package normalize

import (
	"slices"
	"strings"

	"github.com/daxida/kty/internal/domain"
)

// Builder accumulates every record folded into one entry key. It is
// JSON-serializable so accumulators can spill it out of memory; the
// unexported indexes are rebuilt on demand after a round trip.
type Builder struct {
	Term           string             `json:"term"`
	Lang           string             `json:"lang"`
	POS            string             `json:"pos"`
	Reading        string             `json:"reading,omitempty"`
	Segments       []string           `json:"segments,omitempty"`
	FirstSeen      int                `json:"first_seen"`
	Groups         []*GroupBuilder    `json:"groups,omitempty"`
	Forms          []*FormBuilder     `json:"forms,omitempty"`
	Pronunciations []PronunciationRef `json:"pronunciations,omitempty"`

	formIndex map[string]int
	pronIndex map[string]struct{}
}

type GroupBuilder struct {
	Etymology string          `json:"etymology,omitempty"`
	Senses    []*SenseBuilder `json:"senses,omitempty"`

	senseIndex map[string]int
}

type SenseBuilder struct {
	Glosses  []string         `json:"glosses"`
	Tags     []string         `json:"tags,omitempty"`
	Examples []domain.Example `json:"examples,omitempty"`
}

type FormBuilder struct {
	Written string   `json:"written"`
	Reading string   `json:"reading,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Lemma   string   `json:"lemma"`
}

type PronunciationRef struct {
	IPA  string   `json:"ipa"`
	Tags []string `json:"tags,omitempty"`
}

func newBuilder(key domain.EntryKey, firstSeen int) *Builder {
	return &Builder{Term: key.Term, Lang: key.Lang, POS: key.POS, FirstSeen: firstSeen}
}

func (b *Builder) Key() domain.EntryKey {
	return domain.EntryKey{Term: b.Term, Lang: b.Lang, POS: b.POS}
}

// newGroup appends an etymology group. Every contributing record opens
// its own group, even when it repeats an earlier etymology text or has
// none, so separate sections of one term stay separate.
func (b *Builder) newGroup(etymology string) *GroupBuilder {
	g := &GroupBuilder{Etymology: etymology}
	b.Groups = append(b.Groups, g)
	return g
}

// addSense merges a sense into the group. Senses of one record with the
// same normalized gloss list are one sense: their tags and examples are
// merged.
func (g *GroupBuilder) addSense(glosses, tagCodes []string, examples []domain.Example) {
	glosses = dedupeGlosses(glosses)
	if len(glosses) == 0 {
		return
	}
	key := senseKey(glosses)
	if g.senseIndex == nil {
		g.senseIndex = make(map[string]int, len(g.Senses))
		for i, s := range g.Senses {
			g.senseIndex[senseKey(s.Glosses)] = i
		}
	}
	if i, ok := g.senseIndex[key]; ok {
		s := g.Senses[i]
		s.Tags = union(s.Tags, tagCodes)
		s.Examples = appendExamples(s.Examples, examples)
		return
	}
	g.senseIndex[key] = len(g.Senses)
	g.Senses = append(g.Senses, &SenseBuilder{
		Glosses:  glosses,
		Tags:     union(nil, tagCodes),
		Examples: appendExamples(nil, examples),
	})
}

// addForm merges tags into the form with the same written shape, or
// appends a new form. It returns the kept reading and whether the given
// reading conflicted with it.
func (b *Builder) addForm(written, reading string, tagCodes []string, lemma string) (kept string, conflict bool) {
	if b.formIndex == nil {
		b.formIndex = make(map[string]int, len(b.Forms))
		for i, f := range b.Forms {
			b.formIndex[f.Written] = i
		}
	}
	if i, ok := b.formIndex[written]; ok {
		f := b.Forms[i]
		f.Tags = union(f.Tags, tagCodes)
		switch {
		case reading == "" || reading == f.Reading:
		case f.Reading == "":
			f.Reading = reading
		default:
			return f.Reading, true
		}
		return f.Reading, false
	}
	b.formIndex[written] = len(b.Forms)
	b.Forms = append(b.Forms, &FormBuilder{
		Written: written,
		Reading: reading,
		Tags:    union(nil, tagCodes),
		Lemma:   lemma,
	})
	return reading, false
}

// addPronunciation keeps one pronunciation per (transcription, tag set).
func (b *Builder) addPronunciation(ipa string, tagCodes []string) {
	if b.pronIndex == nil {
		b.pronIndex = make(map[string]struct{}, len(b.Pronunciations))
		for _, p := range b.Pronunciations {
			b.pronIndex[pronKey(p.IPA, p.Tags)] = struct{}{}
		}
	}
	key := pronKey(ipa, tagCodes)
	if _, ok := b.pronIndex[key]; ok {
		return
	}
	b.pronIndex[key] = struct{}{}
	b.Pronunciations = append(b.Pronunciations, PronunciationRef{IPA: ipa, Tags: slices.Clone(tagCodes)})
}

func pronKey(ipa string, tagCodes []string) string {
	sorted := slices.Clone(tagCodes)
	slices.Sort(sorted)
	return ipa + "|" + strings.Join(slices.Compact(sorted), " ")
}

func senseKey(glosses []string) string {
	keys := make([]string, len(glosses))
	for i, g := range glosses {
		keys[i] = domain.NormalizeText(g)
	}
	return strings.Join(keys, "\x1f")
}

// dedupeGlosses trims glosses and drops empty ones and ones equal to an
// earlier gloss under normalized comparison.
func dedupeGlosses(glosses []string) []string {
	out := make([]string, 0, len(glosses))
	seen := make(map[string]struct{}, len(glosses))
	for _, g := range glosses {
		g = domain.StripMarkup(g)
		norm := domain.NormalizeText(g)
		if norm == "" {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, g)
	}
	return out
}

// union appends the members of add missing from set, preserving order.
func union(set, add []string) []string {
	for _, t := range add {
		if !slices.Contains(set, t) {
			set = append(set, t)
		}
	}
	return set
}

func appendExamples(have, add []domain.Example) []domain.Example {
	for _, ex := range add {
		if !slices.Contains(have, ex) {
			have = append(have, ex)
		}
	}
	return have
}
