// Package yomitan projects canonical entries into the term bank, tag bank
// and index documents of a Yomitan dictionary.
package yomitan

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/daxida/kty/internal/domain"
	"github.com/daxida/kty/internal/tags"
)

// Kind selects how entries become term rows.
type Kind string

const (
	// KindGlossary writes one row per (entry, etymology group).
	KindGlossary Kind = "glossary"
	// KindForms writes one row per (entry, form) pointing back at the lemma.
	KindForms Kind = "forms"
)

// ParseKind validates a dictionary kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindGlossary, KindForms:
		return k, nil
	case "":
		return KindGlossary, nil
	default:
		return "", domain.NewConfigError("kind", fmt.Sprintf("unknown dictionary kind %q", s))
	}
}

// Metadata describes the dictionary being written.
type Metadata struct {
	Title       string
	Revision    string
	Author      string
	URL         string
	Description string
	Source      string
	Target      string
	Kind        Kind
	Formatted   bool
}

// FrequencyLookup supplies popularity scores. Without one every row scores zero.
type FrequencyLookup interface {
	Score(term, reading string) int
}

// Tables is the serialized dictionary before it is split into documents.
type Tables struct {
	Index Index
	Tags  []TagRow
	Terms []TermRow
}

// Serializer turns finalized entries into Tables.
type Serializer struct {
	log  *slog.Logger
	bank *tags.Bank
	diag *domain.Diagnostics
	freq FrequencyLookup
}

func NewSerializer(log *slog.Logger, bank *tags.Bank, diag *domain.Diagnostics, freq FrequencyLookup) *Serializer {
	if log == nil {
		log = slog.Default()
	}
	return &Serializer{
		log:  log.With("service", "yomitan"),
		bank: bank,
		diag: diag,
		freq: freq,
	}
}

// Serialize builds the tables for entries. Entries lacking what the kind
// needs are skipped with a diagnostic. Rows are ordered by (term, reading)
// and otherwise keep entry order.
func (s *Serializer) Serialize(entries []domain.CanonicalEntry, meta Metadata) (*Tables, error) {
	kind, err := ParseKind(string(meta.Kind))
	if err != nil {
		return nil, err
	}
	if meta.Source == "" || meta.Target == "" {
		return nil, domain.NewConfigError("languages", "source and target language are required")
	}

	var rows []TermRow
	skipped := 0
	for i := range entries {
		e := &entries[i]
		var out []TermRow
		switch kind {
		case KindForms:
			out = s.formRows(e)
		default:
			out = s.glossaryRows(e, meta)
		}
		if out == nil {
			skipped++
			continue
		}
		rows = append(rows, out...)
	}

	slices.SortStableFunc(rows, func(a, b TermRow) int {
		return cmp.Or(strings.Compare(a.Term, b.Term), strings.Compare(a.Reading, b.Reading))
	})

	t := &Tables{
		Index: s.index(meta),
		Tags:  s.tagRows(rows),
		Terms: rows,
	}

	s.log.Info("serialized",
		slog.String("kind", string(kind)),
		slog.Int("entries", len(entries)),
		slog.Int("skipped", skipped),
		slog.Int("terms", len(t.Terms)),
		slog.Int("tags", len(t.Tags)),
	)
	return t, nil
}

func (s *Serializer) index(meta Metadata) Index {
	title := meta.Title
	if title == "" {
		title = fmt.Sprintf("kty-%s-%s", meta.Source, meta.Target)
	}
	return Index{
		Title:          title,
		Revision:       meta.Revision,
		Sequenced:      true,
		Format:         FormatVersion,
		Author:         meta.Author,
		URL:            meta.URL,
		Description:    meta.Description,
		Attribution:    "https://kaikki.org",
		SourceLanguage: meta.Source,
		TargetLanguage: meta.Target,
	}
}

func (s *Serializer) glossaryRows(e *domain.CanonicalEntry, meta Metadata) []TermRow {
	if !e.HasGlosses() {
		s.diag.Add(domain.DiagSkippedEntry, e.EntryKey.String(), "no glosses for glossary output")
		return nil
	}
	pos := s.bank.MapPOS(e.POS)
	reading := readingOf(e.Term, e.Reading)
	score := s.score(e.Term, reading)

	rows := make([]TermRow, 0, len(e.Groups))
	for gi, g := range e.Groups {
		if len(g.Senses) == 0 {
			continue
		}
		shared := sharedTags(g.Senses)
		defTags := make([]string, 0, len(shared)+1)
		if pos.Code != "" {
			defTags = append(defTags, pos.Code)
		}
		for _, t := range shared {
			if t != pos.Code {
				defTags = append(defTags, t)
			}
		}
		s.bank.Sort(defTags)

		var glossary []any
		if meta.Formatted {
			var (
				segments []string
				prons    []domain.Pronunciation
			)
			if gi == 0 {
				segments, prons = e.Segments, e.Pronunciations
			}
			glossary = []any{s.formatted(g, shared, segments, prons, meta.Target)}
		} else {
			glossary = plainGlossary(g.Senses, shared)
		}

		rows = append(rows, TermRow{
			Term:           e.Term,
			Reading:        reading,
			DefinitionTags: strings.Join(defTags, " "),
			Rules:          pos.Rule,
			Score:          score,
			Glossary:       glossary,
			Sequence:       g.Sequence,
		})
	}
	return rows
}

func (s *Serializer) formRows(e *domain.CanonicalEntry) []TermRow {
	if len(e.Forms) == 0 {
		s.diag.Add(domain.DiagSkippedEntry, e.EntryKey.String(), "no forms for deinflection output")
		return nil
	}
	pos := s.bank.MapPOS(e.POS)
	rows := make([]TermRow, 0, len(e.Forms))
	for _, f := range e.Forms {
		hint := []string{}
		if len(f.Tags) > 0 {
			hint = append(hint, strings.Join(tags.MergePersonTags(f.Tags), " "))
		}
		reading := readingOf(f.Written, f.Reading)
		rows = append(rows, TermRow{
			Term:           f.Written,
			Reading:        reading,
			DefinitionTags: strings.Join(f.Tags, " "),
			Rules:          pos.Rule,
			Score:          s.score(f.Written, reading),
			Glossary:       []any{[]any{f.Lemma, hint}},
			TermTags:       "non-lemma",
		})
	}
	return rows
}

func (s *Serializer) score(term, reading string) int {
	if s.freq == nil {
		return 0
	}
	return s.freq.Score(term, reading)
}

// tagRows emits one row per distinct code referenced by rows, sorted by code.
func (s *Serializer) tagRows(rows []TermRow) []TagRow {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for _, field := range []string{r.DefinitionTags, r.TermTags} {
			for _, code := range strings.Fields(field) {
				seen[code] = struct{}{}
			}
		}
	}
	codes := make([]string, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	slices.Sort(codes)

	out := make([]TagRow, 0, len(codes))
	for _, c := range codes {
		t, ok := s.bank.Lookup(c)
		if !ok {
			out = append(out, TagRow{Name: c})
			continue
		}
		out = append(out, TagRow{
			Name:     c,
			Category: t.Category,
			Order:    s.bank.Rank(c),
			Notes:    t.Note,
			Score:    t.Score,
		})
	}
	return out
}

// readingOf leaves the reading column empty when it repeats the term.
func readingOf(term, reading string) string {
	if reading == term {
		return ""
	}
	return reading
}

// sharedTags returns the tags carried by every sense, in first-sense order.
func sharedTags(senses []domain.Sense) []string {
	if len(senses) == 0 {
		return nil
	}
	var out []string
	for _, t := range senses[0].Tags {
		all := true
		for _, s := range senses[1:] {
			if !slices.Contains(s.Tags, t) {
				all = false
				break
			}
		}
		if all {
			out = append(out, t)
		}
	}
	return out
}

func ownTags(sense domain.Sense, shared []string) []string {
	var out []string
	for _, t := range sense.Tags {
		if !slices.Contains(shared, t) {
			out = append(out, t)
		}
	}
	return out
}

func plainGlossary(senses []domain.Sense, shared []string) []any {
	out := make([]any, 0, len(senses))
	for _, sense := range senses {
		text := strings.Join(sense.Glosses, "; ")
		if own := ownTags(sense, shared); len(own) > 0 {
			text = "(" + strings.Join(own, ", ") + ") " + text
		}
		out = append(out, text)
	}
	return out
}

// formatted renders one etymology group. The first group of an entry also
// carries the segmented headword and the pronunciations.
func (s *Serializer) formatted(g domain.EtymologyGroup, shared, segments []string, prons []domain.Pronunciation, lang string) StructuredContent {
	var body []any
	if len(segments) > 1 {
		body = append(body, segmentsNode(segments))
	}
	if g.Etymology != "" {
		body = append(body, el("div", "etymology", []any{
			el("span", "etymology-label", etymologyLabel(lang)+": "),
			g.Etymology,
		}))
	}

	items := make([]any, 0, len(g.Senses))
	for _, sense := range g.Senses {
		var li []any
		for _, t := range ownTags(sense, shared) {
			span := el("span", "tag", t)
			if tag, ok := s.bank.Lookup(t); ok {
				span.Title = tag.Note
			}
			li = append(li, span)
		}
		li = append(li, el("span", "gloss", strings.Join(sense.Glosses, "; ")))
		if len(sense.Examples) > 0 {
			li = append(li, examplesNode(sense.Examples, lang))
		}
		items = append(items, el("li", "sense", li))
	}
	body = append(body, el("ol", "glosses", items))

	if len(prons) > 0 {
		parts := make([]any, 0, len(prons))
		for _, p := range prons {
			text := p.IPA
			if len(p.Tags) > 0 {
				text += " (" + strings.Join(p.Tags, ", ") + ")"
			}
			parts = append(parts, el("li", "pronunciation", text))
		}
		body = append(body, el("ul", "pronunciations", parts))
	}
	return structured(body)
}

// segmentsNode shows the headword split into its components.
func segmentsNode(segments []string) *Node {
	parts := make([]any, 0, 2*len(segments)-1)
	for i, seg := range segments {
		if i > 0 {
			parts = append(parts, el("span", "segment-separator", "·"))
		}
		parts = append(parts, el("span", "segment", seg))
	}
	return el("div", "segments", parts)
}

func examplesNode(examples []domain.Example, lang string) *Node {
	content := []any{el("summary", "examples-summary", examplesLabel(lang, len(examples)))}
	for _, ex := range examples {
		div := []any{el("div", "example-text", ex.Text)}
		if ex.Translation != "" {
			div = append(div, el("div", "example-translation", ex.Translation))
		}
		content = append(content, el("div", "example", div))
	}
	return el("details", "examples", content)
}
