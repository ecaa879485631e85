// Package normalize folds filtered extract records into canonical entries.
//
// Folding is strictly sequential: record order decides etymology group
// order and which reading wins a conflict. Finalization runs after the
// whole input has been folded and is parallel across entries.
package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/daxida/kty/internal/dialect"
	"github.com/daxida/kty/internal/domain"
	"github.com/daxida/kty/internal/tags"
)

// RecordSource is a single-pass record iterator, such as *extract.Stream.
type RecordSource interface {
	Next() bool
	Record() *domain.RawRecord
	Err() error
}

// Options configures a Normalizer.
type Options struct {
	// Workers bounds finalization parallelism. Zero uses GOMAXPROCS.
	Workers int
	// TagMemo is the per-language tag memo size.
	TagMemo int
}

// Stats are fold counters.
type Stats struct {
	Records   int
	Dropped   int
	Conflicts int
	Entries   int
}

// Normalizer folds records into an Accumulator it exclusively owns.
type Normalizer struct {
	log      *slog.Logger
	bank     *tags.Bank
	registry *dialect.Registry
	acc      Accumulator
	diag     *domain.Diagnostics
	opts     Options

	mappers map[string]*tags.Mapper
	next    int
	stats   Stats
}

// New creates a Normalizer for a run whose source language is source. It
// fails fast when the tag bank has no table for source.
func New(log *slog.Logger, bank *tags.Bank, registry *dialect.Registry, acc Accumulator, diag *domain.Diagnostics, source string, opts Options) (*Normalizer, error) {
	n := &Normalizer{
		log:      log,
		bank:     bank,
		registry: registry,
		acc:      acc,
		diag:     diag,
		opts:     opts,
		mappers:  make(map[string]*tags.Mapper),
	}
	if _, err := n.mapper(source, true); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Normalizer) Stats() Stats { return n.stats }

// Run folds every record of src and finalizes the result.
func (n *Normalizer) Run(ctx context.Context, src RecordSource) ([]domain.CanonicalEntry, error) {
	for src.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := n.Fold(ctx, src.Record()); err != nil {
			return nil, err
		}
	}
	if err := src.Err(); err != nil {
		return nil, err
	}
	return n.Finalize(ctx)
}

// Fold merges one record. Records missing a term or language are dropped
// with a diagnostic; only accumulator failures are returned.
func (n *Normalizer) Fold(ctx context.Context, rec *domain.RawRecord) error {
	n.stats.Records++

	term := strings.TrimSpace(rec.Word)
	switch {
	case term == "":
		n.drop(rec, "word")
		return nil
	case rec.LangCode == "":
		n.drop(rec, "lang_code")
		return nil
	}

	lang := rec.LangCode
	adapter := n.registry.Resolve(lang)
	mapper, err := n.mapper(lang, false)
	if err != nil {
		return err
	}
	key := domain.EntryKey{Term: term, Lang: lang, POS: rec.POS}

	var glossSenses []domain.RawSense
	for _, s := range rec.Senses {
		if len(s.FormOf) == 0 {
			glossSenses = append(glossSenses, s)
			continue
		}
		if err := n.foldFormOf(ctx, key, s, adapter, mapper); err != nil {
			return err
		}
	}

	forms := usableForms(rec.Forms, term)
	if len(glossSenses) == 0 && len(forms) == 0 && len(rec.Sounds) == 0 {
		return nil
	}

	b, err := n.resolve(ctx, key)
	if err != nil {
		return err
	}

	n.foldReading(b, rec, adapter)
	if b.Segments == nil {
		if seg, ok := adapter.(dialect.TermSegmenter); ok {
			parts, err := seg.SegmentTerm(term)
			if err != nil {
				n.adapterFailed(key, "segment_term", err)
			} else if len(parts) > 1 {
				b.Segments = parts
			}
		}
	}

	if len(glossSenses) > 0 {
		g := b.newGroup(rec.Etymology())
		for _, s := range glossSenses {
			g.addSense(s.Glosses, n.mapTags(key, adapter, mapper, s.AllTags()), examples(s.Examples))
		}
	}

	for _, f := range forms {
		written, reading := f.Form, ""
		if rd, ok := adapter.(dialect.ReadingDeriver); ok {
			w, r, err := rd.FormReading(f)
			if err != nil {
				n.adapterFailed(key, "form_reading", err)
			} else {
				written, reading = w, r
			}
		}
		if written == "" || written == term {
			continue
		}
		codes := tags.RemoveRedundant(n.mapTags(key, adapter, mapper, f.AllTags()))
		if kept, conflict := b.addForm(written, reading, codes, term); conflict {
			n.conflict(key, written, kept, reading)
		}
	}

	for _, s := range rec.Sounds {
		if ipa := strings.TrimSpace(s.IPA); ipa != "" {
			b.addPronunciation(ipa, mapper.Canonical(s.AllTags()))
		}
	}

	return n.acc.Put(ctx, b)
}

// foldFormOf records the term as a form of every lemma the sense names.
func (n *Normalizer) foldFormOf(ctx context.Context, key domain.EntryKey, s domain.RawSense, adapter dialect.Adapter, mapper *tags.Mapper) error {
	codes := tags.RemoveRedundant(n.mapTags(key, adapter, mapper, s.AllTags()))
	for _, fo := range s.FormOf {
		lemma := strings.TrimSpace(fo.Word)
		if lemma == "" || lemma == key.Term {
			continue
		}
		lb, err := n.resolve(ctx, domain.EntryKey{Term: lemma, Lang: key.Lang, POS: key.POS})
		if err != nil {
			return err
		}
		if kept, conflict := lb.addForm(key.Term, "", codes, lemma); conflict {
			n.conflict(lb.Key(), key.Term, kept, "")
		}
		if err := n.acc.Put(ctx, lb); err != nil {
			return err
		}
	}
	return nil
}

func (n *Normalizer) foldReading(b *Builder, rec *domain.RawRecord, adapter dialect.Adapter) {
	rd, ok := adapter.(dialect.ReadingDeriver)
	if !ok {
		return
	}
	reading, err := rd.HeadwordReading(rec)
	if err != nil {
		n.adapterFailed(b.Key(), "headword_reading", err)
		return
	}
	switch {
	case reading == "" || reading == b.Reading:
	case b.Reading == "":
		b.Reading = reading
	default:
		n.conflict(b.Key(), b.Term, b.Reading, reading)
	}
}

func (n *Normalizer) resolve(ctx context.Context, key domain.EntryKey) (*Builder, error) {
	b, ok, err := n.acc.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("accumulator get %s: %w", key, err)
	}
	if ok {
		return b, nil
	}
	b = newBuilder(key, n.next)
	n.next++
	return b, nil
}

func (n *Normalizer) mapTags(key domain.EntryKey, adapter dialect.Adapter, mapper *tags.Mapper, raw []string) []string {
	if tm, ok := adapter.(dialect.TagMapper); ok && len(raw) > 0 {
		mapped, err := tm.MapTags(raw)
		if err != nil {
			n.adapterFailed(key, "map_tags", err)
		} else {
			raw = mapped
		}
	}
	return mapper.Canonical(raw)
}

// mapper returns the tag mapper of lang. Languages other than the run's
// source language fall back to an empty table unless strict is set.
func (n *Normalizer) mapper(lang string, strict bool) (*tags.Mapper, error) {
	if m, ok := n.mappers[lang]; ok {
		return m, nil
	}
	m, err := tags.NewMapper(n.bank, lang, n.opts.TagMemo, n.diag)
	if err != nil {
		if strict {
			return nil, err
		}
		if m, err = n.fallbackMapper(); err != nil {
			return nil, err
		}
	}
	n.mappers[lang] = m
	return m, nil
}

func (n *Normalizer) fallbackMapper() (*tags.Mapper, error) {
	const fallback = ""
	if m, ok := n.mappers[fallback]; ok {
		return m, nil
	}
	m, err := tags.NewPassthroughMapper(n.bank, n.opts.TagMemo, n.diag)
	if err != nil {
		return nil, err
	}
	n.mappers[fallback] = m
	return m, nil
}

func (n *Normalizer) drop(rec *domain.RawRecord, field string) {
	n.stats.Dropped++
	err := &domain.FieldError{Field: field, Message: "required"}
	n.diag.Add(domain.DiagMissingField, rec.Word, fmt.Errorf("%w: %w", domain.ErrMissingField, err).Error())
	n.log.Debug("record dropped", slog.String("word", rec.Word), slog.String("field", field))
}

func (n *Normalizer) conflict(key domain.EntryKey, written, kept, rejected string) {
	n.stats.Conflicts++
	msg := fmt.Sprintf("%v: reading %q kept over %q for %q", domain.ErrMergeConflict, kept, rejected, written)
	n.diag.Add(domain.DiagMergeConflict, key.String(), msg)
	n.log.Warn("reading conflict",
		slog.String("entry", key.String()),
		slog.String("form", written),
		slog.String("kept", kept),
		slog.String("rejected", rejected),
	)
}

func (n *Normalizer) adapterFailed(key domain.EntryKey, op string, err error) {
	n.diag.Add(domain.DiagAdapterFailure, key.String(), op+": "+err.Error())
	n.log.Debug("adapter failed", slog.String("entry", key.String()), slog.String("op", op), slog.String("error", err.Error()))
}

// Finalize turns every builder into a CanonicalEntry, in first-seen order,
// and drops the accumulator.
func (n *Normalizer) Finalize(ctx context.Context) ([]domain.CanonicalEntry, error) {
	var builders []*Builder
	if err := n.acc.Range(ctx, func(b *Builder) error {
		builders = append(builders, b)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("accumulator range: %w", err)
	}
	if err := n.acc.Close(ctx); err != nil {
		return nil, fmt.Errorf("accumulator close: %w", err)
	}

	workers := n.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	entries := make([]domain.CanonicalEntry, len(builders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, b := range builders {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i] = n.finalize(b)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := entries[:0]
	for _, e := range entries {
		if len(e.Groups) == 0 && len(e.Forms) == 0 {
			n.diag.Add(domain.DiagSkippedEntry, e.EntryKey.String(), "no senses or forms")
			continue
		}
		out = append(out, e)
	}

	seq := 1
	for i := range out {
		for j := range out[i].Groups {
			out[i].Groups[j].Sequence = seq
			seq++
			for k := range out[i].Groups[j].Senses {
				out[i].Groups[j].Senses[k].Sequence = k + 1
			}
		}
	}

	n.stats.Entries = len(out)
	return out, nil
}

// finalize only reads shared state, so it may run concurrently.
func (n *Normalizer) finalize(b *Builder) domain.CanonicalEntry {
	lang, _ := n.bank.Language(b.Lang)

	e := domain.CanonicalEntry{
		EntryKey:  b.Key(),
		Reading:   b.Reading,
		Segments:  b.Segments,
		FirstSeen: b.FirstSeen,
	}

	for _, g := range b.Groups {
		if len(g.Senses) == 0 {
			continue
		}
		group := domain.EtymologyGroup{Etymology: g.Etymology}
		for _, s := range g.Senses {
			sense := domain.Sense{
				Glosses:  make([]string, len(s.Glosses)),
				Tags:     n.sorted(s.Tags),
				Examples: s.Examples,
			}
			for i, gloss := range s.Glosses {
				sense.Glosses[i] = terminate(gloss, lang.TerminalPunctuation)
			}
			group.Senses = append(group.Senses, sense)
		}
		e.Groups = append(e.Groups, group)
	}

	for _, f := range b.Forms {
		codes := f.Tags
		if lang.StripIdentityTags {
			codes = tags.StripIdentity(codes)
		}
		e.Forms = append(e.Forms, domain.Form{
			Written: f.Written,
			Reading: f.Reading,
			Tags:    n.sorted(codes),
			Lemma:   f.Lemma,
		})
	}

	for _, p := range b.Pronunciations {
		e.Pronunciations = append(e.Pronunciations, domain.Pronunciation{IPA: p.IPA, Tags: n.sorted(p.Tags)})
	}
	return e
}

func (n *Normalizer) sorted(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	out := make([]string, len(codes))
	copy(out, codes)
	n.bank.Sort(out)
	return out
}

// terminate appends punct to gloss unless it already ends in punctuation.
func terminate(gloss, punct string) string {
	if punct == "" || gloss == "" {
		return gloss
	}
	last, _ := utf8.DecodeLastRuneInString(gloss)
	if unicode.IsPunct(last) {
		return gloss
	}
	return gloss + punct
}

func usableForms(forms []domain.RawForm, term string) []domain.RawForm {
	out := make([]domain.RawForm, 0, len(forms))
	for _, f := range forms {
		f.Form = strings.TrimSpace(f.Form)
		if f.Form == "" || f.Form == term || tags.IsBlacklisted(f.AllTags()) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func examples(raw []domain.RawExample) []domain.Example {
	if len(raw) == 0 {
		return nil
	}
	out := make([]domain.Example, 0, len(raw))
	for _, ex := range raw {
		text := domain.StripMarkup(ex.Text)
		if text == "" {
			continue
		}
		out = append(out, domain.Example{Text: text, Translation: domain.StripMarkup(ex.TranslationText())})
	}
	return out
}
