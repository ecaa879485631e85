// Package builder runs the filter, normalize and serialize stages for one
// or more language pairs. Each stage persists an artifact, so any stage can
// be skipped or run alone against the artifact of a previous run.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daxida/kty/internal/adapter/postgres/spill"
	"github.com/daxida/kty/internal/app"
	"github.com/daxida/kty/internal/archive"
	"github.com/daxida/kty/internal/artifact"
	"github.com/daxida/kty/internal/config"
	"github.com/daxida/kty/internal/dialect"
	"github.com/daxida/kty/internal/domain"
	"github.com/daxida/kty/internal/extract"
	"github.com/daxida/kty/internal/lock"
	"github.com/daxida/kty/internal/metrics"
	"github.com/daxida/kty/internal/normalize"
	"github.com/daxida/kty/internal/report"
	"github.com/daxida/kty/internal/tags"
	"github.com/daxida/kty/internal/yomitan"
	"github.com/daxida/kty/pkg/ctxutil"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageFilter    Stage = "filter"
	StageNormalize Stage = "normalize"
	StageSerialize Stage = "serialize"
)

// allStages defines the canonical execution order.
var allStages = []Stage{StageFilter, StageNormalize, StageSerialize}

// StageResult holds the outcome of a single stage.
type StageResult struct {
	Stage    Stage
	Skipped  bool
	In       int
	Out      int
	Artifact string
	Duration time.Duration
	Err      error
}

// Deps are the collaborators shared by every pair of a run.
type Deps struct {
	Log      *slog.Logger
	Bank     *tags.Bank
	Registry *dialect.Registry
	Metrics  *metrics.Metrics
	// Pool backs the spill accumulator. Nil keeps builders in memory.
	Pool *pgxpool.Pool
	Freq yomitan.FrequencyLookup
}

// Pipeline builds the dictionary of one pair.
type Pipeline struct {
	log   *slog.Logger
	deps  Deps
	cfg   config.RunConfig
	pair  config.Pair
	paths Paths
	diag  *domain.Diagnostics
	kind  yomitan.Kind

	// entries is handed from normalize to serialize when both run in the
	// same process; otherwise serialize reads the normalize artifact.
	entries []domain.CanonicalEntry
	results map[Stage]StageResult
}

// NewPipeline creates a Pipeline for pair.
func NewPipeline(deps Deps, cfg config.RunConfig, pair config.Pair) *Pipeline {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Bank == nil {
		deps.Bank = tags.Default()
	}
	if deps.Registry == nil {
		deps.Registry = dialect.DefaultRegistry()
	}
	return &Pipeline{
		log:     deps.Log.With(slog.String("pair", pair.String())),
		deps:    deps,
		cfg:     cfg,
		pair:    pair,
		paths:   NewPaths(cfg.Root, cfg.DictName, pair),
		diag:    domain.NewDiagnostics(cfg.DiagSamples),
		results: make(map[Stage]StageResult),
	}
}

func (p *Pipeline) Paths() Paths { return p.paths }

func (p *Pipeline) Diagnostics() *domain.Diagnostics { return p.diag }

// Results returns stage results after Run completes.
func (p *Pipeline) Results() map[Stage]StageResult {
	return maps.Clone(p.results)
}

// Run executes every stage not disabled by the skip_* settings.
func (p *Pipeline) Run(ctx context.Context) error {
	skip := map[Stage]bool{
		StageFilter:    p.cfg.SkipFilter,
		StageNormalize: p.cfg.SkipTidy,
		StageSerialize: p.cfg.SkipYomitan,
	}
	var stages []Stage
	for _, st := range allStages {
		if skip[st] {
			p.results[st] = StageResult{Stage: st, Skipped: true}
			p.log.Info("skipping stage", slog.String("stage", string(st)))
			continue
		}
		stages = append(stages, st)
	}
	return p.RunStages(ctx, stages...)
}

// RunStages executes the given stages in canonical order while holding
// the pair's lock. Configuration is checked before the lock is taken.
func (p *Pipeline) RunStages(ctx context.Context, stages ...Stage) error {
	if err := p.check(); err != nil {
		return fmt.Errorf("%s: %w", p.pair, err)
	}

	lk, err := lock.Acquire(ctx, p.paths.Temp(), p.cfg.LockTimeout)
	if err != nil {
		return fmt.Errorf("%s: %w", p.pair, err)
	}
	ctx = ctxutil.WithRunID(ctx, lk.Owner())
	defer func() {
		if err := lk.Release(); err != nil {
			p.log.Warn("release lock", slog.String("error", err.Error()))
		}
	}()
	defer p.finish()

	want := make(map[Stage]bool, len(stages))
	for _, st := range stages {
		want[st] = true
	}
	for _, st := range allStages {
		if !want[st] {
			continue
		}
		if err := p.runStage(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) check() error {
	if _, err := p.deps.Bank.Language(p.pair.Source); err != nil {
		return err
	}
	kind, err := yomitan.ParseKind(p.cfg.Kind)
	if err != nil {
		return err
	}
	p.kind = kind
	return nil
}

func (p *Pipeline) runStage(ctx context.Context, stage Stage) error {
	ctx = ctxutil.WithStage(ctx, string(stage))
	start := time.Now()
	p.log.InfoContext(ctx, "starting stage", slog.String("stage", string(stage)))

	var (
		result StageResult
		err    error
	)
	switch stage {
	case StageFilter:
		result, err = p.filter(ctx)
	case StageNormalize:
		result, err = p.normalize(ctx)
	case StageSerialize:
		result, err = p.serialize(ctx)
	default:
		err = fmt.Errorf("unknown stage %q", stage)
	}
	result.Stage = stage
	result.Duration = time.Since(start)
	result.Err = err
	p.results[stage] = result
	p.deps.Metrics.ObserveStage(p.pair.String(), string(stage), result.Duration)

	if err != nil {
		p.log.Error("stage failed",
			slog.String("stage", string(stage)),
			slog.String("error", err.Error()),
			slog.Duration("duration", result.Duration),
		)
		return fmt.Errorf("%s %s: %w", p.pair, stage, err)
	}
	p.log.Info("stage completed",
		slog.String("stage", string(stage)),
		slog.Int("in", result.In),
		slog.Int("out", result.Out),
		slog.String("artifact", result.Artifact),
		slog.Duration("duration", result.Duration),
	)
	return nil
}

func (p *Pipeline) filter(ctx context.Context) (StageResult, error) {
	inputs, err := extract.ResolveInputs([]string{p.paths.Input(p.cfg.Input)})
	if err != nil {
		return StageResult{}, err
	}
	src, err := extract.Open(inputs)
	if err != nil {
		return StageResult{}, err
	}
	defer src.Close()

	stream := extract.NewStream(src, extract.Options{
		Lang:      p.pair.Source,
		Include:   p.cfg.Include,
		Exclude:   p.cfg.Exclude,
		Cap:       p.cfg.Cap,
		Tolerance: p.cfg.Tolerance,
		MinSample: p.cfg.MinSample,
	}, p.diag)

	w, err := artifact.Create(p.paths.Filtered())
	if err != nil {
		return StageResult{}, err
	}
	defer w.Abort()

	for stream.Next() {
		if err := ctx.Err(); err != nil {
			return StageResult{}, err
		}
		if err := w.WriteLine(stream.Line()); err != nil {
			return StageResult{}, err
		}
	}
	stats := stream.Stats()
	p.deps.Metrics.ObserveFilter(p.pair.String(), stats)
	if err := stream.Err(); err != nil {
		return StageResult{}, err
	}
	if err := w.Commit(); err != nil {
		return StageResult{}, err
	}

	p.log.Info("filter summary",
		slog.Int("inputs", len(inputs)),
		slog.Int("lines", stats.Lines),
		slog.Int("malformed", stats.Malformed),
		slog.Int("evaluated", stats.Evaluated),
		slog.Int("retained", stats.Retained),
	)
	return StageResult{In: stats.Evaluated, Out: w.Count(), Artifact: w.Path()}, nil
}

func (p *Pipeline) normalize(ctx context.Context) (StageResult, error) {
	f, err := artifact.Open(p.paths.Filtered())
	if err != nil {
		return StageResult{}, err
	}
	defer f.Close()

	acc, err := p.accumulator(ctx)
	if err != nil {
		return StageResult{}, err
	}
	n, err := normalize.New(p.log, p.deps.Bank, p.deps.Registry, acc, p.diag, p.pair.Source, normalize.Options{
		Workers: p.cfg.Workers,
		TagMemo: p.cfg.TagMemo,
	})
	if err != nil {
		return StageResult{}, err
	}

	entries, err := n.Run(ctx, extract.NewStream(f, extract.NoFilter(), p.diag))
	if err != nil {
		if cerr := acc.Close(context.WithoutCancel(ctx)); cerr != nil {
			p.log.Warn("discard accumulator", slog.String("error", cerr.Error()))
		}
		return StageResult{}, err
	}
	stats := n.Stats()
	p.deps.Metrics.ObserveNormalize(p.pair.String(), stats)

	if err := artifact.WriteEntries(p.paths.Entries(), entries); err != nil {
		return StageResult{}, err
	}
	p.entries = entries

	p.log.Info("normalize summary",
		slog.Int("records", stats.Records),
		slog.Int("dropped", stats.Dropped),
		slog.Int("conflicts", stats.Conflicts),
		slog.Int("entries", len(entries)),
	)
	return StageResult{In: stats.Records, Out: len(entries), Artifact: p.paths.Entries()}, nil
}

// accumulator scopes spilled builders to the run holding the pair's lock.
func (p *Pipeline) accumulator(ctx context.Context) (normalize.Accumulator, error) {
	if p.deps.Pool == nil {
		return normalize.NewMemoryAccumulator(), nil
	}
	run, ok := ctxutil.RunIDFromCtx(ctx)
	if !ok {
		run = uuid.New()
	}
	store := spill.New(p.deps.Pool, run)
	p.log.DebugContext(ctx, "spilling builders to postgres",
		slog.String("run", store.Run().String()),
		slog.String("stage", ctxutil.StageFromCtx(ctx)),
		slog.Int("cache", p.cfg.SpillCache),
	)
	return normalize.NewCachedAccumulator(store, p.cfg.SpillCache)
}

func (p *Pipeline) serialize(ctx context.Context) (StageResult, error) {
	if err := ctx.Err(); err != nil {
		return StageResult{}, err
	}

	entries := p.entries
	if entries == nil {
		var err error
		if entries, err = artifact.ReadEntries(p.paths.Entries()); err != nil {
			return StageResult{}, err
		}
	}

	s := yomitan.NewSerializer(p.log, p.deps.Bank, p.diag, p.deps.Freq)
	tables, err := s.Serialize(entries, p.metadata())
	if err != nil {
		return StageResult{}, err
	}
	docs, err := tables.Documents(yomitan.DocumentOptions{
		BankSize: p.cfg.BankSize,
		Pretty:   p.cfg.Pretty,
	})
	if err != nil {
		return StageResult{}, err
	}

	out := p.paths.Archive(p.kind)
	if p.cfg.SaveTemps {
		out = p.paths.TempDict()
		err = archive.WriteDir(out, docs)
	} else {
		err = archive.WriteZip(out, docs)
	}
	if err != nil {
		return StageResult{}, err
	}
	p.deps.Metrics.ObserveSerialize(p.pair.String(), len(tables.Terms), len(tables.Tags))

	return StageResult{In: len(entries), Out: len(tables.Terms), Artifact: out}, nil
}

func (p *Pipeline) metadata() yomitan.Metadata {
	revision := p.cfg.Revision
	if revision == "" {
		revision = app.Version
	}
	title := fmt.Sprintf("%s-%s", p.cfg.DictName, p.pair)
	if p.kind != yomitan.KindGlossary {
		title += "-" + string(p.kind)
	}
	return yomitan.Metadata{
		Title:       title,
		Revision:    revision,
		Author:      p.cfg.Author,
		URL:         p.cfg.URL,
		Description: fmt.Sprintf("%s dictionary, %s to %s", p.kind, p.pair.Source, p.pair.Target),
		Source:      p.pair.Source,
		Target:      p.pair.Target,
		Kind:        p.kind,
		Formatted:   !p.cfg.Plain,
	}
}

// finish writes the diagnostics report of whatever ran.
func (p *Pipeline) finish() {
	p.deps.Metrics.ObserveDiagnostics(p.pair.String(), p.diag)
	if p.diag.Total() == 0 {
		return
	}
	name, err := report.Save(p.paths.Diagnostics(), p.pair.String(), p.diag)
	if err != nil {
		p.log.Warn("save diagnostics", slog.String("error", err.Error()))
		return
	}
	attrs := []any{slog.String("report", filepath.Join(p.paths.Diagnostics(), name)), slog.Int("total", p.diag.Total())}
	for _, kind := range p.diag.Kinds() {
		attrs = append(attrs, slog.Int(string(kind), p.diag.Count(kind)))
	}
	p.log.Info("diagnostics", attrs...)
}
