package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/daxida/kty/internal/adapter/postgres"
	"github.com/daxida/kty/internal/app"
	"github.com/daxida/kty/internal/app/builder"
	"github.com/daxida/kty/internal/config"
	"github.com/daxida/kty/internal/dialect"
	"github.com/daxida/kty/internal/metrics"
	"github.com/daxida/kty/internal/tags"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	pairs      string
	root       string
	cap        int
	include    string
	exclude    string
	kind       string
	plain      bool
	pretty     bool
	saveTemps  bool
	revision   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "kty",
		Short: "Build Yomitan dictionaries from Wiktionary extracts",
		Long: `kty converts kaikki.org JSONL extracts into Yomitan dictionaries.

A build runs three stages per language pair, each leaving an artifact
under the data root:
- filter: select the records of the source language
- normalize: fold records into canonical entries
- serialize: write the dictionary archive`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "config file path (default $CONFIG_PATH or ./kty.yaml)")
	f.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVarP(&opts.pairs, "pairs", "p", "", "comma-separated source-target pairs, e.g. de-en,el-en")
	f.StringVar(&opts.root, "root", "", "data root directory")
	f.IntVar(&opts.cap, "cap", -1, "stop after evaluating this many records (-1 = unbounded)")
	f.StringVar(&opts.include, "include", "", "comma-separated key=value predicates, any must match")
	f.StringVar(&opts.exclude, "exclude", "", "comma-separated key=value predicates, none may match")
	f.StringVar(&opts.kind, "kind", "", "dictionary kind (glossary, forms)")
	f.BoolVar(&opts.plain, "plain", false, "write plain-text glosses instead of structured content")
	f.BoolVar(&opts.pretty, "pretty", false, "indent JSON documents")
	f.BoolVar(&opts.saveTemps, "save-temps", false, "write documents to temp/dict instead of zipping")
	f.StringVar(&opts.revision, "revision", "", "dictionary revision (default: build version)")

	cmd.AddCommand(
		newBuildCmd(opts),
		newStageCmd(opts, builder.StageFilter, "Select the source-language records of the raw extract"),
		newStageCmd(opts, builder.StageNormalize, "Fold the filtered extract into canonical entries"),
		newStageCmd(opts, builder.StageSerialize, "Write the dictionary archive from stored entries"),
		newPublishCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// applyFlags copies the flags set on cmd over cfg and validates the result.
func (o *rootOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	run := &cfg.Run
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("pairs") {
		run.PairsRaw = o.pairs
	}
	if flags.Changed("root") {
		run.Root = o.root
	}
	if flags.Changed("cap") {
		run.Cap = o.cap
	}
	if flags.Changed("include") {
		run.IncludeRaw = o.include
	}
	if flags.Changed("exclude") {
		run.ExcludeRaw = o.exclude
	}
	if flags.Changed("kind") {
		run.Kind = o.kind
	}
	if flags.Changed("plain") {
		run.Plain = o.plain
	}
	if flags.Changed("pretty") {
		run.Pretty = o.pretty
	}
	if flags.Changed("save-temps") {
		run.SaveTemps = o.saveTemps
	}
	if flags.Changed("revision") {
		run.Revision = o.revision
	}
	return cfg.Validate()
}

// session is the state shared by one command invocation.
type session struct {
	cfg     *config.Config
	log     *slog.Logger
	deps    builder.Deps
	metrics *metrics.Metrics
	closers []func()
}

func (o *rootOptions) open(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, log, err := app.Bootstrap(o.configPath, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if err := o.applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		log = app.NewLogger(cfg.Log, cmd.ErrOrStderr())
	}

	bank := tags.Default()
	if cfg.Run.TagsPath != "" {
		if bank, err = tags.Load(cfg.Run.TagsPath); err != nil {
			return nil, err
		}
	}

	s := &session{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
	}
	s.deps = builder.Deps{
		Log:      log,
		Bank:     bank,
		Registry: dialect.DefaultRegistry(),
		Metrics:  s.metrics,
	}

	if cfg.Database.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to spill database: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		if err := postgres.Migrate(ctx, log, pool); err != nil {
			s.close()
			return nil, err
		}
		s.deps.Pool = pool
	}

	log.Info("starting kty",
		slog.String("version", app.BuildVersion()),
		slog.String("command", cmd.Name()),
		slog.Int("pairs", len(cfg.Run.Pairs)),
		slog.Bool("spill", cfg.Database.Enabled()),
	)
	return s, nil
}

// close writes the metrics textfile and releases connections.
func (s *session) close() {
	if err := s.metrics.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
		s.log.Warn("write metrics", slog.String("error", err.Error()))
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}
