package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/daxida/kty/internal/app"
	"github.com/daxida/kty/internal/app/builder"
	"github.com/daxida/kty/internal/config"
	"github.com/daxida/kty/internal/release"
	"github.com/daxida/kty/internal/yomitan"
)

func newBuildCmd(opts *rootOptions) *cobra.Command {
	var (
		skipFilter, skipTidy, skipYomitan bool
		publish                           bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run every stage for each configured pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer s.close()

			run := s.cfg.Run
			if cmd.Flags().Changed("skip-filter") {
				run.SkipFilter = skipFilter
			}
			if cmd.Flags().Changed("skip-tidy") {
				run.SkipTidy = skipTidy
			}
			if cmd.Flags().Changed("skip-yomitan") {
				run.SkipYomitan = skipYomitan
			}

			outcomes, err := builder.RunPairs(cmd.Context(), s.deps, run)
			printOutcomes(cmd, outcomes)
			if err != nil {
				return err
			}
			if !publish {
				return nil
			}

			var files []pairFile
			for _, o := range outcomes {
				if path := o.Archive(); path != "" {
					files = append(files, pairFile{pair: o.Pair, path: path})
				}
			}
			return publishFiles(cmd, s, files)
		},
	}

	cmd.Flags().BoolVar(&skipFilter, "skip-filter", false, "reuse the filtered extract of a previous run")
	cmd.Flags().BoolVar(&skipTidy, "skip-tidy", false, "reuse the normalized entries of a previous run")
	cmd.Flags().BoolVar(&skipYomitan, "skip-yomitan", false, "stop before writing the archive")
	cmd.Flags().BoolVar(&publish, "publish", false, "upload archives to the release bucket")
	return cmd
}

func newStageCmd(opts *rootOptions, stage builder.Stage, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(stage),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer s.close()

			outcomes, err := builder.RunPairs(cmd.Context(), s.deps, s.cfg.Run, stage)
			printOutcomes(cmd, outcomes)
			return err
		},
	}
}

func newPublishCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Upload previously built archives to the release bucket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer s.close()

			kind, err := yomitan.ParseKind(s.cfg.Run.Kind)
			if err != nil {
				return err
			}
			var files []pairFile
			for _, pair := range s.cfg.Run.Pairs {
				path := builder.NewPaths(s.cfg.Run.Root, s.cfg.Run.DictName, pair).Archive(kind)
				if _, err := os.Stat(path); err != nil {
					return fmt.Errorf("%s: no archive to publish: %w", pair, err)
				}
				files = append(files, pairFile{pair: pair, path: path})
			}
			return publishFiles(cmd, s, files)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kty %s\n", app.BuildVersion())
		},
	}
}

type pairFile struct {
	pair config.Pair
	path string
}

func publishFiles(cmd *cobra.Command, s *session, files []pairFile) error {
	pub, err := release.New(s.log, s.cfg.Release)
	if err != nil {
		return err
	}
	var errs []error
	for _, f := range files {
		key, err := pub.Publish(cmd.Context(), f.pair, f.path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.pair, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\tpublished\t%s\n", f.pair, key)
	}
	return errors.Join(errs...)
}

// printOutcomes writes one line per pair to stdout: the archive or the
// failure, and the diagnostic total.
func printOutcomes(cmd *cobra.Command, outcomes []builder.Outcome) {
	out := cmd.OutOrStdout()
	for _, o := range outcomes {
		diags := 0
		if o.Diagnostics != nil {
			diags = o.Diagnostics.Total()
		}
		switch {
		case o.Err != nil:
			fmt.Fprintf(out, "%s\tfailed\t%v\n", o.Pair, o.Err)
		case o.Archive() != "":
			fmt.Fprintf(out, "%s\tok\t%s\tdiagnostics=%d\n", o.Pair, o.Archive(), diags)
		default:
			fmt.Fprintf(out, "%s\tok\tdiagnostics=%d\n", o.Pair, diags)
		}
	}
	slog.Debug("pairs finished", slog.Int("count", len(outcomes)))
}
