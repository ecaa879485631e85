package builder

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/daxida/kty/internal/config"
	"github.com/daxida/kty/internal/domain"
)

// Outcome is what one pair's pipeline produced.
type Outcome struct {
	Pair        config.Pair
	Results     map[Stage]StageResult
	Diagnostics *domain.Diagnostics
	Err         error
}

// Archive is the artifact of the serialize stage, if it ran.
func (o Outcome) Archive() string {
	return o.Results[StageSerialize].Artifact
}

// RunPairs builds every configured pair, at most cfg.Parallel at a time.
// Pairs share no mutable state; a failing pair does not stop the others.
// Outcomes keep the order of cfg.Pairs and the returned error joins every
// pair's failure.
func RunPairs(ctx context.Context, deps Deps, cfg config.RunConfig, stages ...Stage) ([]Outcome, error) {
	if len(cfg.Pairs) == 0 {
		return nil, domain.NewConfigError("run.pairs", "no language pairs configured")
	}

	outcomes := make([]Outcome, len(cfg.Pairs))
	var g errgroup.Group
	g.SetLimit(max(cfg.Parallel, 1))
	for i, pair := range cfg.Pairs {
		g.Go(func() error {
			p := NewPipeline(deps, cfg, pair)
			var err error
			if len(stages) == 0 {
				err = p.Run(ctx)
			} else {
				err = p.RunStages(ctx, stages...)
			}
			outcomes[i] = Outcome{
				Pair:        pair,
				Results:     p.Results(),
				Diagnostics: p.Diagnostics(),
				Err:         err,
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return outcomes, errors.Join(errs...)
}
