package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/metrics"
)

// BatchResult holds the per-miner outcomes of one batch run.
type BatchResult struct {
	RunID   string
	Results []*Result        // input order; nil where the miner failed
	Errors  map[string]error // keyed by miner hotkey
}

// Succeeded returns the number of miners evaluated without error.
func (b *BatchResult) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r != nil {
			n++
		}
	}
	return n
}

// EvaluateBatch evaluates independent portfolios concurrently under one run
// id. A failing miner does not stop the others; only context cancellation
// aborts the batch. parallelism <= 0 uses GOMAXPROCS.
func (e *Evaluator) EvaluateBatch(ctx context.Context, portfolios []domain.Portfolio, opts metrics.ScoreOptions, parallelism int) (*BatchResult, error) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	out := &BatchResult{
		RunID:   NewRunID(e.now()),
		Results: make([]*Result, len(portfolios)),
		Errors:  make(map[string]error),
	}

	seen := make(map[string]struct{}, len(portfolios))
	for _, p := range portfolios {
		if _, dup := seen[p.MinerHotkey]; dup {
			return nil, fmt.Errorf("duplicate miner hotkey %q in batch", p.MinerHotkey)
		}
		seen[p.MinerHotkey] = struct{}{}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, p := range portfolios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.evaluate(gctx, out.RunID, p, opts)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				mu.Lock()
				out.Errors[p.MinerHotkey] = err
				mu.Unlock()
				return nil
			}
			out.Results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.log.WithFields(map[string]interface{}{
		"run_id":    out.RunID,
		"miners":    len(portfolios),
		"succeeded": out.Succeeded(),
		"failed":    len(out.Errors),
	}).Info("batch evaluation complete")

	return out, nil
}
