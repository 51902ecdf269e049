package scheduler

import (
	"context"
	"sync"

	"proof-of-portfolio/internal/engine"
	"proof-of-portfolio/internal/logger"
	"proof-of-portfolio/internal/metrics"
	"proof-of-portfolio/internal/reporting"
	"proof-of-portfolio/internal/snapshot"
)

// SnapshotEvaluation re-reads a validator snapshot and evaluates every miner
// in it. When ReportDir is set a Markdown and CSV report is written per run.
type SnapshotEvaluation struct {
	Path        string
	Cron        string
	Evaluator   *engine.Evaluator
	Options     metrics.ScoreOptions
	Parallelism int
	Reports     *reporting.Generator
	ReportDir   string
	Logger      *logger.Logger

	mu   sync.Mutex
	last *engine.BatchResult
}

// Name implements Job.
func (j *SnapshotEvaluation) Name() string { return "snapshot-evaluation" }

// Schedule implements Job.
func (j *SnapshotEvaluation) Schedule() string { return j.Cron }

// Run implements Job.
func (j *SnapshotEvaluation) Run(ctx context.Context) error {
	snap, err := snapshot.Load(j.Path)
	if err != nil {
		return err
	}
	portfolios, err := snap.Portfolios()
	if err != nil {
		return err
	}

	batch, err := j.Evaluator.EvaluateBatch(ctx, portfolios, j.Options, j.Parallelism)
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.last = batch
	j.mu.Unlock()

	if j.Logger != nil {
		j.Logger.WithFields(map[string]interface{}{
			"run_id":    batch.RunID,
			"miners":    len(portfolios),
			"succeeded": batch.Succeeded(),
		}).Info("snapshot evaluated")
	}

	if j.ReportDir == "" || j.Reports == nil {
		return nil
	}
	return reporting.WriteFiles(j.ReportDir, j.Reports.FromBatch(batch))
}

// Last returns the most recent batch, or nil before the first run.
func (j *SnapshotEvaluation) Last() *engine.BatchResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}
