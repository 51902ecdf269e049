package verification

import (
	"context"
	"errors"
	"fmt"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/engine"
	"proof-of-portfolio/internal/field"
	"proof-of-portfolio/internal/logger"
	"proof-of-portfolio/internal/merkle"
	"proof-of-portfolio/internal/metrics"
	"proof-of-portfolio/internal/observability"
	"proof-of-portfolio/internal/storage"
)

var (
	// ErrEvaluationNotFound is returned when evaluation ID doesn't exist.
	ErrEvaluationNotFound = errors.New("evaluation not found")

	// ErrCommitmentNotFound is returned when a stored evaluation references a
	// missing commitment.
	ErrCommitmentNotFound = errors.New("commitment not found")
)

// PortfolioSource provides the inputs an evaluation was computed from.
type PortfolioSource interface {
	Portfolio(minerHotkey string) (domain.Portfolio, error)
}

// ReplayVerifier implements Verifier by replaying evaluations through the engine.
type ReplayVerifier struct {
	evaluator        *engine.Evaluator
	portfolios       PortfolioSource
	evaluationStore  storage.EvaluationStore
	commitmentStore  storage.CommitmentStore
	dailyReturnStore storage.DailyReturnStore // optional

	log     *logger.Logger
	metrics *observability.Metrics
}

// ReplayVerifierOptions contains configuration for creating a ReplayVerifier.
type ReplayVerifierOptions struct {
	Evaluator        *engine.Evaluator
	Portfolios       PortfolioSource
	EvaluationStore  storage.EvaluationStore
	CommitmentStore  storage.CommitmentStore
	DailyReturnStore storage.DailyReturnStore
	Logger           *logger.Logger
	Metrics          *observability.Metrics
}

// NewReplayVerifier creates a new ReplayVerifier.
func NewReplayVerifier(opts ReplayVerifierOptions) *ReplayVerifier {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &ReplayVerifier{
		evaluator:        opts.Evaluator,
		portfolios:       opts.Portfolios,
		evaluationStore:  opts.EvaluationStore,
		commitmentStore:  opts.CommitmentStore,
		dailyReturnStore: opts.DailyReturnStore,
		log:              log.WithField("component", "verifier"),
		metrics:          opts.Metrics,
	}
}

// VerifyEvaluation verifies a single evaluation by replaying it.
func (v *ReplayVerifier) VerifyEvaluation(ctx context.Context, evaluationID string) (*VerificationResult, error) {
	// 1. Load stored evaluation
	stored, err := v.evaluationStore.GetByID(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrEvaluationNotFound
		}
		return nil, err
	}

	// 2. Replay from the portfolio with the stored flags
	p, err := v.portfolios.Portfolio(stored.MinerHotkey)
	if err != nil {
		return nil, fmt.Errorf("load portfolio %s: %w", stored.MinerHotkey, err)
	}
	replayed, err := v.evaluator.Replay(ctx, p, metrics.ScoreOptions{
		BypassConfidence: stored.BypassConfidence,
		Weighted:         stored.Weighted,
	})
	if err != nil {
		return nil, err
	}

	result := &VerificationResult{
		EvaluationID:  evaluationID,
		MinerHotkey:   stored.MinerHotkey,
		StoredScore:   stored.Bundle.Score,
		ReplayedScore: replayed.Bundle.Score,
	}

	// 3. Compare records
	result.Divergences = CompareEvaluationRecords(stored, &replayed.Evaluation)

	// 4. Compare the persisted daily return series of the run
	if v.dailyReturnStore != nil && stored.RunID != "" {
		series, err := v.dailyReturnStore.GetByRun(ctx, stored.MinerHotkey, stored.RunID)
		if err != nil {
			return nil, err
		}
		if len(series) > 0 {
			result.Divergences = append(result.Divergences, CompareDailyReturns(series, replayed.Reduction.Returns)...)
		}
	}

	// 5. Compare the commitment and verify its paths
	if stored.CommitmentID != "" && v.commitmentStore != nil {
		divs, err := v.verifyCommitment(ctx, stored.CommitmentID, replayed, result)
		if err != nil {
			return nil, err
		}
		result.Divergences = append(result.Divergences, divs...)
	}

	result.Match = len(result.Divergences) == 0
	v.metrics.RecordVerification(result.Match)

	log := v.log.WithFields(map[string]interface{}{
		"evaluation_id": evaluationID,
		"miner_hotkey":  stored.MinerHotkey,
		"paths_checked": result.PathsChecked,
	})
	if result.Match {
		log.Info("evaluation verified")
	} else {
		log.Warnf("evaluation diverged in %d fields", len(result.Divergences))
	}
	return result, nil
}

func (v *ReplayVerifier) verifyCommitment(ctx context.Context, commitmentID string, replayed *engine.Result, result *VerificationResult) ([]FieldDivergence, error) {
	storedCommit, err := v.commitmentStore.GetByID(ctx, commitmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCommitmentNotFound, commitmentID)
		}
		return nil, err
	}
	if replayed.CommitmentRecord == nil {
		return []FieldDivergence{{Field: "Commitment", Expected: storedCommit.Root, Actual: nil}}, nil
	}

	divs := CompareCommitmentRecords(storedCommit, replayed.CommitmentRecord)

	h, err := merkle.NewHasher(storedCommit.HashFunc)
	if err != nil {
		return append(divs, FieldDivergence{Field: "HashFunc", Expected: storedCommit.HashFunc, Actual: err.Error()}), nil
	}
	c := replayed.Commitment
	leaves := make([]field.Element, c.Capacity())
	for i := range leaves {
		leaves[i] = c.Leaf(i)
	}
	checked, pathDivs := VerifyPaths(storedCommit, leaves, h)
	result.PathsChecked = checked
	result.PathsFailed = len(pathDivs)
	return append(divs, pathDivs...), nil
}

// VerifyMiner verifies all stored evaluations of a miner.
func (v *ReplayVerifier) VerifyMiner(ctx context.Context, minerHotkey string) (*VerificationReport, error) {
	evaluations, err := v.evaluationStore.GetByMiner(ctx, minerHotkey)
	if err != nil {
		return nil, err
	}

	report := &VerificationReport{
		TotalEvaluations: len(evaluations),
		Results:          make([]VerificationResult, 0, len(evaluations)),
	}

	for _, ev := range evaluations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := v.VerifyEvaluation(ctx, ev.EvaluationID)
		if err != nil {
			// Record error as divergence
			report.Results = append(report.Results, VerificationResult{
				EvaluationID: ev.EvaluationID,
				MinerHotkey:  ev.MinerHotkey,
				StoredScore:  ev.Bundle.Score,
				Divergences: []FieldDivergence{
					{Field: "Error", Expected: nil, Actual: err.Error()},
				},
			})
			report.DivergentEvaluations++
			v.metrics.RecordVerification(false)
			continue
		}

		report.Results = append(report.Results, *result)
		if result.Match {
			report.MatchedEvaluations++
		} else {
			report.DivergentEvaluations++
		}
	}

	return report, nil
}
