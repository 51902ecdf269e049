package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/engine"
	"proof-of-portfolio/internal/storage"
)

// ErrNoEvaluations is recorded for miners without stored evaluations.
var ErrNoEvaluations = errors.New("no evaluations")

// Generator produces reports from engine results or stored evaluations.
type Generator struct {
	evaluationStore storage.EvaluationStore
	commitmentStore storage.CommitmentStore
	now             func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. The stores are only needed by
// Generate.
func NewGenerator(evaluationStore storage.EvaluationStore, commitmentStore storage.CommitmentStore) *Generator {
	return &Generator{
		evaluationStore: evaluationStore,
		commitmentStore: commitmentStore,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// FromBatch builds a report of one batch run.
func (g *Generator) FromBatch(b *engine.BatchResult) *Report {
	return g.FromResults(b.RunID, b.Results, b.Errors)
}

// FromResults builds a report from evaluation results. Nil results are skipped.
func (g *Generator) FromResults(runID string, results []*engine.Result, failures map[string]error) *Report {
	r := &Report{GeneratedAt: g.now(), RunID: runID}

	for _, res := range results {
		if res == nil {
			continue
		}
		if r.ConfigFingerprint == "" {
			r.ConfigFingerprint = res.Evaluation.ConfigFingerprint
		}
		r.Miners = append(r.Miners, minerRow(&res.Evaluation))

		for _, pp := range res.Penalty.Positions {
			r.Penalties = append(r.Penalties, PenaltyRow{
				MinerHotkey:   res.MinerHotkey,
				PositionUUID:  pp.PositionUUID,
				TradePair:     pp.TradePair,
				EntryLeverage: pp.EntryLeverage,
				MaxLeverage:   pp.MaxLeverage,
				Penalty:       pp.Penalty,
				Reasons:       pp.Reasons,
			})
		}

		if res.CommitmentRecord != nil {
			r.Commitments = append(r.Commitments, commitmentRow(res.CommitmentRecord))
		} else if res.NoSignals {
			r.Summary.NoSignals++
		}
	}

	for hotkey, err := range failures {
		r.Failures = append(r.Failures, FailureRow{MinerHotkey: hotkey, Error: err.Error()})
	}

	finalize(r)
	return r
}

// Generate builds a report from the latest stored evaluation of each miner.
// Penalty detail is not persisted, so the penalty table stays empty.
func (g *Generator) Generate(ctx context.Context, minerHotkeys []string) (*Report, error) {
	r := &Report{GeneratedAt: g.now()}
	runIDs := make(map[string]struct{})

	for _, hotkey := range minerHotkeys {
		evals, err := g.evaluationStore.GetByMiner(ctx, hotkey)
		if err != nil {
			return nil, err
		}
		if len(evals) == 0 {
			r.Failures = append(r.Failures, FailureRow{MinerHotkey: hotkey, Error: ErrNoEvaluations.Error()})
			continue
		}
		latest := evals[len(evals)-1]
		runIDs[latest.RunID] = struct{}{}
		if r.ConfigFingerprint == "" {
			r.ConfigFingerprint = latest.ConfigFingerprint
		}
		r.Miners = append(r.Miners, minerRow(latest))

		if latest.CommitmentID == "" {
			r.Summary.NoSignals++
			continue
		}
		c, err := g.commitmentStore.GetByID(ctx, latest.CommitmentID)
		if err != nil {
			return nil, fmt.Errorf("load commitment %s: %w", latest.CommitmentID, err)
		}
		r.Commitments = append(r.Commitments, commitmentRow(c))
	}

	// a single shared run id is reported
	if len(runIDs) == 1 {
		for id := range runIDs {
			r.RunID = id
		}
	}

	finalize(r)
	return r, nil
}

func minerRow(e *domain.EvaluationRecord) MinerRow {
	b := e.Bundle
	return MinerRow{
		MinerHotkey:           e.MinerHotkey,
		EvaluationID:          e.EvaluationID,
		SampleSize:            b.SampleSize,
		Calmar:                b.Calmar,
		Sharpe:                b.Sharpe,
		SharpeConfident:       b.SharpeConfident,
		Omega:                 b.Omega,
		Sortino:               b.Sortino,
		StatisticalConfidence: b.StatisticalConfidence,
		MaxDrawdown:           b.MaxDrawdown,
		RiskProfilePenalty:    b.RiskProfilePenalty,
		Score:                 b.Score,
		DrawdownGated:         b.DrawdownGated,
		TruncatedCheckpoints:  e.TruncatedCheckpoints,
	}
}

func commitmentRow(c *domain.CommitmentRecord) CommitmentRow {
	return CommitmentRow{
		MinerHotkey:    c.MinerHotkey,
		CommitmentID:   c.CommitmentID,
		Root:           c.Root,
		HashFunc:       c.HashFunc,
		ActualLen:      c.ActualLen,
		Capacity:       c.Capacity,
		TruncatedPairs: c.TruncatedPairs,
	}
}

// finalize sorts every table and fills the summary counts.
func finalize(r *Report) {
	sort.Slice(r.Miners, func(i, j int) bool {
		if r.Miners[i].Score != r.Miners[j].Score {
			return r.Miners[i].Score > r.Miners[j].Score
		}
		return r.Miners[i].MinerHotkey < r.Miners[j].MinerHotkey
	})
	sort.Slice(r.Penalties, func(i, j int) bool {
		if r.Penalties[i].MinerHotkey != r.Penalties[j].MinerHotkey {
			return r.Penalties[i].MinerHotkey < r.Penalties[j].MinerHotkey
		}
		return r.Penalties[i].PositionUUID < r.Penalties[j].PositionUUID
	})
	sort.Slice(r.Commitments, func(i, j int) bool {
		return r.Commitments[i].MinerHotkey < r.Commitments[j].MinerHotkey
	})
	sort.Slice(r.Failures, func(i, j int) bool {
		return r.Failures[i].MinerHotkey < r.Failures[j].MinerHotkey
	})

	s := &r.Summary
	s.TotalMiners = len(r.Miners) + len(r.Failures)
	s.Failed = len(r.Failures)
	var sum float64
	for i, m := range r.Miners {
		sum += m.Score
		if i == 0 || m.Score > s.MaxScore {
			s.MaxScore = m.Score
		}
		if m.Score > 0 {
			s.ScoredMiners++
		}
		if m.DrawdownGated {
			s.DrawdownGated++
		}
		if !m.SharpeConfident {
			s.SharpeUnconfident++
		}
	}
	if len(r.Miners) > 0 {
		s.MeanScore = sum / float64(len(r.Miners))
	}
}
