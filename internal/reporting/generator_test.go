package reporting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/engine"
	"proof-of-portfolio/internal/metrics"
	"proof-of-portfolio/internal/storage/memory"
)

var fixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func evaluation(miner string, score float64, commitmentID string) domain.EvaluationRecord {
	return domain.EvaluationRecord{
		EvaluationID:      "eval-" + miner,
		RunID:             "run-1",
		MinerHotkey:       miner,
		ConfigFingerprint: "fp",
		CommitmentID:      commitmentID,
		Bundle: domain.ScoreBundle{
			Calmar:          score * 2,
			Sharpe:          score,
			SharpeConfident: true,
			MaxDrawdown:     0.02,
			Score:           score,
			SampleSize:      70,
		},
	}
}

func commitment(miner string) *domain.CommitmentRecord {
	return &domain.CommitmentRecord{
		CommitmentID: "commit-" + miner,
		MinerHotkey:  miner,
		Root:         "12345",
		ActualLen:    4,
		Capacity:     256,
		Depth:        8,
		HashFunc:     "mimc",
	}
}

func setupResults() []*engine.Result {
	a := &engine.Result{
		MinerHotkey:      "miner-a",
		Evaluation:       evaluation("miner-a", 0.5, "commit-miner-a"),
		CommitmentRecord: commitment("miner-a"),
		Penalty: metrics.PenaltyBreakdown{
			Total: 0.1,
			Positions: []metrics.PositionPenalty{{
				PositionUUID:  "p-1",
				TradePair:     "BTCUSD",
				EntryLeverage: 0.1,
				MaxLeverage:   0.3,
				Penalty:       0.1,
				Reasons:       []string{metrics.ReasonOverLeverage, metrics.ReasonLeverageJump},
			}},
		},
	}
	b := &engine.Result{
		MinerHotkey: "miner-b",
		Evaluation:  evaluation("miner-b", 1.5, ""),
		NoSignals:   true,
	}
	gated := evaluation("miner-c", 0, "")
	gated.Bundle.DrawdownGated = true
	gated.Bundle.SharpeConfident = false
	c := &engine.Result{MinerHotkey: "miner-c", Evaluation: gated, NoSignals: true}

	return []*engine.Result{a, nil, b, c}
}

func TestFromResults(t *testing.T) {
	g := NewGenerator(nil, nil).WithClock(func() time.Time { return fixedTime })
	r := g.FromResults("run-1", setupResults(), map[string]error{"miner-d": errors.New("malformed order")})

	if !r.GeneratedAt.Equal(fixedTime) {
		t.Errorf("GeneratedAt = %v, want %v", r.GeneratedAt, fixedTime)
	}
	if r.ConfigFingerprint != "fp" {
		t.Errorf("ConfigFingerprint = %q, want fp", r.ConfigFingerprint)
	}

	// sorted by score desc
	wantOrder := []string{"miner-b", "miner-a", "miner-c"}
	if len(r.Miners) != len(wantOrder) {
		t.Fatalf("Expected %d miners, got %d", len(wantOrder), len(r.Miners))
	}
	for i, want := range wantOrder {
		if r.Miners[i].MinerHotkey != want {
			t.Errorf("Miners[%d] = %s, want %s", i, r.Miners[i].MinerHotkey, want)
		}
	}

	s := r.Summary
	if s.TotalMiners != 4 || s.Failed != 1 {
		t.Errorf("TotalMiners/Failed = %d/%d, want 4/1", s.TotalMiners, s.Failed)
	}
	if s.ScoredMiners != 2 {
		t.Errorf("ScoredMiners = %d, want 2", s.ScoredMiners)
	}
	if s.DrawdownGated != 1 || s.SharpeUnconfident != 1 {
		t.Errorf("DrawdownGated/SharpeUnconfident = %d/%d, want 1/1", s.DrawdownGated, s.SharpeUnconfident)
	}
	if s.NoSignals != 2 {
		t.Errorf("NoSignals = %d, want 2", s.NoSignals)
	}
	if s.MaxScore != 1.5 {
		t.Errorf("MaxScore = %v, want 1.5", s.MaxScore)
	}
	if s.MeanScore < 0.666 || s.MeanScore > 0.667 {
		t.Errorf("MeanScore = %v, want 2/3", s.MeanScore)
	}

	if len(r.Penalties) != 1 || r.Penalties[0].MinerHotkey != "miner-a" {
		t.Errorf("Expected one penalty row for miner-a, got %+v", r.Penalties)
	}
	if len(r.Commitments) != 1 || r.Commitments[0].Root != "12345" {
		t.Errorf("Expected one commitment row, got %+v", r.Commitments)
	}
	if len(r.Failures) != 1 || r.Failures[0].MinerHotkey != "miner-d" {
		t.Errorf("Expected failure for miner-d, got %+v", r.Failures)
	}
}

func TestFromBatch(t *testing.T) {
	g := NewGenerator(nil, nil).WithClock(func() time.Time { return fixedTime })
	r := g.FromBatch(&engine.BatchResult{RunID: "run-9", Results: setupResults()})

	if r.RunID != "run-9" {
		t.Errorf("RunID = %s, want run-9", r.RunID)
	}
	if r.Summary.TotalMiners != 3 {
		t.Errorf("TotalMiners = %d, want 3", r.Summary.TotalMiners)
	}
}

func TestGenerate_FromStores(t *testing.T) {
	ctx := context.Background()
	evalStore := memory.NewEvaluationStore()
	commitStore := memory.NewCommitmentStore()

	if err := commitStore.Insert(ctx, commitment("miner-a")); err != nil {
		t.Fatalf("Insert commitment failed: %v", err)
	}
	for _, e := range []domain.EvaluationRecord{
		evaluation("miner-a", 0.5, "commit-miner-a"),
		evaluation("miner-b", 0.7, ""),
	} {
		e := e
		if err := evalStore.Insert(ctx, &e); err != nil {
			t.Fatalf("Insert evaluation failed: %v", err)
		}
	}

	g := NewGenerator(evalStore, commitStore).WithClock(func() time.Time { return fixedTime })
	r, err := g.Generate(ctx, []string{"miner-a", "miner-b", "miner-x"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if r.RunID != "run-1" {
		t.Errorf("RunID = %q, want run-1", r.RunID)
	}
	if len(r.Miners) != 2 || r.Miners[0].MinerHotkey != "miner-b" {
		t.Errorf("Expected miner-b first, got %+v", r.Miners)
	}
	if len(r.Commitments) != 1 {
		t.Errorf("Expected 1 commitment, got %d", len(r.Commitments))
	}
	if len(r.Failures) != 1 || r.Failures[0].Error != ErrNoEvaluations.Error() {
		t.Errorf("Expected no-evaluations failure for miner-x, got %+v", r.Failures)
	}
	if r.Summary.NoSignals != 1 {
		t.Errorf("NoSignals = %d, want 1", r.Summary.NoSignals)
	}
}

func TestGenerate_MissingCommitment(t *testing.T) {
	ctx := context.Background()
	evalStore := memory.NewEvaluationStore()
	e := evaluation("miner-a", 0.5, "commit-missing")
	if err := evalStore.Insert(ctx, &e); err != nil {
		t.Fatalf("Insert evaluation failed: %v", err)
	}

	g := NewGenerator(evalStore, memory.NewCommitmentStore())
	if _, err := g.Generate(ctx, []string{"miner-a"}); err == nil {
		t.Error("Expected error for missing commitment")
	}
}

func TestRenderMarkdown(t *testing.T) {
	g := NewGenerator(nil, nil).WithClock(func() time.Time { return fixedTime })
	r := g.FromResults("run-1", setupResults(), map[string]error{"miner-d": errors.New("malformed order")})

	md := RenderMarkdown(r)

	for _, want := range []string{
		"# Portfolio Evaluation Report",
		"Generated: 2024-06-01T12:00:00Z",
		"Run: run-1",
		"## Scores",
		"| miner-b | 70 |",
		"GATED LOW_SAMPLE",
		"OVER_LEVERAGE, LEVERAGE_JUMP",
		"| miner-a | 12345 | mimc | 4 | 256 | 0 |",
		"- miner-d: malformed order",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
}

func TestRenderMarkdown_Empty(t *testing.T) {
	md := RenderMarkdown(&Report{GeneratedAt: fixedTime})

	for _, want := range []string{"No evaluations available.", "No penalised positions.", "No signal commitments."} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
	if strings.Contains(md, "## Failures") {
		t.Error("Failures section should be omitted when empty")
	}
}

func TestRenderCSV(t *testing.T) {
	csv := RenderCSV([]MinerRow{{
		MinerHotkey:     "miner-a",
		EvaluationID:    "eval-a",
		SampleSize:      70,
		Sharpe:          1.25,
		SharpeConfident: true,
		Score:           0.5,
	}})

	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "miner_hotkey,evaluation_id,sample_size") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if lines[1] != "miner-a,eval-a,70,0.000000,1.250000,true,0.000000,0.000000,0.000000,0.000000,0.000000,0.500000,false,0" {
		t.Errorf("Unexpected row: %s", lines[1])
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r := NewGenerator(nil, nil).WithClock(func() time.Time { return fixedTime }).FromResults("run-1", setupResults(), nil)

	if err := WriteFiles(dir, r); err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	md, err := os.ReadFile(filepath.Join(dir, MarkdownFile))
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	if string(md) != RenderMarkdown(r) {
		t.Error("markdown file differs from rendered report")
	}
	csv, err := os.ReadFile(filepath.Join(dir, CSVFile))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if strings.Count(string(csv), "\n") != 4 {
		t.Errorf("Expected header and 3 rows, got %q", csv)
	}
}
