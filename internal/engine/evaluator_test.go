package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/field"
	"proof-of-portfolio/internal/merkle"
	"proof-of-portfolio/internal/metrics"
	"proof-of-portfolio/internal/observability"
	"proof-of-portfolio/internal/signals"
	"proof-of-portfolio/internal/storage"
	"proof-of-portfolio/internal/storage/memory"
)

const (
	halfDay = int64(43200000)
	day0    = int64(1704067200000) // 2024-01-01T00:00:00Z
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// ledgerFor builds a ledger with two full checkpoints for each day.
func ledgerFor(days int, daily func(i int) float64) domain.PerfLedger {
	l := domain.PerfLedger{TargetCPDurationMs: halfDay}
	for i := 0; i < days; i++ {
		start := day0 + int64(i)*2*halfDay
		r := daily(i)
		gain, loss := r, 0.0
		if r < 0 {
			gain, loss = 0, r
		}
		l.Checkpoints = append(l.Checkpoints,
			domain.Checkpoint{Gain: gain, Loss: loss, LastUpdateMs: start + halfDay, AccumMs: halfDay},
			domain.Checkpoint{LastUpdateMs: start + 2*halfDay, AccumMs: halfDay},
		)
	}
	return l
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func positionsFor(seed int) []domain.Position {
	f := 1.02
	return []domain.Position{{
		PositionUUID:  fmt.Sprintf("00000000-0000-4000-8000-%012x", seed),
		TradePair:     domain.TradePair{"BTCUSD", "BTC/USD", 0.003, 0.001, 0.5},
		CurrentReturn: &f,
		Orders: []domain.Order{
			{
				OrderUUID:   fmt.Sprintf("00000000-0000-4000-8000-%012x", seed),
				ProcessedMs: day0 + 1000,
				OrderType:   domain.OrderTypeLong,
				Leverage:    nd("1.0"),
				Price:       nd("45000"),
			},
			{
				OrderUUID:   fmt.Sprintf("00000000-0000-4000-8000-%012x", seed+1),
				ProcessedMs: day0 + 2000,
				OrderType:   domain.OrderTypeFlat,
				Leverage:    nd("0"),
				Price:       nd("45500"),
			},
		},
	}}
}

func portfolio(miner string, seed int) domain.Portfolio {
	return domain.Portfolio{
		MinerHotkey: miner,
		Ledger: ledgerFor(70, func(i int) float64 {
			return 0.001 + 0.002*math.Sin(float64(i+seed))
		}),
		Positions: positionsFor(seed),
	}
}

type fixture struct {
	eval        *Evaluator
	evaluations *memory.EvaluationStore
	commitments *memory.CommitmentStore
	returns     *memory.DailyReturnStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		evaluations: memory.NewEvaluationStore(),
		commitments: memory.NewCommitmentStore(),
		returns:     memory.NewDailyReturnStore(),
	}
	var err error
	f.eval, err = New(Options{
		Config:           config.Default(),
		EvaluationStore:  f.evaluations,
		CommitmentStore:  f.commitments,
		DailyReturnStore: f.returns,
		Metrics:          observability.NewMetrics("test", prometheus.NewRegistry()),
		Now:              func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return f
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Merkle.Depth = 4
	_, err := New(Options{Config: cfg})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestEvaluate_ScoresAndCommits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := portfolio("miner-a", 0)
	opts := metrics.ScoreOptions{Weighted: true}

	res, err := f.eval.Evaluate(ctx, p, opts)
	require.NoError(t, err)

	returns := res.Returns()
	require.Len(t, returns, 70)
	assert.Equal(t, metrics.ComputeScores(returns, p.Positions, opts, config.Default()), res.Bundle)

	require.False(t, res.NoSignals)
	require.NotNil(t, res.Commitment)
	assert.Equal(t, 2, res.Commitment.ActualLen)
	assert.Equal(t, 256, res.Commitment.Capacity())

	_, direct, err := f.eval.BuildSignalCommitment("miner-a", p.Positions)
	require.NoError(t, err)
	assert.True(t, direct.Root.Equal(res.Commitment.Root))

	// records persisted
	stored, err := f.evaluations.GetByID(ctx, res.Evaluation.EvaluationID)
	require.NoError(t, err)
	assert.Equal(t, res.Bundle, stored.Bundle)
	assert.Equal(t, res.RunID, stored.RunID)
	assert.Equal(t, fixedNow.UnixMilli(), stored.CreatedAt)

	commit, err := f.commitments.GetByID(ctx, stored.CommitmentID)
	require.NoError(t, err)
	assert.Equal(t, res.Commitment.Root.String(), commit.Root)
	assert.Len(t, commit.PathElements, 256)

	series, err := f.returns.GetByRun(ctx, "miner-a", res.RunID)
	require.NoError(t, err)
	assert.Len(t, series, 70)
}

func TestEvaluate_Deterministic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := portfolio("miner-a", 3)

	first, err := f.eval.Evaluate(ctx, p, metrics.ScoreOptions{Weighted: true})
	require.NoError(t, err)
	second, err := f.eval.Evaluate(ctx, p, metrics.ScoreOptions{Weighted: true})
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Evaluation.EvaluationID, second.Evaluation.EvaluationID)
	assert.True(t, first.Commitment.Root.Equal(second.Commitment.Root))
	assert.True(t, first.ReturnsCommitment.Root.Equal(second.ReturnsCommitment.Root))
	assert.Equal(t, first.Bundle, second.Bundle)

	// the duplicate evaluation is not stored twice
	all, err := f.evaluations.GetByMiner(ctx, "miner-a")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// flags change the evaluation id
	bypass, err := f.eval.Evaluate(ctx, p, metrics.ScoreOptions{Weighted: true, BypassConfidence: true})
	require.NoError(t, err)
	assert.NotEqual(t, first.Evaluation.EvaluationID, bypass.Evaluation.EvaluationID)
}

func TestEvaluate_NoSignals(t *testing.T) {
	f := newFixture(t)
	p := portfolio("miner-a", 0)
	p.Positions = nil

	res, err := f.eval.Evaluate(context.Background(), p, metrics.ScoreOptions{Weighted: true})
	require.NoError(t, err)

	assert.True(t, res.NoSignals)
	assert.Nil(t, res.Commitment)
	assert.Nil(t, res.CommitmentRecord)
	assert.Empty(t, res.Evaluation.CommitmentID)
	assert.Zero(t, res.Bundle.RiskProfilePenalty)
}

func TestEvaluate_MalformedOrder(t *testing.T) {
	f := newFixture(t)
	p := portfolio("miner-a", 0)
	p.Positions[0].Orders[1].Price = decimal.NullDecimal{}

	_, err := f.eval.Evaluate(context.Background(), p, metrics.ScoreOptions{})
	assert.ErrorIs(t, err, signals.ErrMalformedOrder)

	_, err = f.evaluations.GetByMiner(context.Background(), "miner-a")
	require.NoError(t, err)
}

func TestEvaluate_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.eval.Evaluate(context.Background(), domain.Portfolio{}, metrics.ScoreOptions{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.eval.Evaluate(ctx, portfolio("miner-a", 0), metrics.ScoreOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluate_WithoutStores(t *testing.T) {
	e, err := New(Options{Config: config.Default(), Hasher: merkle.SHA256{}})
	require.NoError(t, err)

	res, err := e.Evaluate(context.Background(), portfolio("miner-a", 1), metrics.ScoreOptions{Weighted: true})
	require.NoError(t, err)
	assert.Equal(t, "sha256", res.Commitment.HashFunc)
	assert.NotEmpty(t, res.Evaluation.EvaluationID)
}

func TestReplay_DoesNotPersist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := portfolio("miner-a", 2)
	opts := metrics.ScoreOptions{Weighted: true}

	replayed, err := f.eval.Replay(ctx, p, opts)
	require.NoError(t, err)
	assert.Empty(t, replayed.RunID)

	_, err = f.evaluations.GetByID(ctx, replayed.Evaluation.EvaluationID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	evaluated, err := f.eval.Evaluate(ctx, p, opts)
	require.NoError(t, err)
	assert.Equal(t, evaluated.Evaluation.EvaluationID, replayed.Evaluation.EvaluationID)
	assert.Equal(t, evaluated.Bundle, replayed.Bundle)
}

func TestCircuitWitness(t *testing.T) {
	f := newFixture(t)
	p := portfolio("miner-a", 0)

	res, err := f.eval.Evaluate(context.Background(), p, metrics.ScoreOptions{Weighted: true})
	require.NoError(t, err)

	w, err := f.eval.CircuitWitness(p, res)
	require.NoError(t, err)

	assert.Len(t, w.Returns, 70)
	assert.Equal(t, 140, w.Checkpoints.Count)
	assert.True(t, w.SignalsRoot.Equal(res.Commitment.Root))
	assert.True(t, w.ReturnsRoot.Equal(res.ReturnsCommitment.Root))
	assert.True(t, w.Score.Equal(field.FromInt64(res.Fixed.Score)))
	assert.Len(t, w.Signals, 256)
}

func TestEvaluateBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bad := portfolio("miner-c", 2)
	bad.Positions[0].Orders[0].OrderUUID = "not-a-uuid"

	batch, err := f.eval.EvaluateBatch(ctx, []domain.Portfolio{
		portfolio("miner-a", 0),
		portfolio("miner-b", 1),
		bad,
	}, metrics.ScoreOptions{Weighted: true}, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Succeeded())
	require.Contains(t, batch.Errors, "miner-c")
	assert.True(t, errors.Is(batch.Errors["miner-c"], signals.ErrMalformedOrder))
	assert.Nil(t, batch.Results[2])

	for _, r := range batch.Results[:2] {
		assert.Equal(t, batch.RunID, r.RunID)
	}
	assert.Equal(t, "miner-a", batch.Results[0].MinerHotkey)
	assert.Equal(t, "miner-b", batch.Results[1].MinerHotkey)
}

func TestEvaluateBatch_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.eval.EvaluateBatch(context.Background(), []domain.Portfolio{
		portfolio("miner-a", 0),
		portfolio("miner-a", 1),
	}, metrics.ScoreOptions{}, 0)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.eval.EvaluateBatch(ctx, []domain.Portfolio{portfolio("miner-a", 0)}, metrics.ScoreOptions{}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRunID_Sortable(t *testing.T) {
	a := NewRunID(fixedNow)
	b := NewRunID(fixedNow)
	c := NewRunID(fixedNow.Add(time.Second))

	assert.Len(t, a, 26)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}
