// Package engine wires the reducer, scorer, encoder and commitment builder
// into one evaluation of a miner's portfolio.
// Flow: ledger → daily returns → scores, and orders → signals → commitment
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/field"
	"proof-of-portfolio/internal/idhash"
	"proof-of-portfolio/internal/ledger"
	"proof-of-portfolio/internal/logger"
	"proof-of-portfolio/internal/merkle"
	"proof-of-portfolio/internal/metrics"
	"proof-of-portfolio/internal/observability"
	"proof-of-portfolio/internal/signals"
	"proof-of-portfolio/internal/storage"
)

// Evaluator scores portfolios and commits to their signals.
// It is safe for concurrent use.
type Evaluator struct {
	cfg         config.Engine
	fingerprint string
	hasher      merkle.Hasher
	encoder     *signals.Encoder

	evaluationStore  storage.EvaluationStore
	commitmentStore  storage.CommitmentStore
	dailyReturnStore storage.DailyReturnStore

	log     *logger.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// Options for creating an Evaluator.
type Options struct {
	Config config.Engine
	Hasher merkle.Hasher // defaults to Config.Merkle.Hash

	// Optional stores; results are persisted to those that are set
	EvaluationStore  storage.EvaluationStore
	CommitmentStore  storage.CommitmentStore
	DailyReturnStore storage.DailyReturnStore

	Logger  *logger.Logger
	Metrics *observability.Metrics
	Now     func() time.Time
}

// New creates an Evaluator.
func New(opts Options) (*Evaluator, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}

	h := opts.Hasher
	if h == nil {
		var err error
		if h, err = merkle.NewHasher(opts.Config.Merkle.Hash); err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
	}

	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Evaluator{
		cfg:              opts.Config,
		fingerprint:      opts.Config.Fingerprint(),
		hasher:           h,
		encoder:          signals.NewEncoder(opts.Config.Signals),
		evaluationStore:  opts.EvaluationStore,
		commitmentStore:  opts.CommitmentStore,
		dailyReturnStore: opts.DailyReturnStore,
		log:              log.WithField("component", "engine"),
		metrics:          opts.Metrics,
		now:              now,
	}, nil
}

// Config returns the engine constants.
func (e *Evaluator) Config() config.Engine {
	return e.cfg
}

// Hasher returns the commitment hash function.
func (e *Evaluator) Hasher() merkle.Hasher {
	return e.hasher
}

// ReduceToDailyReturns reduces a ledger's checkpoints into daily returns.
func (e *Evaluator) ReduceToDailyReturns(l domain.PerfLedger) ledger.Reduction {
	return ledger.Reduce(l, e.cfg.Ledger)
}

// ComputeScores evaluates every metric and the composite score.
func (e *Evaluator) ComputeScores(returns []float64, positions []domain.Position, opts metrics.ScoreOptions) domain.ScoreBundle {
	return metrics.ComputeScores(returns, positions, opts, e.cfg)
}

// BuildSignalCommitment encodes the orders of positions and commits to them.
// Returns signals.ErrNoSignals when there is nothing to commit.
func (e *Evaluator) BuildSignalCommitment(minerHotkey string, positions []domain.Position) (*signals.SignalSet, *merkle.Commitment, error) {
	set, err := e.encoder.Encode(minerHotkey, positions)
	if err != nil {
		return nil, nil, err
	}
	c, err := merkle.BuildSignalCommitment(set, e.cfg.Merkle.Depth, e.hasher)
	if err != nil {
		return nil, nil, err
	}
	return set, c, nil
}

// Result is the outcome of evaluating one portfolio.
type Result struct {
	RunID       string
	MinerHotkey string

	Reduction         ledger.Reduction
	Bundle            domain.ScoreBundle
	Penalty           metrics.PenaltyBreakdown
	Fixed             metrics.FixedScores
	ReturnsCommitment *merkle.Commitment

	// Signals and Commitment are nil when NoSignals is set
	NoSignals  bool
	Signals    *signals.SignalSet
	Commitment *merkle.Commitment

	Evaluation       domain.EvaluationRecord
	CommitmentRecord *domain.CommitmentRecord
}

// Returns returns the daily return values.
func (r *Result) Returns() []float64 {
	return domain.DailyReturnValues(r.Reduction.Returns)
}

// Evaluate runs one portfolio through the engine under a fresh run id.
func (e *Evaluator) Evaluate(ctx context.Context, p domain.Portfolio, opts metrics.ScoreOptions) (*Result, error) {
	return e.evaluate(ctx, NewRunID(e.now()), p, opts)
}

func (e *Evaluator) compute(ctx context.Context, runID string, p domain.Portfolio, opts metrics.ScoreOptions) (*Result, error) {
	if p.MinerHotkey == "" {
		return nil, fmt.Errorf("%w: empty miner hotkey", storage.ErrInvalidInput)
	}

	res := &Result{RunID: runID, MinerHotkey: p.MinerHotkey}

	g, gctx := errgroup.WithContext(ctx)

	// Scoring: stages 1-6
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		res.Reduction = e.ReduceToDailyReturns(p.Ledger)
		e.metrics.RecordStage("reduce", time.Since(start).Seconds())

		if err := gctx.Err(); err != nil {
			return err
		}
		returns := res.Returns()

		start = time.Now()
		res.Bundle = e.ComputeScores(returns, p.Positions, opts)
		res.Penalty = metrics.EvaluatePenalty(p.Positions, e.cfg.Penalty)
		fp := metrics.NewFixedPoint(e.cfg)
		res.Fixed = fp.Score(metrics.ComputeQuantities(returns, p.Positions, opts, e.cfg))
		e.metrics.RecordStage("score", time.Since(start).Seconds())

		rc, err := merkle.BuildReturnsCommitment(returns, e.cfg.Ledger.CircuitScale, e.cfg.Merkle.Depth, e.hasher)
		if err != nil {
			return fmt.Errorf("returns commitment: %w", err)
		}
		res.ReturnsCommitment = rc
		return nil
	})

	// Commitment: stages 7-8
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		set, c, err := e.BuildSignalCommitment(p.MinerHotkey, p.Positions)
		e.metrics.RecordStage("commit", time.Since(start).Seconds())
		switch {
		case errors.Is(err, signals.ErrNoSignals):
			res.NoSignals = true
			return nil
		case err != nil:
			return fmt.Errorf("signal commitment: %w", err)
		}
		res.Signals = set
		res.Commitment = c
		e.metrics.RecordCommitment(c.HashFunc, set.ActualLen, set.TruncatedPairs)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.buildRecords(res, opts)
	return res, nil
}

// Replay recomputes the evaluation of p without persisting it or recording
// evaluation metrics. The returned records carry an empty run id.
func (e *Evaluator) Replay(ctx context.Context, p domain.Portfolio, opts metrics.ScoreOptions) (*Result, error) {
	return e.compute(ctx, "", p, opts)
}

func (e *Evaluator) evaluate(ctx context.Context, runID string, p domain.Portfolio, opts metrics.ScoreOptions) (*Result, error) {
	log := e.log.WithFields(map[string]interface{}{
		"run_id":       runID,
		"miner_hotkey": p.MinerHotkey,
	})

	res, err := e.compute(ctx, runID, p, opts)
	if err != nil {
		e.metrics.RecordEvaluation(observability.StatusError, 0, false, false, 0, 0)
		log.WithError(err).Error("evaluation failed")
		return nil, err
	}

	if err := e.persist(ctx, res); err != nil {
		e.metrics.RecordEvaluation(observability.StatusError, 0, false, false, 0, 0)
		log.WithError(err).Error("persist evaluation failed")
		return nil, err
	}

	b := res.Bundle
	e.metrics.RecordEvaluation(observability.StatusOK, b.Score, b.SharpeConfident, b.DrawdownGated,
		res.Reduction.Truncated, float64(e.now().Unix()))

	fields := map[string]interface{}{
		"evaluation_id": res.Evaluation.EvaluationID,
		"score":         b.Score,
		"sample_size":   b.SampleSize,
		"no_signals":    res.NoSignals,
	}
	if res.Commitment != nil {
		fields["signals_root"] = res.Commitment.Root.String()
		fields["actual_len"] = res.Commitment.ActualLen
	}
	log.WithFields(fields).Info("evaluation complete")

	if res.Reduction.Truncated > 0 {
		log.Warnf("dropped %d checkpoints beyond capacity", res.Reduction.Truncated)
	}
	if res.Signals != nil && res.Signals.TruncatedPairs > 0 {
		log.Warnf("dropped %d order pairs beyond signal capacity", res.Signals.TruncatedPairs)
	}
	return res, nil
}

// buildRecords derives the persisted records and their deterministic ids.
func (e *Evaluator) buildRecords(res *Result, opts metrics.ScoreOptions) {
	createdAt := e.now().UnixMilli()

	signalsRoot := ""
	if res.Commitment != nil {
		c := res.Commitment
		signalsRoot = c.Root.String()
		elements, indices := c.PathFields()
		res.CommitmentRecord = &domain.CommitmentRecord{
			CommitmentID:   idhash.ComputeCommitmentID(res.MinerHotkey, c.HashFunc, c.Depth, c.ActualLen, signalsRoot),
			MinerHotkey:    res.MinerHotkey,
			Root:           signalsRoot,
			ActualLen:      c.ActualLen,
			Capacity:       c.Capacity(),
			Depth:          c.Depth,
			TruncatedPairs: res.Signals.TruncatedPairs,
			HashFunc:       c.HashFunc,
			PathElements:   elements,
			PathIndices:    indices,
			CreatedAt:      createdAt,
		}
	}

	res.Evaluation = domain.EvaluationRecord{
		EvaluationID: idhash.ComputeEvaluationID(
			res.MinerHotkey,
			e.fingerprint,
			res.ReturnsCommitment.Root.String(),
			signalsRoot,
			opts.BypassConfidence,
			opts.Weighted,
		),
		RunID:                res.RunID,
		MinerHotkey:          res.MinerHotkey,
		ConfigFingerprint:    e.fingerprint,
		BypassConfidence:     opts.BypassConfidence,
		Weighted:             opts.Weighted,
		TruncatedCheckpoints: res.Reduction.Truncated,
		Bundle:               res.Bundle,
		CreatedAt:            createdAt,
	}
	if res.CommitmentRecord != nil {
		res.Evaluation.CommitmentID = res.CommitmentRecord.CommitmentID
	}
}

// persist writes the records to the configured stores. Records that already
// exist are left untouched, so re-running identical input is idempotent.
func (e *Evaluator) persist(ctx context.Context, res *Result) error {
	if e.commitmentStore != nil && res.CommitmentRecord != nil {
		if err := e.timed("insert_commitment", func() error {
			return e.commitmentStore.Insert(ctx, res.CommitmentRecord)
		}); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("store commitment: %w", err)
		}
	}

	if e.evaluationStore != nil {
		if err := e.timed("insert_evaluation", func() error {
			return e.evaluationStore.Insert(ctx, &res.Evaluation)
		}); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("store evaluation: %w", err)
		}
	}

	if e.dailyReturnStore != nil && len(res.Reduction.Returns) > 0 {
		records := make([]*domain.DailyReturnRecord, len(res.Reduction.Returns))
		for i, r := range res.Reduction.Returns {
			records[i] = &domain.DailyReturnRecord{
				MinerHotkey: res.MinerHotkey,
				RunID:       res.RunID,
				Date:        r.Date,
				Value:       r.Value,
			}
		}
		if err := e.timed("insert_daily_returns", func() error {
			return e.dailyReturnStore.InsertBulk(ctx, records)
		}); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("store daily returns: %w", err)
		}
	}
	return nil
}

func (e *Evaluator) timed(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	e.metrics.RecordDBQuery("store", operation, time.Since(start).Seconds(), err)
	return err
}

// CircuitWitness returns the values the proving circuit consumes for res.
func (e *Evaluator) CircuitWitness(p domain.Portfolio, res *Result) (*Witness, error) {
	cps, err := ledger.CircuitInputs(p.Ledger, e.cfg.Ledger)
	if err != nil {
		return nil, err
	}
	w := &Witness{
		Checkpoints: cps,
		Returns:     make([]field.Element, 0, len(res.Reduction.Returns)),
		ReturnsRoot: res.ReturnsCommitment.Root,
		Score:       field.FromInt64(res.Fixed.Score),
	}
	for _, r := range res.Returns() {
		v, err := field.ScaleFloat(r, e.cfg.Ledger.CircuitScale)
		if err != nil {
			return nil, err
		}
		w.Returns = append(w.Returns, v)
	}
	if res.Commitment != nil {
		w.SignalsRoot = res.Commitment.Root
		w.ActualLen = res.Commitment.ActualLen
		w.Signals = res.Signals.Signals
	}
	return w, nil
}

// Witness is the field-element view of an evaluation.
type Witness struct {
	Checkpoints ledger.CheckpointInputs `json:"checkpoints"`
	Returns     []field.Element         `json:"daily_returns"`
	ReturnsRoot field.Element           `json:"returns_root"`
	SignalsRoot field.Element           `json:"signals_root"`
	ActualLen   int                     `json:"actual_len"`
	Signals     []domain.Signal         `json:"signals,omitempty"`
	Score       field.Element           `json:"score"`
}
