package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/gorilla/mux"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/engine"
	"proof-of-portfolio/internal/logger"
	"proof-of-portfolio/internal/metrics"
	"proof-of-portfolio/internal/signals"
	"proof-of-portfolio/internal/storage"
)

const maxBodyBytes = 32 << 20

// Handler serves evaluation endpoints.
type Handler struct {
	evaluator       *engine.Evaluator
	evaluationStore storage.EvaluationStore // optional
	commitmentStore storage.CommitmentStore // optional
	logger          *logger.Logger
}

// NewHandler creates a new handler. Stores may be nil; the lookup endpoints
// then answer 404.
func NewHandler(evaluator *engine.Evaluator, evaluations storage.EvaluationStore, commitments storage.CommitmentStore, log *logger.Logger) *Handler {
	return &Handler{
		evaluator:       evaluator,
		evaluationStore: evaluations,
		commitmentStore: commitments,
		logger:          log,
	}
}

// EvaluateRequest is the body of POST /evaluate.
type EvaluateRequest struct {
	MinerHotkey      string            `json:"miner_hotkey"`
	PerfLedger       domain.PerfLedger `json:"perf_ledger"`
	Positions        []domain.Position `json:"positions"`
	BypassConfidence bool              `json:"bypass_confidence"`
	Weighted         *bool             `json:"weighted"` // defaults to true
}

// ScoreView is the JSON view of a score bundle.
type ScoreView struct {
	Calmar                float64 `json:"calmar"`
	Sharpe                float64 `json:"sharpe"`
	SharpeConfident       bool    `json:"sharpe_confident"`
	Omega                 float64 `json:"omega"`
	Sortino               float64 `json:"sortino"`
	StatisticalConfidence float64 `json:"statistical_confidence"`
	MaxDrawdown           float64 `json:"max_drawdown"`
	RiskProfilePenalty    float64 `json:"risk_profile_penalty"`
	Score                 float64 `json:"score"`
	DrawdownGated         bool    `json:"drawdown_gated"`
	SampleSize            int     `json:"sample_size"`
}

// NewScoreView converts a bundle. Non-finite values are clamped so the view
// always encodes.
func NewScoreView(b domain.ScoreBundle) ScoreView {
	return ScoreView{
		Calmar:                finite(b.Calmar),
		Sharpe:                finite(b.Sharpe),
		SharpeConfident:       b.SharpeConfident,
		Omega:                 finite(b.Omega),
		Sortino:               finite(b.Sortino),
		StatisticalConfidence: finite(b.StatisticalConfidence),
		MaxDrawdown:           finite(b.MaxDrawdown),
		RiskProfilePenalty:    finite(b.RiskProfilePenalty),
		Score:                 finite(b.Score),
		DrawdownGated:         b.DrawdownGated,
		SampleSize:            b.SampleSize,
	}
}

// EvaluateResponse is the body returned by POST /evaluate.
type EvaluateResponse struct {
	EvaluationID         string    `json:"evaluation_id"`
	RunID                string    `json:"run_id"`
	MinerHotkey          string    `json:"miner_hotkey"`
	Scores               ScoreView `json:"scores"`
	FixedScore           int64     `json:"fixed_score"`
	TruncatedCheckpoints int       `json:"truncated_checkpoints"`
	ReturnsRoot          string    `json:"returns_root"`
	NoSignals            bool      `json:"no_signals"`
	CommitmentID         string    `json:"commitment_id,omitempty"`
	SignalsRoot          string    `json:"signals_root,omitempty"`
	ActualLen            int       `json:"actual_len"`
	TruncatedPairs       int       `json:"truncated_pairs"`
}

// NewEvaluateResponse converts an engine result.
func NewEvaluateResponse(res *engine.Result) EvaluateResponse {
	out := EvaluateResponse{
		EvaluationID:         res.Evaluation.EvaluationID,
		RunID:                res.RunID,
		MinerHotkey:          res.MinerHotkey,
		Scores:               NewScoreView(res.Bundle),
		FixedScore:           res.Fixed.Score,
		TruncatedCheckpoints: res.Reduction.Truncated,
		ReturnsRoot:          res.ReturnsCommitment.Root.String(),
		NoSignals:            res.NoSignals,
	}
	if res.Commitment != nil {
		out.CommitmentID = res.Evaluation.CommitmentID
		out.SignalsRoot = res.Commitment.Root.String()
		out.ActualLen = res.Commitment.ActualLen
		out.TruncatedPairs = res.Signals.TruncatedPairs
	}
	return out
}

// Evaluate scores and commits one portfolio.
// POST /evaluate
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	opts := metrics.ScoreOptions{BypassConfidence: req.BypassConfidence, Weighted: true}
	if req.Weighted != nil {
		opts.Weighted = *req.Weighted
	}

	p := domain.Portfolio{
		MinerHotkey: req.MinerHotkey,
		Ledger:      req.PerfLedger,
		Positions:   req.Positions,
	}
	res, err := h.evaluator.Evaluate(r.Context(), p, opts)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).Error("evaluation failed")
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, NewEvaluateResponse(res))
}

// EvaluationView is the JSON view of a stored evaluation.
type EvaluationView struct {
	EvaluationID         string    `json:"evaluation_id"`
	RunID                string    `json:"run_id"`
	MinerHotkey          string    `json:"miner_hotkey"`
	ConfigFingerprint    string    `json:"config_fingerprint"`
	BypassConfidence     bool      `json:"bypass_confidence"`
	Weighted             bool      `json:"weighted"`
	TruncatedCheckpoints int       `json:"truncated_checkpoints"`
	CommitmentID         string    `json:"commitment_id,omitempty"`
	Scores               ScoreView `json:"scores"`
	CreatedAt            int64     `json:"created_at"`
}

// GetEvaluation returns a stored evaluation.
// GET /evaluations/{id}
func (h *Handler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	if h.evaluationStore == nil {
		respondError(w, http.StatusNotFound, "evaluation store not configured")
		return
	}
	e, err := h.evaluationStore.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, EvaluationView{
		EvaluationID:         e.EvaluationID,
		RunID:                e.RunID,
		MinerHotkey:          e.MinerHotkey,
		ConfigFingerprint:    e.ConfigFingerprint,
		BypassConfidence:     e.BypassConfidence,
		Weighted:             e.Weighted,
		TruncatedCheckpoints: e.TruncatedCheckpoints,
		CommitmentID:         e.CommitmentID,
		Scores:               NewScoreView(e.Bundle),
		CreatedAt:            e.CreatedAt,
	})
}

// CommitmentView is the JSON view of a stored commitment with its paths.
type CommitmentView struct {
	CommitmentID   string     `json:"commitment_id"`
	MinerHotkey    string     `json:"miner_hotkey"`
	Root           string     `json:"root"`
	ActualLen      int        `json:"actual_len"`
	Capacity       int        `json:"capacity"`
	Depth          int        `json:"depth"`
	TruncatedPairs int        `json:"truncated_pairs"`
	HashFunc       string     `json:"hash_func"`
	PathElements   [][]string `json:"path_elements"`
	PathIndices    [][]int    `json:"path_indices"`
}

// GetCommitment returns a stored commitment.
// GET /commitments/{id}
func (h *Handler) GetCommitment(w http.ResponseWriter, r *http.Request) {
	if h.commitmentStore == nil {
		respondError(w, http.StatusNotFound, "commitment store not configured")
		return
	}
	c, err := h.commitmentStore.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, CommitmentView{
		CommitmentID:   c.CommitmentID,
		MinerHotkey:    c.MinerHotkey,
		Root:           c.Root,
		ActualLen:      c.ActualLen,
		Capacity:       c.Capacity,
		Depth:          c.Depth,
		TruncatedPairs: c.TruncatedPairs,
		HashFunc:       c.HashFunc,
		PathElements:   c.PathElements,
		PathIndices:    c.PathIndices,
	})
}

func finite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, signals.ErrMalformedOrder),
		errors.Is(err, signals.ErrMalformedPosition),
		errors.Is(err, signals.ErrInvalidHotkey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
