// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Evaluation metrics
	EvaluationsTotal     *prometheus.CounterVec
	StageDuration        *prometheus.HistogramVec
	Scores               prometheus.Histogram
	SharpeNoConfidence   prometheus.Counter
	DrawdownGated        prometheus.Counter
	TruncatedCheckpoints prometheus.Counter

	// Commitment metrics
	SignalsEncoded   prometheus.Counter
	TruncatedPairs   prometheus.Counter
	CommitmentsBuilt *prometheus.CounterVec

	// Verification metrics
	VerificationsTotal *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec

	// Health metrics
	LastSuccessfulEvaluation prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "proof_of_portfolio"
	}
	f := promauto.With(reg)

	return &Metrics{
		// Evaluation metrics
		EvaluationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evaluations_total",
			Help:      "Total number of portfolio evaluations by status",
		}, []string{"status"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "stage_duration_seconds",
			Help:      "Evaluation stage duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"stage"}),
		Scores: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "score",
			Help:      "Distribution of composite scores",
			Buckets:   []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SharpeNoConfidence: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "sharpe_no_confidence_total",
			Help:      "Total number of evaluations whose Sharpe fell back to the no-confidence value",
		}),
		DrawdownGated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "drawdown_gated_total",
			Help:      "Total number of scores zeroed by the drawdown cutoff",
		}),
		TruncatedCheckpoints: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "truncated_checkpoints_total",
			Help:      "Total number of checkpoints dropped by the capacity limit",
		}),

		// Commitment metrics
		SignalsEncoded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commitment",
			Name:      "signals_encoded_total",
			Help:      "Total number of non-sentinel signals encoded",
		}),
		TruncatedPairs: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commitment",
			Name:      "truncated_pairs_total",
			Help:      "Total number of order pairs dropped by the signal capacity",
		}),
		CommitmentsBuilt: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commitment",
			Name:      "built_total",
			Help:      "Total number of Merkle commitments built by hash function",
		}, []string{"hash"}),

		// Verification metrics
		VerificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "runs_total",
			Help:      "Total number of verifications by result",
		}, []string{"result"}),

		// Database metrics
		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// HTTP metrics
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by path and status code",
		}, []string{"path", "code"}),

		// Health metrics
		LastSuccessfulEvaluation: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_evaluation_timestamp",
			Help:      "Unix timestamp of last successful evaluation",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordEvaluation records a finished evaluation.
func (m *Metrics) RecordEvaluation(status string, score float64, sharpeConfident, gated bool, truncated int, unixSeconds float64) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(status).Inc()
	if status != StatusOK {
		return
	}
	m.Scores.Observe(score)
	if !sharpeConfident {
		m.SharpeNoConfidence.Inc()
	}
	if gated {
		m.DrawdownGated.Inc()
	}
	m.TruncatedCheckpoints.Add(float64(truncated))
	m.LastSuccessfulEvaluation.Set(unixSeconds)
}

// RecordStage records the duration of one evaluation stage.
func (m *Metrics) RecordStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

// RecordCommitment records a built commitment.
func (m *Metrics) RecordCommitment(hash string, signals, truncatedPairs int) {
	if m == nil {
		return
	}
	m.CommitmentsBuilt.WithLabelValues(hash).Inc()
	m.SignalsEncoded.Add(float64(signals))
	m.TruncatedPairs.Add(float64(truncatedPairs))
}

// RecordVerification records a verification result.
func (m *Metrics) RecordVerification(passed bool) {
	if m == nil {
		return
	}
	result := "pass"
	if !passed {
		result = "fail"
	}
	m.VerificationsTotal.WithLabelValues(result).Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(path string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(path, http.StatusText(code)).Inc()
}

// Evaluation statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)
