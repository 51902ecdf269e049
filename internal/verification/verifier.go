// Package verification re-derives stored evaluations and commitments and
// checks them field by field against what was persisted.
package verification

import (
	"context"
	"fmt"
	"math"

	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/field"
	"proof-of-portfolio/internal/merkle"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

func (d FieldDivergence) String() string {
	return fmt.Sprintf("%s: stored=%v replayed=%v", d.Field, d.Expected, d.Actual)
}

// VerificationResult contains the result of verifying a single evaluation.
type VerificationResult struct {
	EvaluationID  string            // verified evaluation ID
	MinerHotkey   string            // evaluated miner
	Match         bool              // true if all fields and paths match
	Divergences   []FieldDivergence // list of divergent fields
	StoredScore   float64           // composite from the stored record
	ReplayedScore float64           // composite from the replay
	PathsChecked  int               // Merkle paths verified against the stored root
	PathsFailed   int
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalEvaluations     int
	MatchedEvaluations   int
	DivergentEvaluations int
	Results              []VerificationResult
}

// Verifier re-derives stored evaluations.
type Verifier interface {
	// VerifyEvaluation loads the stored evaluation, replays it from its
	// portfolio and compares every field, including the commitment paths.
	VerifyEvaluation(ctx context.Context, evaluationID string) (*VerificationResult, error)

	// VerifyMiner verifies every stored evaluation of a miner.
	VerifyMiner(ctx context.Context, minerHotkey string) (*VerificationReport, error)
}

type divergences []FieldDivergence

func (d *divergences) exact(name string, stored, replayed interface{}) {
	if stored != replayed {
		*d = append(*d, FieldDivergence{Field: name, Expected: stored, Actual: replayed})
	}
}

func (d *divergences) float(name string, stored, replayed float64) {
	if !floatEquals(stored, replayed) {
		*d = append(*d, FieldDivergence{Field: name, Expected: stored, Actual: replayed})
	}
}

// CompareEvaluationRecords compares two evaluation records and returns
// divergences. Run id and creation time are run-specific and not compared.
func CompareEvaluationRecords(stored, replayed *domain.EvaluationRecord) []FieldDivergence {
	var d divergences

	d.exact("EvaluationID", stored.EvaluationID, replayed.EvaluationID)
	d.exact("MinerHotkey", stored.MinerHotkey, replayed.MinerHotkey)
	d.exact("ConfigFingerprint", stored.ConfigFingerprint, replayed.ConfigFingerprint)
	d.exact("BypassConfidence", stored.BypassConfidence, replayed.BypassConfidence)
	d.exact("Weighted", stored.Weighted, replayed.Weighted)
	d.exact("TruncatedCheckpoints", stored.TruncatedCheckpoints, replayed.TruncatedCheckpoints)
	d.exact("CommitmentID", stored.CommitmentID, replayed.CommitmentID)

	sb, rb := stored.Bundle, replayed.Bundle
	d.float("Calmar", sb.Calmar, rb.Calmar)
	d.float("Sharpe", sb.Sharpe, rb.Sharpe)
	d.exact("SharpeConfident", sb.SharpeConfident, rb.SharpeConfident)
	d.float("Omega", sb.Omega, rb.Omega)
	d.float("Sortino", sb.Sortino, rb.Sortino)
	d.float("StatisticalConfidence", sb.StatisticalConfidence, rb.StatisticalConfidence)
	d.float("MaxDrawdown", sb.MaxDrawdown, rb.MaxDrawdown)
	d.float("RiskProfilePenalty", sb.RiskProfilePenalty, rb.RiskProfilePenalty)
	d.float("Score", sb.Score, rb.Score)
	d.exact("DrawdownGated", sb.DrawdownGated, rb.DrawdownGated)
	d.exact("SampleSize", sb.SampleSize, rb.SampleSize)

	return d
}

// CompareCommitmentRecords compares commitment headers. Paths are checked
// separately by VerifyPaths.
func CompareCommitmentRecords(stored, replayed *domain.CommitmentRecord) []FieldDivergence {
	var d divergences

	d.exact("CommitmentID", stored.CommitmentID, replayed.CommitmentID)
	d.exact("MinerHotkey", stored.MinerHotkey, replayed.MinerHotkey)
	d.exact("Root", stored.Root, replayed.Root)
	d.exact("ActualLen", stored.ActualLen, replayed.ActualLen)
	d.exact("Capacity", stored.Capacity, replayed.Capacity)
	d.exact("Depth", stored.Depth, replayed.Depth)
	d.exact("TruncatedPairs", stored.TruncatedPairs, replayed.TruncatedPairs)
	d.exact("HashFunc", stored.HashFunc, replayed.HashFunc)

	return d
}

// CompareDailyReturns compares a stored daily return series with a replayed one.
func CompareDailyReturns(stored []*domain.DailyReturnRecord, replayed []domain.DailyReturn) []FieldDivergence {
	var d divergences

	if len(stored) != len(replayed) {
		d.exact("DailyReturns.Len", len(stored), len(replayed))
		return d
	}
	for i := range stored {
		if !stored[i].Date.Equal(replayed[i].Date) {
			d.exact(fmt.Sprintf("DailyReturns[%d].Date", i), stored[i].Date, replayed[i].Date)
		}
		d.float(fmt.Sprintf("DailyReturns[%d].Value", i), stored[i].Value, replayed[i].Value)
	}
	return d
}

// VerifyPaths checks every stored Merkle path of rec against its stored root,
// using leaves re-derived from the signals. It returns the number of paths
// checked and one divergence per failing path.
func VerifyPaths(rec *domain.CommitmentRecord, leaves []field.Element, h merkle.Hasher) (int, []FieldDivergence) {
	var d divergences

	root, err := field.Parse(rec.Root)
	if err != nil {
		d.exact("Root", rec.Root, err.Error())
		return 0, d
	}
	if len(rec.PathElements) != rec.Capacity || len(rec.PathIndices) != rec.Capacity {
		d.exact("Paths.Len", rec.Capacity, len(rec.PathElements))
		return 0, d
	}
	if len(leaves) != rec.Capacity {
		d.exact("Leaves.Len", rec.Capacity, len(leaves))
		return 0, d
	}

	checked := 0
	for i := 0; i < rec.Capacity; i++ {
		checked++
		p, err := parsePath(rec.PathElements[i], rec.PathIndices[i])
		if err != nil {
			d.exact(fmt.Sprintf("Path[%d]", i), "valid path", err.Error())
			continue
		}
		if !merkle.Verify(root, leaves[i], p, h) {
			d.exact(fmt.Sprintf("Path[%d]", i), rec.Root, "path does not reach root")
		}
	}
	return checked, d
}

func parsePath(elements []string, indices []int) (merkle.Path, error) {
	if len(elements) != len(indices) {
		return merkle.Path{}, fmt.Errorf("%d elements, %d indices", len(elements), len(indices))
	}
	p := merkle.Path{
		Elements: make([]field.Element, len(elements)),
		Indices:  append([]int(nil), indices...),
	}
	for i, s := range elements {
		e, err := field.Parse(s)
		if err != nil {
			return merkle.Path{}, err
		}
		p.Elements[i] = e
	}
	return p, nil
}

// floatEquals compares two float64 values within FloatTolerance.
// Infinities match when equal; NaN matches NaN.
func floatEquals(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= FloatTolerance
}
