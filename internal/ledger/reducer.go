// Package ledger reduces a performance ledger's checkpoints into daily
// log-returns.
package ledger

import (
	"sort"
	"time"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/domain"
)

const msPerDay = int64(24 * time.Hour / time.Millisecond)

// Reduction is the outcome of reducing one ledger.
type Reduction struct {
	Returns         []domain.DailyReturn
	Truncated       int // checkpoints dropped by the capacity limit
	FullCheckpoints int // full checkpoints considered
	DroppedDays     int // dates with the wrong number of full checkpoints
}

// DailyReturnsByDate groups full checkpoints by the UTC date their interval
// started and emits the summed gain+loss for every date that has exactly
// checkpointsPerDay full checkpoints. Output is ascending by date; partial
// days are silently excluded.
func DailyReturnsByDate(checkpoints []domain.Checkpoint, targetDurationMs int64, checkpointsPerDay int) []domain.DailyReturn {
	returns, _, _ := reduce(checkpoints, targetDurationMs, checkpointsPerDay)
	return returns
}

// DailyReturns is DailyReturnsByDate without the dates.
func DailyReturns(checkpoints []domain.Checkpoint, targetDurationMs int64, checkpointsPerDay int) []float64 {
	return domain.DailyReturnValues(DailyReturnsByDate(checkpoints, targetDurationMs, checkpointsPerDay))
}

// Truncate keeps the first max checkpoints and reports how many were dropped.
func Truncate(checkpoints []domain.Checkpoint, max int) ([]domain.Checkpoint, int) {
	if max < 0 || len(checkpoints) <= max {
		return checkpoints, 0
	}
	return checkpoints[:max], len(checkpoints) - max
}

// Reduce applies the capacity limit and reduces the ledger.
func Reduce(l domain.PerfLedger, cfg config.Ledger) Reduction {
	cps, truncated := Truncate(l.Checkpoints, cfg.MaxCheckpoints)
	returns, full, dropped := reduce(cps, l.TargetCPDurationMs, cfg.CheckpointsPerDay)
	return Reduction{
		Returns:         returns,
		Truncated:       truncated,
		FullCheckpoints: full,
		DroppedDays:     dropped,
	}
}

type dayBucket struct {
	count int
	sum   float64
}

func reduce(checkpoints []domain.Checkpoint, targetDurationMs int64, perDay int) ([]domain.DailyReturn, int, int) {
	if len(checkpoints) == 0 {
		return []domain.DailyReturn{}, 0, 0
	}

	buckets := make(map[int64]*dayBucket)
	full := 0
	for _, cp := range checkpoints {
		if !cp.IsFull(targetDurationMs) {
			continue
		}
		full++
		day := utcDay(cp.StartMs())
		b, ok := buckets[day]
		if !ok {
			b = &dayBucket{}
			buckets[day] = b
		}
		b.count++
		b.sum += cp.Gain + cp.Loss
	}

	days := make([]int64, 0, len(buckets))
	for day := range buckets {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	out := make([]domain.DailyReturn, 0, len(days))
	dropped := 0
	for _, day := range days {
		b := buckets[day]
		if b.count != perDay {
			dropped++
			continue
		}
		out = append(out, domain.DailyReturn{
			Date:  time.UnixMilli(day * msPerDay).UTC(),
			Value: b.sum,
		})
	}
	return out, full, dropped
}

// utcDay returns the number of whole UTC days since the epoch, flooring
// for instants before 1970.
func utcDay(ms int64) int64 {
	d := ms / msPerDay
	if ms%msPerDay < 0 {
		d--
	}
	return d
}
