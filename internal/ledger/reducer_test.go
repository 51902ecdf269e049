package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/domain"
)

const halfDay = int64(43200000)

// day0 is 2024-01-01T00:00:00Z.
const day0 = int64(1704067200000)

func cp(gain, loss float64, startMs, accumMs int64) domain.Checkpoint {
	return domain.Checkpoint{Gain: gain, Loss: loss, LastUpdateMs: startMs + accumMs, AccumMs: accumMs}
}

func TestDailyReturns_InsufficientCheckpointsPerDay(t *testing.T) {
	cps := []domain.Checkpoint{
		{Gain: 1000, Loss: -500, LastUpdateMs: 1704070800000, AccumMs: 43200000},
		{Gain: 800, Loss: -300, LastUpdateMs: 1704157200000, AccumMs: 43200000},
	}

	got := DailyReturns(cps, 43200000, 2)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestDailyReturns_Empty(t *testing.T) {
	assert.Empty(t, DailyReturns(nil, halfDay, 2))
}

func TestDailyReturnsByDate_FullDays(t *testing.T) {
	dayMs := 2 * halfDay
	cps := []domain.Checkpoint{
		cp(0.01, -0.002, day0, halfDay),
		cp(0.003, -0.001, day0+halfDay, halfDay),
		cp(0.02, 0, day0+dayMs, halfDay),
		cp(0.0, -0.005, day0+dayMs+halfDay, halfDay),
	}

	got := DailyReturnsByDate(cps, halfDay, 2)
	require.Len(t, got, 2)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.InDelta(t, 0.01, got[0].Value, 1e-12)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), got[1].Date)
	assert.InDelta(t, 0.015, got[1].Value, 1e-12)
}

func TestDailyReturnsByDate_PartialCheckpointsIgnored(t *testing.T) {
	cps := []domain.Checkpoint{
		cp(0.01, 0, day0, halfDay),
		cp(0.5, 0, day0+halfDay, halfDay-1), // not full
	}
	assert.Empty(t, DailyReturnsByDate(cps, halfDay, 2))

	got := DailyReturnsByDate(cps, halfDay, 1)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.01, got[0].Value, 1e-12)
}

func TestDailyReturnsByDate_TooManyPerDayDropped(t *testing.T) {
	quarter := halfDay / 2
	cps := []domain.Checkpoint{
		cp(0.01, 0, day0, quarter),
		cp(0.01, 0, day0+quarter, quarter),
		cp(0.01, 0, day0+2*quarter, quarter),
	}
	assert.Empty(t, DailyReturnsByDate(cps, quarter, 2))
}

func TestDailyReturnsByDate_OrderedByDate(t *testing.T) {
	dayMs := 2 * halfDay
	cps := []domain.Checkpoint{
		cp(0.03, 0, day0+2*dayMs, halfDay),
		cp(0.01, 0, day0, halfDay),
		cp(0.03, 0, day0+2*dayMs+halfDay, halfDay),
		cp(0.01, 0, day0+halfDay, halfDay),
	}

	got := DailyReturns(cps, halfDay, 2)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.02, got[0], 1e-12)
	assert.InDelta(t, 0.06, got[1], 1e-12)
}

func TestTruncate(t *testing.T) {
	cps := make([]domain.Checkpoint, 5)

	kept, dropped := Truncate(cps, 3)
	assert.Len(t, kept, 3)
	assert.Equal(t, 2, dropped)

	kept, dropped = Truncate(cps, 10)
	assert.Len(t, kept, 5)
	assert.Zero(t, dropped)
}

func TestReduce_ReportsCounts(t *testing.T) {
	dayMs := 2 * halfDay
	var cps []domain.Checkpoint
	for d := int64(0); d < 4; d++ {
		cps = append(cps,
			cp(0.01, 0, day0+d*dayMs, halfDay),
			cp(0.01, 0, day0+d*dayMs+halfDay, halfDay),
		)
	}

	cfg := config.Default().Ledger
	cfg.MaxCheckpoints = 5

	red := Reduce(domain.PerfLedger{Checkpoints: cps, TargetCPDurationMs: halfDay}, cfg)
	assert.Equal(t, 3, red.Truncated)
	assert.Equal(t, 5, red.FullCheckpoints)
	assert.Len(t, red.Returns, 2)
	assert.Equal(t, 1, red.DroppedDays)
}

func TestUTCDay_BeforeEpoch(t *testing.T) {
	assert.Equal(t, int64(-1), utcDay(-1))
	assert.Equal(t, int64(0), utcDay(0))
	assert.Equal(t, int64(1), utcDay(msPerDay))
}
