package ledger

import (
	"fmt"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/domain"
	"proof-of-portfolio/internal/field"
)

// CheckpointInputs is the fixed-capacity, field-element form of a ledger as
// the returns circuit consumes it. Arrays are zero padded to MaxCheckpoints.
type CheckpointInputs struct {
	Gains           []field.Element `json:"gains"`
	Losses          []field.Element `json:"losses"`
	LastUpdateTimes []field.Element `json:"last_update_times"`
	AccumTimes      []field.Element `json:"accum_times"`
	TargetDuration  field.Element   `json:"target_duration"`
	Count           int             `json:"checkpoint_count"`
	Truncated       int             `json:"-"`
}

// CircuitInputs scales gains and losses by cfg.CircuitScale, maps every
// value into the field and pads to capacity. Checkpoints beyond capacity are
// truncated and counted.
func CircuitInputs(l domain.PerfLedger, cfg config.Ledger) (CheckpointInputs, error) {
	cps, truncated := Truncate(l.Checkpoints, cfg.MaxCheckpoints)

	in := CheckpointInputs{
		Gains:           make([]field.Element, cfg.MaxCheckpoints),
		Losses:          make([]field.Element, cfg.MaxCheckpoints),
		LastUpdateTimes: make([]field.Element, cfg.MaxCheckpoints),
		AccumTimes:      make([]field.Element, cfg.MaxCheckpoints),
		TargetDuration:  field.FromInt64(l.TargetCPDurationMs),
		Count:           len(cps),
		Truncated:       truncated,
	}

	for i, cp := range cps {
		gain, err := field.ScaleFloat(cp.Gain, cfg.CircuitScale)
		if err != nil {
			return CheckpointInputs{}, fmt.Errorf("checkpoint %d gain: %w", i, err)
		}
		loss, err := field.ScaleFloat(cp.Loss, cfg.CircuitScale)
		if err != nil {
			return CheckpointInputs{}, fmt.Errorf("checkpoint %d loss: %w", i, err)
		}
		in.Gains[i] = gain
		in.Losses[i] = loss
		in.LastUpdateTimes[i] = field.FromInt64(cp.LastUpdateMs)
		in.AccumTimes[i] = field.FromInt64(cp.AccumMs)
	}
	return in, nil
}
