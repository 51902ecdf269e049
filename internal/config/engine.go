package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when engine constants are inconsistent.
var ErrInvalidConfig = errors.New("invalid engine config")

// Drawdown forms.
const (
	DrawdownLog    = "log"    // cumulative sum of log-returns
	DrawdownSimple = "simple" // cumulative product of simple returns
)

// Merkle hash functions.
const (
	HashMiMC   = "mimc"
	HashSHA256 = "sha256"
)

// Engine holds every constant the scoring and commitment engine depends on.
// A value is passed explicitly into each component; nothing reads globals.
type Engine struct {
	Weighting  Weighting  `yaml:"weighting"`
	Ratios     Ratios     `yaml:"ratios"`
	Drawdown   Drawdown   `yaml:"drawdown"`
	Penalty    Penalty    `yaml:"penalty"`
	Scoring    Scoring    `yaml:"scoring"`
	Ledger     Ledger     `yaml:"ledger"`
	Signals    Signals    `yaml:"signals"`
	Merkle     Merkle     `yaml:"merkle"`
	FixedPoint FixedPoint `yaml:"fixed_point"`
}

// Weighting is the exponential recency-decay scheme.
type Weighting struct {
	DecayMax  float64 `yaml:"decay_max"`  // weight of the most recent observation
	DecayMin  float64 `yaml:"decay_min"`  // asymptotic weight of old observations
	DecayRate float64 `yaml:"decay_rate"` // exponential decay per step
}

// Ratios holds the ratio-metric thresholds and clamps.
type Ratios struct {
	DaysInYear                    int     `yaml:"days_in_year"`
	AnnualRiskFreeRate            float64 `yaml:"annual_risk_free_rate"` // decimal, 0.0419 = 4.19%
	SharpeStddevMinimum           float64 `yaml:"sharpe_stddev_minimum"`
	StatisticalConfidenceMinimumN int     `yaml:"statistical_confidence_minimum_n"`
	SharpeNoConfidenceValue       float64 `yaml:"sharpe_noconfidence_value"`
	CalmarDrawdownFloor           float64 `yaml:"calmar_drawdown_floor"`
	OmegaLossFloor                float64 `yaml:"omega_loss_floor"`
	SortinoDownsideFloor          float64 `yaml:"sortino_downside_floor"`
	TStatisticDivisor             float64 `yaml:"t_statistic_divisor"`
}

// Drawdown selects how cumulative returns are formed.
type Drawdown struct {
	Form string `yaml:"form"` // log | simple
}

// Penalty holds the risk-profile penalty rules.
type Penalty struct {
	MinOrders            int     `yaml:"min_orders"`
	EscalationThreshold  int     `yaml:"escalation_threshold"`
	EscalationPenalty    float64 `yaml:"escalation_penalty"`
	OverLeveragePenalty  float64 `yaml:"over_leverage_penalty"`
	LeverageJumpPenalty  float64 `yaml:"leverage_jump_penalty"`
	OverLeverageFraction float64 `yaml:"over_leverage_fraction"`
	LeverageJumpFactor   float64 `yaml:"leverage_jump_factor"`
	ForexLeverageCap     float64 `yaml:"forex_leverage_cap"`
	CryptoLeverageCap    float64 `yaml:"crypto_leverage_cap"`
	MinTradePairFields   int     `yaml:"min_trade_pair_fields"`
	Cap                  float64 `yaml:"cap"`
}

// Scoring holds the composite score weights and gate.
type Scoring struct {
	DrawdownCutoff float64 `yaml:"drawdown_cutoff"`
	MetricWeight   float64 `yaml:"metric_weight"`
}

// Ledger holds checkpoint reduction constants.
type Ledger struct {
	CheckpointsPerDay int     `yaml:"checkpoints_per_day"`
	MaxCheckpoints    int     `yaml:"max_checkpoints"`
	CircuitScale      float64 `yaml:"circuit_scale"` // gain/loss scaling for circuit inputs
}

// Signals holds the signal encoding constants.
type Signals struct {
	MaxSignals         int   `yaml:"max_signals"`
	ScalingFactor      int64 `yaml:"scaling_factor"`
	AssignTradePairIDs bool  `yaml:"assign_trade_pair_ids"`
	BindHotkey         bool  `yaml:"bind_hotkey"`
}

// Merkle holds the commitment tree shape.
type Merkle struct {
	Depth int    `yaml:"depth"`
	Hash  string `yaml:"hash"` // mimc | sha256
}

// FixedPoint holds the integer-arithmetic rendition of the score.
type FixedPoint struct {
	Scale int64 `yaml:"scale"`
}

// Default returns the production constants.
func Default() Engine {
	return Engine{
		Weighting: Weighting{
			DecayMax:  1.0,
			DecayMin:  0.40,
			DecayRate: 0.08,
		},
		Ratios: Ratios{
			DaysInYear:                    365,
			AnnualRiskFreeRate:            0.0419,
			SharpeStddevMinimum:           0.01,
			StatisticalConfidenceMinimumN: 60,
			SharpeNoConfidenceValue:       -100,
			CalmarDrawdownFloor:           0.01,
			OmegaLossFloor:                0.01,
			SortinoDownsideFloor:          0.01,
			TStatisticDivisor:             10,
		},
		Drawdown: Drawdown{Form: DrawdownLog},
		Penalty: Penalty{
			MinOrders:            3,
			EscalationThreshold:  2,
			EscalationPenalty:    0.10,
			OverLeveragePenalty:  0.05,
			LeverageJumpPenalty:  0.05,
			OverLeverageFraction: 0.5,
			LeverageJumpFactor:   1.5,
			ForexLeverageCap:     5.0,
			CryptoLeverageCap:    0.5,
			MinTradePairFields:   5,
			Cap:                  1.0,
		},
		Scoring: Scoring{
			DrawdownCutoff: 0.10,
			MetricWeight:   0.20,
		},
		Ledger: Ledger{
			CheckpointsPerDay: 2,
			MaxCheckpoints:    200,
			CircuitScale:      1e9,
		},
		Signals: Signals{
			MaxSignals:    256,
			ScalingFactor: 100,
		},
		Merkle: Merkle{
			Depth: 8,
			Hash:  HashMiMC,
		},
		FixedPoint: FixedPoint{Scale: 10000},
	}
}

// Validate checks that the constants describe a buildable engine.
func (e Engine) Validate() error {
	switch {
	case e.Weighting.DecayMax <= 0 || e.Weighting.DecayMin < 0 || e.Weighting.DecayMin > e.Weighting.DecayMax:
		return fmt.Errorf("%w: decay weights min=%v max=%v", ErrInvalidConfig, e.Weighting.DecayMin, e.Weighting.DecayMax)
	case e.Ratios.DaysInYear <= 0:
		return fmt.Errorf("%w: days_in_year must be positive", ErrInvalidConfig)
	case e.Ratios.TStatisticDivisor <= 0:
		return fmt.Errorf("%w: t_statistic_divisor must be positive", ErrInvalidConfig)
	case e.Drawdown.Form != DrawdownLog && e.Drawdown.Form != DrawdownSimple:
		return fmt.Errorf("%w: unknown drawdown form %q", ErrInvalidConfig, e.Drawdown.Form)
	case e.Ledger.CheckpointsPerDay <= 0:
		return fmt.Errorf("%w: checkpoints_per_day must be positive", ErrInvalidConfig)
	case e.Ledger.MaxCheckpoints <= 0:
		return fmt.Errorf("%w: max_checkpoints must be positive", ErrInvalidConfig)
	case e.Signals.MaxSignals <= 0 || e.Signals.MaxSignals%2 != 0:
		return fmt.Errorf("%w: max_signals must be a positive even number, got %d", ErrInvalidConfig, e.Signals.MaxSignals)
	case e.Signals.ScalingFactor <= 0:
		return fmt.Errorf("%w: scaling_factor must be positive", ErrInvalidConfig)
	case e.Merkle.Depth <= 0 || e.Merkle.Depth > 30:
		return fmt.Errorf("%w: merkle depth %d out of range", ErrInvalidConfig, e.Merkle.Depth)
	case 1<<e.Merkle.Depth < e.Signals.MaxSignals:
		return fmt.Errorf("%w: 2^%d leaves cannot hold %d signals", ErrInvalidConfig, e.Merkle.Depth, e.Signals.MaxSignals)
	case e.Ledger.MaxCheckpoints/e.Ledger.CheckpointsPerDay > 1<<e.Merkle.Depth:
		return fmt.Errorf("%w: up to %d daily returns exceed 2^%d commitment leaves", ErrInvalidConfig,
			e.Ledger.MaxCheckpoints/e.Ledger.CheckpointsPerDay, e.Merkle.Depth)
	case e.Merkle.Hash != HashMiMC && e.Merkle.Hash != HashSHA256:
		return fmt.Errorf("%w: unknown merkle hash %q", ErrInvalidConfig, e.Merkle.Hash)
	case e.FixedPoint.Scale <= 0:
		return fmt.Errorf("%w: fixed point scale must be positive", ErrInvalidConfig)
	}
	return nil
}

// LoadFile reads a YAML engine config. Keys absent from the file keep
// their default values.
func LoadFile(path string) (Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Engine{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Engine, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Engine{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Engine{}, err
	}
	return cfg, nil
}

// Fingerprint returns a SHA256 hex digest of the canonical YAML encoding.
// Stored results carry it so they can be re-derived with the same constants.
func (e Engine) Fingerprint() string {
	data, err := yaml.Marshal(e)
	if err != nil {
		// Engine contains only scalars; Marshal cannot fail.
		panic(fmt.Sprintf("marshal engine config: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
