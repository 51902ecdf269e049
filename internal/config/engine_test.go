package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 256, cfg.Signals.MaxSignals)
	assert.Equal(t, 8, cfg.Merkle.Depth)
	assert.Equal(t, 60, cfg.Ratios.StatisticalConfidenceMinimumN)
	assert.Equal(t, -100.0, cfg.Ratios.SharpeNoConfidenceValue)
	assert.Equal(t, 2, cfg.Ledger.CheckpointsPerDay)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Engine)
	}{
		{"depth too small for capacity", func(e *Engine) { e.Merkle.Depth = 7 }},
		{"odd max signals", func(e *Engine) { e.Signals.MaxSignals = 255 }},
		{"unknown drawdown form", func(e *Engine) { e.Drawdown.Form = "geometric" }},
		{"unknown hash", func(e *Engine) { e.Merkle.Hash = "keccak" }},
		{"zero checkpoints per day", func(e *Engine) { e.Ledger.CheckpointsPerDay = 0 }},
		{"min above max weight", func(e *Engine) { e.Weighting.DecayMin = 2 }},
		{"daily returns exceed commitment capacity", func(e *Engine) {
			e.Ledger.CheckpointsPerDay = 1
			e.Ledger.MaxCheckpoints = 300
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestValidate_ReturnsCapacityBoundary(t *testing.T) {
	cfg := Default()
	cfg.Ledger.CheckpointsPerDay = 1
	cfg.Ledger.MaxCheckpoints = 256
	assert.NoError(t, cfg.Validate())

	cfg.Ledger.MaxCheckpoints = 257
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	_, err := Parse([]byte("ledger:\n  checkpoints_per_day: 1\n  max_checkpoints: 300\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParse_OverridesOnlyGivenKeys(t *testing.T) {
	cfg, err := Parse([]byte("ratios:\n  annual_risk_free_rate: 0.05\nmerkle:\n  hash: sha256\n"))
	require.NoError(t, err)

	assert.Equal(t, 0.05, cfg.Ratios.AnnualRiskFreeRate)
	assert.Equal(t, HashSHA256, cfg.Merkle.Hash)
	assert.Equal(t, 365, cfg.Ratios.DaysInYear)
	assert.Equal(t, 8, cfg.Merkle.Depth)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("drawdown:\n  form: simple\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DrawdownSimple, cfg.Drawdown.Form)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	a := Default()
	b := Default()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)

	b.Ratios.AnnualRiskFreeRate = 0.05
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestLoadRuntime(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("POSTGRES_DSN", "")
	_, err := LoadRuntime()
	assert.Error(t, err)

	t.Setenv("POSTGRES_DSN", "postgres://localhost/pop")
	t.Setenv("PARALLELISM", "8")
	rt, err := LoadRuntime()
	require.NoError(t, err)
	assert.Equal(t, "postgres", rt.StoreBackend)
	assert.Equal(t, 8, rt.Parallelism)
}
