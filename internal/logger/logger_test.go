package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Format: "json", Component: "engine", Out: &buf})

	log.WithField("miner", "5abc").WithError(errors.New("boom")).Info("evaluated")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "5abc", entry["miner"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "evaluated", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Format: "json", Out: &buf})

	log.Info("dropped")
	log.Debugf("dropped %d", 1)
	assert.Zero(t, buf.Len())

	log.Warnf("kept %d", 2)
	assert.Contains(t, buf.String(), "kept 2")
}

func TestNop(t *testing.T) {
	Nop().WithFields(map[string]interface{}{"a": 1}).Error("ignored")
}
