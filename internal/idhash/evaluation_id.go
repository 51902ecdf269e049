package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeEvaluationID computes a deterministic evaluation_id using SHA256.
// Formula: SHA256(miner_hotkey|config_fingerprint|returns_root|signals_root|bypass|weighted)
// signals_root is empty when the miner has no committed signals.
// Returns hex-encoded hash (64 characters).
func ComputeEvaluationID(
	minerHotkey string,
	configFingerprint string,
	returnsRoot string,
	signalsRoot string,
	bypassConfidence bool,
	weighted bool,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%t|%t",
		minerHotkey,
		configFingerprint,
		returnsRoot,
		signalsRoot,
		bypassConfidence,
		weighted,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
