package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeCommitmentID computes a deterministic commitment_id using SHA256.
// Formula: SHA256(miner_hotkey|hash_func|depth|actual_len|root)
// Returns hex-encoded hash (64 characters).
func ComputeCommitmentID(
	minerHotkey string,
	hashFunc string,
	depth int,
	actualLen int,
	root string,
) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%s",
		minerHotkey,
		hashFunc,
		depth,
		actualLen,
		root,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
