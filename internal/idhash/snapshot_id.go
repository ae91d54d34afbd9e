package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeSnapshotID computes a deterministic transit snapshot id.
// Formula: SHA256(query_ms|timezone|correction)
func ComputeSnapshotID(queryMs int64, timezone string, correction float64) string {
	data := fmt.Sprintf("%d|%s|%s", queryMs, timezone, formatFloat(correction))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
