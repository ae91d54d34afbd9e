package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/mr-tron/base58"
)

// ShortIDBytes is the number of hash bytes encoded into a short ID.
const ShortIDBytes = 12

// ComputeChartID computes a deterministic chart_id using SHA256.
// Formula: SHA256(name|birth_utc_ms|latitude|longitude|tz_offset|correction|depth)
// Floats are rendered with the shortest exact representation.
// Returns hex-encoded hash (64 characters).
func ComputeChartID(
	name string,
	birthUTCMs int64,
	latitude float64,
	longitude float64,
	tzOffset float64,
	correction float64,
	depth int,
) string {
	data := fmt.Sprintf("%s|%d|%s|%s|%s|%s|%d",
		name,
		birthUTCMs,
		formatFloat(latitude),
		formatFloat(longitude),
		formatFloat(tzOffset),
		formatFloat(correction),
		depth,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ShortChartID returns a base58 encoding of the first ShortIDBytes of a
// hex chart ID, suitable for URLs.
func ShortChartID(chartID string) (string, error) {
	raw, err := hex.DecodeString(chartID)
	if err != nil {
		return "", fmt.Errorf("idhash: decode chart id: %w", err)
	}
	if len(raw) < ShortIDBytes {
		return "", fmt.Errorf("idhash: chart id too short: %d bytes", len(raw))
	}
	return base58.Encode(raw[:ShortIDBytes]), nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
