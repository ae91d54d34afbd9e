// Package ephemeris computes tropical geocentric ecliptic longitudes of the
// nine bodies used in chart construction.
package ephemeris

import (
	"time"

	"kundali-lab/internal/domain"
)

// Provider returns tropical longitudes for a UTC instant.
// Implementations must be deterministic and must report instants outside their
// supported span with domain.ErrOutOfRange instead of clamping.
type Provider interface {
	// Positions returns the tropical longitude of every planet in domain.Planets.
	Positions(utcMs int64) (domain.Longitudes, error)

	// Ascendant returns the tropical longitude of the eastern horizon for the
	// given position.
	Ascendant(utcMs int64, pos domain.GeoPosition) (float64, error)
}

// Supported span of the analytic model: [1800-01-01, 2200-01-01) UTC.
var (
	MinInstantMs = time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	MaxInstantMs = time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
)

// InRange reports whether utcMs lies inside the supported span.
func InRange(utcMs int64) bool {
	return utcMs >= MinInstantMs && utcMs < MaxInstantMs
}

func checkRange(utcMs int64) error {
	if !InRange(utcMs) {
		return domain.Errorf(domain.ErrOutOfRange, domain.StageEphemeris,
			"%s outside [1800-01-01, 2200-01-01)", time.UnixMilli(utcMs).UTC().Format(time.RFC3339))
	}
	return nil
}

// JulianDay converts Unix milliseconds to a Julian day number (UT).
func JulianDay(utcMs int64) float64 {
	return float64(utcMs)/86400000.0 + 2440587.5
}

// JulianCenturies returns centuries since J2000.0 for utcMs.
func JulianCenturies(utcMs int64) float64 {
	return (JulianDay(utcMs) - 2451545.0) / 36525.0
}
