// Package transit produces point-in-time sidereal position tables.
package transit

import (
	"strings"
	"time"

	"kundali-lab/internal/ayanamsa"
	"kundali-lab/internal/domain"
	"kundali-lab/internal/ephemeris"
)

// CalculatedAtLayout formats the snapshot instant for display.
const CalculatedAtLayout = "2006-01-02 15:04:05 MST"

// Snapshotter composes an ephemeris provider with a corrector. Use the same
// corrector as natal computations so transits and charts are comparable.
type Snapshotter struct {
	provider  ephemeris.Provider
	corrector *ayanamsa.Corrector
}

// NewSnapshotter creates a Snapshotter.
func NewSnapshotter(provider ephemeris.Provider, corrector *ayanamsa.Corrector) *Snapshotter {
	return &Snapshotter{provider: provider, corrector: corrector}
}

// LoadZone resolves an IANA zone name. Unknown names are input errors.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Errorf(domain.ErrInputValidation, domain.StageTransit, "empty timezone")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, domain.NewError(domain.ErrInputValidation, domain.StageTransit, err)
	}
	return loc, nil
}

// Snapshot returns sidereal positions at queryMs. The timezone only affects
// CalculatedAt; the computation itself is in UTC.
func (s *Snapshotter) Snapshot(queryMs int64, timezone string) (domain.TransitSnapshot, error) {
	loc, err := LoadZone(timezone)
	if err != nil {
		return domain.TransitSnapshot{}, err
	}

	tropical, err := s.provider.Positions(queryMs)
	if err != nil {
		return domain.TransitSnapshot{}, err
	}
	sidereal := s.corrector.CorrectAll(tropical, queryMs)

	return domain.TransitSnapshot{
		QueryMs:      queryMs,
		Timezone:     loc.String(),
		CalculatedAt: time.UnixMilli(queryMs).In(loc).Format(CalculatedAtLayout),
		Ayanamsa:     s.corrector.Value(queryMs),
		Positions:    sidereal.Ordered(),
	}, nil
}

// Points flattens a snapshot into storable rows.
func Points(s domain.TransitSnapshot) []domain.TransitPoint {
	out := make([]domain.TransitPoint, 0, len(s.Positions))
	for _, p := range s.Positions {
		out = append(out, domain.TransitPoint{
			CalculatedAtMs: s.QueryMs,
			Planet:         p.Planet,
			Longitude:      p.Longitude,
			Sign:           p.Sign(),
			Ayanamsa:       s.Ayanamsa,
		})
	}
	return out
}
