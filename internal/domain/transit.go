package domain

// TransitSnapshot is a point-in-time sidereal position table.
// It carries no reference to any birth moment.
type TransitSnapshot struct {
	QueryMs      int64  // UTC instant of the snapshot
	Timezone     string // IANA zone used for display
	CalculatedAt string // QueryMs rendered in Timezone
	Ayanamsa     float64
	Positions    []PlanetaryLongitude // canonical planet order
}

// Position returns the longitude of p, or false if absent.
func (s TransitSnapshot) Position(p Planet) (PlanetaryLongitude, bool) {
	for _, pl := range s.Positions {
		if pl.Planet == p {
			return pl, true
		}
	}
	return PlanetaryLongitude{}, false
}

// TransitPoint is one stored transit row (snapshot instant, planet).
type TransitPoint struct {
	CalculatedAtMs int64
	Planet         Planet
	Longitude      float64
	Sign           Sign
	Ayanamsa       float64
}

// ChartRecord is a persisted chart generation.
type ChartRecord struct {
	ChartID    string // deterministic hash of the inputs
	ShortID    string // base58 prefix of ChartID
	Name       string
	BirthUTCMs int64
	Latitude   float64
	Longitude  float64
	TZOffset   float64
	Correction float64
	Depth      int
	Payload    []byte // JSON-encoded natal result
	CreatedAt  int64  // Unix ms, set by the store
}
