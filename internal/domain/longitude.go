package domain

// PlanetaryLongitude is a planet with its sidereal ecliptic longitude.
// Longitude is kept in [0, 360); sign, degree and nakshatra are derived on demand.
type PlanetaryLongitude struct {
	Planet    Planet
	Longitude float64
}

// NewPlanetaryLongitude normalizes longitude into [0, 360).
func NewPlanetaryLongitude(p Planet, longitude float64) PlanetaryLongitude {
	return PlanetaryLongitude{Planet: p, Longitude: Normalize(longitude)}
}

// Sign returns the zodiac sign of the longitude.
func (pl PlanetaryLongitude) Sign() Sign {
	return SignOf(pl.Longitude)
}

// DegreeInSign returns the offset within the sign, in [0, 30).
func (pl PlanetaryLongitude) DegreeInSign() float64 {
	return DegreeInSign(pl.Longitude)
}

// Nakshatra returns the lunar mansion of the longitude.
func (pl PlanetaryLongitude) Nakshatra() Nakshatra {
	return NakshatraOf(pl.Longitude)
}

// Pada returns the nakshatra quarter (1..4).
func (pl PlanetaryLongitude) Pada() int {
	return PadaOf(pl.Longitude)
}

// Longitudes maps planets to longitudes in degrees.
type Longitudes map[Planet]float64

// Ordered returns the entries as PlanetaryLongitude values in canonical order.
// Planets missing from the map are skipped.
func (l Longitudes) Ordered() []PlanetaryLongitude {
	out := make([]PlanetaryLongitude, 0, len(Planets))
	for _, p := range Planets {
		if v, ok := l[p]; ok {
			out = append(out, NewPlanetaryLongitude(p, v))
		}
	}
	return out
}
