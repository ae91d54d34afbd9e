package domain

// ChartPlacement is a planet placed in a divisional chart.
type ChartPlacement struct {
	Planet       Planet
	Longitude    float64 // sidereal longitude the placement was derived from
	Sign         Sign
	DegreeInSign float64
	House        int // 1..12, whole-sign from the chart's ascendant sign
	Nakshatra    Nakshatra
	Pada         int
}

// House is one of the twelve whole-sign houses.
type House struct {
	Number    int
	Sign      Sign
	Occupants []Planet
}

// DivisionalChart is a set of placements anchored to an ascendant sign.
type DivisionalChart struct {
	Name          string // "D1" or "D9"
	AscendantSign Sign
	Placements    []ChartPlacement // canonical planet order
	Houses        []House          // houses 1..12
}

// Placement returns the placement of p, or false if absent.
func (c DivisionalChart) Placement(p Planet) (ChartPlacement, bool) {
	for _, pl := range c.Placements {
		if pl.Planet == p {
			return pl, true
		}
	}
	return ChartPlacement{}, false
}

// AspectKind classifies an angular separation.
type AspectKind string

// Aspect kinds.
const (
	Conjunction AspectKind = "conjunction"
	Sextile     AspectKind = "sextile"
	Square      AspectKind = "square"
	Trine       AspectKind = "trine"
	Opposition  AspectKind = "opposition"
)

// AspectRelation is an aspect between two planets.
type AspectRelation struct {
	From       Planet
	To         Planet
	Kind       AspectKind
	Separation float64 // shortest arc, degrees
	Orb        float64 // |separation - exact angle|
}

// HouseAspect is a graha drishti cast by a planet onto a house.
type HouseAspect struct {
	Planet    Planet
	FromHouse int
	ToHouse   int
	Kind      string // "3rd", "4th", "5th", "7th", "8th", "9th", "10th"
}

// PlanetAspect is a graha drishti between planets, via the house the target occupies.
type PlanetAspect struct {
	From Planet
	To   Planet
	Kind string
}

// Drishti collects the house-based aspects of a D1 chart.
type Drishti struct {
	HouseAspects  []HouseAspect
	PlanetAspects []PlanetAspect
}

// Ascendant describes the rising point of a chart.
type Ascendant struct {
	Longitude    float64 // sidereal
	Sign         Sign
	DegreeInSign float64
	Nakshatra    Nakshatra
	Pada         int
}

// Chart is the natal chart produced by the chart builder.
type Chart struct {
	Ascendant Ascendant
	D1        DivisionalChart
	D9        DivisionalChart
	Aspects   []AspectRelation
	Drishti   Drishti
}
