// Package chart places sidereal longitudes into whole-sign houses and derives
// the D1 and D9 charts, angular aspects and graha drishti.
package chart

import (
	"math"

	"kundali-lab/internal/domain"
)

// AspectRule classifies separations within Orb of Angle as Kind.
type AspectRule struct {
	Kind  domain.AspectKind
	Angle float64
	Orb   float64
}

// DefaultAspectRules is the aspect table, ordered by angle.
var DefaultAspectRules = []AspectRule{
	{domain.Conjunction, 0, 8},
	{domain.Sextile, 60, 6},
	{domain.Square, 90, 7},
	{domain.Trine, 120, 8},
	{domain.Opposition, 180, 8},
}

// Builder builds natal charts. It holds no mutable state.
type Builder struct {
	rules []AspectRule
}

// NewBuilder returns a Builder using DefaultAspectRules.
func NewBuilder() *Builder {
	return &Builder{rules: DefaultAspectRules}
}

// NewBuilderWithRules returns a Builder with a custom aspect table.
// Rules are evaluated in the given order; list them by ascending angle so
// equidistant ties go to the lower angle.
func NewBuilderWithRules(rules []AspectRule) *Builder {
	cp := make([]AspectRule, len(rules))
	copy(cp, rules)
	return &Builder{rules: cp}
}

// Build places every planet of sidereal into D1 and D9 relative to the
// sidereal ascendant. A non-finite ascendant yields ErrInvalidAscendant.
func (b *Builder) Build(sidereal domain.Longitudes, ascendant float64) (domain.Chart, error) {
	if math.IsNaN(ascendant) || math.IsInf(ascendant, 0) {
		return domain.Chart{}, domain.Errorf(domain.ErrInvalidAscendant, domain.StageChart,
			"ascendant longitude %v", ascendant)
	}
	for _, p := range domain.Planets {
		l, ok := sidereal[p]
		if !ok {
			return domain.Chart{}, domain.Errorf(domain.ErrInputValidation, domain.StageChart, "missing longitude for %s", p)
		}
		if math.IsNaN(l) || math.IsInf(l, 0) {
			return domain.Chart{}, domain.Errorf(domain.ErrInputValidation, domain.StageChart, "longitude of %s is %v", p, l)
		}
	}

	asc := domain.NewPlanetaryLongitude("", ascendant)
	placed := sidereal.Ordered()

	d1 := buildD1(placed, asc.Sign())
	d9 := buildD9(placed, NavamsaSign(asc.Longitude))

	return domain.Chart{
		Ascendant: domain.Ascendant{
			Longitude:    asc.Longitude,
			Sign:         asc.Sign(),
			DegreeInSign: asc.DegreeInSign(),
			Nakshatra:    asc.Nakshatra(),
			Pada:         asc.Pada(),
		},
		D1:      d1,
		D9:      d9,
		Aspects: b.Aspects(placed),
		Drishti: ComputeDrishti(d1),
	}, nil
}

// HouseOf returns the whole-sign house (1..12) of sign counted from ascSign.
func HouseOf(sign, ascSign domain.Sign) int {
	return (int(sign)-int(ascSign)+12)%12 + 1
}

func buildD1(placed []domain.PlanetaryLongitude, ascSign domain.Sign) domain.DivisionalChart {
	placements := make([]domain.ChartPlacement, 0, len(placed))
	for _, pl := range placed {
		placements = append(placements, domain.ChartPlacement{
			Planet:       pl.Planet,
			Longitude:    pl.Longitude,
			Sign:         pl.Sign(),
			DegreeInSign: pl.DegreeInSign(),
			House:        HouseOf(pl.Sign(), ascSign),
			Nakshatra:    pl.Nakshatra(),
			Pada:         pl.Pada(),
		})
	}
	return domain.DivisionalChart{
		Name:          "D1",
		AscendantSign: ascSign,
		Placements:    placements,
		Houses:        buildHouses(placements, ascSign),
	}
}

func buildHouses(placements []domain.ChartPlacement, ascSign domain.Sign) []domain.House {
	houses := make([]domain.House, 12)
	for i := range houses {
		houses[i] = domain.House{Number: i + 1, Sign: ascSign.Add(i), Occupants: []domain.Planet{}}
	}
	for _, pl := range placements {
		h := &houses[pl.House-1]
		h.Occupants = append(h.Occupants, pl.Planet)
	}
	return houses
}
