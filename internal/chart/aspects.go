package chart

import (
	"math"
	"strconv"

	"kundali-lab/internal/domain"
)

// Classify returns the rule matching separation sep (0..180), preferring the
// smallest orb and, on equal orbs, the rule listed first.
func (b *Builder) Classify(sep float64) (AspectRule, bool) {
	var (
		best  AspectRule
		bestD = math.Inf(1)
		found bool
	)
	for _, r := range b.rules {
		d := math.Abs(sep - r.Angle)
		if d <= r.Orb && d < bestD {
			best, bestD, found = r, d, true
		}
	}
	return best, found
}

// Aspects returns the aspect relations between every pair of placed planets.
// From always precedes To in canonical planet order.
func (b *Builder) Aspects(placed []domain.PlanetaryLongitude) []domain.AspectRelation {
	out := []domain.AspectRelation{}
	for i := 0; i < len(placed); i++ {
		for j := i + 1; j < len(placed); j++ {
			sep := domain.Separation(placed[i].Longitude, placed[j].Longitude)
			rule, ok := b.Classify(sep)
			if !ok {
				continue
			}
			out = append(out, domain.AspectRelation{
				From:       placed[i].Planet,
				To:         placed[j].Planet,
				Kind:       rule.Kind,
				Separation: sep,
				Orb:        math.Abs(sep - rule.Angle),
			})
		}
	}
	return out
}

// drishtiHouses lists the houses, counted from its own, that a planet aspects.
var drishtiHouses = map[domain.Planet][]int{
	domain.Mars:    {4, 7, 8},
	domain.Jupiter: {5, 7, 9},
	domain.Saturn:  {3, 7, 10},
	domain.Rahu:    {5, 7, 9},
	domain.Ketu:    {5, 7, 9},
}

// DrishtiHouses returns the aspected house counts for p.
func DrishtiHouses(p domain.Planet) []int {
	if hs, ok := drishtiHouses[p]; ok {
		return hs
	}
	return []int{7}
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	}
	return strconv.Itoa(n) + "th"
}

// ComputeDrishti derives house and planet aspects from a D1 chart.
func ComputeDrishti(d1 domain.DivisionalChart) domain.Drishti {
	out := domain.Drishti{HouseAspects: []domain.HouseAspect{}, PlanetAspects: []domain.PlanetAspect{}}
	for _, pl := range d1.Placements {
		for _, n := range DrishtiHouses(pl.Planet) {
			target := (pl.House-1+n-1)%12 + 1
			kind := ordinal(n)
			out.HouseAspects = append(out.HouseAspects, domain.HouseAspect{
				Planet:    pl.Planet,
				FromHouse: pl.House,
				ToHouse:   target,
				Kind:      kind,
			})
			for _, occ := range d1.Houses[target-1].Occupants {
				if occ == pl.Planet {
					continue
				}
				out.PlanetAspects = append(out.PlanetAspects, domain.PlanetAspect{From: pl.Planet, To: occ, Kind: kind})
			}
		}
	}
	return out
}
