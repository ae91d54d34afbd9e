package chart

import (
	"math"

	"kundali-lab/internal/domain"
)

// navamsaStart is the sign the first pada of a sign maps to, by modality:
// movable signs start from themselves, fixed signs from the 9th sign and
// dual signs from the 5th.
var navamsaStart = map[domain.Modality]int{
	domain.Movable: 0,
	domain.Fixed:   8,
	domain.Dual:    4,
}

// NavamsaPada returns the 3°20' segment (0..8) of longitude within its sign.
func NavamsaPada(longitude float64) int {
	p := int(math.Floor(domain.DegreeInSign(longitude) / domain.NavamsaArc))
	if p > 8 {
		p = 8
	}
	return p
}

// NavamsaSign returns the D9 sign of a sidereal longitude.
func NavamsaSign(longitude float64) domain.Sign {
	sign := domain.SignOf(longitude)
	return sign.Add(navamsaStart[sign.Modality()] + NavamsaPada(longitude))
}

// navamsaDegree returns the position within the navamsa sign, scaled to 0..30.
func navamsaDegree(longitude float64) float64 {
	within := domain.DegreeInSign(longitude) - float64(NavamsaPada(longitude))*domain.NavamsaArc
	d := within * 9
	if d >= domain.SignArc {
		d = math.Nextafter(domain.SignArc, 0)
	}
	if d < 0 {
		d = 0
	}
	return d
}

func buildD9(placed []domain.PlanetaryLongitude, ascSign domain.Sign) domain.DivisionalChart {
	placements := make([]domain.ChartPlacement, 0, len(placed))
	for _, pl := range placed {
		sign := NavamsaSign(pl.Longitude)
		placements = append(placements, domain.ChartPlacement{
			Planet:       pl.Planet,
			Longitude:    pl.Longitude,
			Sign:         sign,
			DegreeInSign: navamsaDegree(pl.Longitude),
			House:        HouseOf(sign, ascSign),
			Nakshatra:    pl.Nakshatra(),
			Pada:         pl.Pada(),
		})
	}
	return domain.DivisionalChart{
		Name:          "D9",
		AscendantSign: ascSign,
		Placements:    placements,
		Houses:        buildHouses(placements, ascSign),
	}
}
