package domain

import "math"

// Nakshatra is a lunar mansion index, 0 (Ashwini) through 26 (Revati).
type Nakshatra int

var nakshatraNames = [NakshatraSpan]string{
	"Ashwini", "Bharani", "Krittika", "Rohini", "Mrigashira", "Ardra",
	"Punarvasu", "Pushya", "Ashlesha", "Magha", "Purva Phalguni", "Uttara Phalguni",
	"Hasta", "Chitra", "Swati", "Vishakha", "Anuradha", "Jyeshtha",
	"Mula", "Purva Ashadha", "Uttara Ashadha", "Shravana", "Dhanishta", "Shatabhisha",
	"Purva Bhadrapada", "Uttara Bhadrapada", "Revati",
}

// VimshottariOrder is the fixed cyclic order of dasha lords, starting from the
// lord of Ashwini. Nakshatra lords repeat this order three times.
var VimshottariOrder = []Planet{Ketu, Venus, Sun, Moon, Mars, Rahu, Jupiter, Saturn, Mercury}

// Name returns the traditional name of the nakshatra.
func (n Nakshatra) Name() string {
	return nakshatraNames[int(n)%NakshatraSpan]
}

func (n Nakshatra) String() string {
	return n.Name()
}

// Lord returns the ruling planet of the nakshatra.
func (n Nakshatra) Lord() Planet {
	return VimshottariOrder[int(n)%len(VimshottariOrder)]
}

// Start returns the longitude at which the nakshatra begins.
func (n Nakshatra) Start() float64 {
	return float64(n) * NakshatraArc
}

// NakshatraOf returns the nakshatra containing longitude.
func NakshatraOf(longitude float64) Nakshatra {
	idx := int(math.Floor(Normalize(longitude) / NakshatraArc))
	if idx >= NakshatraSpan {
		idx = NakshatraSpan - 1
	}
	return Nakshatra(idx)
}

// NakshatraFraction returns how far (0 ≤ f < 1) longitude has travelled through
// its nakshatra.
func NakshatraFraction(longitude float64) float64 {
	l := Normalize(longitude)
	n := NakshatraOf(l)
	f := (l - n.Start()) / NakshatraArc
	if f < 0 {
		return 0
	}
	if f >= 1 {
		return math.Nextafter(1, 0)
	}
	return f
}

// PadaOf returns the quarter (1..4) of the nakshatra containing longitude.
func PadaOf(longitude float64) int {
	l := Normalize(longitude)
	p := int(math.Floor((l-NakshatraOf(l).Start())/PadaArc)) + 1
	if p > 4 {
		p = 4
	}
	return p
}
