package domain

import (
	"fmt"
	"math"
)

// Angular constants in degrees.
const (
	FullCircle    = 360.0
	SignArc       = 30.0
	NakshatraArc  = 360.0 / 27.0 // 13°20'
	PadaArc       = NakshatraArc / 4.0
	NavamsaArc    = SignArc / 9.0 // 3°20'
	NakshatraSpan = 27
)

// Sign is a zodiac sign index, 0 (Aries) through 11 (Pisces).
type Sign int

// Sign constants.
const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// Name returns the English sign name.
func (s Sign) Name() string {
	return signNames[s.normalized()]
}

func (s Sign) String() string {
	return s.Name()
}

// Add returns the sign n steps forward (n may be negative).
func (s Sign) Add(n int) Sign {
	return Sign((int(s) + n%12 + 12) % 12)
}

func (s Sign) normalized() int {
	return (int(s)%12 + 12) % 12
}

// Modality is the movable/fixed/dual quality of a sign.
type Modality int

// Modality constants.
const (
	Movable Modality = iota
	Fixed
	Dual
)

func (m Modality) String() string {
	switch m {
	case Movable:
		return "movable"
	case Fixed:
		return "fixed"
	default:
		return "dual"
	}
}

// Modality returns the sign's quality. Signs cycle movable, fixed, dual from Aries.
func (s Sign) Modality() Modality {
	return Modality(s.normalized() % 3)
}

// Normalize maps any finite angle into [0, 360).
func Normalize(deg float64) float64 {
	r := math.Mod(deg, FullCircle)
	if r < 0 {
		r += FullCircle
	}
	// math.Mod of a tiny negative value plus 360 can round up to exactly 360.
	if r >= FullCircle {
		r = 0
	}
	return r
}

// SignOf returns floor(L/30) mod 12 for any longitude.
func SignOf(longitude float64) Sign {
	return Sign(int(math.Floor(Normalize(longitude)/SignArc)) % 12)
}

// DegreeInSign returns the offset of longitude within its sign, in [0, 30).
func DegreeInSign(longitude float64) float64 {
	l := Normalize(longitude)
	return l - float64(SignOf(l))*SignArc
}

// Separation returns the shortest arc between two longitudes, in [0, 180].
func Separation(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > 180 {
		d = FullCircle - d
	}
	return d
}

// FormatDMS renders an angle as D°M'S" with truncated minutes and seconds.
func FormatDMS(deg float64) string {
	d := int(deg)
	minutesF := (deg - float64(d)) * 60
	m := int(minutesF)
	s := int((minutesF - float64(m)) * 60)
	return fmt.Sprintf("%d°%d'%d\"", d, m, s)
}
