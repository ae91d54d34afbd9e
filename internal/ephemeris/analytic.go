package ephemeris

import (
	"math"

	"kundali-lab/internal/domain"
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi

	// general precession in longitude, degrees per Julian century
	precessionRate = 1.396971
)

// orbit holds J2000 mean Keplerian elements and their rates per century:
// semi-major axis (AU), eccentricity, inclination, mean longitude,
// longitude of perihelion and longitude of ascending node (degrees).
type orbit struct {
	a, aRate         float64
	e, eRate         float64
	incl, inclRate   float64
	meanL, meanLRate float64
	peri, periRate   float64
	node, nodeRate   float64
}

var (
	earthMoon = orbit{1.00000261, 0.00000562, 0.01671123, -0.00004392, -0.00001531, -0.01294668,
		100.46457166, 35999.37244981, 102.93768193, 0.32327364, 0, 0}

	orbits = map[domain.Planet]orbit{
		domain.Mercury: {0.38709927, 0.00000037, 0.20563593, 0.00001906, 7.00497902, -0.00594749,
			252.25032350, 149472.67411175, 77.45779628, 0.16047689, 48.33076593, -0.12534081},
		domain.Venus: {0.72333566, 0.00000390, 0.00677672, -0.00004107, 3.39467605, -0.00078890,
			181.97909950, 58517.81538729, 131.60246718, 0.00268329, 76.67984255, -0.27769418},
		domain.Mars: {1.52371034, 0.00001847, 0.09339410, 0.00007882, 1.84969142, -0.00813131,
			-4.55343205, 19140.30268499, -23.94362959, 0.44441088, 49.55953891, -0.29257343},
		domain.Jupiter: {5.20288700, -0.00011607, 0.04838624, -0.00013253, 1.30439695, -0.00183714,
			34.39644051, 3034.74612775, 14.72847983, 0.21252668, 100.47390909, 0.20469106},
		domain.Saturn: {9.53667594, -0.00125060, 0.05386179, -0.00050991, 2.48599187, 0.00193609,
			49.95424423, 1222.49362201, 92.59887831, -0.41897216, 113.66242448, -0.28867794},
	}
)

// lunarTerm is one periodic term of the Moon's longitude:
// coef * sin(d*D + m*M + mp*M' + f*F).
type lunarTerm struct {
	d, m, mp, f float64
	coef        float64
}

var lunarTerms = []lunarTerm{
	{0, 0, 1, 0, 6.288774},
	{2, 0, -1, 0, 1.274027},
	{2, 0, 0, 0, 0.658314},
	{0, 0, 2, 0, 0.213618},
	{0, 1, 0, 0, -0.185116},
	{0, 0, 0, 2, -0.114332},
	{2, 0, -2, 0, 0.058793},
	{2, -1, -1, 0, 0.057066},
	{2, 0, 1, 0, 0.053322},
	{2, -1, 0, 0, 0.045758},
	{0, 1, -1, 0, -0.040923},
	{1, 0, 0, 0, -0.034720},
	{0, 1, 1, 0, -0.030383},
	{2, 0, 0, -2, 0.015327},
	{0, 0, 1, 2, -0.012528},
	{0, 0, 1, -2, 0.010980},
	{4, 0, -1, 0, 0.010675},
	{0, 0, 3, 0, 0.010034},
	{4, 0, -2, 0, 0.008548},
}

// Analytic is a closed-form ephemeris: Keplerian mean elements for the
// planets, a truncated lunar theory for the Moon and the mean lunar node for
// Rahu. Accuracy is within a fraction of a degree for the Sun and Moon and
// about a degree for the planets across the supported span.
type Analytic struct{}

var _ Provider = Analytic{}

// NewAnalytic returns the analytic provider.
func NewAnalytic() Analytic {
	return Analytic{}
}

// Positions returns tropical longitudes (mean equinox of date).
func (Analytic) Positions(utcMs int64) (domain.Longitudes, error) {
	if err := checkRange(utcMs); err != nil {
		return nil, err
	}
	t := JulianCenturies(utcMs)

	out := make(domain.Longitudes, len(domain.Planets))
	out[domain.Sun] = sunLongitude(t)
	out[domain.Moon] = moonLongitude(t)

	ex, ey := heliocentric(earthMoon, t)
	for p, o := range orbits {
		px, py := heliocentric(o, t)
		lon := math.Atan2(py-ey, px-ex) * rad2deg
		out[p] = domain.Normalize(lon + precessionRate*t)
	}

	rahu := meanNode(t)
	out[domain.Rahu] = rahu
	out[domain.Ketu] = domain.Normalize(rahu + 180)
	return out, nil
}

// Ascendant returns the tropical ascendant for pos at utcMs.
func (Analytic) Ascendant(utcMs int64, pos domain.GeoPosition) (float64, error) {
	if err := checkRange(utcMs); err != nil {
		return 0, err
	}
	if err := pos.Validate(); err != nil {
		return 0, domain.NewError(domain.ErrInvalidAscendant, domain.StageEphemeris, err)
	}

	jd := JulianDay(utcMs)
	t := (jd - 2451545.0) / 36525.0
	gmst := 280.46061837 + 360.98564736629*(jd-2451545.0) + 0.000387933*t*t - t*t*t/38710000.0
	lst := domain.Normalize(gmst+pos.Longitude) * deg2rad
	eps := (23.439291 - 0.0130042*t) * deg2rad
	phi := pos.Latitude * deg2rad

	asc := math.Atan2(math.Cos(lst), -(math.Sin(lst)*math.Cos(eps) + math.Tan(phi)*math.Sin(eps)))
	deg := asc * rad2deg
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0, domain.Errorf(domain.ErrInvalidAscendant, domain.StageEphemeris,
			"no ascendant at latitude %v", pos.Latitude)
	}
	return domain.Normalize(deg), nil
}

// heliocentric returns J2000 ecliptic x, y (AU) for the orbit at t.
// Latitude does not affect longitude, so z is not computed.
func heliocentric(o orbit, t float64) (x, y float64) {
	a := o.a + o.aRate*t
	e := o.e + o.eRate*t
	incl := (o.incl + o.inclRate*t) * deg2rad
	meanL := o.meanL + o.meanLRate*t
	peri := o.peri + o.periRate*t
	node := o.node + o.nodeRate*t

	argPeri := (peri - node) * deg2rad
	m := domain.Normalize(meanL-peri) * deg2rad
	nodeR := node * deg2rad

	ecc := solveKepler(m, e)
	xp := a * (math.Cos(ecc) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(ecc)

	cw, sw := math.Cos(argPeri), math.Sin(argPeri)
	cn, sn := math.Cos(nodeR), math.Sin(nodeR)
	ci := math.Cos(incl)

	x = (cw*cn-sw*sn*ci)*xp + (-sw*cn-cw*sn*ci)*yp
	y = (cw*sn+sw*cn*ci)*xp + (-sw*sn+cw*cn*ci)*yp
	return x, y
}

// solveKepler solves E - e*sin(E) = M by Newton iteration (radians).
func solveKepler(m, e float64) float64 {
	ecc := m + e*math.Sin(m)
	for i := 0; i < 30; i++ {
		delta := (ecc - e*math.Sin(ecc) - m) / (1 - e*math.Cos(ecc))
		ecc -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return ecc
}

func sunLongitude(t float64) float64 {
	l0 := 280.46646 + 36000.76983*t + 0.0003032*t*t
	m := (357.52911 + 35999.05029*t - 0.0001537*t*t) * deg2rad
	c := (1.914602-0.004817*t-0.000014*t*t)*math.Sin(m) +
		(0.019993-0.000101*t)*math.Sin(2*m) +
		0.000289*math.Sin(3*m)
	return domain.Normalize(l0 + c)
}

func moonLongitude(t float64) float64 {
	lp := 218.3164477 + 481267.88123421*t
	d := (297.8501921 + 445267.1114034*t) * deg2rad
	m := (357.5291092 + 35999.0502909*t) * deg2rad
	mp := (134.9633964 + 477198.8675055*t) * deg2rad
	f := (93.2720950 + 483202.0175233*t) * deg2rad

	sum := 0.0
	for _, term := range lunarTerms {
		sum += term.coef * math.Sin(term.d*d+term.m*m+term.mp*mp+term.f*f)
	}
	return domain.Normalize(lp + sum)
}

func meanNode(t float64) float64 {
	return domain.Normalize(125.0445479 - 1934.1362891*t + 0.0020754*t*t)
}
