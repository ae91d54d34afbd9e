package kundali

import (
	"time"

	"kundali-lab/internal/domain"
	"kundali-lab/internal/idhash"
)

// DateLayout formats dasha boundaries in the birth zone.
const DateLayout = "2006-01-02"

// Result is the generate response.
type Result struct {
	Name         string       `json:"name"`
	ChartID      string       `json:"chart_id"`
	ShortID      string       `json:"short_id"`
	BirthDetails BirthDetails `json:"birth_details"`
	Kundali      Kundali      `json:"kundali"`
	Dasha        Dasha        `json:"dasha"`
	Transits     *Transits    `json:"transits"`
}

// Natal is the time-independent part of a Result: what is persisted and
// served from /charts/{id}.
type Natal struct {
	Name         string       `json:"name"`
	ChartID      string       `json:"chart_id"`
	ShortID      string       `json:"short_id"`
	BirthDetails BirthDetails `json:"birth_details"`
	Kundali      Kundali      `json:"kundali"`
	Vimshottari  []Mahadasha  `json:"vimshottari_dasha"`
}

// BirthDetails echoes the resolved birth moment.
type BirthDetails struct {
	BirthDate        string  `json:"birth_date"` // civil time, ISO 8601 without zone
	BirthUTC         string  `json:"birth_utc"`
	BirthUTCMs       int64   `json:"birth_utc_ms"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	TimezoneOffset   float64 `json:"timezone_offset"`
	Timezone         string  `json:"timezone"`
	Ayanamsa         float64 `json:"ayanamsa"`
	CorrectionDegree float64 `json:"correction_degree"`
	DashaDepth       int     `json:"dasha_depth"`
	Place            string  `json:"place,omitempty"`
}

// Kundali holds the natal chart.
type Kundali struct {
	Type      string        `json:"@type"`
	Ascendant AscendantView `json:"ascendant"`
	D1        ChartView     `json:"d1Chart"`
	D9        ChartView     `json:"d9"`
	Aspects   AspectsView   `json:"aspects"`
}

// AscendantView describes the rising sign.
type AscendantView struct {
	Sign         string  `json:"sign"`
	DegreeInSign string  `json:"degree_in_sign"`
	Longitude    float64 `json:"longitude"`
	Nakshatra    string  `json:"nakshatra"`
	Pada         int     `json:"pada"`
}

// ChartView is one divisional chart.
type ChartView struct {
	AscendantSign string          `json:"ascendant_sign"`
	Planets       []PlacementView `json:"planets"`
	Houses        []HouseView     `json:"houses"`
}

// PlacementView is a planet in a divisional chart.
type PlacementView struct {
	Planet        string  `json:"planet"`
	Sign          string  `json:"sign"`
	DegreeInSign  string  `json:"degree_in_sign"`
	Longitude     float64 `json:"longitude"`
	House         int     `json:"house"`
	Nakshatra     string  `json:"nakshatra"`
	NakshatraLord string  `json:"nakshatra_lord"`
	Pada          int     `json:"pada"`
}

// HouseView is a whole-sign house and its occupants.
type HouseView struct {
	Number    int      `json:"number"`
	Sign      string   `json:"sign"`
	Occupants []string `json:"occupants"`
}

// AspectsView carries angular aspects and graha drishti.
type AspectsView struct {
	Planetary        []AspectView       `json:"planetary"`
	HouseReceived    []HouseAspectView  `json:"house_aspects_received"`
	PlanetaryGives   []PlanetAspectView `json:"planetary_aspects_gives"`
	PlanetaryReceive []PlanetAspectView `json:"planetary_aspects_receives"`
}

// AspectView is an angular aspect between two planets.
type AspectView struct {
	From       string  `json:"from_planet"`
	To         string  `json:"to_planet"`
	Type       string  `json:"aspect_type"`
	Separation float64 `json:"separation"`
	Orb        float64 `json:"orb"`
}

// HouseAspectView is a drishti received by a house.
type HouseAspectView struct {
	House     int    `json:"house"`
	Aspecting string `json:"aspecting_planet"`
	Type      string `json:"aspect_type"`
}

// PlanetAspectView is a drishti between planets.
type PlanetAspectView struct {
	From string `json:"from_planet"`
	To   string `json:"to_planet"`
	Type string `json:"aspect_type"`
}

// Dasha holds the period hierarchy and the periods current at the reference time.
type Dasha struct {
	Vimshottari []Mahadasha   `json:"vimshottari_dasha"`
	Current     *CurrentDasha `json:"current_dasha"`
}

// Mahadasha is a top-level period with its Antardashas.
type Mahadasha struct {
	Planet string       `json:"MD"`
	Start  string       `json:"Start"`
	End    string       `json:"End"`
	Cycle  []Antardasha `json:"AD_Cycle,omitempty"`
}

// Antardasha is a second-level period.
type Antardasha struct {
	Planet string            `json:"AD"`
	Start  string            `json:"Start"`
	End    string            `json:"End"`
	Cycle  []Pratyantardasha `json:"PD_Cycle,omitempty"`
}

// Pratyantardasha is a third-level period.
type Pratyantardasha struct {
	Planet string `json:"PD"`
	Start  string `json:"Start"`
	End    string `json:"End"`
}

// PeriodView is a period reported by a lookup.
type PeriodView struct {
	Planet string `json:"planet"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// CurrentDasha is the lookup result at the reference time.
type CurrentDasha struct {
	ReferenceDate   string      `json:"reference_date"`
	Mahadasha       PeriodView  `json:"current_mahadasha"`
	Antardasha      *PeriodView `json:"current_antardasha"`
	Pratyantardasha *PeriodView `json:"current_pratyantardasha"`
	NextMahadasha   *PeriodView `json:"next_mahadasha"`
}

// Transits is a transit snapshot.
type Transits struct {
	SnapshotID   string        `json:"snapshot_id"`
	CalculatedAt string        `json:"calculated_at"`
	Timezone     string        `json:"timezone"`
	Ayanamsa     float64       `json:"ayanamsa"`
	Planets      []TransitView `json:"planets"`
}

// TransitView is one planet of a transit snapshot.
type TransitView struct {
	Planet        string  `json:"planet"`
	Sign          string  `json:"sign"`
	DegreeInSign  string  `json:"degree_in_sign"`
	LongitudeFull float64 `json:"longitude_full"`
}

// Natal returns the time-independent part of r.
func (r *Result) Natal() Natal {
	return Natal{
		Name:         r.Name,
		ChartID:      r.ChartID,
		ShortID:      r.ShortID,
		BirthDetails: r.BirthDetails,
		Kundali:      r.Kundali,
		Vimshottari:  r.Dasha.Vimshottari,
	}
}

func kundaliView(c domain.Chart) Kundali {
	return Kundali{
		Type: "VedicBirthChart",
		Ascendant: AscendantView{
			Sign:         c.Ascendant.Sign.Name(),
			DegreeInSign: domain.FormatDMS(c.Ascendant.DegreeInSign),
			Longitude:    c.Ascendant.Longitude,
			Nakshatra:    c.Ascendant.Nakshatra.Name(),
			Pada:         c.Ascendant.Pada,
		},
		D1:      chartView(c.D1),
		D9:      chartView(c.D9),
		Aspects: aspectsView(c),
	}
}

func chartView(d domain.DivisionalChart) ChartView {
	v := ChartView{
		AscendantSign: d.AscendantSign.Name(),
		Planets:       make([]PlacementView, 0, len(d.Placements)),
		Houses:        make([]HouseView, 0, len(d.Houses)),
	}
	for _, p := range d.Placements {
		v.Planets = append(v.Planets, PlacementView{
			Planet:        string(p.Planet),
			Sign:          p.Sign.Name(),
			DegreeInSign:  domain.FormatDMS(p.DegreeInSign),
			Longitude:     p.Longitude,
			House:         p.House,
			Nakshatra:     p.Nakshatra.Name(),
			NakshatraLord: string(p.Nakshatra.Lord()),
			Pada:          p.Pada,
		})
	}
	for _, h := range d.Houses {
		occ := make([]string, 0, len(h.Occupants))
		for _, p := range h.Occupants {
			occ = append(occ, string(p))
		}
		v.Houses = append(v.Houses, HouseView{Number: h.Number, Sign: h.Sign.Name(), Occupants: occ})
	}
	return v
}

func aspectsView(c domain.Chart) AspectsView {
	v := AspectsView{
		Planetary:        make([]AspectView, 0, len(c.Aspects)),
		HouseReceived:    make([]HouseAspectView, 0, len(c.Drishti.HouseAspects)),
		PlanetaryGives:   make([]PlanetAspectView, 0, len(c.Drishti.PlanetAspects)),
		PlanetaryReceive: make([]PlanetAspectView, 0, len(c.Drishti.PlanetAspects)),
	}
	for _, a := range c.Aspects {
		v.Planetary = append(v.Planetary, AspectView{
			From: string(a.From), To: string(a.To), Type: string(a.Kind),
			Separation: a.Separation, Orb: a.Orb,
		})
	}

	// received aspects are listed by house number
	for house := 1; house <= 12; house++ {
		for _, a := range c.Drishti.HouseAspects {
			if a.ToHouse == house {
				v.HouseReceived = append(v.HouseReceived, HouseAspectView{House: house, Aspecting: string(a.Planet), Type: a.Kind})
			}
		}
	}

	for _, a := range c.Drishti.PlanetAspects {
		v.PlanetaryGives = append(v.PlanetaryGives, PlanetAspectView{From: string(a.From), To: string(a.To), Type: a.Kind})
	}
	for _, target := range domain.Planets {
		for _, a := range c.Drishti.PlanetAspects {
			if a.To == target {
				v.PlanetaryReceive = append(v.PlanetaryReceive, PlanetAspectView{From: string(a.From), To: string(a.To), Type: a.Kind})
			}
		}
	}
	return v
}

func formatDate(ms int64, loc *time.Location) string {
	return time.UnixMilli(ms).In(loc).Format(DateLayout)
}

func dashaTree(tree []domain.DashaPeriod, loc *time.Location) []Mahadasha {
	out := make([]Mahadasha, 0, len(tree))
	for _, md := range tree {
		m := Mahadasha{Planet: string(md.Planet), Start: formatDate(md.StartMs, loc), End: formatDate(md.EndMs, loc)}
		for _, ad := range md.Children {
			a := Antardasha{Planet: string(ad.Planet), Start: formatDate(ad.StartMs, loc), End: formatDate(ad.EndMs, loc)}
			for _, pd := range ad.Children {
				a.Cycle = append(a.Cycle, Pratyantardasha{
					Planet: string(pd.Planet), Start: formatDate(pd.StartMs, loc), End: formatDate(pd.EndMs, loc),
				})
			}
			m.Cycle = append(m.Cycle, a)
		}
		out = append(out, m)
	}
	return out
}

func periodView(s domain.DashaSpan, loc *time.Location) PeriodView {
	return PeriodView{Planet: string(s.Planet), Start: formatDate(s.StartMs, loc), End: formatDate(s.EndMs, loc)}
}

func periodViewPtr(s *domain.DashaSpan, loc *time.Location) *PeriodView {
	if s == nil {
		return nil
	}
	v := periodView(*s, loc)
	return &v
}

func currentDashaView(cur domain.CurrentDasha, loc *time.Location) *CurrentDasha {
	return &CurrentDasha{
		ReferenceDate:   formatDate(cur.ReferenceMs, loc),
		Mahadasha:       periodView(cur.Mahadasha, loc),
		Antardasha:      periodViewPtr(cur.Antardasha, loc),
		Pratyantardasha: periodViewPtr(cur.Pratyantardasha, loc),
		NextMahadasha:   periodViewPtr(cur.NextMahadasha, loc),
	}
}

// TransitsView renders a snapshot taken with the given ayanamsa correction.
func TransitsView(s domain.TransitSnapshot, correction float64) *Transits {
	t := &Transits{
		SnapshotID:   idhash.ComputeSnapshotID(s.QueryMs, s.Timezone, correction),
		CalculatedAt: s.CalculatedAt,
		Timezone:     s.Timezone,
		Ayanamsa:     s.Ayanamsa,
		Planets:      make([]TransitView, 0, len(s.Positions)),
	}
	for _, p := range s.Positions {
		t.Planets = append(t.Planets, TransitView{
			Planet:        string(p.Planet),
			Sign:          p.Sign().Name(),
			DegreeInSign:  domain.FormatDMS(p.DegreeInSign()),
			LongitudeFull: p.Longitude,
		})
	}
	return t
}
