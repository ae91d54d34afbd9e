package reporting

import (
	"time"

	"kundali-lab/internal/kundali"
)

// Report is a printable chart report.
type Report struct {
	GeneratedAt time.Time

	// Natal chart as persisted
	Natal kundali.Natal

	// Time-dependent sections, nil when the report is built from storage
	Current  *kundali.CurrentDasha
	Transits *kundali.Transits

	// Dasha hierarchy flattened in chronological order
	Dasha []DashaRow
}

// DashaRow is one period of the Vimshottari hierarchy. Lower levels leave the
// deeper lord columns empty.
type DashaRow struct {
	Level           int
	Mahadasha       string
	Antardasha      string
	Pratyantardasha string
	Start           string
	End             string
}

// FlattenDasha lists every period depth-first: each Mahadasha followed by its
// Antardashas, each followed by its Pratyantardashas.
func FlattenDasha(tree []kundali.Mahadasha) []DashaRow {
	var rows []DashaRow
	for _, md := range tree {
		rows = append(rows, DashaRow{Level: 1, Mahadasha: md.Planet, Start: md.Start, End: md.End})
		for _, ad := range md.Cycle {
			rows = append(rows, DashaRow{Level: 2, Mahadasha: md.Planet, Antardasha: ad.Planet, Start: ad.Start, End: ad.End})
			for _, pd := range ad.Cycle {
				rows = append(rows, DashaRow{
					Level: 3, Mahadasha: md.Planet, Antardasha: ad.Planet, Pratyantardasha: pd.Planet,
					Start: pd.Start, End: pd.End,
				})
			}
		}
	}
	return rows
}
