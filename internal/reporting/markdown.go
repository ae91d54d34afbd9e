package reporting

import (
	"fmt"
	"strings"
	"time"

	"kundali-lab/internal/kundali"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder
	n := r.Natal
	b := n.BirthDetails

	// Header
	sb.WriteString(fmt.Sprintf("# Kundali: %s\n\n", n.Name))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Chart ID: `%s` (short `%s`)\n\n", n.ChartID, n.ShortID))

	// Birth details
	sb.WriteString("## Birth Details\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Local Time | %s |\n", b.BirthDate))
	sb.WriteString(fmt.Sprintf("| UTC | %s |\n", b.BirthUTC))
	sb.WriteString(fmt.Sprintf("| Timezone | %s |\n", b.Timezone))
	if b.Place != "" {
		sb.WriteString(fmt.Sprintf("| Place | %s |\n", b.Place))
	}
	sb.WriteString(fmt.Sprintf("| Latitude | %.4f |\n", b.Latitude))
	sb.WriteString(fmt.Sprintf("| Longitude | %.4f |\n", b.Longitude))
	sb.WriteString(fmt.Sprintf("| Ayanamsa (Lahiri) | %.6f |\n", b.Ayanamsa))
	sb.WriteString(fmt.Sprintf("| Correction | %.4f |\n", b.CorrectionDegree))
	sb.WriteString("\n")

	// Lagna
	asc := n.Kundali.Ascendant
	sb.WriteString("## Lagna (Ascendant)\n\n")
	sb.WriteString(fmt.Sprintf("%s %s, %s pada %d\n\n", asc.Sign, asc.DegreeInSign, asc.Nakshatra, asc.Pada))

	writeChart(&sb, "Planetary Positions (D1)", n.Kundali.D1)
	writeChart(&sb, "Navamsa (D9)", n.Kundali.D9)

	// Houses
	sb.WriteString("## Houses (D1)\n\n")
	sb.WriteString("| House | Sign | Occupants |\n")
	sb.WriteString("|-------|------|-----------|\n")
	for _, h := range n.Kundali.D1.Houses {
		occ := "-"
		if len(h.Occupants) > 0 {
			occ = strings.Join(h.Occupants, ", ")
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s |\n", h.Number, h.Sign, occ))
	}
	sb.WriteString("\n")

	// Aspects
	sb.WriteString("## Aspects\n\n")
	if len(n.Kundali.Aspects.Planetary) > 0 {
		sb.WriteString("| From | To | Aspect | Separation | Orb |\n")
		sb.WriteString("|------|----|--------|------------|-----|\n")
		for _, a := range n.Kundali.Aspects.Planetary {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.2f | %.2f |\n", a.From, a.To, a.Type, a.Separation, a.Orb))
		}
	} else {
		sb.WriteString("No angular aspects within orb.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Graha Drishti\n\n")
	for _, a := range n.Kundali.Aspects.HouseReceived {
		sb.WriteString(fmt.Sprintf("- House %d receives %s from %s\n", a.House, a.Type, a.Aspecting))
	}
	sb.WriteString("\n")

	// Dasha
	sb.WriteString("## Vimshottari Dasha\n\n")
	sb.WriteString("| Mahadasha | Start | End |\n")
	sb.WriteString("|-----------|-------|-----|\n")
	for _, md := range n.Vimshottari {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", md.Planet, md.Start, md.End))
	}
	sb.WriteString("\n")

	if c := r.Current; c != nil {
		sb.WriteString(fmt.Sprintf("### Current Periods (%s)\n\n", c.ReferenceDate))
		writePeriod(&sb, "Mahadasha", &c.Mahadasha)
		writePeriod(&sb, "Antardasha", c.Antardasha)
		writePeriod(&sb, "Pratyantardasha", c.Pratyantardasha)
		writePeriod(&sb, "Next Mahadasha", c.NextMahadasha)
		sb.WriteString("\n")
	}

	// Transits
	if t := r.Transits; t != nil {
		sb.WriteString("## Transits\n\n")
		sb.WriteString(fmt.Sprintf("Calculated at %s (ayanamsa %.6f)\n\n", t.CalculatedAt, t.Ayanamsa))
		sb.WriteString("| Planet | Sign | Degree | Longitude |\n")
		sb.WriteString("|--------|------|--------|-----------|\n")
		for _, p := range t.Planets {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.4f |\n", p.Planet, p.Sign, p.DegreeInSign, p.LongitudeFull))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeChart(sb *strings.Builder, title string, c kundali.ChartView) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	sb.WriteString(fmt.Sprintf("Ascendant sign: %s\n\n", c.AscendantSign))
	sb.WriteString("| Planet | Sign | Degree | House | Nakshatra | Pada |\n")
	sb.WriteString("|--------|------|--------|-------|-----------|------|\n")
	for _, p := range c.Planets {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s | %d |\n",
			p.Planet, p.Sign, p.DegreeInSign, p.House, p.Nakshatra, p.Pada))
	}
	sb.WriteString("\n")
}

func writePeriod(sb *strings.Builder, label string, p *kundali.PeriodView) {
	if p == nil {
		return
	}
	sb.WriteString(fmt.Sprintf("- %s: %s (%s to %s)\n", label, p.Planet, p.Start, p.End))
}
