package reporting

import (
	"fmt"
	"strings"
)

// DashaCSVHeader is the first line of RenderDashaCSV output.
const DashaCSVHeader = "level,mahadasha,antardasha,pratyantardasha,start,end"

// RenderDashaCSV renders dasha rows as CSV string.
func RenderDashaCSV(rows []DashaRow) string {
	var sb strings.Builder

	sb.WriteString(DashaCSVHeader)
	sb.WriteString("\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%s,%s,%s\n",
			r.Level,
			r.Mahadasha,
			r.Antardasha,
			r.Pratyantardasha,
			r.Start,
			r.End,
		))
	}

	return sb.String()
}
