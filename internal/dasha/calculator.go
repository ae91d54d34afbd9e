// Package dasha computes the Vimshottari dasha timeline.
//
// The timeline is stored as an arena: one slice of periods per level, each
// level contiguous in time, with parent/child links as indices. Durations are
// integer milliseconds with one year fixed at 365.25 days.
package dasha

import (
	"math"

	"kundali-lab/internal/domain"
)

// YearMs is the length of one dasha year (365.25 days) in milliseconds.
const YearMs int64 = 31557600000

// TotalYears is the length of the full Vimshottari cycle.
const TotalYears int64 = 120

// Depth limits.
const (
	MinDepth = 1
	MaxDepth = 3
)

// Years is the allotment of each lord. The values sum to TotalYears.
var Years = map[domain.Planet]int64{
	domain.Ketu:    7,
	domain.Venus:   20,
	domain.Sun:     6,
	domain.Moon:    10,
	domain.Mars:    7,
	domain.Rahu:    18,
	domain.Jupiter: 16,
	domain.Saturn:  19,
	domain.Mercury: 17,
}

// orderIndex maps a lord to its position in domain.VimshottariOrder.
var orderIndex = func() map[domain.Planet]int {
	m := make(map[domain.Planet]int, len(domain.VimshottariOrder))
	for i, p := range domain.VimshottariOrder {
		m[p] = i
	}
	return m
}()

// Calculator computes dasha timelines to a fixed depth.
type Calculator struct {
	depth int
}

// NewCalculator returns a Calculator producing depth levels
// (1 = Mahadasha only, 2 = with Antardasha, 3 = with Pratyantardasha).
func NewCalculator(depth int) (*Calculator, error) {
	if depth < MinDepth || depth > MaxDepth {
		return nil, domain.Errorf(domain.ErrInputValidation, domain.StageDasha,
			"depth %d outside [%d, %d]", depth, MinDepth, MaxDepth)
	}
	return &Calculator{depth: depth}, nil
}

// Depth returns the configured number of levels.
func (c *Calculator) Depth() int {
	return c.depth
}

// Balance returns the starting lord for a sidereal Moon longitude and the
// unexpired part of its Mahadasha in milliseconds.
func Balance(moonSidereal float64) (domain.Planet, int64) {
	lord := domain.NakshatraOf(moonSidereal).Lord()
	full := Years[lord] * YearMs
	frac := domain.NakshatraFraction(moonSidereal)
	if frac == 0 {
		return lord, full
	}
	return lord, int64(math.Round(float64(full) * (1 - frac)))
}

// Compute builds the timeline for a sidereal Moon longitude and birth instant.
//
// The top level starts at birthMs with the balance of the birth lord's
// Mahadasha, continues through the cycle at full length and closes with the
// elapsed part of the birth lord's period, so it spans exactly 120 years.
func (c *Calculator) Compute(moonSidereal float64, birthMs int64) (*Timeline, error) {
	if math.IsNaN(moonSidereal) || math.IsInf(moonSidereal, 0) {
		return nil, domain.Errorf(domain.ErrInputValidation, domain.StageDasha, "moon longitude %v", moonSidereal)
	}

	lord, balance := Balance(moonSidereal)
	full := Years[lord] * YearMs
	start := orderIndex[lord]

	top := make([]period, 0, len(domain.VimshottariOrder)+1)
	cursor := birthMs
	appendTop := func(p domain.Planet, d int64) {
		if d <= 0 {
			return
		}
		top = append(top, period{planet: p, start: cursor, end: cursor + d, parent: -1})
		cursor += d
	}

	appendTop(lord, balance)
	for k := 1; k < len(domain.VimshottariOrder); k++ {
		p := domain.VimshottariOrder[(start+k)%len(domain.VimshottariOrder)]
		appendTop(p, Years[p]*YearMs)
	}
	appendTop(lord, full-balance)

	tl := &Timeline{birthMs: birthMs, lord: lord, balanceMs: balance, levels: [][]period{top}}
	for level := 1; level < c.depth; level++ {
		tl.levels = append(tl.levels, subdivide(tl.levels[level-1]))
	}
	return tl, nil
}

// subdivide builds the next level below parents. Each parent is split into
// nine children starting with its own lord, in proportion to their years; the
// last child absorbs the integer remainder.
func subdivide(parents []period) []period {
	n := len(domain.VimshottariOrder)
	out := make([]period, 0, len(parents)*n)
	for i := range parents {
		par := &parents[i]
		dur := par.end - par.start
		first := orderIndex[par.planet]

		par.first = int32(len(out))
		cursor := par.start
		for k := 0; k < n; k++ {
			p := domain.VimshottariOrder[(first+k)%n]
			end := par.end
			if k < n-1 {
				end = cursor + dur*Years[p]/TotalYears
			}
			out = append(out, period{planet: p, start: cursor, end: end, parent: int32(i)})
			cursor = end
		}
		par.last = int32(len(out))
	}
	return out
}
