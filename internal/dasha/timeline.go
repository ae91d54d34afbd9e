package dasha

import (
	"sort"

	"kundali-lab/internal/domain"
)

type period struct {
	planet      domain.Planet
	start, end  int64
	parent      int32 // index into the level above, -1 at the top
	first, last int32 // child range [first, last) in the level below
}

func (p period) span() domain.DashaSpan {
	return domain.DashaSpan{Planet: p.planet, StartMs: p.start, EndMs: p.end}
}

// Timeline is a computed dasha hierarchy. It is immutable once built and safe
// for concurrent reads.
type Timeline struct {
	birthMs   int64
	lord      domain.Planet
	balanceMs int64
	levels    [][]period
}

// StartMs returns the first instant covered (the birth instant).
func (t *Timeline) StartMs() int64 {
	return t.levels[0][0].start
}

// EndMs returns the exclusive end of coverage.
func (t *Timeline) EndMs() int64 {
	top := t.levels[0]
	return top[len(top)-1].end
}

// BirthLord returns the lord of the Moon's birth nakshatra.
func (t *Timeline) BirthLord() domain.Planet {
	return t.lord
}

// BalanceMs returns the unexpired part of the first Mahadasha at birth.
func (t *Timeline) BalanceMs() int64 {
	return t.balanceMs
}

// Depth returns the number of computed levels.
func (t *Timeline) Depth() int {
	return len(t.levels)
}

// Mahadashas returns the top-level periods.
func (t *Timeline) Mahadashas() []domain.DashaSpan {
	out := make([]domain.DashaSpan, len(t.levels[0]))
	for i, p := range t.levels[0] {
		out[i] = p.span()
	}
	return out
}

// Tree expands the arena into nested periods.
func (t *Timeline) Tree() []domain.DashaPeriod {
	return t.expand(0, 0, int32(len(t.levels[0])))
}

func (t *Timeline) expand(level int, from, to int32) []domain.DashaPeriod {
	out := make([]domain.DashaPeriod, 0, to-from)
	for i := from; i < to; i++ {
		p := t.levels[level][i]
		dp := domain.DashaPeriod{
			Planet:  p.planet,
			Level:   level + 1,
			StartMs: p.start,
			EndMs:   p.end,
		}
		if level+1 < len(t.levels) {
			dp.Children = t.expand(level+1, p.first, p.last)
		}
		out = append(out, dp)
	}
	return out
}

// Lookup reports the periods containing refMs at every computed level and the
// Mahadasha that follows the current one.
func (t *Timeline) Lookup(refMs int64) (domain.CurrentDasha, error) {
	if refMs < t.StartMs() || refMs >= t.EndMs() {
		return domain.CurrentDasha{}, domain.Errorf(domain.ErrOutOfCoverage, domain.StageDasha,
			"instant %d outside [%d, %d)", refMs, t.StartMs(), t.EndMs())
	}

	cur := domain.CurrentDasha{ReferenceMs: refMs}
	for level, periods := range t.levels {
		i := search(periods, refMs)
		span := periods[i].span()
		switch level {
		case 0:
			cur.Mahadasha = span
			if i+1 < len(periods) {
				next := periods[i+1].span()
				cur.NextMahadasha = &next
			}
		case 1:
			cur.Antardasha = &span
		case 2:
			cur.Pratyantardasha = &span
		}
	}
	return cur, nil
}

// search returns the index of the period containing ms. Levels are
// contiguous, so the first period ending after ms contains it; zero-length
// periods are skipped.
func search(periods []period, ms int64) int {
	return sort.Search(len(periods), func(i int) bool {
		return periods[i].end > ms
	})
}
