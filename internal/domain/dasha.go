package domain

// Dasha levels.
const (
	LevelMahadasha       = 1
	LevelAntardasha      = 2
	LevelPratyantardasha = 3
)

// DashaPeriod is one period of the Vimshottari hierarchy with its breakdown.
// Interval is half-open: [StartMs, EndMs).
type DashaPeriod struct {
	Planet   Planet
	Level    int
	StartMs  int64
	EndMs    int64
	Children []DashaPeriod
}

// DurationMs returns EndMs - StartMs.
func (p DashaPeriod) DurationMs() int64 {
	return p.EndMs - p.StartMs
}

// Contains reports whether t lies in [StartMs, EndMs).
func (p DashaPeriod) Contains(t int64) bool {
	return t >= p.StartMs && t < p.EndMs
}

// DashaSpan is a period without its children.
type DashaSpan struct {
	Planet  Planet
	StartMs int64
	EndMs   int64
}

// CurrentDasha is the result of a timeline lookup at a reference instant.
type CurrentDasha struct {
	ReferenceMs     int64
	Mahadasha       DashaSpan
	Antardasha      *DashaSpan // nil if the timeline has one level
	Pratyantardasha *DashaSpan // nil unless three levels were computed
	NextMahadasha   *DashaSpan // nil when the current period is the last
}
