package dasha

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kundali-lab/internal/domain"
)

var birthMs = time.Date(1996, 7, 4, 5, 0, 0, 0, time.UTC).UnixMilli()

func compute(t *testing.T, depth int, moon float64) *Timeline {
	t.Helper()
	c, err := NewCalculator(depth)
	require.NoError(t, err)
	tl, err := c.Compute(moon, birthMs)
	require.NoError(t, err)
	return tl
}

func TestYears_SumTo120(t *testing.T) {
	var sum int64
	for _, p := range domain.VimshottariOrder {
		sum += Years[p]
	}
	assert.Equal(t, TotalYears, sum)
	assert.Len(t, Years, len(domain.VimshottariOrder))
}

func TestBalance(t *testing.T) {
	tests := []struct {
		name     string
		moon     float64
		wantLord domain.Planet
		wantMs   int64
	}{
		{"Ashwini start", 0, domain.Ketu, 7 * YearMs},
		{"Ashwini middle", domain.NakshatraArc / 2, domain.Ketu, 7 * YearMs / 2},
		{"Bharani start", domain.NakshatraArc, domain.Venus, 20 * YearMs},
		{"Rohini three quarters", domain.NakshatraArc * 3.75, domain.Moon, 10 * YearMs / 4},
		{"Magha start", domain.Nakshatra(9).Start(), domain.Ketu, 7 * YearMs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lord, bal := Balance(tt.moon)
			assert.Equal(t, tt.wantLord, lord)
			assert.InDelta(t, tt.wantMs, bal, 1)
		})
	}
}

func TestCompute_SpansExactly120Years(t *testing.T) {
	for _, moon := range []float64{0, 3.1, 45, 123.456, 200.5, 359.999} {
		for depth := MinDepth; depth <= MaxDepth; depth++ {
			tl := compute(t, depth, moon)
			assert.Equal(t, birthMs, tl.StartMs())
			assert.Equal(t, birthMs+TotalYears*YearMs, tl.EndMs(), "moon %v depth %d", moon, depth)
			assert.Equal(t, depth, tl.Depth())
		}
	}
}

func TestCompute_TopLevelSequence(t *testing.T) {
	// Rohini (Moon) three quarters traversed: balance 2.5 of 10 years.
	tl := compute(t, 1, domain.NakshatraArc*3.75)
	md := tl.Mahadashas()

	want := []domain.Planet{
		domain.Moon, domain.Mars, domain.Rahu, domain.Jupiter, domain.Saturn,
		domain.Mercury, domain.Ketu, domain.Venus, domain.Sun, domain.Moon,
	}
	require.Len(t, md, len(want))
	for i, p := range want {
		assert.Equal(t, p, md[i].Planet, "period %d", i)
	}

	assert.Equal(t, tl.BalanceMs(), md[0].EndMs-md[0].StartMs)
	assert.Equal(t, 10*YearMs-tl.BalanceMs(), md[9].EndMs-md[9].StartMs)
	for i := 1; i < 9; i++ {
		assert.Equal(t, Years[md[i].Planet]*YearMs, md[i].EndMs-md[i].StartMs)
	}
	assert.Equal(t, domain.Moon, tl.BirthLord())
}

func TestCompute_NakshatraStartHasNoTruncation(t *testing.T) {
	tl := compute(t, 2, 0)
	md := tl.Mahadashas()

	require.Len(t, md, 9)
	assert.Equal(t, domain.Ketu, md[0].Planet)
	assert.Equal(t, 7*YearMs, md[0].EndMs-md[0].StartMs)
	assert.Equal(t, domain.Mercury, md[8].Planet)
}

func TestCompute_ChildrenPartitionParent(t *testing.T) {
	for _, moon := range []float64{0, 17.77, 99.9, 271.3} {
		tl := compute(t, 3, moon)
		checkPartition(t, tl.Tree(), tl.StartMs(), tl.EndMs())
	}
}

func checkPartition(t *testing.T, periods []domain.DashaPeriod, start, end int64) {
	t.Helper()
	require.NotEmpty(t, periods)
	cursor := start
	var sum int64
	for _, p := range periods {
		require.Equal(t, cursor, p.StartMs, "gap or overlap before %s level %d", p.Planet, p.Level)
		require.GreaterOrEqual(t, p.EndMs, p.StartMs)
		sum += p.DurationMs()
		cursor = p.EndMs
		if len(p.Children) > 0 {
			checkPartition(t, p.Children, p.StartMs, p.EndMs)
		}
	}
	require.Equal(t, end, cursor)
	require.Equal(t, end-start, sum)
}

func TestCompute_ChildOrderStartsWithParent(t *testing.T) {
	tl := compute(t, 3, 123.456)
	for _, md := range tl.Tree() {
		require.Len(t, md.Children, 9)
		assert.Equal(t, md.Planet, md.Children[0].Planet)
		start := orderIndex[md.Planet]
		for k, ad := range md.Children {
			assert.Equal(t, domain.VimshottariOrder[(start+k)%9], ad.Planet)
			assert.Equal(t, 2, ad.Level)
			require.Len(t, ad.Children, 9)
			assert.Equal(t, ad.Planet, ad.Children[0].Planet)
			assert.Equal(t, 3, ad.Children[0].Level)
		}
	}
}

func TestCompute_AntardashaProportions(t *testing.T) {
	tl := compute(t, 2, 0)
	venus := tl.Tree()[1]
	require.Equal(t, domain.Venus, venus.Planet)

	// Venus-Venus: 20 * 20 / 120 years
	assert.Equal(t, 20*YearMs*20/120, venus.Children[0].DurationMs())
	// Venus-Sun: 20 * 6 / 120 = 1 year
	assert.Equal(t, YearMs, venus.Children[1].DurationMs())
}

func TestCompute_Deterministic(t *testing.T) {
	a := compute(t, 3, 200.5)
	b := compute(t, 3, 200.5)
	assert.Equal(t, a.Tree(), b.Tree())
}

func TestNewCalculator_Depth(t *testing.T) {
	for _, d := range []int{0, 4, -1} {
		_, err := NewCalculator(d)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInputValidation))
	}
}

func TestCompute_NonFiniteMoon(t *testing.T) {
	c, err := NewCalculator(2)
	require.NoError(t, err)
	_, err = c.Compute(nan(), birthMs)
	assert.True(t, errors.Is(err, domain.ErrInputValidation))
}
