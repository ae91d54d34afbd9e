package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kundali-lab/internal/domain"
)

func TestClassify(t *testing.T) {
	b := NewBuilder()

	tests := []struct {
		sep    float64
		want   domain.AspectKind
		wantOK bool
	}{
		{0, domain.Conjunction, true},
		{8, domain.Conjunction, true},
		{8.01, "", false},
		{54, domain.Sextile, true},
		{66, domain.Sextile, true},
		{83, domain.Square, true},
		{97, domain.Square, true},
		{100, "", false},
		{112, domain.Trine, true},
		{128.5, "", false},
		{172, domain.Opposition, true},
		{180, domain.Opposition, true},
	}

	for _, tt := range tests {
		rule, ok := b.Classify(tt.sep)
		assert.Equal(t, tt.wantOK, ok, "separation %v", tt.sep)
		if ok {
			assert.Equal(t, tt.want, rule.Kind, "separation %v", tt.sep)
		}
	}
}

func TestClassify_TieGoesToLowerAngle(t *testing.T) {
	b := NewBuilderWithRules([]AspectRule{
		{domain.Sextile, 60, 15},
		{domain.Square, 90, 15},
	})

	rule, ok := b.Classify(75)
	require.True(t, ok)
	assert.Equal(t, domain.Sextile, rule.Kind)

	rule, ok = b.Classify(76)
	require.True(t, ok)
	assert.Equal(t, domain.Square, rule.Kind)
}

func TestAspects_PairsInCanonicalOrder(t *testing.T) {
	placed := domain.Longitudes{
		domain.Sun:  10,
		domain.Moon: 190, // opposition with Sun
		domain.Mars: 130, // trine Sun, sextile Moon
	}.Ordered()

	got := NewBuilder().Aspects(placed)
	require.Len(t, got, 3)

	assert.Equal(t, domain.AspectRelation{From: domain.Sun, To: domain.Moon, Kind: domain.Opposition, Separation: 180, Orb: 0}, got[0])
	assert.Equal(t, domain.Sun, got[1].From)
	assert.Equal(t, domain.Mars, got[1].To)
	assert.Equal(t, domain.Trine, got[1].Kind)
	assert.Equal(t, domain.Moon, got[2].From)
	assert.Equal(t, domain.Sextile, got[2].Kind)
}

func TestAspects_RahuKetuAlwaysOpposed(t *testing.T) {
	c, err := NewBuilder().Build(sampleLongitudes(), 0)
	require.NoError(t, err)

	var found bool
	for _, a := range c.Aspects {
		if a.From == domain.Rahu && a.To == domain.Ketu {
			found = true
			assert.Equal(t, domain.Opposition, a.Kind)
		}
	}
	assert.True(t, found)
}

func TestComputeDrishti(t *testing.T) {
	c, err := NewBuilder().Build(sampleLongitudes(), 132)
	require.NoError(t, err)

	count := map[domain.Planet]int{}
	for _, ha := range c.Drishti.HouseAspects {
		count[ha.Planet]++
	}
	assert.Equal(t, 1, count[domain.Sun])
	assert.Equal(t, 3, count[domain.Mars])
	assert.Equal(t, 3, count[domain.Jupiter])
	assert.Equal(t, 3, count[domain.Saturn])
	assert.Equal(t, 3, count[domain.Rahu])
	assert.Len(t, c.Drishti.HouseAspects, 4*1+5*3)

	// Mars in house 10 casts its 4th aspect onto house 1
	assert.Contains(t, c.Drishti.HouseAspects, domain.HouseAspect{Planet: domain.Mars, FromHouse: 10, ToHouse: 1, Kind: "4th"})
	// Saturn in house 8 casts its 10th aspect onto house 5, where Jupiter sits
	assert.Contains(t, c.Drishti.PlanetAspects, domain.PlanetAspect{From: domain.Saturn, To: domain.Jupiter, Kind: "10th"})
	// Moon in house 3 aspects house 9, which is empty; Jupiter in 5 aspects 11 (Sun)
	assert.Contains(t, c.Drishti.PlanetAspects, domain.PlanetAspect{From: domain.Jupiter, To: domain.Sun, Kind: "7th"})

	for _, pa := range c.Drishti.PlanetAspects {
		assert.NotEqual(t, pa.From, pa.To)
	}
}
