package chart

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kundali-lab/internal/domain"
)

func sampleLongitudes() domain.Longitudes {
	return domain.Longitudes{
		domain.Sun:     81.0,  // Gemini 21
		domain.Moon:    200.5, // Libra 20.5
		domain.Mars:    45.0,  // Taurus 15
		domain.Mercury: 95.0,  // Cancer 5
		domain.Jupiter: 250.0, // Sagittarius 10
		domain.Venus:   50.0,  // Taurus 20
		domain.Saturn:  340.0, // Pisces 10
		domain.Rahu:    170.0, // Virgo 20
		domain.Ketu:    350.0, // Pisces 20
	}
}

func TestBuild_D1WholeSignHouses(t *testing.T) {
	// Ascendant Leo 12
	c, err := NewBuilder().Build(sampleLongitudes(), 132)
	require.NoError(t, err)

	assert.Equal(t, domain.Leo, c.Ascendant.Sign)
	assert.InDelta(t, 12.0, c.Ascendant.DegreeInSign, 1e-9)
	assert.Equal(t, domain.Leo, c.D1.AscendantSign)

	want := map[domain.Planet]int{
		domain.Sun:     11, // Gemini from Leo
		domain.Moon:    3,
		domain.Mars:    10,
		domain.Mercury: 12,
		domain.Jupiter: 5,
		domain.Venus:   10,
		domain.Saturn:  8,
		domain.Rahu:    2,
		domain.Ketu:    8,
	}
	for p, h := range want {
		pl, ok := c.D1.Placement(p)
		require.True(t, ok)
		assert.Equal(t, h, pl.House, "house of %s", p)
		assert.Equal(t, domain.SignOf(pl.Longitude), pl.Sign)
	}

	require.Len(t, c.D1.Houses, 12)
	assert.Equal(t, domain.Leo, c.D1.Houses[0].Sign)
	assert.Equal(t, domain.Cancer, c.D1.Houses[11].Sign)
	assert.Equal(t, []domain.Planet{domain.Mars, domain.Venus}, c.D1.Houses[9].Occupants)
	assert.Empty(t, c.D1.Houses[0].Occupants)

	// placements follow canonical order
	for i, pl := range c.D1.Placements {
		assert.Equal(t, domain.Planets[i], pl.Planet)
	}
}

func TestHouseOf_FirstHouseIsAscendantSign(t *testing.T) {
	for s := domain.Aries; s <= domain.Pisces; s++ {
		assert.Equal(t, 1, HouseOf(s, s))
		assert.Equal(t, 12, HouseOf(s.Add(-1), s))
		assert.Equal(t, 7, HouseOf(s.Add(6), s))
	}
}

func TestNavamsaSign_Table(t *testing.T) {
	tests := []struct {
		name      string
		longitude float64
		want      domain.Sign
	}{
		{"Aries first pada", 1, domain.Aries},
		{"Aries last pada", 29, domain.Sagittarius},
		{"Taurus first pada starts from Capricorn", 31, domain.Capricorn},
		{"Taurus last pada", 59.9, domain.Virgo},
		{"Gemini first pada starts from Libra", 61, domain.Libra},
		{"Cancer first pada", 91, domain.Cancer},
		{"Leo first pada starts from Aries", 121, domain.Aries},
		{"Virgo first pada starts from Capricorn", 151, domain.Capricorn},
		{"Pisces last pada", 359.9, domain.Pisces},
		{"Pisces first pada starts from Cancer", 331, domain.Cancer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NavamsaSign(tt.longitude))
		})
	}
}

func TestNavamsaSign_EqualsNinefoldLongitude(t *testing.T) {
	for l := 0.05; l < 360; l += 0.1 {
		want := domain.Sign(int(math.Floor(l*9/30)) % 12)
		if got := NavamsaSign(l); got != want {
			t.Fatalf("NavamsaSign(%v) = %v, want %v", l, got, want)
		}
	}
}

func TestBuild_D9(t *testing.T) {
	c, err := NewBuilder().Build(sampleLongitudes(), 132)
	require.NoError(t, err)

	// Ascendant Leo 12: pada 3, Leo is fixed so starts at Aries -> Cancer
	assert.Equal(t, domain.Cancer, c.D9.AscendantSign)
	assert.Equal(t, "D9", c.D9.Name)

	sun, ok := c.D9.Placement(domain.Sun)
	require.True(t, ok)
	// Gemini 21: pada 6, dual starts at Libra -> Aries
	assert.Equal(t, domain.Aries, sun.Sign)
	assert.Equal(t, HouseOf(domain.Aries, domain.Cancer), sun.House)
	assert.InDelta(t, 9.0, sun.DegreeInSign, 1e-9)

	for _, pl := range c.D9.Placements {
		assert.True(t, pl.DegreeInSign >= 0 && pl.DegreeInSign < 30)
	}
}

func TestBuild_InvalidAscendant(t *testing.T) {
	for _, asc := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := NewBuilder().Build(sampleLongitudes(), asc)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidAscendant))
		assert.Equal(t, domain.StageChart, domain.StageOf(err))
	}
}

func TestBuild_MissingPlanet(t *testing.T) {
	l := sampleLongitudes()
	delete(l, domain.Saturn)
	_, err := NewBuilder().Build(l, 10)
	assert.True(t, errors.Is(err, domain.ErrInputValidation))
}

func TestBuild_Deterministic(t *testing.T) {
	b := NewBuilder()
	a, err := b.Build(sampleLongitudes(), 132)
	require.NoError(t, err)
	c, err := b.Build(sampleLongitudes(), 132)
	require.NoError(t, err)
	assert.Equal(t, a, c)
}
