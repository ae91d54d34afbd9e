package kundali

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kundali-lab/internal/domain"
)

func f64(v float64) *float64 { return &v }

func validRequest() Request {
	return Request{
		Name: "Test", BirthYear: 1996, BirthMonth: 7, BirthDay: 4, BirthHour: 10, BirthMinute: 30,
		Latitude: f64(27.56), Longitude: f64(80.67), TimezoneOffset: f64(5.5),
	}
}

func TestRequest_Validate(t *testing.T) {
	require.NoError(t, validRequest().Validate())

	tests := []struct {
		name    string
		mutate  func(r *Request)
		message string
	}{
		{"name too long", func(r *Request) { r.Name = strings.Repeat("a", 201) }, "name"},
		{"month 13", func(r *Request) { r.BirthMonth = 13 }, "birth_month"},
		{"year 1899", func(r *Request) { r.BirthYear = 1899 }, "birth_year"},
		{"minute 60", func(r *Request) { r.BirthMinute = 60 }, "birth_minute"},
		{"feb 30", func(r *Request) { r.BirthMonth = 2; r.BirthDay = 30 }, ""},
		{"latitude 91", func(r *Request) { r.Latitude = f64(91) }, "latitude"},
		{"offset 15", func(r *Request) { r.TimezoneOffset = f64(15) }, "timezone_offset"},
		{"latitude alone", func(r *Request) { r.Longitude = nil }, "together"},
		{"no location", func(r *Request) { r.Latitude, r.Longitude = nil, nil }, "city/country"},
		{"city without country", func(r *Request) { r.Latitude, r.Longitude = nil, nil; r.City = "Lucknow" }, "city/country"},
		{"bad reference time", func(r *Request) { r.ReferenceTime = "yesterday" }, "reference_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequest()
			tt.mutate(&r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInputValidation))
			assert.Equal(t, domain.StageValidation, domain.StageOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestRequest_EmptyNameAccepted(t *testing.T) {
	r := validRequest()
	r.Name = ""
	assert.NoError(t, r.Validate())
}

func TestRequest_PlaceOnly(t *testing.T) {
	r := validRequest()
	r.Latitude, r.Longitude = nil, nil
	r.City, r.Country = "Lucknow", "India"
	assert.NoError(t, r.Validate())
	assert.False(t, r.HasCoordinates())
}

func TestRequest_WantsTransits(t *testing.T) {
	r := validRequest()
	assert.True(t, r.WantsTransits())

	off := false
	r.IncludeTransits = &off
	assert.False(t, r.WantsTransits())
}

func TestParseQuery(t *testing.T) {
	q := url.Values{
		"name":             {"Test"},
		"birth_year":       {"1996"},
		"birth_month":      {"7"},
		"birth_day":        {"4"},
		"birth_hour":       {"10"},
		"birth_minute":     {"30"},
		"latitude":         {"27.56"},
		"longitude":        {"80.67"},
		"include_transits": {"false"},
		"transit_timezone": {"UTC"},
	}

	r, err := ParseQuery(q)
	require.NoError(t, err)
	assert.Equal(t, "Test", r.Name)
	assert.Equal(t, 1996, r.BirthYear)
	assert.Equal(t, 0, r.BirthSecond)
	require.NotNil(t, r.Latitude)
	assert.Equal(t, 27.56, *r.Latitude)
	assert.Nil(t, r.TimezoneOffset)
	assert.False(t, r.WantsTransits())
	assert.Equal(t, "UTC", r.TransitTimezone)
	assert.NoError(t, r.Validate())
}

func TestParseQuery_Errors(t *testing.T) {
	base := url.Values{
		"name": {"Test"}, "birth_year": {"1996"}, "birth_month": {"7"},
		"birth_day": {"4"}, "birth_hour": {"10"}, "birth_minute": {"30"},
	}

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric year", "birth_year", "nineteen"},
		{"missing month", "birth_month", ""},
		{"bad latitude", "latitude", "north"},
		{"bad bool", "include_transits", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := url.Values{}
			for k, v := range base {
				q[k] = v
			}
			q.Set(tt.key, tt.value)

			_, err := ParseQuery(q)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInputValidation))
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
