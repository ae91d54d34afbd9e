package domain

import (
	"fmt"
	"math"
	"time"
)

// Supported civil input ranges.
const (
	MinBirthYear = 1900
	MaxBirthYear = 2100
)

// GeoPosition is a geographic position in decimal degrees (east and north positive).
type GeoPosition struct {
	Latitude  float64
	Longitude float64
}

// Validate checks coordinate ranges.
func (g GeoPosition) Validate() error {
	if math.IsNaN(g.Latitude) || g.Latitude < -90 || g.Latitude > 90 {
		return Errorf(ErrInputValidation, StageValidation, "latitude %v outside [-90, 90]", g.Latitude)
	}
	if math.IsNaN(g.Longitude) || g.Longitude < -180 || g.Longitude > 180 {
		return Errorf(ErrInputValidation, StageValidation, "longitude %v outside [-180, 180]", g.Longitude)
	}
	return nil
}

// BirthMoment is a civil birth date and time with its UTC offset and position.
// Once validated it resolves to a single UTC instant; nothing downstream reads
// the civil fields again.
type BirthMoment struct {
	Year, Month, Day     int
	Hour, Minute, Second int
	UTCOffsetHours       float64
	Position             *GeoPosition // nil when coordinates are unknown
}

// Validate checks field ranges and that the civil date exists in the
// proleptic Gregorian calendar.
func (b BirthMoment) Validate() error {
	checks := []struct {
		name     string
		v, lo, h int
	}{
		{"birth_year", b.Year, MinBirthYear, MaxBirthYear},
		{"birth_month", b.Month, 1, 12},
		{"birth_day", b.Day, 1, 31},
		{"birth_hour", b.Hour, 0, 23},
		{"birth_minute", b.Minute, 0, 59},
		{"birth_second", b.Second, 0, 59},
	}
	for _, c := range checks {
		if c.v < c.lo || c.v > c.h {
			return Errorf(ErrInputValidation, StageValidation, "%s %d outside [%d, %d]", c.name, c.v, c.lo, c.h)
		}
	}

	civil := time.Date(b.Year, time.Month(b.Month), b.Day, 0, 0, 0, 0, time.UTC)
	if civil.Day() != b.Day {
		return Errorf(ErrInputValidation, StageValidation, "%04d-%02d-%02d is not a calendar date", b.Year, b.Month, b.Day)
	}

	if math.IsNaN(b.UTCOffsetHours) || b.UTCOffsetHours < -14 || b.UTCOffsetHours > 14 {
		return Errorf(ErrInputValidation, StageValidation, "timezone_offset %v outside [-14, 14]", b.UTCOffsetHours)
	}

	if b.Position != nil {
		if err := b.Position.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// OffsetSeconds returns the UTC offset rounded to whole seconds.
func (b BirthMoment) OffsetSeconds() int {
	return int(math.Round(b.UTCOffsetHours * 3600))
}

// Zone returns a fixed zone for the birth offset, e.g. "UTC+05:30".
func (b BirthMoment) Zone() *time.Location {
	secs := b.OffsetSeconds()
	sign := '+'
	abs := secs
	if secs < 0 {
		sign = '-'
		abs = -secs
	}
	name := fmt.Sprintf("UTC%c%02d:%02d", sign, abs/3600, (abs%3600)/60)
	return time.FixedZone(name, secs)
}

// Local returns the civil birth time in its own fixed zone.
func (b BirthMoment) Local() time.Time {
	return time.Date(b.Year, time.Month(b.Month), b.Day, b.Hour, b.Minute, b.Second, 0, b.Zone())
}

// UTC returns the resolved UTC instant.
func (b BirthMoment) UTC() time.Time {
	return b.Local().UTC()
}

// UTCMs returns the resolved instant as Unix milliseconds.
func (b BirthMoment) UTCMs() int64 {
	return b.UTC().UnixMilli()
}
