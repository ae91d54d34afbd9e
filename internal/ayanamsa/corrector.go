// Package ayanamsa converts tropical longitudes to sidereal ones.
package ayanamsa

import (
	"fmt"
	"math"

	"kundali-lab/internal/domain"
	"kundali-lab/internal/ephemeris"
)

// Lahiri model: value at J2000.0 and linear rate per Julian century.
const (
	LahiriJ2000 = 23.853111
	LahiriRate  = 1.396629
)

// Model returns the base ayanamsa in degrees for a UTC instant.
type Model func(utcMs int64) float64

// Lahiri is the linear Lahiri (Chitrapaksha) ayanamsa.
func Lahiri(utcMs int64) float64 {
	return LahiriJ2000 + LahiriRate*ephemeris.JulianCenturies(utcMs)
}

// Corrector subtracts the ayanamsa plus a fixed correction from tropical
// longitudes. A single Corrector must be shared by natal and transit
// computations so their results stay comparable.
type Corrector struct {
	model      Model
	correction float64
}

// New returns a Corrector over model. correctionDegrees is added to the base
// ayanamsa at every instant; it shifts every sign, house and dasha boundary,
// so callers pass it from configuration explicitly.
func New(model Model, correctionDegrees float64) (*Corrector, error) {
	if model == nil {
		return nil, fmt.Errorf("ayanamsa: nil model")
	}
	if math.IsNaN(correctionDegrees) || math.IsInf(correctionDegrees, 0) || math.Abs(correctionDegrees) > 30 {
		return nil, domain.Errorf(domain.ErrInputValidation, domain.StageAyanamsa,
			"correction degree %v outside [-30, 30]", correctionDegrees)
	}
	return &Corrector{model: model, correction: correctionDegrees}, nil
}

// NewLahiri returns a Lahiri corrector with the given correction.
func NewLahiri(correctionDegrees float64) (*Corrector, error) {
	return New(Lahiri, correctionDegrees)
}

// CorrectionDegrees returns the configured fixed offset.
func (c *Corrector) CorrectionDegrees() float64 {
	return c.correction
}

// Value returns the total offset subtracted at utcMs.
func (c *Corrector) Value(utcMs int64) float64 {
	return c.model(utcMs) + c.correction
}

// Correct returns (tropical - Value(utcMs)) mod 360.
func (c *Corrector) Correct(tropical float64, utcMs int64) float64 {
	return domain.Normalize(tropical - c.Value(utcMs))
}

// CorrectAll converts every longitude in tropical to sidereal.
func (c *Corrector) CorrectAll(tropical domain.Longitudes, utcMs int64) domain.Longitudes {
	offset := c.Value(utcMs)
	out := make(domain.Longitudes, len(tropical))
	for p, l := range tropical {
		out[p] = domain.Normalize(l - offset)
	}
	return out
}
