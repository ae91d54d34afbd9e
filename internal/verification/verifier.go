// Package verification checks that chart generation is reproducible: stored
// charts are regenerated from their recorded inputs and compared field by
// field, and repeated generations must encode to identical bytes.
package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"

	"kundali-lab/internal/kundali"
)

// FloatTolerance is the tolerance for float64 comparisons.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // dotted path, e.g. "d1.Moon.longitude"
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

func (d FieldDivergence) String() string {
	return fmt.Sprintf("%s: expected %v, got %v", d.Field, d.Expected, d.Actual)
}

// VerificationResult contains the result of verifying a single chart.
type VerificationResult struct {
	ChartID     string
	Match       bool
	Divergences []FieldDivergence
}

// VerificationReport contains results for batch verification.
type VerificationReport struct {
	TotalCharts     int
	MatchedCharts   int
	DivergentCharts int
	Results         []VerificationResult
}

// Verifier verifies stored charts.
type Verifier interface {
	// VerifyChart regenerates a stored chart and compares it with the stored payload.
	VerifyChart(ctx context.Context, id string) (*VerificationResult, error)

	// VerifyAll verifies up to limit most recent charts.
	VerifyAll(ctx context.Context, limit int) (*VerificationReport, error)
}

// Generator produces chart results.
type Generator interface {
	Generate(ctx context.Context, req kundali.Request) (*kundali.Result, error)
}

// CheckDeterminism generates req runs times and compares every run with the
// first: encoded bytes first, then fields for a readable diff.
func CheckDeterminism(ctx context.Context, gen Generator, req kundali.Request, runs int) (*VerificationResult, error) {
	if runs < 2 {
		runs = 2
	}
	first, err := gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	want, err := json.Marshal(first)
	if err != nil {
		return nil, err
	}

	result := &VerificationResult{ChartID: first.ChartID, Match: true}
	for i := 1; i < runs; i++ {
		next, err := gen.Generate(ctx, req)
		if err != nil {
			return nil, err
		}
		got, err := json.Marshal(next)
		if err != nil {
			return nil, err
		}
		if bytes.Equal(want, got) {
			continue
		}

		result.Match = false
		divs := CompareNatal(first.Natal(), next.Natal())
		if len(divs) == 0 {
			divs = []FieldDivergence{{Field: fmt.Sprintf("run[%d].json", i), Expected: len(want), Actual: len(got)}}
		}
		result.Divergences = append(result.Divergences, divs...)
	}
	return result, nil
}

// CompareNatal compares two natal charts and returns divergences.
// Uses FloatTolerance for float64 comparisons. The place label is not
// compared since it is not derived from the inputs.
func CompareNatal(stored, replayed kundali.Natal) []FieldDivergence {
	var d divergences

	d.str("chart_id", stored.ChartID, replayed.ChartID)
	d.str("short_id", stored.ShortID, replayed.ShortID)
	d.str("name", stored.Name, replayed.Name)

	sb, rb := stored.BirthDetails, replayed.BirthDetails
	d.int("birth.utc_ms", sb.BirthUTCMs, rb.BirthUTCMs)
	d.str("birth.local", sb.BirthDate, rb.BirthDate)
	d.float("birth.latitude", sb.Latitude, rb.Latitude)
	d.float("birth.longitude", sb.Longitude, rb.Longitude)
	d.float("birth.timezone_offset", sb.TimezoneOffset, rb.TimezoneOffset)
	d.float("birth.ayanamsa", sb.Ayanamsa, rb.Ayanamsa)
	d.float("birth.correction_degree", sb.CorrectionDegree, rb.CorrectionDegree)
	d.int("birth.dasha_depth", int64(sb.DashaDepth), int64(rb.DashaDepth))

	sa, ra := stored.Kundali.Ascendant, replayed.Kundali.Ascendant
	d.float("ascendant.longitude", sa.Longitude, ra.Longitude)
	d.str("ascendant.sign", sa.Sign, ra.Sign)

	d.chart("d1", stored.Kundali.D1, replayed.Kundali.D1)
	d.chart("d9", stored.Kundali.D9, replayed.Kundali.D9)

	d.int("aspects.planetary.count", int64(len(stored.Kundali.Aspects.Planetary)), int64(len(replayed.Kundali.Aspects.Planetary)))
	d.int("aspects.drishti.count", int64(len(stored.Kundali.Aspects.PlanetaryGives)), int64(len(replayed.Kundali.Aspects.PlanetaryGives)))

	d.dasha(stored.Vimshottari, replayed.Vimshottari)

	return d.list
}

type divergences struct {
	list []FieldDivergence
}

func (d *divergences) add(field string, expected, actual interface{}) {
	d.list = append(d.list, FieldDivergence{Field: field, Expected: expected, Actual: actual})
}

func (d *divergences) str(field, expected, actual string) {
	if expected != actual {
		d.add(field, expected, actual)
	}
}

func (d *divergences) int(field string, expected, actual int64) {
	if expected != actual {
		d.add(field, expected, actual)
	}
}

func (d *divergences) float(field string, expected, actual float64) {
	if !floatEquals(expected, actual) {
		d.add(field, expected, actual)
	}
}

func (d *divergences) chart(prefix string, stored, replayed kundali.ChartView) {
	d.str(prefix+".ascendant_sign", stored.AscendantSign, replayed.AscendantSign)
	if len(stored.Planets) != len(replayed.Planets) {
		d.add(prefix+".planets", len(stored.Planets), len(replayed.Planets))
		return
	}
	for i, sp := range stored.Planets {
		rp := replayed.Planets[i]
		path := fmt.Sprintf("%s.%s", prefix, sp.Planet)
		d.str(path+".planet", sp.Planet, rp.Planet)
		d.float(path+".longitude", sp.Longitude, rp.Longitude)
		d.str(path+".sign", sp.Sign, rp.Sign)
		d.int(path+".house", int64(sp.House), int64(rp.House))
		d.str(path+".nakshatra", sp.Nakshatra, rp.Nakshatra)
	}
}

func (d *divergences) dasha(stored, replayed []kundali.Mahadasha) {
	if len(stored) != len(replayed) {
		d.add("dasha.count", len(stored), len(replayed))
		return
	}
	for i, smd := range stored {
		rmd := replayed[i]
		path := fmt.Sprintf("dasha[%d]", i)
		d.str(path+".MD", smd.Planet, rmd.Planet)
		d.str(path+".Start", smd.Start, rmd.Start)
		d.str(path+".End", smd.End, rmd.End)
		if len(smd.Cycle) != len(rmd.Cycle) {
			d.add(path+".AD_Cycle", len(smd.Cycle), len(rmd.Cycle))
			continue
		}
		for j, sad := range smd.Cycle {
			rad := rmd.Cycle[j]
			adPath := fmt.Sprintf("%s.AD[%d]", path, j)
			d.str(adPath+".AD", sad.Planet, rad.Planet)
			d.str(adPath+".Start", sad.Start, rad.Start)
			d.str(adPath+".End", sad.End, rad.End)
			if len(sad.Cycle) != len(rad.Cycle) {
				d.add(adPath+".PD_Cycle", len(sad.Cycle), len(rad.Cycle))
				continue
			}
			for k, spd := range sad.Cycle {
				rpd := rad.Cycle[k]
				pdPath := fmt.Sprintf("%s.PD[%d]", adPath, k)
				d.str(pdPath+".PD", spd.Planet, rpd.Planet)
				d.str(pdPath+".Start", spd.Start, rpd.Start)
				d.str(pdPath+".End", spd.End, rpd.End)
			}
		}
	}
}

// floatEquals compares two float64 values within FloatTolerance.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= FloatTolerance
}
