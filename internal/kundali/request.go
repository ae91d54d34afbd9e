package kundali

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"kundali-lab/internal/domain"
)

// DefaultTransitTimezone is used when a request names none.
const DefaultTransitTimezone = "Asia/Kolkata"

// Request is a chart generation request. Either Latitude and Longitude or
// City and Country must be given. Name is passed through untouched and may be
// empty.
type Request struct {
	Name        string `json:"name" validate:"max=200"`
	BirthYear   int    `json:"birth_year" validate:"min=1900,max=2100"`
	BirthMonth  int    `json:"birth_month" validate:"min=1,max=12"`
	BirthDay    int    `json:"birth_day" validate:"min=1,max=31"`
	BirthHour   int    `json:"birth_hour" validate:"min=0,max=23"`
	BirthMinute int    `json:"birth_minute" validate:"min=0,max=59"`
	BirthSecond int    `json:"birth_second" validate:"min=0,max=59"`

	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	City      string   `json:"city,omitempty" validate:"max=200"`
	State     string   `json:"state,omitempty" validate:"max=200"`
	Country   string   `json:"country,omitempty" validate:"max=200"`

	TimezoneOffset  *float64 `json:"timezone_offset,omitempty" validate:"omitempty,min=-14,max=14"`
	IncludeTransits *bool    `json:"include_transits,omitempty"`
	TransitTimezone string   `json:"transit_timezone,omitempty"`

	// ReferenceTime (RFC 3339) selects the instant for the current dasha and
	// transits. Empty means now.
	ReferenceTime string `json:"reference_time,omitempty"`
}

// WantsTransits reports whether transits were requested (default true).
func (r Request) WantsTransits() bool {
	return r.IncludeTransits == nil || *r.IncludeTransits
}

// HasCoordinates reports whether both coordinates were supplied.
func (r Request) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks field ranges, that the date exists and that a location
// source is present. Failures are domain.ErrInputValidation.
func (r Request) Validate() error {
	if err := requestValidator().Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.Errorf(domain.ErrInputValidation, domain.StageValidation,
				"%s: failed %s=%s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
		}
		return domain.NewError(domain.ErrInputValidation, domain.StageValidation, err)
	}

	if (r.Latitude == nil) != (r.Longitude == nil) {
		return domain.Errorf(domain.ErrInputValidation, domain.StageValidation,
			"latitude and longitude must be given together")
	}
	if !r.HasCoordinates() && (strings.TrimSpace(r.City) == "" || strings.TrimSpace(r.Country) == "") {
		return domain.Errorf(domain.ErrInputValidation, domain.StageValidation,
			"either provide latitude/longitude or city/country for geocoding")
	}

	// calendar check; offset and position are checked once resolved
	birth := domain.BirthMoment{
		Year: r.BirthYear, Month: r.BirthMonth, Day: r.BirthDay,
		Hour: r.BirthHour, Minute: r.BirthMinute, Second: r.BirthSecond,
	}
	if err := birth.Validate(); err != nil {
		return err
	}

	if _, err := r.referenceTime(); err != nil {
		return err
	}
	return nil
}

func (r Request) referenceTime() (time.Time, error) {
	if r.ReferenceTime == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, r.ReferenceTime)
	if err != nil {
		return time.Time{}, domain.Errorf(domain.ErrInputValidation, domain.StageValidation,
			"reference_time: %v", err)
	}
	return t, nil
}

// ParseQuery builds a Request from GET /generate query parameters.
func ParseQuery(q url.Values) (Request, error) {
	p := queryParser{q: q}
	r := Request{
		Name:            q.Get("name"),
		BirthYear:       p.int("birth_year", true),
		BirthMonth:      p.int("birth_month", true),
		BirthDay:        p.int("birth_day", true),
		BirthHour:       p.int("birth_hour", true),
		BirthMinute:     p.int("birth_minute", true),
		BirthSecond:     p.int("birth_second", false),
		Latitude:        p.float("latitude"),
		Longitude:       p.float("longitude"),
		City:            q.Get("city"),
		State:           q.Get("state"),
		Country:         q.Get("country"),
		TimezoneOffset:  p.float("timezone_offset"),
		IncludeTransits: p.bool("include_transits"),
		TransitTimezone: q.Get("transit_timezone"),
		ReferenceTime:   q.Get("reference_time"),
	}
	if p.err != nil {
		return Request{}, p.err
	}
	return r, nil
}

// queryParser records the first parse failure.
type queryParser struct {
	q   url.Values
	err error
}

func (p *queryParser) fail(key, v string, cause error) {
	if p.err == nil {
		p.err = domain.Errorf(domain.ErrInputValidation, domain.StageValidation, "%s=%q: %v", key, v, cause)
	}
}

func (p *queryParser) int(key string, required bool) int {
	v := p.q.Get(key)
	if v == "" {
		if required {
			p.fail(key, v, fmt.Errorf("required"))
		}
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
	}
	return n
}

func (p *queryParser) float(key string) *float64 {
	v := p.q.Get(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return nil
	}
	return &f
}

func (p *queryParser) bool(key string) *bool {
	v := p.q.Get(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return nil
	}
	return &b
}
