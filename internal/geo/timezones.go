package geo

import "strings"

// DefaultOffsetHours is used when no country matches.
const DefaultOffsetHours = 5.5

// CountryOffset pairs a lowercase country name with a representative UTC
// offset in hours.
type CountryOffset struct {
	Country string
	Hours   float64
}

// CountryTimezones is the country table in lookup order. Countries spanning
// several zones use their most populous. Partial matches take the first
// entry, so the order is part of the behavior.
var CountryTimezones = []CountryOffset{
	{"india", 5.5},
	{"pakistan", 5.0},
	{"bangladesh", 6.0},
	{"sri lanka", 5.5},
	{"nepal", 5.75},
	{"bhutan", 6.0},

	{"uae", 4.0},
	{"united arab emirates", 4.0},
	{"saudi arabia", 3.0},
	{"kuwait", 3.0},
	{"qatar", 3.0},
	{"bahrain", 3.0},
	{"oman", 4.0},
	{"israel", 2.0},
	{"turkey", 3.0},

	{"united kingdom", 0.0},
	{"uk", 0.0},
	{"germany", 1.0},
	{"france", 1.0},
	{"italy", 1.0},
	{"spain", 1.0},
	{"netherlands", 1.0},
	{"belgium", 1.0},
	{"switzerland", 1.0},
	{"austria", 1.0},
	{"portugal", 0.0},
	{"greece", 2.0},
	{"russia", 3.0},

	{"usa", -5.0},
	{"united states", -5.0},
	{"canada", -5.0},
	{"mexico", -6.0},

	{"brazil", -3.0},
	{"argentina", -3.0},
	{"chile", -3.0},

	{"china", 8.0},
	{"japan", 9.0},
	{"south korea", 9.0},
	{"singapore", 8.0},
	{"malaysia", 8.0},
	{"thailand", 7.0},
	{"indonesia", 7.0},
	{"philippines", 8.0},
	{"vietnam", 7.0},
	{"hong kong", 8.0},
	{"taiwan", 8.0},
	{"australia", 10.0},

	{"south africa", 2.0},
	{"egypt", 2.0},
	{"kenya", 3.0},
	{"nigeria", 1.0},
}

// TimezoneResolver derives a UTC offset from a country name.
type TimezoneResolver interface {
	OffsetHours(country string) float64
}

// CountryResolver resolves offsets from a country table.
type CountryResolver struct {
	table    []CountryOffset
	exact    map[string]float64
	fallback float64
}

var _ TimezoneResolver = (*CountryResolver)(nil)

// NewCountryResolver returns a resolver over CountryTimezones with the given
// fallback for unknown and empty countries.
func NewCountryResolver(fallback float64) *CountryResolver {
	exact := make(map[string]float64, len(CountryTimezones))
	for _, c := range CountryTimezones {
		exact[c.Country] = c.Hours
	}
	return &CountryResolver{table: CountryTimezones, exact: exact, fallback: fallback}
}

// OffsetHours returns the offset for country. An exact (case-insensitive)
// match wins; otherwise the first table entry contained in the name, or
// containing it, in table order. Unknown names get the fallback.
func (r *CountryResolver) OffsetHours(country string) float64 {
	name := strings.ToLower(strings.TrimSpace(country))
	if name == "" {
		return r.fallback
	}
	if off, ok := r.exact[name]; ok {
		return off
	}
	for _, c := range r.table {
		if strings.Contains(name, c.Country) || strings.Contains(c.Country, name) {
			return c.Hours
		}
	}
	return r.fallback
}
