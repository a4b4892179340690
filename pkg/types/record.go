package types

import (
	"encoding/json"
	"strconv"
)

// Series names used by the long-form births vs deaths comparison.
const (
	SeriesBirths = "Births"
	SeriesDeaths = "Deaths"
)

// Record is one observation for a clinic in a given year.
// Deaths is expected not to exceed Births, but this is not enforced.
type Record struct {
	Year   int    `json:"year"`
	Clinic string `json:"clinic"`
	Births int    `json:"births"`
	Deaths int    `json:"deaths"`
}

// MortalityRate returns Deaths / Births. The result is invalid when Births is 0.
func (r Record) MortalityRate() NullFloat {
	if r.Births == 0 {
		return NullFloat{}
	}
	return Float(float64(r.Deaths) / float64(r.Births))
}

// RatedRecord is a Record with its derived mortality rate attached.
type RatedRecord struct {
	Record
	MortalityRate NullFloat `json:"mortality_rate"`
}

// ComparisonPoint is one row of the long-form births vs deaths reshape.
type ComparisonPoint struct {
	Year   int    `json:"year"`
	Clinic string `json:"clinic"`
	Series string `json:"series"` // SeriesBirths | SeriesDeaths
	Value  int    `json:"value"`
}

// YearRange is an inclusive range of calendar years.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether year lies within the inclusive range.
func (r YearRange) Contains(year int) bool {
	return year >= r.Min && year <= r.Max
}

// Valid reports whether Min <= Max.
func (r YearRange) Valid() bool { return r.Min <= r.Max }

// NullFloat is a float64 that may be undefined, e.g. a mortality rate for a
// clinic-year with no births or the mean of an empty set. It encodes as JSON
// null when Valid is false.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float returns a valid NullFloat holding v.
func Float(v float64) NullFloat { return NullFloat{Value: v, Valid: true} }

// String renders the value, or "n/a" when undefined.
func (f NullFloat) String() string {
	if !f.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(f.Value, 'f', -1, 64)
}

// MarshalJSON implements json.Marshaler.
func (f NullFloat) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NullFloat{}
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}
