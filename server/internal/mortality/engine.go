package mortality

import (
	"errors"
	"math"

	"github.com/semmelweis/clinicstats/pkg/types"
)

// ThresholdYear is the year hand-washing was introduced. Records from this
// year onwards form the "after" partition.
const ThresholdYear = 1847

var (
	// ErrEmptySet is returned by statistics over a set with no usable rates.
	ErrEmptySet = errors.New("mortality: empty record set")

	// ErrZeroBaseline is returned by PercentDecline when the "before" average
	// is zero, so no relative change can be expressed.
	ErrZeroBaseline = errors.New("mortality: zero baseline rate")
)

// DeriveMortalityRate attaches deaths/births to every record. A record with
// zero births gets an undefined rate instead of aborting the pass.
func DeriveMortalityRate(records []types.Record) []types.RatedRecord {
	out := make([]types.RatedRecord, len(records))
	for i, r := range records {
		out[i] = types.RatedRecord{Record: r, MortalityRate: r.MortalityRate()}
	}
	return out
}

// SplitByThreshold partitions records into year < thresholdYear and
// year >= thresholdYear. Relative order is preserved in both halves.
func SplitByThreshold(records []types.RatedRecord, thresholdYear int) (before, after []types.RatedRecord) {
	before = make([]types.RatedRecord, 0, len(records))
	after = make([]types.RatedRecord, 0, len(records))
	for _, r := range records {
		if r.Year < thresholdYear {
			before = append(before, r)
		} else {
			after = append(after, r)
		}
	}
	return before, after
}

// AverageRate is the arithmetic mean of the defined mortality rates.
// Records with an undefined rate are skipped; if none remain the result is
// ErrEmptySet.
func AverageRate(records []types.RatedRecord) (float64, error) {
	var sum float64
	var n int
	for _, r := range records {
		if !r.MortalityRate.Valid {
			continue
		}
		sum += r.MortalityRate.Value
		n++
	}
	if n == 0 {
		return 0, ErrEmptySet
	}
	return sum / float64(n), nil
}

// PercentDecline returns (avg(before) - avg(after)) / avg(before) * 100,
// rounded to one decimal place. A negative value means mortality rose.
func PercentDecline(before, after []types.RatedRecord) (float64, error) {
	avgBefore, err := AverageRate(before)
	if err != nil {
		return 0, err
	}
	avgAfter, err := AverageRate(after)
	if err != nil {
		return 0, err
	}
	if avgBefore == 0 {
		return 0, ErrZeroBaseline
	}
	return round1((avgBefore - avgAfter) / avgBefore * 100), nil
}

// Extremes holds the peak death count over the full set and the lowest death
// count after the threshold. Lowest is nil when no record falls after it.
type Extremes struct {
	Peak   types.Record  `json:"peak"`
	Lowest *types.Record `json:"lowest"`
}

// FindExtremes returns the record with the most deaths over all records and
// the record with the fewest deaths in the after partition. Ties keep the
// earliest record in input order.
func FindExtremes(records []types.RatedRecord, thresholdYear int) (Extremes, error) {
	if len(records) == 0 {
		return Extremes{}, ErrEmptySet
	}

	var ex Extremes
	ex.Peak = records[0].Record
	for _, r := range records[1:] {
		if r.Deaths > ex.Peak.Deaths {
			ex.Peak = r.Record
		}
	}

	_, after := SplitByThreshold(records, thresholdYear)
	for i := range after {
		if ex.Lowest == nil || after[i].Deaths < ex.Lowest.Deaths {
			low := after[i].Record
			ex.Lowest = &low
		}
	}
	return ex, nil
}

// Selection is a filter predicate: a set of clinics and an inclusive year
// range. The zero Selection matches nothing.
type Selection struct {
	Clinics map[string]struct{}
	Years   types.YearRange
}

// NewSelection builds a Selection from a clinic list.
func NewSelection(clinics []string, years types.YearRange) Selection {
	set := make(map[string]struct{}, len(clinics))
	for _, c := range clinics {
		set[c] = struct{}{}
	}
	return Selection{Clinics: set, Years: years}
}

// Matches reports whether r satisfies the selection.
func (s Selection) Matches(r types.Record) bool {
	if _, ok := s.Clinics[r.Clinic]; !ok {
		return false
	}
	return s.Years.Contains(r.Year)
}

// Filter returns the records matching sel, preserving relative order. An
// empty clinic set yields an empty, non-nil slice.
func Filter(records []types.RatedRecord, sel Selection) []types.RatedRecord {
	out := make([]types.RatedRecord, 0, len(records))
	for _, r := range records {
		if sel.Matches(r.Record) {
			out = append(out, r)
		}
	}
	return out
}

// GroupForComparison reshapes records into long form: one Births and one
// Deaths point per record, in input order. No aggregation is performed.
func GroupForComparison(records []types.RatedRecord) []types.ComparisonPoint {
	out := make([]types.ComparisonPoint, 0, len(records)*2)
	for _, r := range records {
		out = append(out,
			types.ComparisonPoint{Year: r.Year, Clinic: r.Clinic, Series: types.SeriesBirths, Value: r.Births},
			types.ComparisonPoint{Year: r.Year, Clinic: r.Clinic, Series: types.SeriesDeaths, Value: r.Deaths},
		)
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
