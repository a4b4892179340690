package mortality

import (
	"errors"
	"fmt"

	"github.com/semmelweis/clinicstats/pkg/types"
)

// ErrInvalidQuery is returned by ComputeView for a malformed query.
var ErrInvalidQuery = errors.New("mortality: invalid query")

// Table is the read-only record set a view is computed from.
// *dataset.Dataset satisfies it.
type Table interface {
	Records() []types.Record
	Clinics() []string
	Years() types.YearRange
}

// Query is the filter state of one dashboard session.
type Query struct {
	// Clinics selects clinics by name. nil means every clinic; a non-nil
	// empty slice selects none.
	Clinics []string `json:"clinics"`

	// Years restricts the inclusive year range. nil means the full span.
	Years *types.YearRange `json:"years,omitempty"`

	// ThresholdYear splits before/after statistics. 0 means ThresholdYear.
	ThresholdYear int `json:"threshold_year,omitempty"`
}

// AppliedQuery is a Query with every default resolved.
type AppliedQuery struct {
	Clinics       []string        `json:"clinics"`
	Years         types.YearRange `json:"years"`
	ThresholdYear int             `json:"threshold_year"`
}

// View is everything a dashboard renders for one query.
type View struct {
	Query      AppliedQuery            `json:"query"`
	Records    []types.RatedRecord     `json:"records"`
	Comparison []types.ComparisonPoint `json:"comparison"`
	Summary    Summary                 `json:"summary"` // over the selection
	Overall    Summary                 `json:"overall"` // over the full dataset
	Findings   []Finding               `json:"findings"`

	// Empty is set when the selection matched nothing; Notice then carries
	// the message to show instead of charts.
	Empty  bool   `json:"empty"`
	Notice string `json:"notice,omitempty"`
}

// Resolve fills in Query defaults against t and validates the result.
func (q Query) Resolve(t Table) (AppliedQuery, error) {
	aq := AppliedQuery{
		Clinics:       q.Clinics,
		Years:         t.Years(),
		ThresholdYear: q.ThresholdYear,
	}
	if aq.Clinics == nil {
		aq.Clinics = t.Clinics()
	}
	if q.Years != nil {
		aq.Years = *q.Years
	}
	if aq.ThresholdYear == 0 {
		aq.ThresholdYear = ThresholdYear
	}

	if !aq.Years.Valid() {
		return AppliedQuery{}, fmt.Errorf("%w: year range %d-%d is inverted", ErrInvalidQuery, aq.Years.Min, aq.Years.Max)
	}
	if aq.ThresholdYear < 0 {
		return AppliedQuery{}, fmt.Errorf("%w: threshold year %d is negative", ErrInvalidQuery, aq.ThresholdYear)
	}
	return aq, nil
}

// ComputeView derives the full view model for q. It is a pure function of its
// inputs: the table is only read, and every call returns fresh slices. An
// empty selection is not an error; it yields View.Empty and the no-data
// notice.
func ComputeView(t Table, q Query) (*View, error) {
	aq, err := q.Resolve(t)
	if err != nil {
		return nil, err
	}

	all := DeriveMortalityRate(t.Records())
	selected := Filter(all, NewSelection(aq.Clinics, aq.Years))

	v := &View{
		Query:      aq,
		Records:    selected,
		Comparison: GroupForComparison(selected),
		Summary:    Summarize(selected, aq.ThresholdYear),
		Overall:    Summarize(all, aq.ThresholdYear),
	}
	v.Findings = Findings(v.Summary)
	if len(selected) == 0 {
		v.Empty = true
		v.Notice = NoDataNotice
	}
	return v, nil
}
