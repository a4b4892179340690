package mortality

import (
	"sort"

	"github.com/semmelweis/clinicstats/pkg/types"
)

// Summary is the set of headline statistics for a record set. Statistics that
// cannot be computed (empty partition, zero baseline) are left undefined
// rather than failing the whole summary.
type Summary struct {
	ThresholdYear int             `json:"threshold_year"`
	Records       int             `json:"records"`
	Births        int             `json:"births"`
	Deaths        int             `json:"deaths"`
	AvgBefore     types.NullFloat `json:"avg_before"`
	AvgAfter      types.NullFloat `json:"avg_after"`
	DeclinePct    types.NullFloat `json:"decline_pct"`
	Extremes      *Extremes       `json:"extremes"`
	Undefined     int             `json:"undefined_rates"`      // records with zero births
	DeathsExceed  int             `json:"deaths_exceed_births"` // records failing deaths <= births
	Clinics       []ClinicSummary `json:"clinics"`
}

// ClinicSummary is the before/after breakdown for one clinic.
type ClinicSummary struct {
	Clinic     string          `json:"clinic"`
	Records    int             `json:"records"`
	Births     int             `json:"births"`
	Deaths     int             `json:"deaths"`
	AvgBefore  types.NullFloat `json:"avg_before"`
	AvgAfter   types.NullFloat `json:"avg_after"`
	DeclinePct types.NullFloat `json:"decline_pct"`
}

// Summarize computes the headline statistics over records, split at
// thresholdYear. Clinics are listed in name order.
func Summarize(records []types.RatedRecord, thresholdYear int) Summary {
	s := Summary{
		ThresholdYear: thresholdYear,
		Records:       len(records),
		Clinics:       make([]ClinicSummary, 0),
	}

	byClinic := make(map[string][]types.RatedRecord)
	for _, r := range records {
		s.Births += r.Births
		s.Deaths += r.Deaths
		if !r.MortalityRate.Valid {
			s.Undefined++
		}
		if r.Deaths > r.Births {
			s.DeathsExceed++
		}
		byClinic[r.Clinic] = append(byClinic[r.Clinic], r)
	}

	s.AvgBefore, s.AvgAfter, s.DeclinePct = partitionStats(records, thresholdYear)
	if ex, err := FindExtremes(records, thresholdYear); err == nil {
		s.Extremes = &ex
	}

	names := make([]string, 0, len(byClinic))
	for name := range byClinic {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		recs := byClinic[name]
		cs := ClinicSummary{Clinic: name, Records: len(recs)}
		for _, r := range recs {
			cs.Births += r.Births
			cs.Deaths += r.Deaths
		}
		cs.AvgBefore, cs.AvgAfter, cs.DeclinePct = partitionStats(recs, thresholdYear)
		s.Clinics = append(s.Clinics, cs)
	}
	return s
}

// partitionStats recovers statistical edge cases into undefined values.
func partitionStats(records []types.RatedRecord, thresholdYear int) (avgBefore, avgAfter, decline types.NullFloat) {
	before, after := SplitByThreshold(records, thresholdYear)
	if v, err := AverageRate(before); err == nil {
		avgBefore = types.Float(v)
	}
	if v, err := AverageRate(after); err == nil {
		avgAfter = types.Float(v)
	}
	if v, err := PercentDecline(before, after); err == nil {
		decline = types.Float(v)
	}
	return avgBefore, avgAfter, decline
}
