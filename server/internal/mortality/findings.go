package mortality

import (
	"fmt"
)

// Finding levels, most severe first.
const (
	LevelWarning = "warning"
	LevelInfo    = "info"
)

// NoDataNotice is shown in place of charts when a selection is empty.
const NoDataNotice = "No data available for this selection."

// Finding is one human-readable observation about a record set. The UI shows
// Title as a headline and Detail as the explanatory text.
type Finding struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "warning" | "info".
	Level  string   `json:"level"`
	Title  string   `json:"title"`
	Detail string   `json:"detail"`
	Value  *float64 `json:"value,omitempty"`
}

// Findings derives observations from a summary. Warnings about data quality
// come first, followed by informational findings.
func Findings(s Summary) []Finding {
	var warnings, infos []Finding

	if s.Records == 0 {
		return []Finding{{
			Key:    "no_data",
			Level:  LevelInfo,
			Title:  "No data",
			Detail: NoDataNotice,
		}}
	}

	// ── Data quality ────────────────────────────────────────────────────────
	if s.Undefined > 0 {
		v := float64(s.Undefined)
		warnings = append(warnings, Finding{
			Key:   "undefined_rate",
			Level: LevelWarning,
			Title: "Undefined mortality rates",
			Detail: fmt.Sprintf(
				"%d clinic-year(s) record zero births, so their mortality rate is undefined. "+
					"They are shown without a rate and left out of every average.",
				s.Undefined),
			Value: &v,
		})
	}
	if s.DeathsExceed > 0 {
		v := float64(s.DeathsExceed)
		warnings = append(warnings, Finding{
			Key:   "deaths_exceed_births",
			Level: LevelWarning,
			Title: "Deaths exceed births",
			Detail: fmt.Sprintf(
				"%d clinic-year(s) report more deaths than births. "+
					"Their mortality rate is above 100%% and likely reflects a data entry problem.",
				s.DeathsExceed),
			Value: &v,
		})
	}

	// ── Before / after ──────────────────────────────────────────────────────
	switch {
	case s.DeclinePct.Valid && s.DeclinePct.Value > 0:
		v := s.DeclinePct.Value
		infos = append(infos, Finding{
			Key:   "decline",
			Level: LevelInfo,
			Title: fmt.Sprintf("Mortality fell %.1f%% after %d", v, s.ThresholdYear),
			Detail: fmt.Sprintf(
				"The average mortality rate dropped from %.2f%% before %d to %.2f%% from %d onward. "+
					"Hand-washing was introduced in %d.",
				s.AvgBefore.Value*100, s.ThresholdYear, s.AvgAfter.Value*100, s.ThresholdYear, s.ThresholdYear),
			Value: &v,
		})
	case s.DeclinePct.Valid:
		v := s.DeclinePct.Value
		warnings = append(warnings, Finding{
			Key:   "no_decline",
			Level: LevelWarning,
			Title: fmt.Sprintf("No decline after %d", s.ThresholdYear),
			Detail: fmt.Sprintf(
				"The average mortality rate went from %.2f%% before %d to %.2f%% afterwards.",
				s.AvgBefore.Value*100, s.ThresholdYear, s.AvgAfter.Value*100),
			Value: &v,
		})
	case s.AvgBefore.Valid != s.AvgAfter.Valid:
		side := "from"
		if s.AvgBefore.Valid {
			side = "before"
		}
		infos = append(infos, Finding{
			Key:   "one_sided",
			Level: LevelInfo,
			Title: "No before/after comparison",
			Detail: fmt.Sprintf(
				"The selection only has usable rates %s %d, so no decline can be computed.",
				side, s.ThresholdYear),
		})
	}

	// ── Clinic comparison before the intervention ───────────────────────────
	var hi, lo *ClinicSummary
	for i := range s.Clinics {
		c := &s.Clinics[i]
		if !c.AvgBefore.Valid {
			continue
		}
		if hi == nil || c.AvgBefore.Value > hi.AvgBefore.Value {
			hi = c
		}
		if lo == nil || c.AvgBefore.Value < lo.AvgBefore.Value {
			lo = c
		}
	}
	if hi != nil && lo != nil && hi != lo && lo.AvgBefore.Value > 0 {
		ratio := hi.AvgBefore.Value / lo.AvgBefore.Value
		infos = append(infos, Finding{
			Key:   "clinic_gap",
			Level: LevelInfo,
			Title: fmt.Sprintf("%s highest before %d", hi.Clinic, s.ThresholdYear),
			Detail: fmt.Sprintf(
				"%s had a mortality rate of %.2f%% before the intervention, %.1fx that of %s (%.2f%%).",
				hi.Clinic, hi.AvgBefore.Value*100, ratio, lo.Clinic, lo.AvgBefore.Value*100),
			Value: &ratio,
		})
	}

	// ── Peak ────────────────────────────────────────────────────────────────
	if s.Extremes != nil {
		p := s.Extremes.Peak
		v := float64(p.Deaths)
		detail := fmt.Sprintf("The most deaths in a single year were %d, in %s in %d.", p.Deaths, p.Clinic, p.Year)
		if low := s.Extremes.Lowest; low != nil {
			detail += fmt.Sprintf(" From %d onward the fewest were %d, in %s in %d.", s.ThresholdYear, low.Deaths, low.Clinic, low.Year)
		}
		infos = append(infos, Finding{
			Key:    "peak_deaths",
			Level:  LevelInfo,
			Title:  fmt.Sprintf("Peak of %d deaths", p.Deaths),
			Detail: detail,
			Value:  &v,
		})
	}

	return append(warnings, infos...)
}
