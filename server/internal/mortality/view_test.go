package mortality

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/semmelweis/clinicstats/pkg/types"
)

// table is an in-memory Table for tests.
type table []types.Record

func (t table) Records() []types.Record { return append([]types.Record(nil), t...) }

func (t table) Clinics() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range t {
		if !seen[r.Clinic] {
			seen[r.Clinic] = true
			out = append(out, r.Clinic)
		}
	}
	sort.Strings(out)
	return out
}

func (t table) Years() types.YearRange {
	var yr types.YearRange
	for i, r := range t {
		if i == 0 || r.Year < yr.Min {
			yr.Min = r.Year
		}
		if i == 0 || r.Year > yr.Max {
			yr.Max = r.Year
		}
	}
	return yr
}

func findingKeys(fs []Finding) string {
	keys := make([]string, len(fs))
	for i, f := range fs {
		keys[i] = f.Key
	}
	return strings.Join(keys, ",")
}

// --- ComputeView ------------------------------------------------------------

func TestComputeView_Defaults(t *testing.T) {
	v, err := ComputeView(table(semmelweis()), Query{})
	if err != nil {
		t.Fatalf("ComputeView: %v", err)
	}
	if got := strings.Join(v.Query.Clinics, ","); got != "Clinic 1,Clinic 2" {
		t.Errorf("clinics: got %q", got)
	}
	if v.Query.Years != (types.YearRange{Min: 1841, Max: 1849}) {
		t.Errorf("years: got %+v", v.Query.Years)
	}
	if v.Query.ThresholdYear != ThresholdYear {
		t.Errorf("threshold: got %d, want %d", v.Query.ThresholdYear, ThresholdYear)
	}
	if len(v.Records) != 18 {
		t.Errorf("records: got %d, want 18", len(v.Records))
	}
	if len(v.Comparison) != 36 {
		t.Errorf("comparison: got %d, want 36", len(v.Comparison))
	}
	if v.Empty {
		t.Error("Empty: got true, want false")
	}
	if !v.Summary.DeclinePct.Valid || v.Summary.DeclinePct.Value <= 0 {
		t.Errorf("decline: got %v, want > 0", v.Summary.DeclinePct)
	}
}

func TestComputeView_SingleClinic(t *testing.T) {
	v, err := ComputeView(table(semmelweis()), Query{
		Clinics: []string{"Clinic 1"},
		Years:   &types.YearRange{Min: 1841, Max: 1847},
	})
	if err != nil {
		t.Fatalf("ComputeView: %v", err)
	}
	if len(v.Records) != 7 {
		t.Errorf("records: got %d, want 7", len(v.Records))
	}
	for _, r := range v.Records {
		if r.Clinic != "Clinic 1" {
			t.Errorf("unexpected clinic %q", r.Clinic)
		}
	}
	if v.Overall.Records != 18 {
		t.Errorf("overall records: got %d, want 18", v.Overall.Records)
	}
	if len(v.Summary.Clinics) != 1 {
		t.Errorf("summary clinics: got %d, want 1", len(v.Summary.Clinics))
	}
}

func TestComputeView_EmptySelection(t *testing.T) {
	v, err := ComputeView(table(semmelweis()), Query{Clinics: []string{}})
	if err != nil {
		t.Fatalf("ComputeView: %v", err)
	}
	if !v.Empty {
		t.Error("Empty: got false, want true")
	}
	if v.Notice != NoDataNotice {
		t.Errorf("Notice: got %q, want %q", v.Notice, NoDataNotice)
	}
	if len(v.Records) != 0 || len(v.Comparison) != 0 {
		t.Errorf("records/comparison: got %d/%d, want 0/0", len(v.Records), len(v.Comparison))
	}
	if got := findingKeys(v.Findings); got != "no_data" {
		t.Errorf("findings: got %q, want no_data", got)
	}
	if v.Summary.AvgBefore.Valid || v.Summary.DeclinePct.Valid || v.Summary.Extremes != nil {
		t.Error("empty summary should have undefined statistics")
	}
}

func TestComputeView_InvalidQuery(t *testing.T) {
	_, err := ComputeView(table(semmelweis()), Query{Years: &types.YearRange{Min: 1849, Max: 1841}})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("inverted range: got %v, want ErrInvalidQuery", err)
	}
	_, err = ComputeView(table(semmelweis()), Query{ThresholdYear: -1})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("negative threshold: got %v, want ErrInvalidQuery", err)
	}
}

func TestComputeView_DoesNotMutateTable(t *testing.T) {
	tbl := table(semmelweis())
	before := tbl.Records()
	v, err := ComputeView(tbl, Query{})
	if err != nil {
		t.Fatalf("ComputeView: %v", err)
	}
	v.Records[0].Deaths = 0
	for i, r := range tbl.Records() {
		if r != before[i] {
			t.Fatalf("record %d changed: got %+v, want %+v", i, r, before[i])
		}
	}
}

// --- Summarize / Findings ---------------------------------------------------

func TestSummarize_PerClinic(t *testing.T) {
	s := Summarize(DeriveMortalityRate(semmelweis()), ThresholdYear)
	if len(s.Clinics) != 2 {
		t.Fatalf("clinics: got %d, want 2", len(s.Clinics))
	}
	c1 := s.Clinics[0]
	if c1.Clinic != "Clinic 1" {
		t.Fatalf("first clinic: got %q", c1.Clinic)
	}
	if !c1.AvgBefore.Valid || !c1.AvgAfter.Valid {
		t.Fatal("Clinic 1 averages undefined")
	}
	if c1.AvgBefore.Value <= c1.AvgAfter.Value {
		t.Errorf("Clinic 1: before %v not above after %v", c1.AvgBefore.Value, c1.AvgAfter.Value)
	}
	if c1.Births != 30946 || c1.Deaths != 2313 {
		t.Errorf("Clinic 1 totals: got %d/%d, want 30946/2313", c1.Births, c1.Deaths)
	}
}

func TestFindings_Semmelweis(t *testing.T) {
	fs := Findings(Summarize(DeriveMortalityRate(semmelweis()), ThresholdYear))
	if got := findingKeys(fs); got != "decline,clinic_gap,peak_deaths" {
		t.Errorf("findings: got %q, want decline,clinic_gap,peak_deaths", got)
	}
	if !strings.HasPrefix(fs[1].Title, "Clinic 1") {
		t.Errorf("clinic_gap title: got %q, want Clinic 1 first", fs[1].Title)
	}
}

func TestFindings_DataQualityFirst(t *testing.T) {
	fs := Findings(Summarize(DeriveMortalityRate([]types.Record{
		rec(1841, "A", 0, 0),
		rec(1842, "A", 10, 12),
		rec(1847, "A", 10, 1),
	}), ThresholdYear))
	got := findingKeys(fs)
	if !strings.HasPrefix(got, "undefined_rate,deaths_exceed_births") {
		t.Errorf("findings: got %q, want data quality warnings first", got)
	}
}

func TestFindings_OneSided(t *testing.T) {
	fs := Findings(Summarize(DeriveMortalityRate([]types.Record{
		rec(1841, "A", 100, 10),
		rec(1842, "A", 100, 12),
	}), ThresholdYear))
	if got := findingKeys(fs); got != "one_sided,peak_deaths" {
		t.Errorf("findings: got %q, want one_sided,peak_deaths", got)
	}
	if !strings.Contains(fs[0].Detail, "before 1847") {
		t.Errorf("one_sided detail: got %q", fs[0].Detail)
	}
}
