package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/semmelweis/clinicstats/pkg/types"
	"github.com/semmelweis/clinicstats/server/internal/dataset"
	"github.com/semmelweis/clinicstats/server/internal/mortality"
)

func testDataset() *dataset.Dataset {
	return dataset.New([]types.Record{
		{Year: 1841, Clinic: "Clinic 1", Births: 254, Deaths: 37},
		{Year: 1847, Clinic: "Clinic 1", Births: 242, Deaths: 16},
		{Year: 1841, Clinic: "Clinic 2", Births: 2442, Deaths: 86},
		{Year: 1847, Clinic: "Clinic 2", Births: 3306, Deaths: 32},
	}, "clinics.csv", time.Unix(0, 0))
}

func testSource(ds *dataset.Dataset) Source {
	return Source{Origin: ds.Origin(), Records: ds.Len(), Clinics: len(ds.Clinics()), Years: ds.Years()}
}

func view(t *testing.T, ds *dataset.Dataset, q mortality.Query) *mortality.View {
	t.Helper()
	v, err := mortality.ComputeView(ds, q)
	if err != nil {
		t.Fatalf("ComputeView: %v", err)
	}
	return v
}

func assertContains(t *testing.T, out string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSummary_SingleClinic(t *testing.T) {
	ds := testDataset()
	var buf bytes.Buffer
	r := New(&buf, language.English)
	if err := r.Summary(testSource(ds), view(t, ds, mortality.Query{Clinics: []string{"Clinic 1"}})); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	assertContains(t, buf.String(),
		"Maternal mortality by clinic",
		"clinics.csv · 4 records · 2 clinics · 1841-1847",
		"Selection: Clinic 1 · 1841-1847 · threshold 1847",
		"14.57%",
		"6.61%",
		"54.6%",
		"(Clinic 1, 1841)",
		"Findings",
	)
}

func TestSummary_GroupsDigits(t *testing.T) {
	ds := testDataset()
	var buf bytes.Buffer
	if err := New(&buf, language.English).Summary(testSource(ds), view(t, ds, mortality.Query{})); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	// 254 + 242 + 2442 + 3306
	assertContains(t, buf.String(), "6,244")
	if strings.Contains(buf.String(), "1,841") {
		t.Error("year was digit-grouped")
	}
}

func TestSummary_Empty(t *testing.T) {
	ds := testDataset()
	var buf bytes.Buffer
	if err := New(&buf, language.English).Summary(testSource(ds), view(t, ds, mortality.Query{Clinics: []string{}})); err != nil {
		t.Fatalf("Summary: %v", err)
	}
	assertContains(t, buf.String(), "Selection: (none)", mortality.NoDataNotice)
}

func TestRecords(t *testing.T) {
	ds := testDataset()
	v := view(t, ds, mortality.Query{})
	var buf bytes.Buffer
	if err := New(&buf, language.English).Records(testSource(ds), v.Records); err != nil {
		t.Fatalf("Records: %v", err)
	}
	out := buf.String()
	assertContains(t, out, "1841   Clinic 1", "14.57%", "2,442")
	if n := strings.Count(out, "Clinic "); n < 4 {
		t.Errorf("rows: got %d clinic mentions, want at least 4", n)
	}
}

func TestRecords_UndefinedRate(t *testing.T) {
	ds := dataset.New([]types.Record{{Year: 1850, Clinic: "Clinic 3", Births: 0, Deaths: 0}}, "x.csv", time.Unix(0, 0))
	var buf bytes.Buffer
	if err := New(&buf, language.English).Records(testSource(ds), mortality.DeriveMortalityRate(ds.Records())); err != nil {
		t.Fatalf("Records: %v", err)
	}
	assertContains(t, buf.String(), "n/a")
}

func TestComparison(t *testing.T) {
	ds := testDataset()
	v := view(t, ds, mortality.Query{Clinics: []string{"Clinic 2"}})
	var buf bytes.Buffer
	if err := New(&buf, language.English).Comparison(testSource(ds), v.Comparison); err != nil {
		t.Fatalf("Comparison: %v", err)
	}
	assertContains(t, buf.String(), "Births", "Deaths", "3,306")
}

func TestComparison_Empty(t *testing.T) {
	ds := testDataset()
	var buf bytes.Buffer
	if err := New(&buf, language.English).Comparison(testSource(ds), nil); err != nil {
		t.Fatalf("Comparison: %v", err)
	}
	assertContains(t, buf.String(), mortality.NoDataNotice)
}

func TestWriteJSON(t *testing.T) {
	ds := testDataset()
	var buf bytes.Buffer
	if err := WriteJSON(&buf, view(t, ds, mortality.Query{})); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got mortality.View
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Records) != 4 {
		t.Errorf("records: got %d, want 4", len(got.Records))
	}
}

func TestValidFormat(t *testing.T) {
	for f, want := range map[string]bool{"text": true, "json": true, "yaml": false, "": false} {
		if got := ValidFormat(f); got != want {
			t.Errorf("ValidFormat(%q): got %v, want %v", f, got, want)
		}
	}
}
