package dataset

import (
	"sort"
	"time"

	"github.com/semmelweis/clinicstats/pkg/types"
)

// Dataset is the immutable, loaded record set. It is built once per load and
// never mutated, so a single *Dataset may be shared by every dashboard
// session without locking.
type Dataset struct {
	records  []types.Record
	clinics  []string
	years    types.YearRange
	origin   string
	loadedAt time.Time
}

// New builds a Dataset from already-normalized records. records is copied.
func New(records []types.Record, origin string, loadedAt time.Time) *Dataset {
	ds := &Dataset{
		records:  append([]types.Record(nil), records...),
		origin:   origin,
		loadedAt: loadedAt,
	}

	seen := make(map[string]struct{})
	for i, r := range ds.records {
		if _, ok := seen[r.Clinic]; !ok {
			seen[r.Clinic] = struct{}{}
			ds.clinics = append(ds.clinics, r.Clinic)
		}
		if i == 0 || r.Year < ds.years.Min {
			ds.years.Min = r.Year
		}
		if i == 0 || r.Year > ds.years.Max {
			ds.years.Max = r.Year
		}
	}
	sort.Strings(ds.clinics)
	return ds
}

// Records returns a copy of the records in source order.
func (d *Dataset) Records() []types.Record {
	return append([]types.Record(nil), d.records...)
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Clinics returns the sorted, unique clinic names.
func (d *Dataset) Clinics() []string {
	return append([]string(nil), d.clinics...)
}

// Years returns the inclusive span of years covered. It is the zero range
// for an empty dataset.
func (d *Dataset) Years() types.YearRange { return d.years }

// Origin is the path or URL the dataset was loaded from.
func (d *Dataset) Origin() string { return d.origin }

// LoadedAt is when the dataset was built.
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }
