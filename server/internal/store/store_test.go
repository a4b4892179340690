package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/semmelweis/clinicstats/pkg/types"
	"github.com/semmelweis/clinicstats/server/internal/dataset"
)

func ds(origin string) *dataset.Dataset {
	return dataset.New([]types.Record{
		{Year: 1841, Clinic: "Clinic 1", Births: 3036, Deaths: 237},
		{Year: 1847, Clinic: "Clinic 1", Births: 3490, Deaths: 176},
	}, origin, time.Unix(0, 0))
}

// fixedClock returns a func() time.Time that always returns t.
func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestCurrent_Empty(t *testing.T) {
	st := New()
	if _, ok := st.Current(); ok {
		t.Fatal("Current on empty store: expected false, got true")
	}
	if v := st.Version(); v != 0 {
		t.Errorf("Version: got %d, want 0", v)
	}
}

func TestPutAndCurrent(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	st := New()
	st.now = fixedClock(base)

	if v := st.Put(ds("a.csv")); v != 1 {
		t.Errorf("Put: got version %d, want 1", v)
	}

	e, ok := st.Current()
	if !ok {
		t.Fatal("Current: expected entry, got none")
	}
	if e.Dataset.Origin() != "a.csv" {
		t.Errorf("Origin: got %q, want a.csv", e.Dataset.Origin())
	}
	if !e.UpdatedAt.Equal(base) {
		t.Errorf("UpdatedAt: got %v, want %v", e.UpdatedAt, base)
	}
	if e.Version != 1 {
		t.Errorf("Version: got %d, want 1", e.Version)
	}
}

func TestPut_BumpsVersion(t *testing.T) {
	st := New()
	st.Put(ds("a.csv"))
	v := st.Put(ds("b.csv"))
	if v != 2 || st.Version() != 2 {
		t.Errorf("Version: got %d/%d, want 2", v, st.Version())
	}
	e, _ := st.Current()
	if e.Dataset.Origin() != "b.csv" {
		t.Errorf("Origin: got %q, want b.csv", e.Dataset.Origin())
	}
}

func TestSetError_KeepsDataset(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	st := New()
	st.Put(ds("a.csv"))

	st.now = fixedClock(base)
	boom := errors.New("boom")
	st.SetError(boom)

	status := st.Status()
	if !errors.Is(status.LastError, boom) {
		t.Errorf("LastError: got %v, want boom", status.LastError)
	}
	if !status.LastErrorAt.Equal(base) {
		t.Errorf("LastErrorAt: got %v, want %v", status.LastErrorAt, base)
	}
	if status.Current == nil || status.Current.Dataset.Origin() != "a.csv" {
		t.Error("dataset replaced by a failed reload")
	}
	if status.Reloads != 1 || status.Failures != 1 {
		t.Errorf("counts: got %d/%d, want 1/1", status.Reloads, status.Failures)
	}
	if st.Version() != 1 {
		t.Errorf("Version: got %d, want 1", st.Version())
	}
}

func TestSetError_NilIgnored(t *testing.T) {
	st := New()
	st.SetError(nil)
	if s := st.Status(); s.LastError != nil || s.Failures != 0 {
		t.Errorf("status after SetError(nil): %+v", s)
	}
}

func TestPut_ClearsError(t *testing.T) {
	st := New()
	st.SetError(errors.New("boom"))
	st.Put(ds("a.csv"))
	if s := st.Status(); s.LastError != nil || !s.LastErrorAt.IsZero() {
		t.Errorf("LastError after Put: got %v at %v, want cleared", s.LastError, s.LastErrorAt)
	}
}

func TestConcurrentPuts(t *testing.T) {
	st := New()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Put(ds("concurrent.csv"))
		}()
	}
	wg.Wait()

	if v := st.Version(); v != 100 {
		t.Errorf("Version after concurrent puts: got %d, want 100", v)
	}
}

func TestConcurrentMixedOps(t *testing.T) {
	st := New()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			st.Put(ds("a.csv"))
		}()
		go func() {
			defer wg.Done()
			st.SetError(errors.New("boom"))
		}()
		go func() {
			defer wg.Done()
			if e, ok := st.Current(); ok {
				_ = e.Dataset.Records()
			}
			_ = st.Status()
		}()
	}
	wg.Wait()
}
