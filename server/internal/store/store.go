package store

import (
	"sync"
	"time"

	"github.com/semmelweis/clinicstats/server/internal/dataset"
)

// Entry is a dataset together with the time it was installed and its version.
type Entry struct {
	Dataset   *dataset.Dataset
	UpdatedAt time.Time
	// Version starts at 1 for the first dataset and increases on every Put.
	Version uint64
}

// Status describes the reload history for health reporting.
type Status struct {
	// Current is nil until the first dataset is installed.
	Current *Entry
	// LastError is the most recent reload failure, cleared by the next Put.
	LastError   error
	LastErrorAt time.Time
	// Reloads and Failures count Put and SetError calls.
	Reloads  int
	Failures int
}

// Store is a thread-safe holder of the current dataset.
// Datasets are immutable, so readers share them by reference.
type Store struct {
	mu      sync.RWMutex
	current *Entry
	version uint64

	lastErr   error
	lastErrAt time.Time
	reloads   int
	failures  int

	now func() time.Time // injectable for deterministic tests
}

// New creates an empty Store.
func New() *Store {
	return &Store{now: time.Now}
}

// Put installs ds as the current dataset and clears any reload error.
// It returns the new version.
func (s *Store) Put(ds *dataset.Dataset) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.current = &Entry{
		Dataset:   ds,
		UpdatedAt: s.now(),
		Version:   s.version,
	}
	s.lastErr = nil
	s.lastErrAt = time.Time{}
	s.reloads++
	return s.version
}

// Current returns the current entry and whether a dataset has been installed.
func (s *Store) Current() (*Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// Version returns the current version, 0 before the first Put.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// SetError records a failed reload. The current dataset is left untouched.
func (s *Store) SetError(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	s.lastErrAt = s.now()
	s.failures++
}

// Status returns a consistent copy of the reload history.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Current:     s.current,
		LastError:   s.lastErr,
		LastErrorAt: s.lastErrAt,
		Reloads:     s.reloads,
		Failures:    s.failures,
	}
}
