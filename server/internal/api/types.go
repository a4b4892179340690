package api

import (
	"github.com/semmelweis/clinicstats/pkg/types"
	"github.com/semmelweis/clinicstats/server/internal/mortality"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// State is "ok" | "error" | "unknown". "error" means the last reload
	// failed and an older dataset is still being served.
	State       string           `json:"state"`
	Records     int              `json:"records"`
	Clinics     int              `json:"clinics"`
	Years       *types.YearRange `json:"years,omitempty"`
	Origin      string           `json:"origin,omitempty"`
	LoadedAt    string           `json:"loaded_at,omitempty"`  // RFC3339
	UpdatedAt   string           `json:"updated_at,omitempty"` // RFC3339
	Version     uint64           `json:"version"`
	Reloads     int              `json:"reloads"`
	Failures    int              `json:"failures"`
	LastError   string           `json:"last_error,omitempty"`
	LastErrorAt string           `json:"last_error_at,omitempty"` // RFC3339
}

// ClinicsResponse is the payload for GET /api/v1/clinics. It feeds the
// dashboard's filter widgets.
type ClinicsResponse struct {
	Clinics       []string        `json:"clinics"`
	Years         types.YearRange `json:"years"`
	ThresholdYear int             `json:"threshold_year"`
}

// ClinicResponse is the payload for GET /api/v1/clinics/{name}.
type ClinicResponse struct {
	Summary       mortality.ClinicSummary `json:"summary"`
	ThresholdYear int                     `json:"threshold_year"`
	Records       []types.RatedRecord     `json:"records"`
	Findings      []mortality.Finding     `json:"findings"`
}

// RecordsResponse is the payload for GET /api/v1/records.
type RecordsResponse struct {
	Query   mortality.AppliedQuery `json:"query"`
	Records []types.RatedRecord    `json:"records"`
	Notice  string                 `json:"notice,omitempty"`
}

// ComparisonResponse is the payload for GET /api/v1/comparison.
type ComparisonResponse struct {
	Query  mortality.AppliedQuery  `json:"query"`
	Points []types.ComparisonPoint `json:"points"`
	Notice string                  `json:"notice,omitempty"`
}

// SummaryResponse is the payload for GET /api/v1/summary. It always covers
// the full dataset.
type SummaryResponse struct {
	Summary  mortality.Summary   `json:"summary"`
	Findings []mortality.Finding `json:"findings"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
