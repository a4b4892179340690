// Package api implements the HTTP REST API for clinicstats-server.
//
// New(store, opts) returns an http.Handler that serves:
//
//	GET /api/v1/health                 - dataset origin, size, version and reload state
//	GET /api/v1/clinics                - clinic names, year span, default threshold
//	GET /api/v1/clinics/{name}         - one clinic's statistics and records
//	GET /api/v1/records                - filtered records with mortality rates
//	GET /api/v1/comparison             - filtered births/deaths tuples
//	GET /api/v1/summary                - full-dataset statistics and findings
//	GET /api/v1/view                   - complete view model for a query
//	GET /api/v1/charts/mortality.png   - mortality rate chart
//	GET /api/v1/charts/comparison.png  - births vs deaths chart
//
// Filter parameters: clinic (repeatable), from, to, threshold.
//
// Status codes: 400 for malformed filters, 404 for an unknown clinic or
// endpoint, 405 for non-GET methods, 422 when a chart has fewer than two
// years to plot, 503 before the first dataset load.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
