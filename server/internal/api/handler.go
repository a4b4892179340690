package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/semmelweis/clinicstats/server/internal/chart"
	"github.com/semmelweis/clinicstats/server/internal/metrics"
	"github.com/semmelweis/clinicstats/server/internal/mortality"
	"github.com/semmelweis/clinicstats/server/internal/store"
)

// Options configures a Handler. The zero value is usable.
type Options struct {
	// ThresholdYear returns the default before/after split year. It is read
	// per request so config reloads take effect. nil means
	// mortality.ThresholdYear.
	ThresholdYear func() int

	// Metrics counts requests per route. nil disables counting.
	Metrics *metrics.Metrics
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
// It reads the current dataset from the store and returns JSON responses.
type Handler struct {
	store     *store.Store
	threshold func() int
	metrics   *metrics.Metrics
	mux       *http.ServeMux
}

// New creates a Handler wired to the given store and registers all routes.
func New(st *store.Store, opts Options) http.Handler {
	h := &Handler{
		store:     st,
		threshold: opts.ThresholdYear,
		metrics:   opts.Metrics,
		mux:       http.NewServeMux(),
	}
	if h.threshold == nil {
		h.threshold = func() int { return mortality.ThresholdYear }
	}

	h.handle("/api/v1/health", h.health)
	h.handle("/api/v1/clinics", h.clinics)
	h.handle("/api/v1/clinics/", h.clinic) // subtree, extracts {name}
	h.handle("/api/v1/records", h.records)
	h.handle("/api/v1/comparison", h.comparison)
	h.handle("/api/v1/summary", h.summary)
	h.handle("/api/v1/view", h.view)
	h.handle("/api/v1/charts/mortality.png", h.mortalityChart)
	h.handle("/api/v1/charts/comparison.png", h.comparisonChart)
	h.mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusNotFound, "unknown endpoint")
	})

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handle registers fn under pattern, rejecting non-GET methods and counting
// every response by route and status code.
func (h *Handler) handle(pattern string, fn http.HandlerFunc) {
	h.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		defer func() { h.metrics.IncRequest(pattern, rec.code) }()

		if r.Method != http.MethodGet {
			jsonErr(rec, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		fn(rec, r)
	})
}

// --- route handlers ---------------------------------------------------------

// health serves GET /api/v1/health: dataset origin, size and reload state.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	st := h.store.Status()
	resp := HealthResponse{
		State:    "unknown",
		Reloads:  st.Reloads,
		Failures: st.Failures,
	}
	if st.LastError != nil {
		resp.LastError = st.LastError.Error()
		resp.LastErrorAt = st.LastErrorAt.UTC().Format(time.RFC3339)
	}

	if e := st.Current; e != nil {
		years := e.Dataset.Years()
		resp.State = "ok"
		resp.Records = e.Dataset.Len()
		resp.Clinics = len(e.Dataset.Clinics())
		resp.Years = &years
		resp.Origin = e.Dataset.Origin()
		resp.LoadedAt = e.Dataset.LoadedAt().UTC().Format(time.RFC3339)
		resp.UpdatedAt = e.UpdatedAt.UTC().Format(time.RFC3339)
		resp.Version = e.Version
		if st.LastError != nil {
			resp.State = "error"
		}
	} else if st.LastError != nil {
		resp.State = "error"
	}

	jsonResp(w, http.StatusOK, resp)
}

// clinics serves GET /api/v1/clinics: clinic names and the year span.
func (h *Handler) clinics(w http.ResponseWriter, r *http.Request) {
	e, ok := h.current(w)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, ClinicsResponse{
		Clinics:       e.Dataset.Clinics(),
		Years:         e.Dataset.Years(),
		ThresholdYear: h.threshold(),
	})
}

// clinic serves GET /api/v1/clinics/{name}: one clinic's statistics and
// records. The threshold parameter is honoured.
func (h *Handler) clinic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/clinics/")
	if name == "" {
		h.clinics(w, r)
		return
	}

	e, ok := h.current(w)
	if !ok {
		return
	}
	threshold, err := thresholdParam(r.URL.Query(), h.threshold())
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	all := mortality.DeriveMortalityRate(e.Dataset.Records())
	recs := mortality.Filter(all, mortality.NewSelection([]string{name}, e.Dataset.Years()))
	if len(recs) == 0 {
		jsonErr(w, http.StatusNotFound, "clinic not found")
		return
	}
	s := mortality.Summarize(recs, threshold)
	jsonResp(w, http.StatusOK, ClinicResponse{
		Summary:       s.Clinics[0],
		ThresholdYear: threshold,
		Records:       recs,
		Findings:      mortality.Findings(s),
	})
}

// records serves GET /api/v1/records: filtered records with their rates.
func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	v, ok := h.computeView(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, RecordsResponse{Query: v.Query, Records: v.Records, Notice: v.Notice})
}

// comparison serves GET /api/v1/comparison: filtered births/deaths tuples.
func (h *Handler) comparison(w http.ResponseWriter, r *http.Request) {
	v, ok := h.computeView(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, ComparisonResponse{Query: v.Query, Points: v.Comparison, Notice: v.Notice})
}

// summary serves GET /api/v1/summary: statistics over the full dataset.
// Only the threshold parameter is read; selection parameters are ignored.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	e, ok := h.current(w)
	if !ok {
		return
	}
	threshold, err := thresholdParam(r.URL.Query(), h.threshold())
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	s := mortality.Summarize(mortality.DeriveMortalityRate(e.Dataset.Records()), threshold)
	jsonResp(w, http.StatusOK, SummaryResponse{
		Summary:  s,
		Findings: mortality.Findings(s),
	})
}

// view serves GET /api/v1/view: the complete view model for a query.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	v, ok := h.computeView(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, v)
}

// mortalityChart returns GET /api/v1/charts/mortality.png.
func (h *Handler) mortalityChart(w http.ResponseWriter, r *http.Request) {
	v, ok := h.computeView(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := chart.Mortality(&buf, v.Records, chart.Options{ThresholdYear: v.Query.ThresholdYear})
	h.writePNG(w, &buf, err)
}

// comparisonChart returns GET /api/v1/charts/comparison.png.
func (h *Handler) comparisonChart(w http.ResponseWriter, r *http.Request) {
	v, ok := h.computeView(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	err := chart.Comparison(&buf, v.Comparison, chart.Options{})
	h.writePNG(w, &buf, err)
}

// --- helpers ----------------------------------------------------------------

// current returns the current store entry, or writes 503 when no dataset has
// been loaded yet.
func (h *Handler) current(w http.ResponseWriter) (*store.Entry, bool) {
	e, ok := h.store.Current()
	if !ok {
		jsonErr(w, http.StatusServiceUnavailable, "no dataset loaded")
		return nil, false
	}
	return e, true
}

// computeView parses the request filters and computes the view model.
// On failure it writes the error response and returns false.
func (h *Handler) computeView(w http.ResponseWriter, r *http.Request) (*mortality.View, bool) {
	e, ok := h.current(w)
	if !ok {
		return nil, false
	}
	q, err := parseQuery(r.URL.Query(), e.Dataset, h.threshold())
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	v, err := mortality.ComputeView(e.Dataset, q)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return v, true
}

func (h *Handler) writePNG(w http.ResponseWriter, buf *bytes.Buffer, err error) {
	switch {
	case errors.Is(err, chart.ErrNotEnoughData):
		jsonErr(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		slog.Error("api: chart render failed", "err", err)
		jsonErr(w, http.StatusInternalServerError, "chart render failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w) //nolint:errcheck
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}
