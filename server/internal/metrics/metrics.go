package metrics

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/semmelweis/clinicstats/server/internal/store"
)

const namespace = "clinicstats"

// OverallClinic is the clinic label used for statistics over every clinic.
// The underscore keeps it apart from real clinic names.
const OverallClinic = "_all"

// Reload results for clinicstats_dataset_reloads_total.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the registry and the activity counters. A nil *Metrics is
// valid and records nothing, so callers need not guard optional wiring.
type Metrics struct {
	reg      *prometheus.Registry
	reloads  *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// New creates a registry with the dataset collector over st and the activity
// counters. threshold supplies the before/after split year at scrape time; nil
// means mortality.ThresholdYear.
func New(st *store.Store, threshold func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(newDatasetCollector(st, threshold))

	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_reloads_total",
			Help:      "Total number of dataset loads, by result.",
		}, []string{"result"}),
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of REST API requests, by route and status code.",
		}, []string{"route", "code"}),
	}
}

// IncReload counts one dataset load attempt.
func (m *Metrics) IncReload(err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.reloads.WithLabelValues(result).Inc()
}

// IncRequest counts one API request.
func (m *Metrics) IncRequest(route string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Gather collects every metric family from the registry.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.reg.Gather()
}

// WriteText writes a gather of the registry to w in text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	mfs, err := m.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
