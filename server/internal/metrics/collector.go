package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/semmelweis/clinicstats/pkg/types"
	"github.com/semmelweis/clinicstats/server/internal/mortality"
	"github.com/semmelweis/clinicstats/server/internal/store"
)

// Period labels for clinicstats_average_mortality_rate.
const (
	PeriodBefore = "before"
	PeriodAfter  = "after"
)

// datasetCollector derives gauges from the current dataset on every scrape.
type datasetCollector struct {
	store     *store.Store
	threshold func() int

	records *prometheus.Desc
	version *prometheus.Desc
	rate    *prometheus.Desc
	average *prometheus.Desc
	decline *prometheus.Desc
}

func newDatasetCollector(st *store.Store, threshold func() int) *datasetCollector {
	if threshold == nil {
		threshold = func() int { return mortality.ThresholdYear }
	}
	fq := func(name string) string { return prometheus.BuildFQName(namespace, "", name) }
	return &datasetCollector{
		store:     st,
		threshold: threshold,
		records: prometheus.NewDesc(fq("dataset_records"),
			"Number of clinic-year records in the loaded dataset.", nil, nil),
		version: prometheus.NewDesc(fq("dataset_version"),
			"Version of the loaded dataset, incremented on every reload.", nil, nil),
		rate: prometheus.NewDesc(fq("mortality_rate"),
			"Deaths divided by births for one clinic-year.", []string{"clinic", "year"}, nil),
		average: prometheus.NewDesc(fq("average_mortality_rate"),
			"Mean mortality rate before or from the threshold year.", []string{"clinic", "period"}, nil),
		decline: prometheus.NewDesc(fq("mortality_decline_percent"),
			"Percentage decline of the average mortality rate after the threshold year.", []string{"clinic"}, nil),
	}
}

func (c *datasetCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.records
	ch <- c.version
	ch <- c.rate
	ch <- c.average
	ch <- c.decline
}

func (c *datasetCollector) Collect(ch chan<- prometheus.Metric) {
	e, ok := c.store.Current()
	if !ok {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.records, prometheus.GaugeValue, float64(e.Dataset.Len()))
	ch <- prometheus.MustNewConstMetric(c.version, prometheus.GaugeValue, float64(e.Version))

	rated := mortality.DeriveMortalityRate(e.Dataset.Records())
	for _, r := range rated {
		if !r.MortalityRate.Valid {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.rate, prometheus.GaugeValue,
			r.MortalityRate.Value, r.Clinic, strconv.Itoa(r.Year))
	}

	s := mortality.Summarize(rated, c.threshold())
	c.collectPartition(ch, OverallClinic, s.AvgBefore, s.AvgAfter, s.DeclinePct)
	for _, cs := range s.Clinics {
		if cs.Clinic == OverallClinic {
			// Its per-year rates are exported; its averages would collide
			// with the overall series.
			continue
		}
		c.collectPartition(ch, cs.Clinic, cs.AvgBefore, cs.AvgAfter, cs.DeclinePct)
	}
}

// collectPartition emits only the defined statistics; an undefined average
// is absent rather than zero.
func (c *datasetCollector) collectPartition(ch chan<- prometheus.Metric, clinic string, before, after, decline types.NullFloat) {
	if before.Valid {
		ch <- prometheus.MustNewConstMetric(c.average, prometheus.GaugeValue, before.Value, clinic, PeriodBefore)
	}
	if after.Valid {
		ch <- prometheus.MustNewConstMetric(c.average, prometheus.GaugeValue, after.Value, clinic, PeriodAfter)
	}
	if decline.Valid {
		ch <- prometheus.MustNewConstMetric(c.decline, prometheus.GaugeValue, decline.Value, clinic)
	}
}
