// Package metrics exposes the loaded dataset and server activity as
// Prometheus metrics.
//
// Dataset-derived gauges are computed on every scrape by a custom collector
// over the store, so they always match the dataset currently served:
//
//	clinicstats_dataset_records
//	clinicstats_dataset_version
//	clinicstats_mortality_rate{clinic,year}
//	clinicstats_average_mortality_rate{clinic,period}
//	clinicstats_mortality_decline_percent{clinic}
//
// Statistics over every clinic carry clinic="_all". A clinic with that name
// exports its per-year rates only.
//
// Activity counters are incremented by the server:
//
//	clinicstats_dataset_reloads_total{result}
//	clinicstats_api_requests_total{route,code}
//
// Each Metrics owns its own registry; nothing is registered globally.
package metrics
