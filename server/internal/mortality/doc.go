// Package mortality derives mortality statistics from yearly clinic records.
//
// engine.go holds the pure operations: DeriveMortalityRate, SplitByThreshold,
// AverageRate, PercentDecline, FindExtremes, Filter and GroupForComparison.
// summary.go combines them into a Summary whose undefined statistics are
// recovered into types.NullFloat sentinels, and findings.go turns a Summary
// into human-readable Findings.
//
// view.go is the boundary used by every dashboard shell:
// ComputeView(table, query) returns the View for one session's filters.
//
// Nothing in this package keeps state between calls; all functions are safe
// for concurrent use as long as callers do not mutate the slices they pass in.
package mortality
