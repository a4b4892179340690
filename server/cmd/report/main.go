// Command clinicstats-report prints the maternal mortality dashboard in the
// terminal or as JSON, without running the server.
//
// Usage:
//
//	clinicstats-report summary --dataset data/yearly_deaths_by_clinic.csv
//	clinicstats-report records --clinic "Clinic 1" --from 1845 --format json
//	clinicstats-report chart mortality --out mortality.png
//	clinicstats-report metrics
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
