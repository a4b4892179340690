package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/semmelweis/clinicstats/pkg/types"
	"github.com/semmelweis/clinicstats/server/internal/mortality"
)

// parseQuery builds a mortality.Query from URL parameters:
//
//	clinic     repeatable; absent selects every clinic, present but empty selects none
//	from, to   inclusive year bounds; a missing bound falls back to the dataset span
//	threshold  before/after split year; missing means defaultThreshold
func parseQuery(v url.Values, t mortality.Table, defaultThreshold int) (mortality.Query, error) {
	q := mortality.Query{ThresholdYear: defaultThreshold}

	if raw, ok := v["clinic"]; ok {
		q.Clinics = make([]string, 0, len(raw))
		for _, c := range raw {
			if c = strings.TrimSpace(c); c != "" {
				q.Clinics = append(q.Clinics, c)
			}
		}
	}

	from, hasFrom, err := intParam(v, "from")
	if err != nil {
		return q, err
	}
	to, hasTo, err := intParam(v, "to")
	if err != nil {
		return q, err
	}
	if hasFrom || hasTo {
		yr := t.Years()
		if hasFrom {
			yr.Min = from
		}
		if hasTo {
			yr.Max = to
		}
		q.Years = &types.YearRange{Min: yr.Min, Max: yr.Max}
	}

	if q.ThresholdYear, err = thresholdParam(v, defaultThreshold); err != nil {
		return q, err
	}
	return q, nil
}

// thresholdParam parses the optional threshold parameter, which must be a
// positive year.
func thresholdParam(v url.Values, defaultThreshold int) (int, error) {
	threshold, ok, err := intParam(v, "threshold")
	if err != nil {
		return 0, err
	}
	if !ok {
		return defaultThreshold, nil
	}
	if threshold <= 0 {
		return 0, fmt.Errorf("%w: threshold must be positive", mortality.ErrInvalidQuery)
	}
	return threshold, nil
}

// intParam parses an optional integer parameter. An empty value counts as
// absent.
func intParam(v url.Values, name string) (int, bool, error) {
	s := strings.TrimSpace(v.Get(name))
	if s == "" {
		return 0, false, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s %q is not an integer", mortality.ErrInvalidQuery, name, s)
	}
	return n, true, nil
}
