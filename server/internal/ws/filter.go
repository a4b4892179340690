package ws

import (
	"errors"
	"fmt"

	"github.com/semmelweis/clinicstats/pkg/types"
	"github.com/semmelweis/clinicstats/server/internal/mortality"
	"github.com/semmelweis/clinicstats/server/internal/store"
)

// ErrInvalidFilter is reported for filters that cannot form a query.
var ErrInvalidFilter = errors.New("ws: invalid filter")

// Filter is the message a client sends to change its selection:
//
//	{"clinics": ["Clinic 1"], "from": 1841, "to": 1849, "threshold": 1847}
//
// A missing or null clinics field selects every clinic; an empty list selects
// none. A missing bound falls back to the dataset span.
type Filter struct {
	Clinics   []string `json:"clinics"`
	From      *int     `json:"from,omitempty"`
	To        *int     `json:"to,omitempty"`
	Threshold *int     `json:"threshold,omitempty"`
}

// Query resolves f against t into a mortality query.
func (f Filter) Query(t mortality.Table, defaultThreshold int) (mortality.Query, error) {
	q := mortality.Query{Clinics: f.Clinics, ThresholdYear: defaultThreshold}

	if f.From != nil || f.To != nil {
		yr := t.Years()
		if f.From != nil {
			yr.Min = *f.From
		}
		if f.To != nil {
			yr.Max = *f.To
		}
		q.Years = &types.YearRange{Min: yr.Min, Max: yr.Max}
	}

	if f.Threshold != nil {
		if *f.Threshold <= 0 {
			return q, fmt.Errorf("%w: threshold must be positive", ErrInvalidFilter)
		}
		q.ThresholdYear = *f.Threshold
	}
	return q, nil
}

// view computes the message carrying f's view of the entry's dataset.
func (f Filter) view(e *store.Entry, defaultThreshold int) (Message, error) {
	q, err := f.Query(e.Dataset, defaultThreshold)
	if err != nil {
		return Message{}, err
	}
	v, err := mortality.ComputeView(e.Dataset, q)
	if err != nil {
		return Message{}, err
	}
	return Message{Event: EventView, Data: v}, nil
}
