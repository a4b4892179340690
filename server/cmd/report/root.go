package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/semmelweis/clinicstats/server/internal/config"
	"github.com/semmelweis/clinicstats/server/internal/dataset"
	"github.com/semmelweis/clinicstats/server/internal/mortality"
	"github.com/semmelweis/clinicstats/server/internal/report"
	"github.com/semmelweis/clinicstats/server/internal/store"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath  string
	datasetPath string
	format      string
	clinics     []string
	from, to    int
	threshold   int
	debug       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "clinicstats-report",
		Short:        "Maternal mortality statistics by clinic",
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level := slog.LevelWarn
			if opts.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			if !report.ValidFormat(opts.format) {
				return fmt.Errorf("unknown --format %q: want text|json", opts.format)
			}
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "read the dataset source and threshold from this server config file")
	f.StringVar(&opts.datasetPath, "dataset", "", "dataset file path or http(s) URL (csv, xlsx or xls)")
	f.StringVar(&opts.format, "format", report.FormatText, "output format: text|json")
	f.StringArrayVar(&opts.clinics, "clinic", nil, "clinic to include (repeatable); an empty value selects none")
	f.IntVar(&opts.from, "from", 0, "first year to include")
	f.IntVar(&opts.to, "to", 0, "last year to include")
	f.IntVar(&opts.threshold, "threshold", 0, fmt.Sprintf("before/after split year (default %d)", mortality.ThresholdYear))
	f.BoolVar(&opts.debug, "debug", false, "log at debug level and dump the resolved query to stderr")

	cmd.AddCommand(
		summaryCmd(opts),
		recordsCmd(opts),
		comparisonCmd(opts),
		chartCmd(opts),
		metricsCmd(opts),
	)
	return cmd
}

// session is a loaded dataset plus the query built from the flags.
type session struct {
	ds    *dataset.Dataset
	query mortality.Query
}

func (s *session) source() report.Source {
	return report.Source{
		Origin:  s.ds.Origin(),
		Records: s.ds.Len(),
		Clinics: len(s.ds.Clinics()),
		Years:   s.ds.Years(),
	}
}

func (s *session) view() (*mortality.View, error) {
	return mortality.ComputeView(s.ds, s.query)
}

// newStore wraps the dataset in a store for components that read from one.
func (s *session) newStore() *store.Store {
	st := store.New()
	st.Put(s.ds)
	return st
}

// load resolves the dataset source, loads it and builds the query.
func (o *options) load(cmd *cobra.Command) (*session, error) {
	src, threshold, timeout, err := o.source()
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ds, err := dataset.Load(ctx, src, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("threshold") {
		if o.threshold <= 0 {
			return nil, fmt.Errorf("--threshold must be positive, got %d", o.threshold)
		}
		threshold = o.threshold
	}
	q := mortality.Query{ThresholdYear: threshold}

	if cmd.Flags().Changed("clinic") {
		q.Clinics = make([]string, 0, len(o.clinics))
		for _, c := range o.clinics {
			if c = strings.TrimSpace(c); c != "" {
				q.Clinics = append(q.Clinics, c)
			}
		}
	}
	if cmd.Flags().Changed("from") || cmd.Flags().Changed("to") {
		yr := ds.Years()
		if cmd.Flags().Changed("from") {
			yr.Min = o.from
		}
		if cmd.Flags().Changed("to") {
			yr.Max = o.to
		}
		q.Years = &yr
	}

	if o.debug {
		spew.Fdump(os.Stderr, q)
	}
	return &session{ds: ds, query: q}, nil
}

// source picks the dataset from --dataset, falling back to --config.
func (o *options) source() (dataset.Source, int, time.Duration, error) {
	threshold := mortality.ThresholdYear
	timeout := config.DefaultFetchTimeout

	if o.datasetPath != "" {
		src := dataset.Source{Path: o.datasetPath}
		if strings.HasPrefix(o.datasetPath, "http://") || strings.HasPrefix(o.datasetPath, "https://") {
			src = dataset.Source{URL: o.datasetPath}
		}
		return src, threshold, timeout, nil
	}
	if o.configPath == "" {
		return dataset.Source{}, 0, 0, fmt.Errorf("one of --dataset or --config is required")
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return dataset.Source{}, 0, 0, err
	}
	src := dataset.Source{Path: cfg.Dataset.Path, URL: cfg.Dataset.URL, Format: cfg.Dataset.Format}
	return src, cfg.Dashboard.ThresholdYear, cfg.Dataset.FetchTimeout, nil
}
