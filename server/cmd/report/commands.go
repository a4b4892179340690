package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/semmelweis/clinicstats/server/internal/chart"
	"github.com/semmelweis/clinicstats/server/internal/metrics"
	"github.com/semmelweis/clinicstats/server/internal/mortality"
	"github.com/semmelweis/clinicstats/server/internal/report"
)

func summaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print before/after statistics, per-clinic totals and findings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			v, err := s.view()
			if err != nil {
				return err
			}
			if opts.format == report.FormatJSON {
				return report.WriteJSON(cmd.OutOrStdout(), v)
			}
			return report.New(cmd.OutOrStdout(), language.English).Summary(s.source(), v)
		},
	}
}

func recordsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "Print the selected clinic-years with their mortality rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			v, err := s.view()
			if err != nil {
				return err
			}
			if opts.format == report.FormatJSON {
				return report.WriteJSON(cmd.OutOrStdout(), v.Records)
			}
			return report.New(cmd.OutOrStdout(), language.English).Records(s.source(), v.Records)
		},
	}
}

func comparisonCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "comparison",
		Short: "Print births and deaths per clinic-year in long form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			v, err := s.view()
			if err != nil {
				return err
			}
			if opts.format == report.FormatJSON {
				return report.WriteJSON(cmd.OutOrStdout(), v.Comparison)
			}
			return report.New(cmd.OutOrStdout(), language.English).Comparison(s.source(), v.Comparison)
		},
	}
}

func chartCmd(opts *options) *cobra.Command {
	var out string
	var width, height int

	c := &cobra.Command{
		Use:       "chart mortality|comparison",
		Short:     "Render a chart of the selection as PNG",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"mortality", "comparison"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			v, err := s.view()
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			copts := chart.Options{Width: width, Height: height, ThresholdYear: v.Query.ThresholdYear}
			switch args[0] {
			case "mortality":
				err = chart.Mortality(&buf, v.Records, copts)
			case "comparison":
				err = chart.Comparison(&buf, v.Comparison, copts)
			}
			if err != nil {
				return err
			}

			if out == "" {
				out = args[0] + ".png"
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, buf.Len())
			return nil
		},
	}
	c.Flags().StringVarP(&out, "out", "o", "", "output file (default <kind>.png)")
	c.Flags().IntVar(&width, "width", chart.DefaultWidth, "image width in pixels")
	c.Flags().IntVar(&height, "height", chart.DefaultHeight, "image height in pixels")
	return c
}

func metricsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print the dataset gauges in Prometheus text format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := opts.load(cmd)
			if err != nil {
				return err
			}
			threshold := s.query.ThresholdYear
			if threshold == 0 {
				threshold = mortality.ThresholdYear
			}
			m := metrics.New(s.newStore(), func() int { return threshold })
			if opts.format == report.FormatJSON {
				mfs, err := m.Gather()
				if err != nil {
					return err
				}
				return report.WriteJSON(cmd.OutOrStdout(), mfs)
			}
			return m.WriteText(cmd.OutOrStdout())
		},
	}
}
