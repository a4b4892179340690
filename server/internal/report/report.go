package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/semmelweis/clinicstats/pkg/types"
	"github.com/semmelweis/clinicstats/server/internal/mortality"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ValidFormat reports whether f is a supported output format.
func ValidFormat(f string) bool { return f == FormatText || f == FormatJSON }

// Source describes where the rendered data came from.
type Source struct {
	Origin  string
	Records int
	Clinics int
	Years   types.YearRange
}

type theme struct {
	title    lipgloss.Style
	subtitle lipgloss.Style
	heading  lipgloss.Style
	warning  lipgloss.Style
}

// Renderer writes text reports to one writer.
type Renderer struct {
	w     io.Writer
	p     *message.Printer
	theme theme
}

// New returns a Renderer for w formatting numbers for tag.
func New(w io.Writer, tag language.Tag) *Renderer {
	lr := lipgloss.NewRenderer(w)
	return &Renderer{
		w: w,
		p: message.NewPrinter(tag),
		theme: theme{
			title:    lr.NewStyle().Bold(true),
			subtitle: lr.NewStyle().Faint(true),
			heading:  lr.NewStyle().Bold(true).Underline(true),
			warning:  lr.NewStyle().Foreground(lipgloss.Color("208")),
		},
	}
}

// Summary writes the dashboard for v: totals, before/after statistics,
// extremes, a per-clinic table and the findings.
func (r *Renderer) Summary(src Source, v *mortality.View) error {
	var b strings.Builder
	r.header(&b, src)

	q := v.Query
	// Years go through fmt so the printer never digit-groups them.
	fmt.Fprintf(&b, "Selection: %s · %d-%d · threshold %d\n\n",
		clinicList(q.Clinics), q.Years.Min, q.Years.Max, q.ThresholdYear)

	if v.Empty {
		b.WriteString(v.Notice + "\n")
		_, err := io.WriteString(r.w, b.String())
		return err
	}

	s := v.Summary
	r.p.Fprintf(&b, "%-28s %12d\n", "Records", s.Records)
	r.p.Fprintf(&b, "%-28s %12d\n", "Births", s.Births)
	r.p.Fprintf(&b, "%-28s %12d\n", "Deaths", s.Deaths)
	r.p.Fprintf(&b, "%-28s %12s\n", fmt.Sprintf("Average rate before %d", s.ThresholdYear), percent(s.AvgBefore))
	r.p.Fprintf(&b, "%-28s %12s\n", fmt.Sprintf("Average rate from %d", s.ThresholdYear), percent(s.AvgAfter))
	r.p.Fprintf(&b, "%-28s %12s\n", "Decline", decline(s.DeclinePct))
	if x := s.Extremes; x != nil {
		r.p.Fprintf(&b, "%-28s %12d  %s\n", "Peak deaths", x.Peak.Deaths, where(x.Peak))
		if low := x.Lowest; low != nil {
			r.p.Fprintf(&b, "%-28s %12d  %s\n",
				fmt.Sprintf("Fewest deaths from %d", s.ThresholdYear), low.Deaths, where(*low))
		}
	}

	if len(s.Clinics) > 0 {
		b.WriteString("\n" + r.theme.heading.Render("Clinics") + "\n")
		r.p.Fprintf(&b, "%-16s %10s %8s %9s %9s %8s\n", "Clinic", "Births", "Deaths", "Before", "After", "Decline")
		for _, c := range s.Clinics {
			r.p.Fprintf(&b, "%-16s %10d %8d %9s %9s %8s\n",
				c.Clinic, c.Births, c.Deaths, percent(c.AvgBefore), percent(c.AvgAfter), decline(c.DeclinePct))
		}
	}

	if len(v.Findings) > 0 {
		b.WriteString("\n" + r.theme.heading.Render("Findings") + "\n")
		for _, f := range v.Findings {
			title := f.Title
			if f.Level == mortality.LevelWarning {
				title = r.theme.warning.Render("! " + title)
			} else {
				title = "- " + title
			}
			b.WriteString(title + "\n  " + f.Detail + "\n")
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// Records writes one line per clinic-year with its mortality rate.
func (r *Renderer) Records(src Source, records []types.RatedRecord) error {
	var b strings.Builder
	r.header(&b, src)
	if len(records) == 0 {
		b.WriteString(mortality.NoDataNotice + "\n")
		_, err := io.WriteString(r.w, b.String())
		return err
	}
	r.p.Fprintf(&b, "%-6s %-16s %10s %8s %9s\n", "Year", "Clinic", "Births", "Deaths", "Rate")
	for _, rec := range records {
		r.p.Fprintf(&b, "%-6s %-16s %10d %8d %9s\n",
			fmt.Sprint(rec.Year), rec.Clinic, rec.Births, rec.Deaths, percent(rec.MortalityRate))
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// Comparison writes the long-form births/deaths tuples.
func (r *Renderer) Comparison(src Source, points []types.ComparisonPoint) error {
	var b strings.Builder
	r.header(&b, src)
	if len(points) == 0 {
		b.WriteString(mortality.NoDataNotice + "\n")
		_, err := io.WriteString(r.w, b.String())
		return err
	}
	r.p.Fprintf(&b, "%-6s %-16s %-7s %10s\n", "Year", "Clinic", "Series", "Value")
	for _, pt := range points {
		r.p.Fprintf(&b, "%-6s %-16s %-7s %10d\n", fmt.Sprint(pt.Year), pt.Clinic, pt.Series, pt.Value)
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) header(b *strings.Builder, src Source) {
	b.WriteString(r.theme.title.Render("Maternal mortality by clinic") + "\n")
	sub := r.p.Sprintf("%s · %d records · %d clinics · %s-%s",
		src.Origin, src.Records, src.Clinics, fmt.Sprint(src.Years.Min), fmt.Sprint(src.Years.Max))
	b.WriteString(r.theme.subtitle.Render(sub) + "\n\n")
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

func percent(f types.NullFloat) string {
	if !f.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", f.Value*100)
}

func decline(f types.NullFloat) string {
	if !f.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", f.Value)
}

func where(r types.Record) string {
	return fmt.Sprintf("(%s, %d)", r.Clinic, r.Year)
}

func clinicList(clinics []string) string {
	if len(clinics) == 0 {
		return "(none)"
	}
	return strings.Join(clinics, ", ")
}
