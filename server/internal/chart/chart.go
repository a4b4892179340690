package chart

import (
	"errors"
	"fmt"
	"io"
	"sort"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/semmelweis/clinicstats/pkg/types"
)

// ErrNotEnoughData is returned when the records span fewer than two distinct
// years. go-chart cannot derive an x range from a single value.
var ErrNotEnoughData = errors.New("chart: at least two distinct years are required")

// Default canvas size in pixels.
const (
	DefaultWidth  = 960
	DefaultHeight = 480
)

// Options controls the rendered image.
type Options struct {
	Width  int
	Height int
	Title  string
	// ThresholdYear, when inside the plotted span, is drawn as a vertical
	// marker on the mortality chart.
	ThresholdYear int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

var palette = []drawing.Color{
	gochart.ColorBlue,
	gochart.ColorRed,
	gochart.ColorGreen,
	gochart.ColorOrange,
	gochart.ColorCyan,
	gochart.ColorAlternateGray,
}

func colorFor(i int) drawing.Color { return palette[i%len(palette)] }

func lineStyle(col drawing.Color, dashed bool) gochart.Style {
	s := gochart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    3,
	}
	if dashed {
		s.StrokeDashArray = []float64{6, 4}
	}
	return s
}

func yearFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return ""
}

func percentFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f%%", f)
	}
	return ""
}

func countFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return ""
}

// series accumulates x/y points for one line, keyed by year so the output is
// ordered left to right whatever the input order.
type series struct {
	name   string
	points map[int]float64
}

func (s *series) add(year int, v float64) {
	if s.points == nil {
		s.points = make(map[int]float64)
	}
	s.points[year] = v
}

func (s *series) xy() ([]float64, []float64) {
	years := make([]int, 0, len(s.points))
	for y := range s.points {
		years = append(years, y)
	}
	sort.Ints(years)
	xs := make([]float64, len(years))
	ys := make([]float64, len(years))
	for i, y := range years {
		xs[i] = float64(y)
		ys[i] = s.points[y]
	}
	return xs, ys
}

// Mortality renders the mortality rate (in percent) per clinic over time.
// Records with an undefined rate are skipped.
func Mortality(w io.Writer, records []types.RatedRecord, opts Options) error {
	byClinic := map[string]*series{}
	var order []string
	years := map[int]struct{}{}
	maxY := 0.0

	for _, r := range records {
		if !r.MortalityRate.Valid {
			continue
		}
		s, ok := byClinic[r.Clinic]
		if !ok {
			s = &series{name: r.Clinic}
			byClinic[r.Clinic] = s
			order = append(order, r.Clinic)
		}
		pct := r.MortalityRate.Value * 100
		s.add(r.Year, pct)
		years[r.Year] = struct{}{}
		if pct > maxY {
			maxY = pct
		}
	}
	if len(years) < 2 {
		return ErrNotEnoughData
	}
	sort.Strings(order)

	var out []gochart.Series
	for i, name := range order {
		xs, ys := byClinic[name].xy()
		out = append(out, gochart.ContinuousSeries{
			Name:    name,
			XValues: xs,
			YValues: ys,
			Style:   lineStyle(colorFor(i), false),
		})
	}

	lo, hi := span(years)
	if t := opts.ThresholdYear; t > lo && t <= hi {
		out = append(out, gochart.ContinuousSeries{
			Name:    fmt.Sprintf("Hand-washing (%d)", t),
			XValues: []float64{float64(t), float64(t)},
			YValues: []float64{0, maxY},
			Style:   lineStyle(gochart.ColorAlternateGray, true),
		})
	}

	title := opts.Title
	if title == "" {
		title = "Mortality rate by clinic"
	}
	return render(w, opts, title, "Mortality rate", percentFormatter, out)
}

// Comparison renders births and deaths per clinic over time. Births are solid
// lines, deaths dashed lines in the same colour.
func Comparison(w io.Writer, points []types.ComparisonPoint, opts Options) error {
	type key struct{ clinic, series string }
	lines := map[key]*series{}
	clinics := map[string]struct{}{}
	years := map[int]struct{}{}

	for _, p := range points {
		k := key{p.Clinic, p.Series}
		s, ok := lines[k]
		if !ok {
			s = &series{name: p.Clinic + " " + p.Series}
			lines[k] = s
		}
		s.add(p.Year, float64(p.Value))
		clinics[p.Clinic] = struct{}{}
		years[p.Year] = struct{}{}
	}
	if len(years) < 2 {
		return ErrNotEnoughData
	}

	names := make([]string, 0, len(clinics))
	for c := range clinics {
		names = append(names, c)
	}
	sort.Strings(names)

	var out []gochart.Series
	for i, c := range names {
		for _, name := range []string{types.SeriesBirths, types.SeriesDeaths} {
			s, ok := lines[key{c, name}]
			if !ok {
				continue
			}
			xs, ys := s.xy()
			out = append(out, gochart.ContinuousSeries{
				Name:    s.name,
				XValues: xs,
				YValues: ys,
				Style:   lineStyle(colorFor(i), name == types.SeriesDeaths),
			})
		}
	}

	title := opts.Title
	if title == "" {
		title = "Births and deaths by clinic"
	}
	return render(w, opts, title, "Count", countFormatter, out)
}

func render(w io.Writer, opts Options, title, yName string, yFmt gochart.ValueFormatter, series []gochart.Series) error {
	width, height := opts.size()
	ch := gochart.Chart{
		Title:      title,
		Width:      width,
		Height:     height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: "Year", ValueFormatter: yearFormatter},
		YAxis:      gochart.YAxis{Name: yName, ValueFormatter: yFmt},
		Series:     series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("chart: render %q: %w", title, err)
	}
	return nil
}

func span(years map[int]struct{}) (lo, hi int) {
	first := true
	for y := range years {
		if first || y < lo {
			lo = y
		}
		if first || y > hi {
			hi = y
		}
		first = false
	}
	return lo, hi
}
