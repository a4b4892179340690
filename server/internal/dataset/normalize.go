package dataset

import (
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/semmelweis/clinicstats/pkg/types"
)

// Canonical column names.
const (
	ColYear   = "year"
	ColClinic = "clinic"
	ColBirths = "births"
	ColDeaths = "deaths"
)

// requiredColumns lists the canonical schema in reporting order.
var requiredColumns = []string{ColYear, ColBirths, ColDeaths, ColClinic}

// aliases maps lower-cased, trimmed header names onto canonical columns.
var aliases = map[string]string{
	"year":   ColYear,
	"clinic": ColClinic,
	"birth":  ColBirths,
	"births": ColBirths,
	"death":  ColDeaths,
	"deaths": ColDeaths,
}

var (
	errNotInteger = errors.New("not an integer")
	errNegative   = errors.New("must not be negative")
	errEmpty      = errors.New("must not be empty")
	errTooLarge   = errors.New("exceeds 2147483647")
)

// maxCount bounds every numeric cell so counts and their totals stay exact.
const maxCount = math.MaxInt32

// Normalize maps a raw table onto the canonical schema and parses every row.
//
// Header names are trimmed and matched case-insensitively against the known
// aliases; unknown columns are ignored. Fully blank rows are skipped. The
// first problem found aborts normalization: a missing column yields a
// *SchemaError, an unparsable cell a *RowError and a repeated (year, clinic)
// pair a *DuplicateError.
func Normalize(header []string, rows [][]string) ([]types.Record, error) {
	trimmed := make([]string, len(header))
	index := make(map[string]int, len(requiredColumns))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		trimmed[i] = name
		if col, ok := aliases[strings.ToLower(name)]; ok {
			if _, seen := index[col]; !seen {
				index[col] = i
			}
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing, Header: trimmed}
	}

	type key struct {
		year   int
		clinic string
	}
	seen := make(map[key]int, len(rows))
	out := make([]types.Record, 0, len(rows))

	for i, row := range rows {
		line := i + 2 // 1-based, after the header line
		if blankRow(row) {
			continue
		}

		cell := func(col string) string {
			idx := index[col]
			if idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		var rec types.Record
		var err error
		if rec.Year, err = parseCount(cell(ColYear)); err != nil {
			return nil, &RowError{Line: line, Column: ColYear, Value: cell(ColYear), Err: err}
		}
		if rec.Births, err = parseCount(cell(ColBirths)); err != nil {
			return nil, &RowError{Line: line, Column: ColBirths, Value: cell(ColBirths), Err: err}
		}
		if rec.Deaths, err = parseCount(cell(ColDeaths)); err != nil {
			return nil, &RowError{Line: line, Column: ColDeaths, Value: cell(ColDeaths), Err: err}
		}
		rec.Clinic = cell(ColClinic)
		if rec.Clinic == "" {
			return nil, &RowError{Line: line, Column: ColClinic, Err: errEmpty}
		}

		k := key{rec.Year, rec.Clinic}
		if first, dup := seen[k]; dup {
			return nil, &DuplicateError{Year: rec.Year, Clinic: rec.Clinic, FirstLine: first, Line: line}
		}
		seen[k] = line

		if rec.Deaths > rec.Births {
			slog.Warn("dataset: deaths exceed births",
				"line", line, "year", rec.Year, "clinic", rec.Clinic,
				"births", rec.Births, "deaths", rec.Deaths)
		}
		out = append(out, rec)
	}
	return out, nil
}

// parseCount parses a non-negative integer no larger than maxCount.
// Spreadsheet cells sometimes carry integral values as "3036.0", which are
// accepted.
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, errEmpty
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || f != math.Trunc(f) {
			return 0, errNotInteger
		}
		switch {
		case f < 0:
			return 0, errNegative
		case f > maxCount:
			return 0, errTooLarge
		}
		return int(f), nil
	}
	switch {
	case n < 0:
		return 0, errNegative
	case n > maxCount:
		return 0, errTooLarge
	}
	return int(n), nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
