package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	xlsx "github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/anrid/xls"
)

// errNoRows is returned when a table has no header line.
var errNoRows = errors.New("table is empty")

// ReadCSV reads a comma-separated table and returns its header and data rows.
// Rows may have differing field counts; Normalize handles short rows.
func ReadCSV(r io.Reader) (header []string, rows [][]string, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	all, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: read csv: %w", err)
	}
	return split(all)
}

// ReadXLSX reads the first sheet of an Excel workbook.
func ReadXLSX(r io.Reader) (header []string, rows [][]string, err error) {
	wb, err := xlsx.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: open xlsx: %w", err)
	}

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("dataset: read xlsx: %w", errNoRows)
	}

	all, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: read xlsx sheet %q: %w", sheets[0], err)
	}
	return split(all)
}

// ReadXLS reads the first sheet of a legacy BIFF (.xls) workbook.
func ReadXLS(r io.ReadSeeker) (header []string, rows [][]string, err error) {
	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, nil, fmt.Errorf("dataset: open xls: %w", err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, nil, fmt.Errorf("dataset: read xls: %w", errNoRows)
	}

	// MaxRow is the last row index. LastCol is one past the last cell for rows
	// with a ROW record but the last cell itself for rows built from cells
	// alone, so columns are read inclusively and trailing blanks dropped.
	var all [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			continue
		}
		var cols []string
		for j := 0; j <= row.LastCol(); j++ {
			cols = append(cols, row.Col(j))
		}
		all = append(all, trimTrailing(cols))
	}
	return split(all)
}

func trimTrailing(cols []string) []string {
	n := len(cols)
	for n > 0 && cols[n-1] == "" {
		n--
	}
	return cols[:n]
}

func split(all [][]string) ([]string, [][]string, error) {
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("dataset: %w", errNoRows)
	}
	return all[0], all[1:], nil
}
