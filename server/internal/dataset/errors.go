package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for classification with errors.Is.
var (
	ErrSchema     = errors.New("dataset: schema error")
	ErrInvalidRow = errors.New("dataset: invalid row")
	ErrDuplicate  = errors.New("dataset: duplicate year/clinic")
)

// SchemaError reports required columns that are absent after header
// normalization. It is fatal to a load.
type SchemaError struct {
	Missing []string // canonical column names
	Header  []string // trimmed header as read
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("dataset: missing required column(s) %s (header: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Header, ", "))
}

func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// RowError reports a cell that could not be parsed. Line is 1-based and
// counts the header line.
type RowError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("dataset: line %d: column %s: invalid value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *RowError) Is(target error) bool { return target == ErrInvalidRow }

func (e *RowError) Unwrap() error { return e.Err }

// DuplicateError reports a (year, clinic) pair that appears more than once.
type DuplicateError struct {
	Year      int
	Clinic    string
	FirstLine int
	Line      int
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("dataset: line %d: duplicate record for year %d, clinic %q (first seen on line %d)",
		e.Line, e.Year, e.Clinic, e.FirstLine)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }
