// Package dataset loads the yearly births/deaths table and normalizes it into
// an immutable Dataset.
//
// Sources are a local file or a URL; the table format is CSV, XLSX or legacy
// XLS (Source.Format, or "auto" to pick by extension). Normalize trims header
// whitespace and maps aliases (Birth/Births, Death/Deaths) onto the canonical
// schema {year, clinic, births, deaths}.
//
// Load errors:
//   - *SchemaError     - a required column is missing (errors.Is ErrSchema)
//   - *RowError        - a cell could not be parsed (errors.Is ErrInvalidRow)
//   - *DuplicateError  - a (year, clinic) pair repeats (errors.Is ErrDuplicate)
//
// Watch(ctx, src, client, onChange, onError) reloads a file source with fsnotify and
// keeps the previous Dataset when a reload fails.
package dataset
