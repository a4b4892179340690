// Package report renders dashboard views for the terminal. Text output uses a
// locale-aware printer for digit grouping and lipgloss styles for headings,
// which degrade to plain text when the writer is not a terminal. JSON output
// matches the REST API schemas.
package report
