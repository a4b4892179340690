// Package types defines the canonical in-memory representation of the
// yearly clinic dataset shared by the server and the report CLI.
package types
