package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// Supported table formats.
const (
	FormatAuto = "auto"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatXLS  = "xls"
)

// maxDownloadBytes caps how much of a remote table is read.
const maxDownloadBytes = 32 << 20

// Source describes where the table lives. Exactly one of Path or URL is set.
type Source struct {
	Path   string
	URL    string
	Format string // csv | xlsx | xls | auto (default)
}

// Origin returns the path or URL, for logs and API responses.
func (s Source) Origin() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Path
}

// ResolveFormat returns the effective table format. "auto" (or empty) picks
// by the extension of the path or URL path and falls back to CSV.
func (s Source) ResolveFormat() string {
	f := strings.ToLower(strings.TrimSpace(s.Format))
	if f != "" && f != FormatAuto {
		return f
	}

	name := s.Path
	if s.URL != "" {
		if u, err := url.Parse(s.URL); err == nil {
			name = u.Path
		}
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".xlsx":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	default:
		return FormatCSV
	}
}

// Load reads, decodes and normalizes the table described by src. client is
// used for URL sources; nil means http.DefaultClient.
func Load(ctx context.Context, src Source, client *http.Client) (*Dataset, error) {
	if (src.Path == "") == (src.URL == "") {
		return nil, errors.New("dataset: exactly one of path or url must be set")
	}

	raw, err := fetch(ctx, src, client)
	if err != nil {
		return nil, err
	}

	var header []string
	var rows [][]string
	switch format := src.ResolveFormat(); format {
	case FormatCSV:
		header, rows, err = ReadCSV(bytes.NewReader(raw))
	case FormatXLSX:
		header, rows, err = ReadXLSX(bytes.NewReader(raw))
	case FormatXLS:
		header, rows, err = ReadXLS(bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("dataset: unsupported format %q: want csv|xlsx|xls|auto", format)
	}
	if err != nil {
		return nil, err
	}

	records, err := Normalize(header, rows)
	if err != nil {
		return nil, err
	}

	ds := New(records, src.Origin(), time.Now())
	slog.Info("dataset: loaded",
		"origin", ds.Origin(),
		"records", ds.Len(),
		"clinics", len(ds.Clinics()),
		"years", fmt.Sprintf("%d-%d", ds.Years().Min, ds.Years().Max),
	)
	return ds, nil
}

// fetch returns the raw bytes of the source.
func fetch(ctx context.Context, src Source, client *http.Client) ([]byte, error) {
	if src.Path != "" {
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("dataset: read %q: %w", src.Path, err)
		}
		return data, nil
	}

	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dataset: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataset: fetch %q: %w", src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataset: fetch %q: unexpected status %d", src.URL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("dataset: fetch %q: read body: %w", src.URL, err)
	}
	return data, nil
}
