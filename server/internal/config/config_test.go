package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	// Only the required dataset source is set.
	p := writeConfig(t, `dataset:
  path: data/yearly_deaths_by_clinic.csv
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Server.HTTPPort, DefaultHTTPPort)
	}
	if cfg.Server.BroadcastInterval != DefaultBroadcastInterval {
		t.Errorf("broadcast_interval: got %v, want %v", cfg.Server.BroadcastInterval, DefaultBroadcastInterval)
	}
	if cfg.Dataset.Format != "auto" {
		t.Errorf("format: got %q, want auto", cfg.Dataset.Format)
	}
	if cfg.Dataset.FetchTimeout != DefaultFetchTimeout {
		t.Errorf("fetch_timeout: got %v, want %v", cfg.Dataset.FetchTimeout, DefaultFetchTimeout)
	}
	if cfg.Dashboard.ThresholdYear != DefaultThresholdYear {
		t.Errorf("threshold_year: got %d, want %d", cfg.Dashboard.ThresholdYear, DefaultThresholdYear)
	}
	if cfg.Log.SlogLevel() != slog.LevelInfo {
		t.Errorf("log level: got %v, want info", cfg.Log.SlogLevel())
	}
}

func TestLoad_Full(t *testing.T) {
	p := writeConfig(t, `server:
  http_port: 9091
  ui_dir: ./ui/dist
  broadcast_interval: 30s
dataset:
  url: https://example.org/yearly.xlsx
  format: xlsx
  fetch_timeout: 3s
dashboard:
  threshold_year: 1848
log:
  level: DEBUG
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.HTTPPort != 9091 {
		t.Errorf("http_port: got %d, want 9091", cfg.Server.HTTPPort)
	}
	if cfg.Server.UIDir != "./ui/dist" {
		t.Errorf("ui_dir: got %q", cfg.Server.UIDir)
	}
	if cfg.Server.BroadcastInterval != 30*time.Second {
		t.Errorf("broadcast_interval: got %v, want 30s", cfg.Server.BroadcastInterval)
	}
	if cfg.Dataset.URL != "https://example.org/yearly.xlsx" || cfg.Dataset.Format != "xlsx" {
		t.Errorf("dataset: got %+v", cfg.Dataset)
	}
	if cfg.Dataset.FetchTimeout != 3*time.Second {
		t.Errorf("fetch_timeout: got %v, want 3s", cfg.Dataset.FetchTimeout)
	}
	if cfg.Dashboard.ThresholdYear != 1848 {
		t.Errorf("threshold_year: got %d, want 1848", cfg.Dashboard.ThresholdYear)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("log level: got %v, want debug", cfg.Log.SlogLevel())
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no dataset source",
			content: "server:\n  http_port: 8080\n",
			wantErr: "exactly one of dataset.path or dataset.url",
		},
		{
			name:    "both dataset sources",
			content: "dataset:\n  path: a.csv\n  url: http://x/a.csv\n",
			wantErr: "exactly one of dataset.path or dataset.url",
		},
		{
			name:    "bad port",
			content: "server:\n  http_port: 70000\ndataset:\n  path: a.csv\n",
			wantErr: "http_port",
		},
		{
			name:    "unknown format",
			content: "dataset:\n  path: a.ods\n  format: ods\n",
			wantErr: "dataset.format",
		},
		{
			name:    "watch on url",
			content: "dataset:\n  url: http://x/a.csv\n  watch: true\n",
			wantErr: "dataset.watch",
		},
		{
			name:    "zero threshold",
			content: "dataset:\n  path: a.csv\ndashboard:\n  threshold_year: 0\n",
			wantErr: "threshold_year",
		},
		{
			name:    "unknown log level",
			content: "dataset:\n  path: a.csv\nlog:\n  level: verbose\n",
			wantErr: "log.level",
		},
		{
			name:    "bad yaml",
			content: "dataset: [",
			wantErr: "parse yaml",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	p := writeConfig(t, "dataset:\n  path: a.csv\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, p, func(c *Config) { got <- c }) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(p, []byte("dataset:\n  path: a.csv\ndashboard:\n  threshold_year: 1850\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case c := <-got:
		if c.Dashboard.ThresholdYear != 1850 {
			t.Errorf("threshold_year: got %d, want 1850", c.Dashboard.ThresholdYear)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

func TestWatch_ReloadsAfterRenameSave(t *testing.T) {
	p := writeConfig(t, "dataset:\n  path: a.csv\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 8)
	go Watch(ctx, p, func(c *Config) { got <- c }) //nolint:errcheck

	time.Sleep(100 * time.Millisecond)

	// Replace the file the way editors do, then edit it in place.
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, []byte("dataset:\n  path: a.csv\ndashboard:\n  threshold_year: 1848\n"), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		t.Fatalf("rename: %v", err)
	}
	waitThreshold(t, got, 1848)

	if err := os.WriteFile(p, []byte("dataset:\n  path: a.csv\ndashboard:\n  threshold_year: 1849\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	waitThreshold(t, got, 1849)
}

// waitThreshold waits for a reloaded config with the given threshold year.
func waitThreshold(t *testing.T, got <-chan *Config, year int) {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case c := <-got:
			if c.Dashboard.ThresholdYear == year {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for threshold_year %d", year)
		}
	}
}
