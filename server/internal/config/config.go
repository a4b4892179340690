package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort          = 8080
	DefaultBroadcastInterval = 5 * time.Second
	DefaultFetchTimeout      = 10 * time.Second
	DefaultThresholdYear     = 1847
	DefaultLogLevel          = "info"
)

// Config holds the dashboard configuration parsed from config.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, charts and WebSocket hub listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// UIDir, when set, serves pre-built static UI files from this directory.
	UIDir string `yaml:"ui_dir"`

	// BroadcastInterval is how often the WebSocket hub checks for a reloaded
	// dataset and pushes fresh views (default 5s).
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`
}

// DatasetConfig describes where the yearly clinic table is loaded from.
// Exactly one of Path or URL must be set.
type DatasetConfig struct {
	Path string `yaml:"path"`
	URL  string `yaml:"url"`

	// Format is one of: auto | csv | xlsx | xls. Defaults to auto.
	Format string `yaml:"format"`

	// Watch reloads a file dataset whenever it changes on disk.
	Watch bool `yaml:"watch"`

	// FetchTimeout bounds the download of a URL dataset (default 10s).
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// DashboardConfig holds presentation defaults.
type DashboardConfig struct {
	// ThresholdYear splits before/after statistics (default 1847).
	ThresholdYear int `yaml:"threshold_year"`
}

// LogConfig controls the slog handler installed by main.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// SlogLevel maps Level onto a slog.Level. validate guarantees it is known.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the config file at path.
// Missing fields are filled with sensible defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:          DefaultHTTPPort,
			BroadcastInterval: DefaultBroadcastInterval,
		},
		Dataset: DatasetConfig{
			Format:       "auto",
			FetchTimeout: DefaultFetchTimeout,
		},
		Dashboard: DashboardConfig{
			ThresholdYear: DefaultThresholdYear,
		},
		Log: LogConfig{Level: DefaultLogLevel},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.BroadcastInterval <= 0 {
		return fmt.Errorf("server.broadcast_interval must be positive")
	}

	if (cfg.Dataset.Path == "") == (cfg.Dataset.URL == "") {
		return fmt.Errorf("exactly one of dataset.path or dataset.url is required")
	}
	switch cfg.Dataset.Format {
	case "auto", "csv", "xlsx", "xls", "":
	default:
		return fmt.Errorf("dataset.format %q unknown: want auto|csv|xlsx|xls", cfg.Dataset.Format)
	}
	if cfg.Dataset.Watch && cfg.Dataset.URL != "" {
		return fmt.Errorf("dataset.watch requires dataset.path")
	}
	if cfg.Dataset.FetchTimeout <= 0 {
		return fmt.Errorf("dataset.fetch_timeout must be positive")
	}

	if cfg.Dashboard.ThresholdYear <= 0 {
		return fmt.Errorf("dashboard.threshold_year %d must be positive", cfg.Dashboard.ThresholdYear)
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}
