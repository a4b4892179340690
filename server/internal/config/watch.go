package config

import (
	"context"
	"log/slog"

	"github.com/semmelweis/clinicstats/server/internal/fswatch"
)

// Watch calls onChange with the reloaded Config each time the file at path
// changes. An invalid file is logged and skipped. Runs until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	slog.Info("config: watching for changes", "path", path)
	return fswatch.Watch(ctx, path, func() {
		cfg, err := Load(path)
		if err != nil {
			slog.Error("config: reload failed, keeping previous config", "path", path, "err", err)
			return
		}
		onChange(cfg)
	})
}
