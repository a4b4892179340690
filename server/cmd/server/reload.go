package main

import (
	"log/slog"
	"sync/atomic"

	"github.com/semmelweis/clinicstats/server/internal/config"
)

// liveConfig applies config reloads to the running server. Only the log level
// and the threshold year change live; other edits are reported once each.
type liveConfig struct {
	level     *slog.LevelVar
	threshold *atomic.Int64
	uiDir     string // -ui-dir override, reapplied to every reload

	last config.Config
}

func newLiveConfig(cfg *config.Config, level *slog.LevelVar, threshold *atomic.Int64, uiDir string) *liveConfig {
	level.Set(cfg.Log.SlogLevel())
	threshold.Store(int64(cfg.Dashboard.ThresholdYear))
	return &liveConfig{level: level, threshold: threshold, uiDir: uiDir, last: *cfg}
}

func (l *liveConfig) thresholdYear() int { return int(l.threshold.Load()) }

// apply takes a reloaded config and reports whether it carries server or
// dataset changes that need a restart.
func (l *liveConfig) apply(next *config.Config) (restart bool) {
	if l.uiDir != "" {
		next.Server.UIDir = l.uiDir
	}

	l.level.Set(next.Log.SlogLevel())
	if prev := l.threshold.Swap(int64(next.Dashboard.ThresholdYear)); prev != int64(next.Dashboard.ThresholdYear) {
		slog.Info("threshold year changed", "from", prev, "to", next.Dashboard.ThresholdYear)
	}

	restart = next.Server != l.last.Server || next.Dataset != l.last.Dataset
	if restart {
		slog.Warn("server and dataset settings change only on restart")
	}
	l.last = *next
	return restart
}
