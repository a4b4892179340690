package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/semmelweis/clinicstats/server/internal/api"
	"github.com/semmelweis/clinicstats/server/internal/config"
	"github.com/semmelweis/clinicstats/server/internal/dataset"
	"github.com/semmelweis/clinicstats/server/internal/metrics"
	"github.com/semmelweis/clinicstats/server/internal/store"
	"github.com/semmelweis/clinicstats/server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	uiDir := flag.String("ui-dir", "", "serve the dashboard UI static files from this directory (overrides server.ui_dir)")
	flag.Parse()

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	slog.Info("clinicstats-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if *uiDir != "" {
		cfg.Server.UIDir = *uiDir
	}
	var threshold atomic.Int64
	live := newLiveConfig(cfg, &level, &threshold, *uiDir)
	thresholdYear := live.thresholdYear

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"dataset_path", cfg.Dataset.Path,
		"dataset_url", cfg.Dataset.URL,
		"threshold_year", cfg.Dashboard.ThresholdYear,
		"broadcast_interval", cfg.Server.BroadcastInterval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := store.New()
	m := metrics.New(st, thresholdYear)

	// Initial dataset load. A missing file or schema error is fatal.
	src := dataset.Source{Path: cfg.Dataset.Path, URL: cfg.Dataset.URL, Format: cfg.Dataset.Format}
	client := &http.Client{Timeout: cfg.Dataset.FetchTimeout}
	ds, err := dataset.Load(ctx, src, client)
	m.IncReload(err)
	if err != nil {
		slog.Error("failed to load dataset", "source", src.Origin(), "err", err)
		os.Exit(1)
	}
	st.Put(ds)

	hub := ws.New(st, cfg.Server.BroadcastInterval, thresholdYear)

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(st, api.Options{ThresholdYear: thresholdYear, Metrics: m}))
	httpMux.Handle("/ws/stream", hub)
	httpMux.Handle("/metrics", m.Handler())
	if cfg.Server.UIDir != "" {
		httpMux.Handle("/", uiHandler(cfg.Server.UIDir))
		slog.Info("serving UI static files", "dir", cfg.Server.UIDir)
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	// WebSocket hub: pushes fresh views to dashboard sessions after reloads.
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	if cfg.Dataset.Watch {
		g.Go(func() error {
			err := dataset.Watch(gctx, src, client,
				func(ds *dataset.Dataset) {
					v := st.Put(ds)
					m.IncReload(nil)
					slog.Info("dataset swapped", "version", v, "records", ds.Len())
				},
				func(err error) {
					st.SetError(err)
					m.IncReload(err)
				},
			)
			if err != nil {
				slog.Error("dataset watcher stopped", "err", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		err := config.Watch(gctx, *configPath, func(next *config.Config) { live.apply(next) })
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("clinicstats-server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// uiHandler serves the pre-built dashboard UI from dir. Unknown paths get
// index.html so client-side routing works.
func uiHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	})
}
