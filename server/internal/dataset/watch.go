package dataset

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/semmelweis/clinicstats/server/internal/fswatch"
)

// ErrNotWatchable is returned by Watch for URL sources.
var ErrNotWatchable = errors.New("dataset: watch requires a file source")

// Watch reloads a file source whenever it changes and hands the new Dataset
// to onChange. A failed reload goes to onError, if non-nil, and the caller
// keeps serving its previous dataset. Watch runs until ctx is cancelled.
func Watch(ctx context.Context, src Source, client *http.Client, onChange func(*Dataset), onError func(error)) error {
	if src.Path == "" {
		return ErrNotWatchable
	}

	slog.Info("dataset: watching for changes", "path", src.Path)
	return fswatch.Watch(ctx, src.Path, func() {
		ds, err := Load(ctx, src, client)
		if err != nil {
			slog.Error("dataset: reload failed, keeping previous dataset",
				"path", src.Path, "err", err)
			if onError != nil {
				onError(err)
			}
			return
		}
		slog.Info("dataset: reloaded", "path", src.Path, "records", ds.Len())
		onChange(ds)
	})
}
