// Package fswatch reports changes to a single file, including files that are
// replaced by renaming a temporary file over them.
package fswatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange each time the file at path is written or a new file
// takes its place. It runs until ctx is cancelled.
//
// The parent directory is watched rather than the file itself. A watch on the
// file follows its inode, which is gone once an editor renames a temporary
// file over it.
func Watch(ctx context.Context, path string, onChange func()) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("fswatch: resolve %q: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fswatch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("fswatch: watch %q: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !Relevant(event, target) {
				continue
			}
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("fswatch: watcher error", "path", target, "err", err)
		}
	}
}

// Relevant reports whether event changes the contents found at target.
// A rename onto target arrives as Create. Rename and Remove of target itself
// leave nothing to load and are ignored until a new file appears.
func Relevant(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != filepath.Clean(target) {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
