package fswatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

// startWatch runs Watch on path and returns a channel that receives one value
// per reported change.
func startWatch(t *testing.T, path string) <-chan struct{} {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan struct{}, 16)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, func() { changes <- struct{}{} }) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch returned %v", err)
		}
	})
	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	return changes
}

func waitChange(t *testing.T, changes <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for change after %s", what)
	}
}

// drain discards changes queued by one filesystem operation, which may emit
// several events.
func drain(changes <-chan struct{}) {
	for {
		select {
		case <-changes:
		case <-time.After(100 * time.Millisecond):
			return
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatch_Write(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data.csv")
	writeFile(t, p, "a")
	changes := startWatch(t, p)

	writeFile(t, p, "b")
	waitChange(t, changes, "write")
}

func TestWatch_RenameOverThenWrite(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "data.csv")
	writeFile(t, p, "a")
	changes := startWatch(t, p)

	tmp := filepath.Join(dir, "data.csv.tmp")
	writeFile(t, tmp, "b")
	drain(changes)
	if err := os.Rename(tmp, p); err != nil {
		t.Fatalf("rename: %v", err)
	}
	waitChange(t, changes, "rename over the file")
	drain(changes)

	// The watch must survive the replaced inode.
	writeFile(t, p, "c")
	waitChange(t, changes, "write after rename")
}

func TestWatch_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "data.csv")
	writeFile(t, p, "a")
	changes := startWatch(t, p)

	writeFile(t, filepath.Join(dir, "other.csv"), "x")
	select {
	case <-changes:
		t.Error("change reported for a sibling file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nope", "data.csv")
	if err := Watch(context.Background(), p, func() {}); err == nil {
		t.Fatal("expected error for a missing directory")
	}
}

func TestRelevant(t *testing.T) {
	target := filepath.Join(string(filepath.Separator)+"srv", "data.csv")
	cases := map[string]struct {
		event fsnotify.Event
		want  bool
	}{
		"write":        {fsnotify.Event{Name: target, Op: fsnotify.Write}, true},
		"create":       {fsnotify.Event{Name: target, Op: fsnotify.Create}, true},
		"unclean name": {fsnotify.Event{Name: filepath.Dir(target) + "/./data.csv", Op: fsnotify.Write}, true},
		"remove":       {fsnotify.Event{Name: target, Op: fsnotify.Remove}, false},
		"rename away":  {fsnotify.Event{Name: target, Op: fsnotify.Rename}, false},
		"chmod":        {fsnotify.Event{Name: target, Op: fsnotify.Chmod}, false},
		"temp sibling": {fsnotify.Event{Name: target + ".tmp", Op: fsnotify.Create}, false},
	}
	for name, tc := range cases {
		if got := Relevant(tc.event, target); got != tc.want {
			t.Errorf("%s: got %v, want %v", name, got, tc.want)
		}
	}
}
