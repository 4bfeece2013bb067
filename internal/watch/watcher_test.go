package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestScripts_ReportsTankFileChanges(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		done <- Scripts(ctx, dir, func(path string) {
			changed <- path
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(dir, "hunter.tank")
	if err := os.WriteFile(path, []byte("tank.Move(1)"), 0644); err != nil {
		t.Fatal(err)
	}
	// A non-script file must not trigger a reload.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-changed:
		if got != path {
			t.Errorf("changed path = %q, want %q", got, path)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported for .tank file")
	}

	// The debounce window must have settled; nothing further should arrive
	// for the .txt write.
	select {
	case got := <-changed:
		t.Errorf("unexpected change reported: %q", got)
	case <-time.After(500 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Scripts returned %v, want context.Canceled", err)
	}
}

func TestScripts_MissingDirectory(t *testing.T) {
	err := Scripts(context.Background(), filepath.Join(t.TempDir(), "absent"), func(string) {})
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
