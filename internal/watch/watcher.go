// Package watch hot-reloads script files during a running battle.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"tankforge/internal/logging"
)

// Handler is called with the path of a script file that changed.
type Handler func(path string)

// debounceWindow collapses the bursts of write events editors produce into
// one reload per file.
const debounceWindow = 200 * time.Millisecond

// Scripts watches dir for *.tank script changes and calls onChange for each
// settled write. It blocks until ctx is cancelled or the watcher fails.
func Scripts(ctx context.Context, dir string, onChange Handler) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}
	logging.Boot("watching %s for script changes", dir)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounceWindow)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.HasSuffix(event.Name, ".tank") {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Get(logging.CategoryBoot).Warn("watcher error: %v", err)

		case now := <-ticker.C:
			for path, stamp := range pending {
				if now.Sub(stamp) < debounceWindow {
					continue
				}
				delete(pending, path)
				logging.Boot("script changed: %s", filepath.Base(path))
				onChange(path)
			}
		}
	}
}
