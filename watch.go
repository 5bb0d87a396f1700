package bizmatch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/poiesic/bizmatch/source"
)

// DefaultWatchDebounce is how long WatchSource waits after the last change
// before rebuilding.
const DefaultWatchDebounce = 500 * time.Millisecond

// WatchSource refreshes the index from the CSV file at path every time the
// file changes, until ctx is canceled. Failed reloads are logged and the
// previous snapshot keeps serving.
func (ix *Index) WatchSource(ctx context.Context, path string, debounce time.Duration) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}
	ix.logger.Info("watching source", "path", target)

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isSourceChange(event, target) {
				fire = time.After(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			ix.logger.Warn("watcher error", "err", err)
		case <-fire:
			fire = nil
			ix.reloadSource(ctx, target)
		}
	}
}

func (ix *Index) reloadSource(ctx context.Context, path string) {
	entities, err := source.ReadFile(path)
	if err != nil {
		ix.logger.Error("failed to read source", "path", path, "err", err)
		return
	}
	result, err := ix.Refresh(ctx, entities)
	if err != nil {
		ix.logger.Error("failed to refresh index", "path", path, "err", err)
		return
	}
	ix.logger.Info("index refreshed from source",
		"path", path,
		"source", result.Source,
		"build_id", result.BuildID,
		"units", result.Stats.Units)
}

// isSourceChange reports whether event leaves new content at target.
func isSourceChange(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}
