package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/JonMunkholm/recordflow/internal/metadata"
)

// DefaultDebounce coalesces bursts of file events into one run.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls a function when any watched file changes.
//
// Parent directories are watched rather than the files themselves, so
// editors that replace a file by rename still trigger. Triggers run
// sequentially on the watcher goroutine and never overlap.
type Watcher struct {
	files    map[string]bool
	debounce time.Duration
	onChange func(ctx context.Context)
}

// NewWatcher builds a watcher for paths. A non-positive debounce uses
// DefaultDebounce.
func NewWatcher(paths []string, debounce time.Duration, onChange func(ctx context.Context)) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no paths to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("bad path %q: %w", p, err)
		}
		files[abs] = true
	}
	return &Watcher{files: files, debounce: debounce, onChange: onChange}, nil
}

// WatchPaths returns the params file plus every declared source location.
func WatchPaths(paramsPath string, inv *metadata.Invocation) []string {
	paths := []string{paramsPath}
	if inv != nil && !inv.HasInput() {
		for _, src := range inv.Metadata.SourcesFor("") {
			paths = append(paths, src.Location())
		}
	}
	return paths
}

// Run blocks until ctx is done or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dirs := make(map[string]bool)
	for file := range w.files {
		dir := filepath.Dir(file)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			slog.Warn("directory not watched", "dir", dir, "error", err)
			continue
		}
		dirs[dir] = true
	}
	if len(dirs) == 0 {
		return errors.New("no watchable directories")
	}
	slog.Info("watcher started", "files", len(w.files), "dirs", len(dirs))

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watcher stopped")
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, _ := filepath.Abs(event.Name)
			if !w.files[abs] {
				continue
			}
			slog.Debug("file changed", "path", abs, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.onChange(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}
