// Package watch re-runs work when files change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before the
// callback runs.
const DefaultDebounce = 300 * time.Millisecond

// ChangeFunc is called with the changed files, sorted.
type ChangeFunc func(ctx context.Context, changed []string)

// Watcher tracks a fixed set of files. Parent directories are watched
// rather than the files themselves, so editors that replace a file by
// renaming over it are still seen.
type Watcher struct {
	files    map[string]bool
	dirs     map[string]bool
	debounce time.Duration
	log      *slog.Logger
}

// New creates a Watcher for paths. A debounce of zero uses DefaultDebounce.
func New(paths []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("watch: no paths")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{files: map[string]bool{}, dirs: map[string]bool{}, debounce: debounce, log: logger}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch: %s: %w", p, err)
		}
		w.files[abs] = true
		w.dirs[filepath.Dir(abs)] = true
	}
	return w, nil
}

// Run processes file events until ctx is cancelled, calling fn once per
// burst of changes. fn runs on the watcher goroutine; events caused while
// it runs, such as its own writes to a watched document, are dropped.
func (w *Watcher) Run(ctx context.Context, fn ChangeFunc) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	for dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}
	w.log.Info("watcher: started", slog.Int("files", len(w.files)))

	var timer *time.Timer
	var fire <-chan time.Time
	pending := map[string]bool{}
	var quietUntil time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.log.Info("watcher: stopped")
			return nil

		case <-fire:
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = map[string]bool{}
			w.log.Info("watcher: change detected", slog.Any("files", changed))
			fn(ctx, changed)
			quietUntil = time.Now().Add(w.debounce)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(ev.Name)] || ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if time.Now().Before(quietUntil) {
				w.log.Debug("watcher: ignoring own change", slog.String("path", ev.Name))
				continue
			}
			w.log.Debug("watcher: event", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			pending[filepath.Clean(ev.Name)] = true
			schedule()

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
