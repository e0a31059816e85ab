package loader

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Watcher observes the data files and reports when any of them changes.
// Parent directories are watched rather than the files themselves so that
// atomic rename-into-place saves are seen.
type Watcher struct {
	fw    *fsnotify.Watcher
	paths map[string]string // absolute path -> original path
}

// NewWatcher starts watching the parent directories of the given files.
func NewWatcher(paths []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, eris.Wrap(err, "watcher: create")
	}

	w := &Watcher{fw: fw, paths: make(map[string]string, len(paths))}
	dirs := make(map[string]bool)

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, eris.Wrapf(err, "watcher: resolve %s", p)
		}
		w.paths[abs] = p
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, eris.Wrapf(err, "watcher: watch %s", dir)
		}
	}

	return w, nil
}

// Run blocks until ctx is done, invoking onChange with the original path of
// each changed data file. Bursts of events for the same save are debounced.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) {
	const debounce = 300 * time.Millisecond

	pending := make(map[string]bool)
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		for path := range pending {
			delete(pending, path)
			onChange(path)
		}
		timerC = nil
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			orig, watched := w.paths[abs]
			if !watched {
				continue
			}
			pending[orig] = true
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			flush()

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			zap.L().Warn("file watcher error", zap.Error(err))
		}
	}
}

// Close stops the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
