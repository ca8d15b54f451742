// Package watch reruns a callback when files change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/satishbabariya/sqlexpr/internal/debug"
)

// DefaultDelay is the quiet period after the last write before the callback runs.
const DefaultDelay = 300 * time.Millisecond

// Watcher watches a set of files.
type Watcher struct {
	files    []string
	callback func() error
	delay    time.Duration
	watcher  *fsnotify.Watcher
}

// New watches files. Their directories are watched so editors that replace files are seen.
func New(callback func() error, files ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	w := &Watcher{callback: callback, delay: DefaultDelay, watcher: fw}
	var dirs []string
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		w.files = append(w.files, abs)
		if dir := filepath.Dir(abs); !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch directory: %w", err)
		}
	}
	return w, nil
}

// SetDelay changes the debounce period.
func (w *Watcher) SetDelay(d time.Duration) { w.delay = d }

// Run calls the callback once, then again after each burst of changes, until ctx is done.
// Callback errors are passed to onError and do not stop the watch.
func (w *Watcher) Run(ctx context.Context, onError func(error)) error {
	defer w.watcher.Close()
	if err := w.callback(); err != nil {
		onError(err)
	}

	timer := time.NewTimer(w.delay)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path, err := filepath.Abs(event.Name)
			if err != nil || !slices.Contains(w.files, path) {
				continue
			}
			debug.Debug("file changed", "path", path, "op", event.Op.String())
			timer.Reset(w.delay)
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.callback(); err != nil {
				onError(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			onError(fmt.Errorf("watch: %w", err))

		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
}
