// Package watch re-runs a callback whenever a file changes on disk.
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events a single save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches a single file.
type Watcher struct {
	file     string
	callback func() error
	watcher  *fsnotify.Watcher
	debounce time.Duration
	errs     io.Writer
}

// New creates a watcher for file. The directory is watched rather than the
// file itself so that editors which replace the file on save are seen.
// Callback errors are reported to errs and do not stop the watcher.
func New(file string, debounce time.Duration, errs io.Writer, callback func() error) (*Watcher, error) {
	absPath, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		file:     absPath,
		callback: callback,
		watcher:  watcher,
		debounce: debounce,
		errs:     errs,
	}, nil
}

// Run invokes the callback once, then again after every change to the file,
// until ctx is done. It always closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	w.invoke()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			w.invoke()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w.errs, "watch error: %v\n", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	path, err := filepath.Abs(event.Name)
	return err == nil && path == w.file
}

func (w *Watcher) invoke() {
	if err := w.callback(); err != nil {
		fmt.Fprintf(w.errs, "error: %v\n", err)
	}
}
