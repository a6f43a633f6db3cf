// Package datasource provides file watching for tracer datasets.
package datasource

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a burst of writes must settle before a change
// is signalled.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors a dataset directory for changes to named files.
type Watcher struct {
	watcher  *fsnotify.Watcher
	names    map[string]struct{}
	debounce time.Duration
	onChange chan struct{}
	errs     chan error
	done     chan struct{}
}

// NewWatcher watches dir. Only writes, creates and renames of the given
// base names are reported; with no names every file counts.
func NewWatcher(dir string, names ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}

	watcher := &Watcher{
		watcher:  w,
		names:    make(map[string]struct{}, len(names)),
		debounce: DefaultDebounce,
		onChange: make(chan struct{}, 1),
		errs:     make(chan error, 1),
		done:     make(chan struct{}),
	}
	for _, n := range names {
		watcher.names[filepath.Base(n)] = struct{}{}
	}

	go watcher.loop()
	return watcher, nil
}

// Changes returns a channel that receives a signal when the dataset changes.
func (w *Watcher) Changes() <-chan struct{} {
	return w.onChange
}

// Errors reports watch errors. Errors arriving while one is pending are
// dropped.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) relevant(name string) bool {
	if len(w.names) == 0 {
		return true
	}
	_, ok := w.names[filepath.Base(name)]
	return ok
}

func (w *Watcher) loop() {
	var timer *time.Timer
	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}
			// records are replaced by rename, so Create covers the common case
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case w.onChange <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}
