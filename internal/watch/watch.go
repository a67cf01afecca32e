// Package watch reports changes to a single design file.
//
// The parent directory is watched rather than the file, since editors and
// codec.WriteFile replace the file by rename and a watch on the old inode
// would go quiet.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce collapses bursts of events (write, chmod, rename) into one change.
const Debounce = 100 * time.Millisecond

// Watcher sends on Changes after the file settles.
type Watcher struct {
	Path    string
	Changes <-chan struct{}
	Errors  <-chan error

	changes  chan struct{}
	errors   chan error
	done     chan struct{}
	watcher  *fsnotify.Watcher
	started  bool
	stopOnce sync.Once
}

// New creates a watcher for path. Call Start to begin watching.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	changes := make(chan struct{}, 1)
	errs := make(chan error, 1)
	return &Watcher{
		Path:    abs,
		Changes: changes,
		Errors:  errs,
		changes: changes,
		errors:  errs,
		done:    make(chan struct{}),
		watcher: fw,
	}, nil
}

// Start watches the file's directory. On failure the underlying watcher is
// already closed.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		w.watcher.Close()
		return err
	}
	w.started = true
	go w.loop()
	return nil
}

// Stop closes the watcher and waits for the loop to exit. It is safe to
// call without a successful Start, and more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.watcher.Close()
		if !w.started {
			close(w.done)
		}
	})
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)

	var pending time.Time
	ticker := time.NewTicker(Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case now := <-ticker.C:
			if !pending.IsZero() && now.Sub(pending) >= Debounce {
				pending = time.Time{}
				w.emit()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// emit never blocks; one queued change covers any number of writes.
func (w *Watcher) emit() {
	select {
	case w.changes <- struct{}{}:
	default:
	}
}
