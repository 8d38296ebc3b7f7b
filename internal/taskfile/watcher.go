package taskfile

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/gtui/internal/logging"
)

// DefaultDebounce collapses the burst of events a single editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Watcher calls a function whenever a task file changes on disk.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	logger   *logging.Logger

	started  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewWatcher watches path. The containing directory is watched rather than
// the file itself, since many editors save by replacing the file.
func NewWatcher(path string, debounce time.Duration, logger *logging.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, err
	}

	return &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: debounce,
		logger:   logger.With("file", abs),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching; onChange runs on the watcher's goroutine once per
// debounced burst of changes.
// Calling Start more than once has no effect.
func (w *Watcher) Start(onChange func()) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.watchLoop(onChange)
}

// Stop stops the watcher and waits for its goroutine to exit.
// It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.watcher.Close()
	})
	if w.started.Load() {
		<-w.done
	}
}

func (w *Watcher) watchLoop(onChange func()) {
	defer close(w.done)

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain initial timer
	pending := false

	for {
		select {
		case <-w.stopCh:
			debounceTimer.Stop()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = true
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			if !pending {
				continue
			}
			pending = false
			w.logger.Info("task file changed")
			onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err.Error())
		}
	}
}
