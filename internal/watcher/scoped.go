package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ScopedWatcher watches one file through an fsnotify watch on its directory.
type ScopedWatcher struct {
	mu sync.Mutex

	// fsnotify watcher
	fsw *fsnotify.Watcher

	config Config
	log    zerolog.Logger

	// target is the watched file; dir is the directory currently armed,
	// empty while unarmed.
	target string
	dir    string

	// pauses counts outstanding Pause calls.
	pauses int

	events chan Event

	// Stats
	startTime   time.Time
	totalEvents int64
	dropped     int64
	totalErrors int64
	lastError   error

	// Lifecycle
	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// New creates a watcher with no target. Call SwitchTo to start watching.
func New(opts ...Option) (*ScopedWatcher, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 100
	}
	if config.RetryInterval <= 0 {
		config.RetryInterval = time.Second
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &ScopedWatcher{
		fsw:       fsw,
		config:    config,
		log:       config.Logger,
		events:    make(chan Event, config.BufferSize),
		startTime: time.Now(),
		closeCh:   make(chan struct{}),
	}

	w.closedWg.Add(2)
	go w.processLoop()
	go w.retryLoop()

	return w, nil
}

// SwitchTo redirects the watcher to path. Once it returns, no further events
// are reported for the previous target. It is safe to call while paused; the
// new target is armed on Resume.
func (w *ScopedWatcher) SwitchTo(path string) error {
	if path == "" {
		return ErrEmptyTarget
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if absPath == w.target {
		return nil
	}

	if w.dir != "" && w.dir != filepath.Dir(absPath) {
		w.disarmLocked()
	}
	previous := w.target
	w.target = absPath
	w.armLocked()

	w.log.Debug().Str("from", previous).Str("to", absPath).Msg("Watch target switched")
	return nil
}

// Pause stops observing the file system. Calls nest; observation restarts
// when every Pause has been matched by a Resume.
func (w *ScopedWatcher) Pause() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pauses++
	if w.pauses == 1 {
		w.disarmLocked()
	}
}

// Resume undoes one Pause.
func (w *ScopedWatcher) Resume() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pauses == 0 {
		return
	}
	w.pauses--
	if w.pauses == 0 {
		w.armLocked()
	}
}

// Paused reports whether observation is suspended.
func (w *ScopedWatcher) Paused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pauses > 0
}

// Target returns the watched file path.
func (w *ScopedWatcher) Target() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.target
}

// Events returns the event channel. It is closed by Close.
func (w *ScopedWatcher) Events() <-chan Event {
	return w.events
}

// Close stops the watcher and releases the fsnotify handle.
func (w *ScopedWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.dir = ""
	w.mu.Unlock()

	w.closedWg.Wait()
	close(w.events)

	return w.fsw.Close()
}

// Stats returns watcher statistics.
func (w *ScopedWatcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return Stats{
		Target:      w.target,
		Armed:       w.dir != "",
		Paused:      w.pauses > 0,
		TotalEvents: atomic.LoadInt64(&w.totalEvents),
		Dropped:     atomic.LoadInt64(&w.dropped),
		Errors:      atomic.LoadInt64(&w.totalErrors),
		LastError:   w.lastError,
		StartTime:   w.startTime,
	}
}

// armLocked adds the OS watch for the target directory if observation is
// wanted and not already in place. A missing directory is retried later.
func (w *ScopedWatcher) armLocked() {
	if w.closed || w.pauses > 0 || w.target == "" || w.dir != "" {
		return
	}

	dir := filepath.Dir(w.target)
	if err := w.fsw.Add(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.log.Debug().Str("dir", dir).Msg("Watch directory does not exist yet")
			return
		}
		w.recordErrorLocked(err)
		w.log.Warn().Err(err).Str("dir", dir).Msg("Failed to arm watcher, will retry")
		return
	}
	w.dir = dir
}

// disarmLocked removes the OS watch.
func (w *ScopedWatcher) disarmLocked() {
	if w.dir == "" {
		return
	}
	// The watch is already gone if the directory was removed.
	if err := w.fsw.Remove(w.dir); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		w.log.Debug().Err(err).Str("dir", w.dir).Msg("Failed to remove watch")
	}
	w.dir = ""
}

// retryLoop re-arms the watch while the target directory is missing.
func (w *ScopedWatcher) retryLoop() {
	defer w.closedWg.Done()

	ticker := time.NewTicker(w.config.RetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.closeCh:
			return
		case <-ticker.C:
			w.mu.Lock()
			w.armLocked()
			w.mu.Unlock()
		}
	}
}

// processLoop handles incoming fsnotify events.
func (w *ScopedWatcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			w.recordErrorLocked(err)
			w.mu.Unlock()
			w.log.Warn().Err(err).Msg("File watcher error")
		}
	}
}

// handleFSEvent converts an fsnotify event for the target into an Event.
// The event is sent while holding the lock so a concurrent SwitchTo or Pause
// cannot be overtaken by an event for the old state.
func (w *ScopedWatcher) handleFSEvent(fsEvent fsnotify.Event) {
	name := filepath.Clean(fsEvent.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.pauses > 0 || w.target == "" {
		return
	}

	if name == w.dir && fsEvent.Op.Has(fsnotify.Remove|fsnotify.Rename) {
		w.log.Debug().Str("dir", name).Msg("Watched directory removed, rearming later")
		w.disarmLocked()
		return
	}

	if name != w.target {
		return
	}

	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}

	w.sendEventLocked(Event{
		Path:      w.target,
		Op:        op,
		Timestamp: time.Now(),
	})
}

// convertOp maps fsnotify operations onto Op. A rename of the target is
// reported as a deletion.
func convertOp(fsOp fsnotify.Op) Op {
	switch {
	case fsOp.Has(fsnotify.Remove), fsOp.Has(fsnotify.Rename):
		return OpDeleted
	case fsOp.Has(fsnotify.Write), fsOp.Has(fsnotify.Create):
		return OpChanged
	default:
		return 0
	}
}

// sendEventLocked sends an event to the output channel without blocking.
func (w *ScopedWatcher) sendEventLocked(event Event) {
	select {
	case w.events <- event:
		atomic.AddInt64(&w.totalEvents, 1)
	case <-w.closeCh:
	default:
		atomic.AddInt64(&w.dropped, 1)
		w.log.Warn().Str("path", event.Path).Stringer("op", event.Op).Msg("Event channel full, dropping event")
	}
}

// recordErrorLocked records an error in stats.
func (w *ScopedWatcher) recordErrorLocked(err error) {
	atomic.AddInt64(&w.totalErrors, 1)
	w.lastError = err
}
