// Package bus shapes raw host signals and file watcher events into the
// logical triggers the orchestrator consumes.
//
// Each source gets its own timing policy: Ready fires once, promotions pass
// straight through, configuration edits are debounced, and scope transitions
// and file events are throttled. Scope transitions that would not change the
// authoritative path and file events for any other path are filtered out.
// Every trigger is delivered on one fan-in channel.
package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/daniellittledev/ReSpacer/internal/host"
	"github.com/daniellittledev/ReSpacer/internal/watcher"
)

// Common errors returned by bus operations.
var (
	ErrBusClosed     = errors.New("bus is closed")
	ErrBusRunning    = errors.New("bus is already running")
	ErrInvalidConfig = errors.New("invalid bus configuration")
)

// Default timing windows.
const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultThrottle = 500 * time.Millisecond
)

// Config holds bus configuration.
type Config struct {
	// Debounce is the quiet period collapsing configuration edits.
	// Default: 300ms
	Debounce time.Duration

	// Throttle is the minimum spacing of scope transitions and of each kind
	// of file event.
	// Default: 500ms
	Throttle time.Duration

	// GlobalPath is the payload of the Ready trigger.
	GlobalPath string

	// Target returns the path that should be authoritative for a project
	// state. It is evaluated when a scope transition is emitted.
	Target func(projectDir string, open bool) string

	// CurrentPath returns the currently authoritative path.
	CurrentPath func() string

	// BufferSize is the size of the trigger channel.
	// Default: 64
	BufferSize int

	Logger zerolog.Logger
}

// Stats provides bus counters.
type Stats struct {
	// Emitted is the number of triggers delivered.
	Emitted uint64
	// Filtered counts file events for paths other than the current one.
	Filtered uint64
	// Suppressed counts scope transitions to the current path.
	Suppressed uint64
}

type scopeChange struct {
	projectDir string
	open       bool
}

// Bus merges host signals and watcher events into triggers.
type Bus struct {
	config Config
	log    zerolog.Logger

	out  chan Trigger
	done chan struct{}

	// mu guards closed against concurrent emitters.
	mu        sync.RWMutex
	closed    bool
	inflight  sync.WaitGroup
	closeOnce sync.Once
	running   atomic.Bool

	readyOnce sync.Once
	env       *Debouncer
	scope     *Throttler[scopeChange]
	changed   *Throttler[string]
	deleted   *Throttler[string]

	emitted    atomic.Uint64
	filtered   atomic.Uint64
	suppressed atomic.Uint64
}

// New creates a bus. Run must be called to start processing.
func New(config Config) (*Bus, error) {
	if config.GlobalPath == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("global path is required"))
	}
	if config.Target == nil || config.CurrentPath == nil {
		return nil, errors.Join(ErrInvalidConfig, errors.New("target and current path functions are required"))
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.Throttle <= 0 {
		config.Throttle = DefaultThrottle
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 64
	}

	b := &Bus{
		config: config,
		log:    config.Logger,
		out:    make(chan Trigger, config.BufferSize),
		done:   make(chan struct{}),
	}
	b.env = NewDebouncer(config.Debounce, b.emitEnvironmentChanged)
	b.scope = NewThrottler(config.Throttle, b.emitScopeTransition)
	b.changed = NewThrottler(config.Throttle, func(path string) {
		b.emit(newTrigger(KindFileChanged, path, ""))
	})
	b.deleted = NewThrottler(config.Throttle, func(path string) {
		b.emit(newTrigger(KindFileDeleted, path, ""))
	})
	return b, nil
}

// Triggers returns the fan-in channel. It is closed when the bus stops.
func (b *Bus) Triggers() <-chan Trigger {
	return b.out
}

// Run merges signals and file events until a shutdown signal arrives, the
// signal channel closes or ctx is cancelled. The bus is closed on return.
// A nil files channel is allowed.
func (b *Bus) Run(ctx context.Context, signals <-chan host.Signal, files <-chan watcher.Event) error {
	if b.isClosed() {
		return ErrBusClosed
	}
	if !b.running.CompareAndSwap(false, true) {
		return ErrBusRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Unblocks emitters waiting on a full channel once ctx ends.
	stop := context.AfterFunc(ctx, b.Close)
	defer func() {
		stop()
		b.Close()
	}()

	b.log.Debug().Msg("Event bus started")

	for {
		select {
		case <-ctx.Done():
			b.log.Debug().Msg("Event bus cancelled")
			return nil

		case sig, ok := <-signals:
			if !ok {
				return nil
			}
			if sig.Kind == host.SignalShutdown {
				b.log.Debug().Msg("Shutdown signal received")
				return nil
			}
			b.handleSignal(sig)

		case ev, ok := <-files:
			if !ok {
				files = nil
				continue
			}
			b.handleFileEvent(ev)
		}
	}
}

// Close stops all timers, abandons pending emissions and closes the trigger
// channel. It is safe to call more than once.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		close(b.done)
		b.mu.Unlock()

		b.env.Cancel()
		b.scope.Cancel()
		b.changed.Cancel()
		b.deleted.Cancel()

		b.inflight.Wait()
		close(b.out)
		b.log.Debug().Uint64("emitted", b.emitted.Load()).Msg("Event bus stopped")
	})
}

// Stats returns bus counters.
func (b *Bus) Stats() Stats {
	return Stats{
		Emitted:    b.emitted.Load(),
		Filtered:   b.filtered.Load(),
		Suppressed: b.suppressed.Load(),
	}
}

func (b *Bus) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

func (b *Bus) handleSignal(sig host.Signal) {
	switch sig.Kind {
	case host.SignalReady:
		fired := false
		b.readyOnce.Do(func() {
			fired = true
			b.emit(newTrigger(KindReady, b.config.GlobalPath, ""))
		})
		if !fired {
			b.log.Debug().Msg("Ignoring repeated ready signal")
		}

	case host.SignalPromote:
		b.emit(newTrigger(KindPromote, "", ""))

	case host.SignalConfigChanged:
		b.env.Call()

	case host.SignalProjectOpened:
		b.scope.Call(scopeChange{projectDir: sig.ProjectDir, open: true})

	case host.SignalProjectClosed:
		b.scope.Call(scopeChange{})

	default:
		b.log.Warn().Stringer("signal", sig.Kind).Msg("Unknown host signal")
	}
}

func (b *Bus) handleFileEvent(ev watcher.Event) {
	current := b.config.CurrentPath()
	if ev.Path != current {
		b.filtered.Add(1)
		b.log.Trace().Str("path", ev.Path).Str("current", current).Msg("Ignoring event for inactive path")
		return
	}

	switch ev.Op {
	case watcher.OpChanged:
		b.changed.Call(ev.Path)
	case watcher.OpDeleted:
		b.deleted.Call(ev.Path)
	}
}

func (b *Bus) emitEnvironmentChanged() {
	b.emit(newTrigger(KindEnvironmentChanged, b.config.CurrentPath(), ""))
}

func (b *Bus) emitScopeTransition(c scopeChange) {
	target := b.config.Target(c.projectDir, c.open)
	if target == b.config.CurrentPath() {
		b.suppressed.Add(1)
		b.log.Debug().Str("path", target).Msg("Scope transition to current path suppressed")
		return
	}
	b.emit(newTrigger(KindScopeTransition, target, c.projectDir))
}

// emit delivers t unless the bus is closed. It blocks while the channel is
// full.
func (b *Bus) emit(t Trigger) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	b.inflight.Add(1)
	b.mu.RUnlock()
	defer b.inflight.Done()

	select {
	case b.out <- t:
		b.emitted.Add(1)
		b.log.Debug().
			Str("trigger", t.Kind.String()).
			Str("id", t.ID.String()).
			Str("path", t.Path).
			Msg("Trigger emitted")
	case <-b.done:
	}
}
