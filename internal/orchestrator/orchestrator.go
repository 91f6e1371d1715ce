// Package orchestrator owns the sync state and turns bus triggers into loads,
// saves and scope switches.
//
// All handling runs on the goroutine that calls Run, one trigger at a time.
// State is committed only after a step's I/O has succeeded, so a failed or
// panicking step leaves it unchanged. Every write the orchestrator makes
// happens with the watcher paused, so it never observes its own saves.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/daniellittledev/ReSpacer/internal/bus"
	"github.com/daniellittledev/ReSpacer/internal/host"
	"github.com/daniellittledev/ReSpacer/internal/logging"
	"github.com/daniellittledev/ReSpacer/internal/settings"
	"github.com/daniellittledev/ReSpacer/internal/settings/store"
)

// ErrMissingDependency is returned by New when a required collaborator is nil.
var ErrMissingDependency = errors.New("missing orchestrator dependency")

// DocumentStore loads and saves settings documents.
type DocumentStore interface {
	Exists(path string) bool
	Load(path string) (settings.Document, error)
	Save(ctx context.Context, path string, doc settings.Document) error
}

// Watcher is the file watcher the orchestrator redirects and suspends.
type Watcher interface {
	SwitchTo(path string) error
	Pause()
	Resume()
	Close() error
}

// State is the sync state. It is owned by the orchestrator goroutine.
type State struct {
	// CurrentPath is the authoritative document path.
	CurrentPath string

	// Scope says whether CurrentPath is the global or a project document.
	Scope settings.Scope

	// WatcherSuspended is true while the orchestrator is writing.
	WatcherSuspended bool
}

// Stats provides orchestrator counters.
type Stats struct {
	Handled uint64
	Failed  uint64
	Dropped uint64
}

// Deps holds the orchestrator's collaborators. Status and Logger are optional.
type Deps struct {
	Store     DocumentStore
	Resolver  *store.Resolver
	Watcher   Watcher
	Adapter   host.ConfigAdapter
	Workspace host.Workspace
	Status    host.StatusLine
	Logger    zerolog.Logger
}

// Orchestrator is the sync state machine.
type Orchestrator struct {
	store     DocumentStore
	resolver  *store.Resolver
	watcher   Watcher
	adapter   host.ConfigAdapter
	workspace host.Workspace
	status    host.StatusLine
	log       zerolog.Logger

	state    State
	snapshot atomic.Pointer[State]

	handled atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

// New creates an orchestrator with the global document authoritative and
// points the watcher at it.
func New(d Deps) (*Orchestrator, error) {
	switch {
	case d.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case d.Resolver == nil:
		return nil, fmt.Errorf("%w: resolver", ErrMissingDependency)
	case d.Watcher == nil:
		return nil, fmt.Errorf("%w: watcher", ErrMissingDependency)
	case d.Adapter == nil:
		return nil, fmt.Errorf("%w: config adapter", ErrMissingDependency)
	case d.Workspace == nil:
		return nil, fmt.Errorf("%w: workspace", ErrMissingDependency)
	}
	if d.Status == nil {
		d.Status = host.NopStatus{}
	}

	o := &Orchestrator{
		store:     d.Store,
		resolver:  d.Resolver,
		watcher:   d.Watcher,
		adapter:   d.Adapter,
		workspace: d.Workspace,
		status:    d.Status,
		log:       d.Logger,
	}

	global := d.Resolver.GlobalPath()
	if err := o.watcher.SwitchTo(global); err != nil {
		return nil, fmt.Errorf("watching %s: %w", global, err)
	}
	o.commit(State{CurrentPath: global, Scope: settings.ScopeGlobal})
	return o, nil
}

// CurrentPath returns the authoritative path. It is safe for concurrent use
// and serves as the bus's current path predicate.
func (o *Orchestrator) CurrentPath() string {
	return o.Snapshot().CurrentPath
}

// Snapshot returns a copy of the last published state.
func (o *Orchestrator) Snapshot() State {
	return *o.snapshot.Load()
}

// Stats returns orchestrator counters.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Handled: o.handled.Load(),
		Failed:  o.failed.Load(),
		Dropped: o.dropped.Load(),
	}
}

// Run handles triggers in arrival order until the channel closes or ctx is
// cancelled, then closes the watcher.
func (o *Orchestrator) Run(ctx context.Context, triggers <-chan bus.Trigger) error {
	defer func() {
		if err := o.watcher.Close(); err != nil {
			o.log.Warn().Err(err).Msg("Failed to close watcher")
		}
	}()

	o.log.Info().Str("path", o.state.CurrentPath).Msg("Sync started")

	for {
		select {
		case <-ctx.Done():
			o.log.Debug().Msg("Sync cancelled")
			return nil
		case t, ok := <-triggers:
			if !ok {
				o.log.Debug().Msg("Trigger stream closed")
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			o.Handle(ctx, t)
		}
	}
}

// Handle runs one step. Errors and panics are logged and leave the state as
// it was.
func (o *Orchestrator) Handle(ctx context.Context, t bus.Trigger) {
	start := time.Now()
	log := o.log.With().
		Str("trigger", t.Kind.String()).
		Str("id", t.ID.String()).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			o.failed.Add(1)
			log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic while handling trigger")
		}
	}()

	var err error
	switch t.Kind {
	case bus.KindReady:
		err = o.onReady(ctx, log)
	case bus.KindPromote:
		err = o.onPromote(ctx, log)
	case bus.KindEnvironmentChanged:
		err = o.onEnvironmentChanged(ctx)
	case bus.KindScopeTransition:
		err = o.onScopeTransition(ctx, t, log)
	case bus.KindFileChanged:
		err = o.onFileChanged(ctx, t, log)
	case bus.KindFileDeleted:
		err = o.onFileDeleted(ctx, t, log)
	default:
		log.Warn().Msg("Unknown trigger")
		return
	}

	if err != nil {
		o.failed.Add(1)
		log.Error().Err(err).Msg("Sync step failed")
		return
	}
	o.handled.Add(1)
	logging.LogDuration(log, start, t.Kind.String())
}

// commit replaces the state and publishes it.
func (o *Orchestrator) commit(s State) {
	o.state = s
	snap := s
	o.snapshot.Store(&snap)
}

func (o *Orchestrator) setSuspended(suspended bool) {
	next := o.state
	next.WatcherSuspended = suspended
	o.commit(next)
}

// switchTo redirects the watcher and makes path authoritative. The scope
// follows from the path.
func (o *Orchestrator) switchTo(path string) error {
	if err := o.watcher.SwitchTo(path); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	scope := o.resolver.ScopeOf(path)
	o.commit(State{CurrentPath: path, Scope: scope})
	o.log.Info().Str("path", path).Stringer("scope", scope).Msg("Authoritative settings switched")
	return nil
}

// persist saves doc at path with the watcher paused. The watcher is resumed
// on every exit path.
func (o *Orchestrator) persist(ctx context.Context, path string, doc settings.Document) error {
	o.watcher.Pause()
	o.setSuspended(true)
	defer func() {
		o.setSuspended(false)
		o.watcher.Resume()
	}()

	if err := o.store.Save(ctx, path, doc); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	o.setStatus("Settings saved to %s", path)
	return nil
}

func (o *Orchestrator) setStatus(format string, args ...any) {
	o.status.SetStatus(fmt.Sprintf(format, args...))
}

// stale reports whether a file trigger refers to a path that is no longer
// authoritative.
func (o *Orchestrator) stale(t bus.Trigger, log zerolog.Logger) bool {
	if t.Path == o.state.CurrentPath {
		return false
	}
	o.dropped.Add(1)
	log.Debug().Str("path", t.Path).Str("current", o.state.CurrentPath).Msg("Dropping trigger for inactive path")
	return true
}
