package app

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/daniellittledev/ReSpacer/internal/bus"
	"github.com/daniellittledev/ReSpacer/internal/config"
	"github.com/daniellittledev/ReSpacer/internal/host/console"
	"github.com/daniellittledev/ReSpacer/internal/host/registry"
	"github.com/daniellittledev/ReSpacer/internal/logging"
	"github.com/daniellittledev/ReSpacer/internal/orchestrator"
	"github.com/daniellittledev/ReSpacer/internal/settings/store"
	"github.com/daniellittledev/ReSpacer/internal/watcher"
)

// Application wires the console host, the event bus, the file watcher and
// the sync state machine together.
type Application struct {
	config *config.Config
	opts   Options
	log    zerolog.Logger

	store    *store.Store
	resolver *store.Resolver
	watcher  *watcher.ScopedWatcher

	adapter   *registry.Adapter
	workspace *console.Workspace
	status    *console.Status
	console   *console.Console

	orch *orchestrator.Orchestrator
	bus  *bus.Bus

	running atomic.Bool
	closed  atomic.Bool
}

// Options configures the application.
type Options struct {
	// ProjectDir is opened once the host is ready. Empty starts with no
	// project.
	ProjectDir string

	// In and Out are the console streams. They default to the process's
	// standard streams.
	In  io.ReadCloser
	Out io.Writer
}

// Stats collects component counters.
type Stats struct {
	Bus     bus.Stats
	Sync    orchestrator.Stats
	Watcher watcher.Stats
}

// New creates an application from cfg.
func New(cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, &InitError{Component: "config", Err: errors.New("configuration is required")}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &InitError{Component: "config", Err: err}
	}

	app := &Application{
		config: cfg,
		opts:   opts,
		log:    logging.GetLogger("app"),
	}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Run starts every component and blocks until the console exits or ctx is
// cancelled. The first component error cancels the others. Run may be
// called once.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	app.log.Info().
		Str("global", app.resolver.GlobalPath()).
		Str("project", app.opts.ProjectDir).
		Msg("Starting respacer")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return wrap("bus", app.bus.Run(gctx, app.console.Signals(), app.watcher.Events()))
	})
	g.Go(func() error {
		return wrap("sync", app.orch.Run(gctx, app.bus.Triggers()))
	})
	g.Go(func() error {
		return wrap("console", app.console.Run(gctx, app.opts.ProjectDir))
	})

	err := g.Wait()
	app.closed.Store(true)

	stats := app.Stats()
	app.log.Info().
		Uint64("handled", stats.Sync.Handled).
		Uint64("failed", stats.Sync.Failed).
		Uint64("emitted", stats.Bus.Emitted).
		Msg("respacer stopped")
	return err
}

// Close releases resources of an application that will not be run. It is a
// no-op after Run.
func (app *Application) Close() error {
	if app.running.Load() || !app.closed.CompareAndSwap(false, true) {
		return nil
	}
	app.bus.Close()
	return app.watcher.Close()
}

// Console returns the interactive host.
func (app *Application) Console() *console.Console {
	return app.console
}

// Workspace returns the project tracker.
func (app *Application) Workspace() *console.Workspace {
	return app.workspace
}

// Snapshot returns the sync state.
func (app *Application) Snapshot() orchestrator.State {
	return app.orch.Snapshot()
}

// Resolver returns the settings path resolver.
func (app *Application) Resolver() *store.Resolver {
	return app.resolver
}

// Stats returns component counters.
func (app *Application) Stats() Stats {
	return Stats{
		Bus:     app.bus.Stats(),
		Sync:    app.orch.Stats(),
		Watcher: app.watcher.Stats(),
	}
}
