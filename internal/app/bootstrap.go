package app

import (
	"github.com/spf13/afero"

	"github.com/daniellittledev/ReSpacer/internal/bus"
	"github.com/daniellittledev/ReSpacer/internal/host/console"
	"github.com/daniellittledev/ReSpacer/internal/host/registry"
	"github.com/daniellittledev/ReSpacer/internal/logging"
	"github.com/daniellittledev/ReSpacer/internal/orchestrator"
	"github.com/daniellittledev/ReSpacer/internal/settings"
	"github.com/daniellittledev/ReSpacer/internal/settings/store"
	"github.com/daniellittledev/ReSpacer/internal/watcher"
)

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() (err error) {
	cfg := app.config
	fs := afero.NewOsFs()

	// 1. Document store and path resolution
	app.store = store.New(fs,
		store.WithLockDir(cfg.Settings.LockDir),
		store.WithLockTimeout(cfg.Settings.LockTimeout),
	)
	app.resolver = store.NewResolver(app.store, cfg.Settings.GlobalDir, cfg.Settings.FileName)

	// 2. File watcher
	app.watcher, err = watcher.New(
		watcher.WithBufferSize(cfg.Watcher.BufferSize),
		watcher.WithRetryInterval(cfg.Watcher.RetryInterval),
		watcher.WithLogger(logging.GetLogger("watcher")),
	)
	if err != nil {
		return &InitError{Component: "watcher", Err: err}
	}
	defer func() {
		if err != nil {
			_ = app.watcher.Close()
		}
	}()

	// 3. Host: live settings, project and status line
	reg, err := registry.Open(fs, cfg.Host.Registry)
	if err != nil {
		return &InitError{Component: "registry", Err: err}
	}
	app.adapter = registry.NewAdapter(reg, logging.GetLogger("registry"))
	app.workspace = console.NewWorkspace(fs, app.opts.Out)
	app.status = console.NewStatus(app.opts.Out)

	// 4. Sync state machine
	app.orch, err = orchestrator.New(orchestrator.Deps{
		Store:     app.store,
		Resolver:  app.resolver,
		Watcher:   app.watcher,
		Adapter:   app.adapter,
		Workspace: app.workspace,
		Status:    app.status,
		Logger:    logging.GetLogger("sync"),
	})
	if err != nil {
		return &InitError{Component: "sync", Err: err}
	}

	// 5. Console
	app.console, err = console.New(console.Config{
		Registry:  reg,
		Adapter:   app.adapter,
		Workspace: app.workspace,
		State: func() (string, settings.Scope) {
			s := app.orch.Snapshot()
			return s.CurrentPath, s.Scope
		},
		In:  app.opts.In,
		Out: app.opts.Out,
	})
	if err != nil {
		return &InitError{Component: "console", Err: err}
	}

	// 6. Event bus
	app.bus, err = bus.New(bus.Config{
		Debounce:   cfg.Sync.Debounce,
		Throttle:   cfg.Sync.Throttle,
		GlobalPath: app.resolver.GlobalPath(),
		Target: func(projectDir string, open bool) string {
			path, _ := app.resolver.Authoritative(projectDir, open)
			return path
		},
		CurrentPath: app.orch.CurrentPath,
		Logger:      logging.GetLogger("bus"),
	})
	if err != nil {
		return &InitError{Component: "bus", Err: err}
	}

	return nil
}
