package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/daniellittledev/ReSpacer/internal/bus"
	"github.com/daniellittledev/ReSpacer/internal/settings"
)

// onReady writes the global document from the live configuration on first
// run. An existing global document is applied to the host.
func (o *Orchestrator) onReady(ctx context.Context, log zerolog.Logger) error {
	global := o.resolver.GlobalPath()

	doc, err := o.store.Load(global)
	switch {
	case err == nil:
		if o.state.CurrentPath != global {
			// A project document took over before the host was ready.
			return nil
		}
		if err := o.adapter.Apply(ctx, doc); err != nil {
			return fmt.Errorf("applying %s: %w", global, err)
		}
		o.setStatus("Settings loaded from %s", global)
		return nil

	case errors.Is(err, settings.ErrDocumentAbsent):
		log.Info().Str("path", global).Msg("No global settings, creating from current configuration")
		doc, err := o.adapter.Extract(ctx)
		if err != nil {
			return fmt.Errorf("extracting settings: %w", err)
		}
		return o.persist(ctx, global, doc)

	case settings.IsFormatError(err):
		log.Warn().Err(err).Msg("Global settings unreadable, leaving file untouched")
		o.setStatus("Settings file %s is invalid", global)
		return nil

	default:
		return err
	}
}

// onPromote moves the authoritative settings into the open project,
// creating the project document from the live configuration if needed.
func (o *Orchestrator) onPromote(ctx context.Context, log zerolog.Logger) error {
	projectDir, open := o.workspace.ProjectDir()
	if !open {
		log.Warn().Msg("Promote requested with no project open")
		o.setStatus("Open a project to use project settings")
		return nil
	}

	scoped := o.resolver.ScopedPath(projectDir)
	created := false
	if !o.store.Exists(scoped) {
		doc, err := o.adapter.Extract(ctx)
		if err != nil {
			return fmt.Errorf("extracting settings: %w", err)
		}
		if err := o.persist(ctx, scoped, doc); err != nil {
			return err
		}
		created = true
	}

	if scoped != o.state.CurrentPath {
		if err := o.switchTo(scoped); err != nil {
			return err
		}
	}

	if created {
		if err := o.workspace.AddToProject(ctx, scoped); err != nil {
			log.Warn().Err(err).Str("path", scoped).Msg("Failed to add settings to project")
		}
		if err := o.workspace.OpenFile(ctx, scoped); err != nil {
			log.Warn().Err(err).Str("path", scoped).Msg("Failed to open settings file")
		}
	} else {
		o.setStatus("Using project settings at %s", scoped)
	}
	return nil
}

// onEnvironmentChanged saves the live configuration to the authoritative
// document.
func (o *Orchestrator) onEnvironmentChanged(ctx context.Context) error {
	doc, err := o.adapter.Extract(ctx)
	if err != nil {
		return fmt.Errorf("extracting settings: %w", err)
	}
	return o.persist(ctx, o.state.CurrentPath, doc)
}

// onScopeTransition makes the document for the new project state
// authoritative and applies it.
func (o *Orchestrator) onScopeTransition(ctx context.Context, t bus.Trigger, log zerolog.Logger) error {
	open := t.ProjectDir != ""
	if candidate, _ := o.resolver.Authoritative(t.ProjectDir, open); candidate == o.state.CurrentPath {
		log.Debug().Str("path", candidate).Msg("Already authoritative")
		return nil
	}
	return o.fallback(ctx, t.ProjectDir, open, log)
}

// onFileChanged reloads the authoritative document after an external edit.
func (o *Orchestrator) onFileChanged(ctx context.Context, t bus.Trigger, log zerolog.Logger) error {
	if o.stale(t, log) {
		return nil
	}

	path := o.state.CurrentPath
	doc, err := o.store.Load(path)
	switch {
	case err == nil:
		if err := o.adapter.Apply(ctx, doc); err != nil {
			return fmt.Errorf("applying %s: %w", path, err)
		}
		o.setStatus("Settings loaded from %s", path)
		return nil

	case errors.Is(err, settings.ErrDocumentAbsent):
		log.Debug().Str("path", path).Msg("Changed file is gone, handling as deleted")
		return o.onFileDeleted(ctx, t, log)

	case settings.IsFormatError(err) && o.state.Scope == settings.ScopeScoped:
		log.Warn().Err(err).Msg("Project settings unreadable, falling back")
		projectDir, open := o.workspace.ProjectDir()
		return o.fallback(ctx, projectDir, open, log)

	case settings.IsFormatError(err):
		log.Warn().Err(err).Msg("Global settings unreadable, keeping current configuration")
		o.setStatus("Settings file %s is invalid", path)
		return nil

	default:
		return err
	}
}

// onFileDeleted falls back after the authoritative document was removed.
func (o *Orchestrator) onFileDeleted(ctx context.Context, t bus.Trigger, log zerolog.Logger) error {
	if o.stale(t, log) {
		return nil
	}
	projectDir, open := o.workspace.ProjectDir()
	return o.fallback(ctx, projectDir, open, log)
}

// resolved is the outcome of fallback resolution.
type resolved struct {
	path string
	doc  settings.Document
	// apply is false when doc was just extracted from the host.
	apply bool
}

// fallback loads the project document if a project is open and its document
// is readable, else the global one, applies it and makes it authoritative.
func (o *Orchestrator) fallback(ctx context.Context, projectDir string, open bool, log zerolog.Logger) error {
	r, err := o.resolve(ctx, projectDir, open, log)
	if err != nil {
		return err
	}
	if r.path == o.state.CurrentPath {
		log.Debug().Str("path", r.path).Msg("Fallback is already authoritative")
		return nil
	}

	if r.apply {
		if err := o.adapter.Apply(ctx, r.doc); err != nil {
			return fmt.Errorf("applying %s: %w", r.path, err)
		}
		o.setStatus("Settings loaded from %s", r.path)
	}
	return o.switchTo(r.path)
}

func (o *Orchestrator) resolve(ctx context.Context, projectDir string, open bool, log zerolog.Logger) (resolved, error) {
	if open && projectDir != "" {
		scoped := o.resolver.ScopedPath(projectDir)
		doc, err := o.store.Load(scoped)
		switch {
		case err == nil:
			return resolved{path: scoped, doc: doc, apply: true}, nil
		case errors.Is(err, settings.ErrDocumentAbsent):
		case settings.IsFormatError(err):
			log.Warn().Err(err).Msg("Project settings unreadable, using global settings")
		default:
			return resolved{}, err
		}
	}

	global := o.resolver.GlobalPath()
	doc, err := o.store.Load(global)
	switch {
	case err == nil:
		return resolved{path: global, doc: doc, apply: true}, nil

	case errors.Is(err, settings.ErrDocumentAbsent):
		log.Info().Str("path", global).Msg("No global settings, creating from current configuration")
		doc, err := o.adapter.Extract(ctx)
		if err != nil {
			return resolved{}, fmt.Errorf("extracting settings: %w", err)
		}
		if err := o.persist(ctx, global, doc); err != nil {
			return resolved{}, err
		}
		return resolved{path: global, doc: doc}, nil

	default:
		// A corrupt global document is never overwritten.
		return resolved{}, fmt.Errorf("loading global settings: %w", err)
	}
}
