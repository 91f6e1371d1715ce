package store

import (
	"path/filepath"

	"github.com/daniellittledev/ReSpacer/internal/settings"
)

// DefaultFileName is the settings document name used in every location.
const DefaultFileName = "text.settings.json"

// Resolver maps projects to settings document paths.
type Resolver struct {
	globalPath string
	fileName   string
	store      *Store
}

// NewResolver creates a resolver for documents named fileName, with the
// global document kept in globalDir.
func NewResolver(s *Store, globalDir, fileName string) *Resolver {
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &Resolver{
		globalPath: Normalize(filepath.Join(globalDir, fileName)),
		fileName:   fileName,
		store:      s,
	}
}

// GlobalPath returns the per-user document path.
func (r *Resolver) GlobalPath() string {
	return r.globalPath
}

// FileName returns the document file name.
func (r *Resolver) FileName() string {
	return r.fileName
}

// ScopedPath returns the document path for a project directory.
func (r *Resolver) ScopedPath(projectDir string) string {
	return Normalize(filepath.Join(projectDir, r.fileName))
}

// Authoritative returns the path that should be in effect: the project's
// document when a project is open and its document exists, else the global one.
func (r *Resolver) Authoritative(projectDir string, open bool) (string, settings.Scope) {
	if open && projectDir != "" {
		scoped := r.ScopedPath(projectDir)
		if r.store.Exists(scoped) {
			return scoped, settings.ScopeScoped
		}
	}
	return r.globalPath, settings.ScopeGlobal
}

// ScopeOf classifies path relative to the global document.
func (r *Resolver) ScopeOf(path string) settings.Scope {
	if Normalize(path) == r.globalPath {
		return settings.ScopeGlobal
	}
	return settings.ScopeScoped
}

// Normalize returns the absolute, cleaned form of path used for all
// authoritative path comparisons.
func Normalize(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
