// Package registry implements the host's native settings storage: a
// hierarchical key/value store persisted as TOML, with keys of the form
// "TextEditor/<Page>/<Property>". Adapter exposes it as a host.ConfigAdapter.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Root is the key prefix of the text editor settings.
const Root = "TextEditor"

// Separator joins key segments.
const Separator = "/"

// Errors returned by registry operations.
var (
	// ErrInvalidKey indicates a key with empty segments or fewer than two.
	ErrInvalidKey = errors.New("invalid registry key")

	// ErrUnknownPage indicates a property page the registry has no entries for.
	ErrUnknownPage = errors.New("unknown property page")
)

// ParseError represents an error while parsing the registry file.
type ParseError struct {
	// Path is the file that failed to parse.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Key builds the key of a property on a text editor page.
func Key(page, property string) string {
	return Root + Separator + page + Separator + property
}

// Registry is a concurrency-safe key/value store backed by a TOML file.
type Registry struct {
	mu     sync.RWMutex
	fs     afero.Fs
	path   string
	values map[string]string
}

// Open loads the registry at path. A missing file yields an empty registry.
// A nil fs selects the OS file system.
func Open(fs afero.Fs, path string) (*Registry, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	r := &Registry{
		fs:     fs,
		path:   path,
		values: make(map[string]string),
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return nil, newParseError(path, err)
	}
	flatten("", tree, r.values)
	return r, nil
}

func newParseError(path string, err error) error {
	pe := &ParseError{Path: path, Message: err.Error(), Err: err}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		pe.Line, pe.Column = derr.Position()
	}
	return pe
}

// flatten copies leaf values of tree into out keyed by their joined path.
func flatten(prefix string, tree map[string]any, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + Separator + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Path returns the backing file path.
func (r *Registry) Path() string {
	return r.path
}

// Get returns the value stored at key.
func (r *Registry) Get(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Has reports whether key holds a value.
func (r *Registry) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Set stores value at key. Changes are kept in memory until Save.
func (r *Registry) Set(key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A value cannot live where a subtree does, or the reverse.
	for existing := range r.values {
		if strings.HasPrefix(existing, key+Separator) || strings.HasPrefix(key, existing+Separator) {
			return fmt.Errorf("%w: %s conflicts with %s", ErrInvalidKey, key, existing)
		}
	}
	r.values[key] = value
	return nil
}

// Delete removes key.
func (r *Registry) Delete(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
}

// Keys returns the sorted keys below prefix.
func (r *Registry) Keys(prefix string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	for k := range r.values {
		if prefix == "" || strings.HasPrefix(k, prefix+Separator) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Pages returns the sorted names of the text editor pages.
func (r *Registry) Pages() []string {
	seen := make(map[string]bool)
	var pages []string
	for _, k := range r.Keys(Root) {
		rest := strings.TrimPrefix(k, Root+Separator)
		page, _, ok := strings.Cut(rest, Separator)
		if !ok || seen[page] {
			continue
		}
		seen[page] = true
		pages = append(pages, page)
	}
	return pages
}

// HasPage reports whether any property of page is stored.
func (r *Registry) HasPage(page string) bool {
	return len(r.Keys(Root+Separator+page)) > 0
}

// Save writes the registry to its file.
func (r *Registry) Save() error {
	r.mu.RLock()
	tree := make(map[string]any)
	for k, v := range r.values {
		insert(tree, strings.Split(k, Separator), v)
	}
	r.mu.RUnlock()

	data, err := toml.Marshal(tree)
	if err != nil {
		return fmt.Errorf("encoding registry: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "" {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating registry directory: %w", err)
		}
	}
	if err := afero.WriteFile(r.fs, r.path, data, 0o644); err != nil {
		return fmt.Errorf("writing registry %s: %w", r.path, err)
	}
	return nil
}

func insert(tree map[string]any, segments []string, value string) {
	if len(segments) == 1 {
		tree[segments[0]] = value
		return
	}
	child, ok := tree[segments[0]].(map[string]any)
	if !ok {
		child = make(map[string]any)
		tree[segments[0]] = child
	}
	insert(child, segments[1:], value)
}

func validateKey(key string) error {
	segments := strings.Split(key, Separator)
	if len(segments) < 2 {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, s := range segments {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
