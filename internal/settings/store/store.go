// Package store persists settings documents at file paths and decides which
// path is authoritative for a project.
package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"github.com/daniellittledev/ReSpacer/internal/settings"
)

// DefaultLockTimeout bounds how long Save waits for another writer.
const DefaultLockTimeout = 2 * time.Second

// Store loads and saves settings documents through a file system.
type Store struct {
	fs          afero.Fs
	lockDir     string
	lockTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLockDir enables advisory cross-process locking of writes. Lock files
// are kept in dir, never next to the documents.
func WithLockDir(dir string) Option {
	return func(s *Store) {
		s.lockDir = dir
	}
}

// WithLockTimeout sets how long Save waits for the write lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// New creates a store over fs. A nil fs uses the OS file system.
func New(fs afero.Fs, opts ...Option) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	s := &Store{
		fs:          fs,
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fs returns the underlying file system.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Exists reports whether a document file exists at path.
func (s *Store) Exists(path string) bool {
	info, err := s.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads the document at path. It returns settings.ErrDocumentAbsent when
// the file does not exist and a *settings.FormatError when it cannot be decoded.
func (s *Store) Load(path string) (settings.Document, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings.Document{}, fmt.Errorf("%s: %w", path, settings.ErrDocumentAbsent)
		}
		return settings.Document{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := settings.Decode(f)
	if err != nil {
		var fe *settings.FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		return settings.Document{}, err
	}
	return doc, nil
}

// Save writes doc at path in the current version, creating parent
// directories as needed.
func (s *Store) Save(ctx context.Context, path string, doc settings.Document) error {
	data, err := settings.Encode(doc)
	if err != nil {
		return err
	}

	unlock, err := s.lock(ctx, path)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// lock takes the advisory write lock for path. The returned func releases it.
func (s *Store) lock(ctx context.Context, path string) (func(), error) {
	if s.lockDir == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(s.lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	sum := sha1.Sum([]byte(path))
	fl := flock.New(filepath.Join(s.lockDir, hex.EncodeToString(sum[:8])+".lock"))

	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(lockCtx, 25*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("locking %s: %w", path, ErrLocked)
	}
	return func() { _ = fl.Unlock() }, nil
}

// ErrLocked indicates another writer held the document lock too long.
var ErrLocked = errors.New("settings document is locked")
