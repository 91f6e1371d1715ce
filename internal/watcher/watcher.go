// Package watcher observes a single settings file for external changes.
//
// A ScopedWatcher watches the parent directory of its target and reports
// changes and deletions of the exact target name. The target can be
// redirected without re-subscribing, and watching can be paused while the
// owner writes the file itself so those writes are never observed.
package watcher

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed = errors.New("watcher is closed")
	ErrEmptyTarget   = errors.New("watch target is empty")
)

// Op represents the kind of change observed.
type Op uint32

const (
	// OpChanged indicates the file was written or created.
	OpChanged Op = 1 << iota
	// OpDeleted indicates the file was removed or renamed away.
	OpDeleted
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpChanged:
		return "CHANGED"
	case OpDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// Event represents a change to the watched file.
type Event struct {
	// Path is the absolute path of the watched file.
	Path string

	// Op is the operation that occurred.
	Op Op

	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// Stats provides watcher status information.
type Stats struct {
	// Target is the file currently watched.
	Target string

	// Armed reports whether the OS watch is in place.
	Armed bool

	// Paused reports whether observation is suspended.
	Paused bool

	// TotalEvents is the number of events delivered.
	TotalEvents int64

	// Dropped is the number of events dropped because the channel was full.
	Dropped int64

	// Errors is the total number of errors encountered.
	Errors int64

	// LastError is the most recent error, if any.
	LastError error

	// StartTime is when the watcher was created.
	StartTime time.Time
}

// Config holds watcher configuration options.
type Config struct {
	// BufferSize is the size of the event channel.
	// Default: 100
	BufferSize int

	// RetryInterval is how often arming is retried while the target
	// directory does not exist.
	// Default: 1s
	RetryInterval time.Duration

	// Logger receives arm failures and transient errors.
	Logger zerolog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BufferSize:    100,
		RetryInterval: time.Second,
		Logger:        zerolog.Nop(),
	}
}

// Option configures a watcher.
type Option func(*Config)

// WithBufferSize sets the event channel buffer size.
func WithBufferSize(size int) Option {
	return func(c *Config) {
		c.BufferSize = size
	}
}

// WithRetryInterval sets the arm retry interval.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Config) {
		c.RetryInterval = d
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
