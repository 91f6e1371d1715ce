package settings

import (
	"errors"
	"fmt"
)

// ErrDocumentAbsent indicates no document exists at the requested path.
// It is expected on first run and is not a format problem.
var ErrDocumentAbsent = errors.New("settings document absent")

// ErrFormat is matched by every FormatError.
var ErrFormat = errors.New("settings format error")

// FormatError represents an unreadable settings document.
type FormatError struct {
	// Path is the file that failed to decode, if known.
	Path string
	// Version is the version tag found, or 0 when the tag was absent.
	Version int
	// Message describes the problem.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	where := "settings document"
	if e.Path != "" {
		where = e.Path
	}
	if e.Version > 0 {
		return fmt.Sprintf("format error in %s (version %d): %s", where, e.Version, e.Message)
	}
	return fmt.Sprintf("format error in %s: %s", where, e.Message)
}

// Unwrap returns the underlying error.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is implements error matching for FormatError.
func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// IsFormatError reports whether err is or wraps a FormatError.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrFormat)
}
