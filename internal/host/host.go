// Package host defines the collaborators the sync engine needs from the
// application embedding it: access to the live editor configuration, the
// open project, a status line, and a stream of lifecycle signals.
package host

import (
	"context"

	"github.com/daniellittledev/ReSpacer/internal/settings"
)

// ConfigAdapter reads and writes the live editor configuration.
type ConfigAdapter interface {
	// Extract returns every property page the host knows about. Pages
	// missing an indent style are left out rather than reported as errors.
	Extract(ctx context.Context) (settings.Document, error)

	// Apply writes each page's captured values into the host. Pages the
	// host does not recognize are skipped with a warning.
	Apply(ctx context.Context, doc settings.Document) error
}

// Workspace exposes the currently open project.
type Workspace interface {
	// ProjectDir returns the open project directory and whether one is open.
	ProjectDir() (string, bool)

	// AddToProject makes path part of the open project.
	AddToProject(ctx context.Context, path string) error

	// OpenFile shows path to the user.
	OpenFile(ctx context.Context, path string) error
}

// StatusLine displays advisory messages. Implementations must not block.
type StatusLine interface {
	SetStatus(msg string)
}

// SignalKind identifies a host signal.
type SignalKind uint8

const (
	// SignalReady fires once when the host has finished starting.
	SignalReady SignalKind = iota + 1
	// SignalPromote is the user's request to move settings into the project.
	SignalPromote
	// SignalConfigChanged fires whenever the live configuration is edited.
	SignalConfigChanged
	// SignalProjectOpened carries the directory of the project just opened.
	SignalProjectOpened
	// SignalProjectClosed fires when the project is closed.
	SignalProjectClosed
	// SignalShutdown ends the session.
	SignalShutdown
)

// String returns the signal name.
func (k SignalKind) String() string {
	switch k {
	case SignalReady:
		return "ready"
	case SignalPromote:
		return "promote"
	case SignalConfigChanged:
		return "config-changed"
	case SignalProjectOpened:
		return "project-opened"
	case SignalProjectClosed:
		return "project-closed"
	case SignalShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Signal is a host lifecycle or command notification.
type Signal struct {
	Kind SignalKind

	// ProjectDir is set for SignalProjectOpened.
	ProjectDir string
}

// NopStatus discards status messages.
type NopStatus struct{}

// SetStatus implements StatusLine.
func (NopStatus) SetStatus(string) {}
