package bus

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies a logical trigger.
type Kind uint8

const (
	// KindReady fires once with the global document path.
	KindReady Kind = iota + 1
	// KindPromote is one user request to move settings into the project.
	KindPromote
	// KindEnvironmentChanged follows a burst of live configuration edits.
	KindEnvironmentChanged
	// KindScopeTransition carries the path that should become authoritative
	// after a project was opened or closed.
	KindScopeTransition
	// KindFileChanged reports an external write to the authoritative file.
	KindFileChanged
	// KindFileDeleted reports an external removal of the authoritative file.
	KindFileDeleted
)

// String returns the trigger name.
func (k Kind) String() string {
	switch k {
	case KindReady:
		return "Ready"
	case KindPromote:
		return "PromoteRequested"
	case KindEnvironmentChanged:
		return "EnvironmentChanged"
	case KindScopeTransition:
		return "ScopeTransition"
	case KindFileChanged:
		return "FileExternallyChanged"
	case KindFileDeleted:
		return "FileExternallyDeleted"
	default:
		return "Unknown"
	}
}

// Trigger is one shaped event delivered to the orchestrator.
type Trigger struct {
	// ID correlates log lines for one trigger.
	ID uuid.UUID

	Kind Kind

	// Path is the global path for KindReady, the target path for
	// KindScopeTransition and the observed file for file triggers.
	Path string

	// ProjectDir is the open project for KindScopeTransition, empty after
	// a close.
	ProjectDir string

	// At is when the trigger was emitted.
	At time.Time
}

func newTrigger(kind Kind, path, projectDir string) Trigger {
	return Trigger{
		ID:         uuid.New(),
		Kind:       kind,
		Path:       path,
		ProjectDir: projectDir,
		At:         time.Now(),
	}
}
