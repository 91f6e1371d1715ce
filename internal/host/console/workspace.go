package console

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// ItemsFile lists the files added to a project, relative to its directory.
const ItemsFile = ".respacer/items"

// ErrNoProject indicates an operation that needs an open project.
var ErrNoProject = errors.New("no project open")

// Workspace tracks the open project directory.
type Workspace struct {
	mu   sync.RWMutex
	fs   afero.Fs
	out  io.Writer
	dir  string
	open bool
}

// NewWorkspace creates a workspace with no project open. A nil fs selects
// the OS file system.
func NewWorkspace(fs afero.Fs, out io.Writer) *Workspace {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if out == nil {
		out = io.Discard
	}
	return &Workspace{fs: fs, out: out}
}

// Open makes dir the open project and returns its absolute path.
func (w *Workspace) Open(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := w.fs.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("opening project: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("opening project: %s is not a directory", abs)
	}

	w.mu.Lock()
	w.dir, w.open = abs, true
	w.mu.Unlock()
	return abs, nil
}

// Close closes the open project. It reports whether one was open.
func (w *Workspace) Close() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	wasOpen := w.open
	w.dir, w.open = "", false
	return wasOpen
}

// ProjectDir implements host.Workspace.
func (w *Workspace) ProjectDir() (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.dir, w.open
}

// AddToProject records path in the project's item list.
func (w *Workspace) AddToProject(_ context.Context, path string) error {
	dir, open := w.ProjectDir()
	if !open {
		return ErrNoProject
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = path
	}

	items, err := w.Items()
	if err != nil {
		return err
	}
	for _, item := range items {
		if item == rel {
			return nil
		}
	}

	listPath := filepath.Join(dir, ItemsFile)
	if err := w.fs.MkdirAll(filepath.Dir(listPath), 0o755); err != nil {
		return fmt.Errorf("adding %s to project: %w", rel, err)
	}
	f, err := w.fs.OpenFile(listPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("adding %s to project: %w", rel, err)
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, rel); err != nil {
		return fmt.Errorf("adding %s to project: %w", rel, err)
	}
	return nil
}

// Items returns the files recorded for the open project.
func (w *Workspace) Items() ([]string, error) {
	dir, open := w.ProjectDir()
	if !open {
		return nil, ErrNoProject
	}
	data, err := afero.ReadFile(w.fs, filepath.Join(dir, ItemsFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var items []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			items = append(items, line)
		}
	}
	return items, scanner.Err()
}

// OpenFile shows path to the user.
func (w *Workspace) OpenFile(_ context.Context, path string) error {
	_, err := fmt.Fprintf(w.out, "Opened %s\n", path)
	return err
}
