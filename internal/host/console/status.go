package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Status prints status messages to the terminal.
type Status struct {
	mu   sync.Mutex
	out  io.Writer
	last string
}

// NewStatus creates a status line writing to out.
func NewStatus(out io.Writer) *Status {
	if out == nil {
		out = io.Discard
	}
	return &Status{out: out}
}

// SetStatus implements host.StatusLine.
func (s *Status) SetStatus(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = msg
	gray := color.New(color.FgHiBlack).SprintFunc()
	fmt.Fprintf(s.out, "%s %s\n", gray("»"), msg)
}

// Last returns the most recent message.
func (s *Status) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
