// Package console is an interactive terminal host. It edits a settings
// registry, tracks an open project and turns typed commands into host
// signals for the sync engine.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/daniellittledev/ReSpacer/internal/host"
	"github.com/daniellittledev/ReSpacer/internal/host/registry"
	"github.com/daniellittledev/ReSpacer/internal/render"
	"github.com/daniellittledev/ReSpacer/internal/settings"
)

// errQuit ends the command loop.
var errQuit = errors.New("quit")

// StateFunc reports the authoritative document and its scope.
type StateFunc func() (path string, scope settings.Scope)

// Config holds console configuration.
type Config struct {
	Registry  *registry.Registry
	Adapter   host.ConfigAdapter
	Workspace *Workspace
	State     StateFunc

	// In and Out default to the process's standard streams.
	In  io.ReadCloser
	Out io.Writer
}

// CommandHandler handles a specific command.
type CommandHandler func(ctx context.Context, args []string) error

type command struct {
	usage   string
	desc    string
	handler CommandHandler
}

// Console is the interactive host.
type Console struct {
	reg       *registry.Registry
	adapter   host.ConfigAdapter
	workspace *Workspace
	state     StateFunc
	in        *input
	out       io.Writer

	// interactive is set when reading the process's terminal.
	interactive bool

	signals  chan host.Signal
	commands map[string]command
	order    []string
}

// New creates a console.
func New(cfg Config) (*Console, error) {
	if cfg.Registry == nil || cfg.Adapter == nil || cfg.Workspace == nil {
		return nil, fmt.Errorf("registry, adapter and workspace are required")
	}
	interactive := cfg.In == nil
	if interactive {
		cfg.In = readline.NewCancelableStdin(os.Stdin)
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}

	c := &Console{
		reg:         cfg.Registry,
		adapter:     cfg.Adapter,
		workspace:   cfg.Workspace,
		state:       cfg.State,
		in:          &input{ReadCloser: cfg.In},
		out:         &lockedWriter{w: cfg.Out},
		interactive: interactive,
		signals:     make(chan host.Signal, 16),
		commands:    make(map[string]command),
	}
	c.registerCommands()
	return c, nil
}

// Signals returns the host signal stream. It is closed when Run returns.
func (c *Console) Signals() <-chan host.Signal {
	return c.signals
}

// Run announces readiness, opens projectDir if given, then reads commands
// until quit, end of input or cancellation. A shutdown signal is always the
// last signal sent.
func (c *Console) Run(ctx context.Context, projectDir string) error {
	defer close(c.signals)
	defer c.send(ctx, host.Signal{Kind: host.SignalShutdown})

	c.send(ctx, host.Signal{Kind: host.SignalReady})
	if projectDir != "" {
		if err := c.cmdOpen(ctx, []string{projectDir}); err != nil {
			return err
		}
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	rlConfig := &readline.Config{
		Prompt:            cyan("respacer> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "quit",
		HistorySearchFold: true,
		Stdin:             c.in,
		Stdout:            c.out,
	}
	if !c.interactive {
		rlConfig.FuncIsTerminal = func() bool { return false }
	}
	rl, err := readline.NewEx(rlConfig)
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	// Closing the input ends a blocked Readline; rl itself is only closed
	// on this goroutine.
	stop := context.AfterFunc(ctx, func() { _ = c.in.Close() })
	defer stop()

	c.printWelcome()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.Execute(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(c.out, "%s %v\n", red("Error:"), err)
		}
	}
}

// input lets cancellation and readline both close the command source.
type input struct {
	io.ReadCloser
	once sync.Once
	err  error
}

func (in *input) Close() error {
	in.once.Do(func() { in.err = in.ReadCloser.Close() })
	return in.err
}

// lockedWriter serializes readline's echo with command output.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

// Execute runs one command line.
func (c *Console) Execute(ctx context.Context, line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	cmd, ok := c.commands[parts[0]]
	if !ok {
		return fmt.Errorf("unknown command %q, type 'help'", parts[0])
	}
	return cmd.handler(ctx, parts[1:])
}

func (c *Console) send(ctx context.Context, sig host.Signal) {
	select {
	case c.signals <- sig:
	case <-ctx.Done():
	}
}

func (c *Console) register(name, usage, desc string, h CommandHandler) {
	c.commands[name] = command{usage: usage, desc: desc, handler: h}
	c.order = append(c.order, name)
}

func (c *Console) registerCommands() {
	c.register("open", "open <dir>", "Open a project directory", c.cmdOpen)
	c.register("close", "close", "Close the open project", c.cmdClose)
	c.register("promote", "promote", "Move settings into the open project", c.cmdPromote)
	c.register("set", "set <page> <property> <value>", "Change a live editor setting", c.cmdSet)
	c.register("show", "show", "Show the live editor settings", c.cmdShow)
	c.register("status", "status", "Show the authoritative settings file", c.cmdStatus)
	c.register("help", "help", "Show this help message", c.cmdHelp)
	c.register("quit", "quit", "Exit", c.cmdQuit)
	c.commands["exit"] = c.commands["quit"]
	c.commands["?"] = c.commands["help"]
}

func (c *Console) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(c.out, "\n%s\n", cyan("respacer"))
	fmt.Fprintln(c.out, "Type 'help' for available commands, 'quit' to exit")
	fmt.Fprintln(c.out)
}

func (c *Console) cmdOpen(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: open <dir>")
	}
	dir, err := c.workspace.Open(args[0])
	if err != nil {
		return err
	}
	c.send(ctx, host.Signal{Kind: host.SignalProjectOpened, ProjectDir: dir})
	return nil
}

func (c *Console) cmdClose(ctx context.Context, _ []string) error {
	if !c.workspace.Close() {
		return ErrNoProject
	}
	c.send(ctx, host.Signal{Kind: host.SignalProjectClosed})
	return nil
}

func (c *Console) cmdPromote(ctx context.Context, _ []string) error {
	c.send(ctx, host.Signal{Kind: host.SignalPromote})
	return nil
}

func (c *Console) cmdSet(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: set <page> <property> <value>")
	}
	if err := c.reg.Set(registry.Key(args[0], args[1]), args[2]); err != nil {
		return err
	}
	if err := c.reg.Save(); err != nil {
		return err
	}
	c.send(ctx, host.Signal{Kind: host.SignalConfigChanged})
	return nil
}

func (c *Console) cmdShow(ctx context.Context, _ []string) error {
	doc, err := c.adapter.Extract(ctx)
	if err != nil {
		return err
	}
	if len(doc.Pages) == 0 {
		fmt.Fprintln(c.out, "No editor settings")
		return nil
	}
	fmt.Fprintln(c.out, render.Document(doc))
	return nil
}

func (c *Console) cmdStatus(_ context.Context, _ []string) error {
	green := color.New(color.FgGreen).SprintFunc()
	if c.state != nil {
		path, scope := c.state()
		fmt.Fprintf(c.out, "%s %s (%s)\n", green("Settings:"), path, scope)
	}
	if dir, open := c.workspace.ProjectDir(); open {
		fmt.Fprintf(c.out, "%s %s\n", green("Project:"), dir)
	} else {
		fmt.Fprintf(c.out, "%s none\n", green("Project:"))
	}
	return nil
}

func (c *Console) cmdHelp(_ context.Context, _ []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(c.out, "\n%s\n", cyan("Available Commands:"))
	for _, name := range c.order {
		cmd := c.commands[name]
		fmt.Fprintf(c.out, "  %-32s %s\n", green(cmd.usage), cmd.desc)
	}
	fmt.Fprintln(c.out)
	return nil
}

func (c *Console) cmdQuit(_ context.Context, _ []string) error {
	return errQuit
}
