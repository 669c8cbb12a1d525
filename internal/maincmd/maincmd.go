// Package maincmd implements the clox CLI: flag parsing, REPL/file
// dispatch, and exit-code mapping, grounded on the teacher's
// mainer-based Cmd pattern.
package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/mna/mainer"
	"github.com/ravener/clox/lang/vm"
	"github.com/sirupsen/logrus"
)

const binName = "clox"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

A tree-less, single-pass bytecode interpreter for Lox.

With no <path>, %[1]s starts a REPL. With <path>, it compiles and runs
that file, exiting 0 on success, 65 on a compile error, 70 on a runtime
error.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --dispatch=<mode>         VM dispatch strategy: switch (default)
                                 or threaded.
       --trace                   Log each executed instruction at trace
                                 level.
`, binName)
)

// exit codes per spec.md §6.
const (
	exitCompileError mainer.ExitCode = 65
	exitRuntimeError mainer.ExitCode = 70
)

// Cmd is the CLI's flag/argument surface, parsed by mainer.Parser the
// same way the teacher's Cmd struct is.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help     bool   `flag:"h,help"`
	Version  bool   `flag:"v,version"`
	Dispatch string `flag:"dispatch"`
	Trace    bool   `flag:"trace"`

	args []string
}

func (c *Cmd) SetArgs(args []string)      { c.args = args }
func (c *Cmd) SetFlags(_ map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("at most one file path may be given, got %d", len(c.args))
	}
	switch c.Dispatch {
	case "", "switch", "threaded":
	default:
		return fmt.Errorf("invalid --dispatch value %q: must be switch or threaded", c.Dispatch)
	}
	return nil
}

// logConfig is read from the environment via caarlos0/env, the same
// library the teacher's transitive mna/mainer stack already pulls in.
type logConfig struct {
	Level string `env:"CLOX_LOG_LEVEL" envDefault:"info"`
}

func configureLogging() {
	var cfg logConfig
	if err := env.Parse(&cfg); err != nil {
		logrus.WithError(err).Warn("invalid CLOX_LOG_LEVEL, defaulting to info")
		return
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// Main parses args and dispatches to the REPL or a single file run. It
// mirrors the teacher's Main signature exactly so cmd/clox can call it
// the same way cmd/nenuphar calls the teacher's Cmd.Main.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	configureLogging()

	machine := vm.New()
	machine.Dispatch = parseDispatch(c.Dispatch)
	machine.Trace = c.Trace
	machine.Stdout = stdio.Stdout

	if len(c.args) == 1 {
		return runFile(machine, stdio, c.args[0])
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	return runREPL(ctx, machine, stdio)
}

func parseDispatch(mode string) vm.Dispatch {
	if mode == "threaded" {
		return vm.DispatchThreaded
	}
	return vm.DispatchSwitch
}

func runFile(machine *vm.VM, stdio mainer.Stdio, path string) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		return exitRuntimeError
	}

	result, err := machine.Interpret(string(src))
	switch result {
	case vm.CompileError:
		fmt.Fprintln(stdio.Stderr, err)
		return exitCompileError
	case vm.RuntimeErr:
		fmt.Fprintln(stdio.Stderr, err)
		return exitRuntimeError
	default:
		return mainer.Success
	}
}

// runREPL reads one line at a time, feeding each to the same persistent
// VM so globals and the string intern table are shared across lines,
// per spec.md §5. It stops when ctx is cancelled (Ctrl-C) or stdin
// closes.
func runREPL(ctx context.Context, machine *vm.VM, stdio mainer.Stdio) mainer.ExitCode {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(stdio.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	fmt.Fprint(stdio.Stdout, "> ")
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(stdio.Stdout)
			return mainer.Success
		case line, ok := <-lines:
			if !ok {
				return mainer.Success
			}
			if _, err := machine.Interpret(line); err != nil {
				fmt.Fprintln(stdio.Stderr, err)
			}
			fmt.Fprint(stdio.Stdout, "> ")
		}
	}
}
