// Command clox is a tree-less, single-pass bytecode interpreter for
// Lox: run it with a file argument to execute a script, or with none
// to start a REPL.
package main

import (
	"os"

	"github.com/mna/mainer"
	"github.com/ravener/clox/internal/maincmd"
)

// buildVersion and buildDate are meant to be set via -ldflags at build
// time, the same way the teacher's cmd/nenuphar does.
var (
	buildVersion = "dev"
	buildDate    = "unknown"
)

func main() {
	cmd := &maincmd.Cmd{BuildVersion: buildVersion, BuildDate: buildDate}
	code := cmd.Main(os.Args, mainer.CurrentStdio())
	os.Exit(int(code))
}
