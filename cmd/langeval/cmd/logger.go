package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// cliLogger is the eval.Logger the CLI wires in: plain printf-style
// output to stderr, ANSI-colored when stderr is a terminal, matching
// the same isatty-gated coloring runEval already applies to error
// traces. Debugf is silent unless --verbose was passed.
type cliLogger struct {
	out     io.Writer
	color   bool
	verbose bool
}

func newCLILogger(verbose bool) *cliLogger {
	return &cliLogger{
		out:     os.Stderr,
		color:   isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()),
		verbose: verbose,
	}
}

func (l *cliLogger) write(color, level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.color {
		fmt.Fprintf(l.out, "%s%s: %s\x1b[0m\n", color, level, msg)
	} else {
		fmt.Fprintf(l.out, "%s: %s\n", level, msg)
	}
}

func (l *cliLogger) Debugf(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write("\x1b[2m", "debug", format, args...)
}

func (l *cliLogger) Infof(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write("\x1b[36m", "info", format, args...)
}

func (l *cliLogger) Errorf(format string, args ...interface{}) {
	l.write("\x1b[31m", "error", format, args...)
}
