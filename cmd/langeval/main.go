// Command langeval is a thin CLI front-end over pkg/langcore: parse a
// file (or inline expression), evaluate it, print the result. No
// daemon, REPL line editing, or build execution lives here — those are
// external-collaborator concerns the core never touches.
package main

import (
	"fmt"
	"os"

	"github.com/purelang/evalcore/cmd/langeval/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
