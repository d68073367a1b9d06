// vietime is the command line companion of the vietime input method: it
// converts text, manages shortcuts and foreign words, and registers the
// engine with IBus.
package main

import (
	"fmt"
	"os"

	"vietime/cmd/commands"
)

// Version is set during build with -ldflags.
var version = "dev"

func main() {
	root := commands.NewRootCommand(version)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
