// Command affected is the CLI host binding the core affected-detection
// packages to a concrete git repository and workspace configuration.
package main

import (
	"fmt"
	"os"
)

func main() {
	// Subcommands that complete an analysis call os.Exit directly with the
	// spec's 0/1/2 convention; an error returned here means cobra itself
	// rejected the invocation (bad flags, unknown command), a user error.
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
