// Command fingerpick runs picker scenarios, one-shot selections and the
// WebSocket picker surface.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/fingerpick/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
