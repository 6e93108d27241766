// Command reflex inspects, verifies, and exercises the runtime type registry.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/reflex/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
