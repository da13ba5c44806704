// Command sierra specializes and simulates libfunc programs.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/sierra/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
