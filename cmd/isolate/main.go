// Command isolate finds the installed add-on that causes a problem.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/isolate/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
