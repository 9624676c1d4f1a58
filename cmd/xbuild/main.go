// Command xbuild cross-compiles a project for every supported platform.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/xbuild/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
