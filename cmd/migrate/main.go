package main

import (
	"fmt"
	"os"

	"github.com/kdimtricp/xgtag/internal/cli"
)

// migrate is shorthand for "xgtagctl migrate".
func main() {
	cmd := cli.NewRootCommand()
	cmd.SetArgs(append([]string{"migrate"}, os.Args[1:]...))
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
