// mp3os is the command-line interface to the kernel and its tool suite.
package main

import (
	"context"
	"os"

	"github.com/go-edukernel/mp3os/internal/cli"
	"github.com/go-edukernel/mp3os/internal/cli/cmd"
)

var (
	commands = []cli.Command{
		cmd.Booter(),
	}
)

// Entry point.
func main() {
	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
