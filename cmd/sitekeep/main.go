package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AtRiskMedia/sitekeep/cmd/sitekeep/cli"
)

var (
	version = "0.1.0-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewServeCommand())
	root.AddCommand(cli.NewScanCommand())
	root.AddCommand(cli.NewReorganizeCommand())
	root.AddCommand(cli.NewHashPasswordCommand())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
