// Command rxctl drives an in-process receive engine from the command
// line, adapted from the teacher's own cmd/cli app (cmd/cli/cli/app.go):
// same urfave/cli v1 app shape, same fatih/color-driven banner style,
// scaled down from cluster management to a single-engine debugging tool.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli"
)

const (
	appName = "rxctl"
	usage   = "drive and observe a stream receive engine"
)

func main() {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = usage
	app.Version = "0.1.0"
	app.Commands = []cli.Command{
		feedCommand,
		watchCommand,
		serveCommand,
	}
	app.CommandNotFound = func(c *cli.Context, cmd string) {
		fmt.Fprintln(os.Stderr, color.RedString("rxctl: unknown command %q", cmd))
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("rxctl: %v", err))
		os.Exit(1)
	}
}
