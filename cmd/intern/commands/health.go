// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/sleepyleo/intern/cmd/intern/cli"
	"github.com/sleepyleo/intern/lib/termrender"
)

type healthParams struct {
	cli.LogFlags
	cli.JSONOutput
	connectFlags
}

func healthCommand() *cli.Command {
	var params healthParams
	return &cli.Command{
		Name:    "health",
		Summary: "Show CPU, memory and uptime of the remote host",
		Description: `Show CPU, memory and uptime of the remote host. When the remote host
cannot be reached the machine running intern is measured instead, and
the source field says so.`,
		Usage: "intern health [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("health", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			logger, err := params.NewLogger(os.Stderr)
			if err != nil {
				return err
			}
			backend, err := params.open(logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			response, err := backend.Health(ctx)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(response); done {
				return err
			}
			renderer := termrender.New(os.Stdout, termrender.Options{Width: terminalWidth(os.Stdout)})
			fmt.Fprintln(os.Stdout, renderer.Health(response.Snapshot))
			return nil
		},
	}
}
