// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/sleepyleo/intern/bridge"
	"github.com/sleepyleo/intern/cmd/intern/cli"
	"github.com/sleepyleo/intern/lib/termrender"
)

type execParams struct {
	cli.LogFlags
	cli.JSONOutput
	connectFlags
}

func execCommand() *cli.Command {
	var params execParams
	return &cli.Command{
		Name:    "exec",
		Summary: "Run one command on the remote host",
		Description: `Run one shell command on the remote host and print its output.

The command passes the same safety filter and length limit as the API.
The exit status follows the remote command's; every other failure exits 1.`,
		Usage: "intern exec [flags] [--] <command...>",
		Examples: []cli.Example{
			{Description: "List containers", Command: "intern exec -- docker ps -a"},
			{Description: "Machine-readable result", Command: "intern exec --json uptime"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("exec", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			command := strings.Join(args, " ")
			if strings.TrimSpace(command) == "" {
				return fmt.Errorf("command required\n\nRun 'intern exec --help' for usage.")
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

			result, err := backend.Exec(ctx, command)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(result); done {
				if err != nil {
					return err
				}
			} else {
				renderer := termrender.New(os.Stdout, termrender.Options{Width: terminalWidth(os.Stdout)})
				fmt.Fprintln(os.Stdout, renderer.Result(result))
			}
			if !result.Success {
				return &cli.ExitError{Code: exitCode(result)}
			}
			return nil
		},
	}
}

// exitCode mirrors the remote exit status when there is one.
func exitCode(result bridge.Result) int {
	if result.Failure == bridge.FailureRemoteExit && result.ExitCode > 0 {
		return result.ExitCode
	}
	return 1
}

// terminalWidth returns w's column count, or 0 when w is not a
// terminal.
func terminalWidth(w io.Writer) int {
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(file.Fd()))
	if err != nil {
		return 0
	}
	return width
}
