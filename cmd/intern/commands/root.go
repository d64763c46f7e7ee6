// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the intern command tree.
package commands

import (
	"context"
	"os"

	"github.com/sleepyleo/intern/cmd/intern/cli"
	"github.com/sleepyleo/intern/lib/version"
)

// Root builds and returns the complete command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "intern",
		Description: `intern: an AI intern with a shell on your remote machine.

Commands reach the remote host over SSH through an access tunnel. A
built-in deny-list refuses destructive commands before anything is
started.`,
		Subcommands: []*cli.Command{
			serveCommand(),
			execCommand(),
			chatCommand(),
			healthCommand(),
			sealCommand(),
			keygenCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string) error {
					version.Print(os.Stdout, "intern")
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Start the HTTP API and the local control socket",
				Command:     "intern serve --config intern.yaml",
			},
			{
				Description: "Run one command on the remote host",
				Command:     "intern exec -- docker ps -a",
			},
			{
				Description: "Talk to the intern",
				Command:     "intern chat",
			},
			{
				Description: "Seal the remote password for the config file",
				Command:     "intern seal --recipient age1...",
			},
		},
	}
}
