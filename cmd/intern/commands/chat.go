// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/sleepyleo/intern/chat"
	"github.com/sleepyleo/intern/cmd/intern/cli"
	"github.com/sleepyleo/intern/lib/chatui"
	"github.com/sleepyleo/intern/lib/termrender"
)

type chatParams struct {
	cli.LogFlags
	connectFlags
}

func chatCommand() *cli.Command {
	var params chatParams
	return &cli.Command{
		Name:    "chat",
		Summary: "Talk to the intern",
		Description: `Talk to the intern. With a message argument, send it and print the
reply. Without one, start an interactive session that keeps the
conversation until you leave: a full-screen view on a terminal, or a
line-per-message loop when stdin is a pipe.

Session commands: /reset forgets the conversation, /exit leaves.`,
		Usage: "intern chat [flags] [message...]",
		Examples: []cli.Example{
			{Description: "Ask once", Command: `intern chat "how much disk is free?"`},
			{Description: "Interactive session against a running server", Command: "intern chat --socket /run/intern/intern.sock"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("chat", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			logger, err := params.NewLogger(os.Stderr)
			if err != nil {
				return err
			}
			backend, err := params.open(logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			conversation := chat.NewConversation(backend)
			profile := termenv.NewOutput(os.Stdout).EnvColorProfile()

			if len(args) > 0 {
				renderer := termrender.New(os.Stdout, termrender.Options{Profile: &profile, Width: terminalWidth(os.Stdout)})
				reply, err := conversation.Send(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				printReply(os.Stdout, renderer, reply)
				return nil
			}

			stdin := int(os.Stdin.Fd())
			if !term.IsTerminal(stdin) {
				renderer := termrender.New(os.Stdout, termrender.Options{Profile: &profile})
				return runSession(ctx, conversation, scannerLines{bufio.NewScanner(os.Stdin)}, os.Stdout, renderer)
			}

			return chatui.Run(ctx, conversation, profile)
		},
	}
}

// lineSource yields one user line per call and io.EOF at the end.
type lineSource interface {
	ReadLine() (string, error)
}

type scannerLines struct{ scanner *bufio.Scanner }

func (s scannerLines) ReadLine() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// runSession reads lines until EOF or /exit and prints each reply. A
// failed message is reported and the session continues.
func runSession(ctx context.Context, conversation *chat.Conversation, lines lineSource, out io.Writer, renderer *termrender.Renderer) error {
	for {
		line, err := lines.ReadLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			conversation.Reset()
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		reply, err := conversation.Send(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		printReply(out, renderer, reply)
	}
}

func printReply(out io.Writer, renderer *termrender.Renderer, reply *chat.Reply) {
	fmt.Fprintln(out, renderer.Reply(reply))
	fmt.Fprintln(out)
}
