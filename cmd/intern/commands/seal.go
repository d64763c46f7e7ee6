// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/sleepyleo/intern/cmd/intern/cli"
	"github.com/sleepyleo/intern/lib/sealed"
	"github.com/sleepyleo/intern/lib/secret"
)

type sealParams struct {
	Recipients []string `flag:"recipient,r" desc:"age public key (age1...) to seal to; repeatable"`
}

func sealCommand() *cli.Command {
	var params sealParams
	return &cli.Command{
		Name:    "seal",
		Summary: "Encrypt the remote password for remote.sealed_password",
		Description: `Encrypt the remote SSH password with age and print base64 ciphertext
for remote.sealed_password. The password is read from the terminal
without echo, or from stdin when stdin is not a terminal.`,
		Usage: "intern seal --recipient age1... [--recipient age1...]",
		Examples: []cli.Example{
			{Description: "Create an identity, then seal to it", Command: "intern keygen -o ~/.config/intern/identity && intern seal -r age1..."},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("seal", &params)
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q (the password is read from the terminal)", args[0])
			}
			if len(params.Recipients) == 0 {
				return fmt.Errorf("--recipient is required\n\nRun 'intern keygen' to create one.")
			}
			password, err := readPassword(os.Stdin, os.Stderr)
			if err != nil {
				return err
			}
			defer password.Close()

			ciphertext, err := sealed.Encrypt(password.Bytes(), params.Recipients...)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, ciphertext)
			return nil
		},
	}
}

// readPassword prompts on prompt when in is a terminal; otherwise it
// reads all of in. Surrounding whitespace is trimmed either way.
func readPassword(in *os.File, prompt io.Writer) (*secret.Buffer, error) {
	var data []byte
	var err error
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		fmt.Fprint(prompt, "Remote password: ")
		data, err = term.ReadPassword(fd)
		fmt.Fprintln(prompt)
	} else {
		data, err = io.ReadAll(io.LimitReader(in, 64<<10))
	}
	if err != nil {
		secret.Zero(data)
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return passwordFromBytes(data)
}

// passwordFromBytes moves data, trimmed, into protected memory and
// zeroes data.
func passwordFromBytes(data []byte) (*secret.Buffer, error) {
	defer secret.Zero(data)
	start, end := 0, len(data)
	for start < end && isSpace(data[start]) {
		start++
	}
	for end > start && isSpace(data[end-1]) {
		end--
	}
	if start == end {
		return nil, fmt.Errorf("password is empty")
	}
	return secret.NewFromBytes(data[start:end])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
