// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/sleepyleo/intern/cmd/intern/cli"
	"github.com/sleepyleo/intern/lib/sealed"
)

type keygenParams struct {
	Output string `flag:"output,o" desc:"write the identity to this new file (mode 0600) instead of stdout"`
}

func keygenCommand() *cli.Command {
	var params keygenParams
	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate an age identity for sealed passwords",
		Description: `Generate an age X25519 identity. The private key goes to --output
(refusing to overwrite) or stdout; the public key, which "intern seal"
takes as --recipient, is printed to stdout.`,
		Usage: "intern keygen [-o identity-file]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("keygen", &params)
		},
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return keygen(params.Output, os.Stdout)
		},
	}
}

func keygen(outputPath string, stdout io.Writer) error {
	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		return err
	}
	defer keypair.Close()

	if outputPath == "" {
		fmt.Fprintf(stdout, "# public key: %s\n%s\n", keypair.PublicKey, keypair.PrivateKey.String())
		return nil
	}

	file, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating identity file: %w", err)
	}
	if _, err := fmt.Fprintln(file, keypair.PrivateKey.String()); err != nil {
		file.Close()
		return fmt.Errorf("writing identity file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("writing identity file: %w", err)
	}
	fmt.Fprintf(stdout, "Public key: %s\n", keypair.PublicKey)
	return nil
}
