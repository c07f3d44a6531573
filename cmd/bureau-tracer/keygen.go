// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/tracer/cmd/bureau-tracer/cli"
	"github.com/bureau-foundation/tracer/lib/sealed"
)

func keygenCommand(stdio streams) *cli.Command {
	var outputPath string
	return &cli.Command{
		Name:    "keygen",
		Summary: "Generate an age keypair for sealing raw text",
		Description: `Generate an age x25519 keypair. Add the public key to
storage.seal_recipients so raw prompts and responses are sealed to it,
and pass the identity file to "sessions show --raw --identity".`,
		Usage: "bureau-tracer keygen [--output file]",
		Examples: []cli.Example{
			{Description: "Write a new identity file", Command: "bureau-tracer keygen --output ~/.config/bureau-tracer/identity.txt"},
		},
		Flags: func() *pflag.FlagSet {
			outputPath = ""
			flagSet := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flagSet.StringVarP(&outputPath, "output", "o", "", "write the identity to this file (mode 0600) instead of stdout")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if err := requireArgs(args, 0, "bureau-tracer keygen [--output file]"); err != nil {
				return err
			}
			keypair, err := sealed.GenerateKeypair()
			if err != nil {
				return cli.Internal("%w", err)
			}
			if err := sealed.ParsePublicKey(keypair.PublicKey); err != nil {
				return cli.Internal("generated public key does not parse: %w", err)
			}
			identity := fmt.Sprintf("# created: %s\n# public key: %s\n%s\n",
				time.Now().UTC().Format(time.RFC3339), keypair.PublicKey, keypair.PrivateKey)

			if outputPath == "" {
				fmt.Fprint(stdio.stdout, identity)
				return nil
			}
			file, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
			if err != nil {
				if errors.Is(err, fs.ErrExist) {
					return cli.Conflict("%s already exists", outputPath).
						WithHint("Refusing to overwrite an identity; choose another path.")
				}
				return cli.Internal("%w", err)
			}
			if _, err := file.WriteString(identity); err != nil {
				file.Close()
				return cli.Internal("writing identity: %w", err)
			}
			if err := file.Close(); err != nil {
				return cli.Internal("writing identity: %w", err)
			}
			fmt.Fprintf(stdio.stderr, "Public key: %s\n", keypair.PublicKey)
			return nil
		},
	}
}
