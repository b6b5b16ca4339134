// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/taskwire/taskwire/cmd/taskwire/cli"
	"github.com/taskwire/taskwire/lib/authtoken"
	"github.com/taskwire/taskwire/lib/config"
)

// defaultKeyDir mirrors the server's default key directory so keygen
// and token work without flags in a local setup.
func defaultKeyDir() string {
	return config.Default().Keys.Dir
}

func keygenCommand() *cli.Command {
	var keyDir string
	return &cli.Command{
		Name:    "keygen",
		Summary: "generate a token-signing keypair",
		Usage:   "taskwire keygen [flags]",
		Description: "keygen generates the ed25519 keypair the server verifies\n" +
			"credentials against. The private key stays with whoever issues\n" +
			"tokens; the server loads only the public key.",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
			flags.StringVar(&keyDir, "key-dir", defaultKeyDir(), "directory for the keypair")
			return flags
		},
		Run: func(args []string) error {
			if err := os.MkdirAll(keyDir, 0755); err != nil {
				return fmt.Errorf("creating key directory: %w", err)
			}

			public, private, err := authtoken.GenerateKeypair()
			if err != nil {
				return err
			}
			if err := authtoken.SaveKeypair(keyDir, public, private); err != nil {
				return err
			}
			fmt.Printf("keypair written to %s\n", keyDir)
			return nil
		},
	}
}

func tokenCommand() *cli.Command {
	var keyDir, subject string
	var ttl time.Duration
	return &cli.Command{
		Name:    "token",
		Summary: "mint a bearer credential",
		Usage:   "taskwire token --subject <user> [flags]",
		Examples: []cli.Example{
			{Description: "issue alice a day-long credential", Command: "taskwire token --subject alice --ttl 24h"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("token", pflag.ContinueOnError)
			flags.StringVar(&keyDir, "key-dir", defaultKeyDir(), "directory holding the keypair")
			flags.StringVar(&subject, "subject", "", "user identity the credential asserts (required)")
			flags.DurationVar(&ttl, "ttl", time.Hour, "credential lifetime")
			return flags
		},
		Run: func(args []string) error {
			if subject == "" {
				return fmt.Errorf("--subject is required")
			}

			private, err := authtoken.LoadPrivateKey(keyDir)
			if err != nil {
				return fmt.Errorf("loading signing key (run 'taskwire keygen' first): %w", err)
			}

			id, err := authtoken.NewTokenID()
			if err != nil {
				return err
			}
			now := time.Now()
			tokenBytes, err := authtoken.Mint(private, &authtoken.Token{
				Subject:   subject,
				ID:        id,
				IssuedAt:  now.Unix(),
				ExpiresAt: now.Add(ttl).Unix(),
			})
			if err != nil {
				return err
			}

			fmt.Println(authtoken.EncodeCredential(tokenBytes))
			return nil
		},
	}
}
