// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/taskwire/taskwire/cmd/taskwire/cli"
	"github.com/taskwire/taskwire/lib/client"
)

// connection holds the flags shared by every command that talks to a
// server.
type connection struct {
	server     string
	stream     string
	credential string
}

// flags registers the connection flags on a flag set. The credential
// falls back to TASKWIRE_TOKEN.
func (c *connection) flags(flags *pflag.FlagSet) {
	flags.StringVar(&c.server, "server", "http://localhost:8600", "mutation API base URL")
	flags.StringVar(&c.stream, "stream", "localhost:8601", "realtime stream address")
	flags.StringVar(&c.credential, "token", "", "bearer credential (default: TASKWIRE_TOKEN)")
}

// client builds a client from the flags.
func (c *connection) client() (*client.Client, error) {
	credential := c.credential
	if credential == "" {
		credential = os.Getenv("TASKWIRE_TOKEN")
	}
	if credential == "" {
		return nil, fmt.Errorf("no credential: pass --token or set TASKWIRE_TOKEN")
	}
	return client.New(client.Config{
		BaseURL:       c.server,
		StreamAddress: c.stream,
		Credential:    credential,
	})
}

func main() {
	root := &cli.Command{
		Name:    "taskwire",
		Summary: "taskwire task list client",
		Description: "taskwire is the command-line client for a taskwire server.\n" +
			"Mutations apply immediately and fan out to every connected\n" +
			"session of the same user; 'watch' shows the live list.",
		Subcommands: []*cli.Command{
			addCommand(),
			listCommand(),
			doneCommand(),
			editCommand(),
			rmCommand(),
			watchCommand(),
			keygenCommand(),
			tokenCommand(),
		},
	}

	if err := root.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
