// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the taskwire command tree: declarative
// command/subcommand dispatch over pflag flag sets, with structured
// help output and typo suggestions for unknown commands and flags.
package cli
