// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// taskwire is the command-line client for a taskwire server: task
// CRUD over the mutation API, a live watch view over the realtime
// stream, and development helpers for key generation and credential
// issuance.
package main
