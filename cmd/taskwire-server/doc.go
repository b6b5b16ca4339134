// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// taskwire-server is the task synchronization service. It exposes the
// mutation API over HTTP and the realtime change feed over a CBOR
// stream listener, backed by a SQLite task store. Every mutation is
// verified against a bearer credential, committed, and fanned out to
// the owner's connected sessions before the response is written.
package main
