// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the serving building blocks shared by
// Taskwire binaries: credential verification at the request boundary,
// an HTTP server with graceful shutdown for the mutation API, and a
// stream server that turns an authenticated TCP connection into a
// long-lived CBOR event channel.
//
// Both entry points authenticate with the same Verifier, so a request
// and a stream handshake reject identically. A credential is checked
// once, at the boundary; for streams the server additionally arms a
// timer for the token's remaining lifetime and closes the connection
// when the credential that admitted it expires — a connection never
// outlives its credential.
package service
