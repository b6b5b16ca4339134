// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package authtoken implements Taskwire's bearer credentials: an
// Ed25519-signed CBOR payload carrying the user identity and an
// expiry. The wire format is the CBOR-encoded payload followed by the
// 64-byte signature; over text transports (the HTTP Authorization
// header, credential files) the raw bytes travel base64url-encoded.
//
// The server side of this package is verification only. Minting lives
// here too because tests and the dev CLI need it, but issuance is an
// external concern — the serving process never holds the private key.
//
// Verification is pure: no IO, no side effects. Callers classify the
// returned errors into their boundary's taxonomy (a missing or
// undecodable credential is a different failure than a bad signature
// or an expired token).
package authtoken
