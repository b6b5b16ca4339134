// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"

	"github.com/taskwire/taskwire/lib/authtoken"
	"github.com/taskwire/taskwire/lib/clock"
)

// Boundary classification of credential failures. The split follows
// what the caller could have known: ErrUnauthenticated means no
// usable credential reached the verifier at all (absent, bad base64,
// undecodable payload); ErrInvalidCredential means a well-formed
// credential failed the signature or expiry check.
var (
	ErrUnauthenticated   = errors.New("service: missing or malformed credential")
	ErrInvalidCredential = errors.New("service: invalid or expired credential")
)

// Verifier authenticates bearer credentials at the serving boundary.
// Pure verification — no side effects, usable concurrently.
type Verifier struct {
	// PublicKey is the issuer's Ed25519 verification key.
	PublicKey ed25519.PublicKey

	// Clock supplies the time for expiry checks.
	Clock clock.Clock
}

// VerifyHeader authenticates an Authorization header value of the
// form "Bearer <base64url credential>".
func (v Verifier) VerifyHeader(authorization string) (*authtoken.Token, error) {
	const scheme = "Bearer "
	if !strings.HasPrefix(authorization, scheme) {
		return nil, fmt.Errorf("%w: missing bearer credential", ErrUnauthenticated)
	}

	tokenBytes, err := authtoken.DecodeCredential(strings.TrimPrefix(authorization, scheme))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return v.VerifyRaw(tokenBytes)
}

// VerifyRaw authenticates raw credential bytes (the stream hello
// carries these directly, without base64).
func (v Verifier) VerifyRaw(tokenBytes []byte) (*authtoken.Token, error) {
	token, err := authtoken.VerifyAt(v.PublicKey, tokenBytes, v.Clock.Now())
	if err != nil {
		return nil, classify(err)
	}
	return token, nil
}

// classify maps verifier errors onto the boundary taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, authtoken.ErrInvalidSignature),
		errors.Is(err, authtoken.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	default:
		// Truncated, undecodable, or empty-subject payloads: the
		// caller never presented a usable credential.
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
}
