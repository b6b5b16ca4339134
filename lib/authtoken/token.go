// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package authtoken

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskwire/taskwire/lib/codec"
)

// signatureSize is the fixed size of an Ed25519 signature.
const signatureSize = ed25519.SignatureSize // 64 bytes

// Token is the CBOR-encoded payload of a bearer credential.
type Token struct {
	// Subject is the opaque user identity the credential was issued
	// for. Everything the server stores or fans out is scoped to
	// this value.
	Subject string `cbor:"1,keyasint"`

	// ID is a unique token identifier (hex string), useful for audit
	// logs and future revocation.
	ID string `cbor:"2,keyasint"`

	// IssuedAt is a Unix timestamp (seconds) of when the issuer
	// minted this token.
	IssuedAt int64 `cbor:"3,keyasint"`

	// ExpiresAt is a Unix timestamp (seconds) after which this token
	// is no longer valid.
	ExpiresAt int64 `cbor:"4,keyasint"`
}

// Errors returned by Verify and DecodeCredential.
var (
	ErrTokenTooShort    = errors.New("authtoken: token too short for signature")
	ErrInvalidSignature = errors.New("authtoken: invalid Ed25519 signature")
	ErrTokenExpired     = errors.New("authtoken: token has expired")
	ErrMalformedToken   = errors.New("authtoken: malformed token payload")
	ErrEmptySubject     = errors.New("authtoken: token has empty subject")
)

// Mint signs a Token with the issuer's private key and returns the raw
// wire-format bytes: CBOR-encoded payload followed by the 64-byte
// Ed25519 signature.
func Mint(privateKey ed25519.PrivateKey, token *Token) ([]byte, error) {
	if token.Subject == "" {
		return nil, ErrEmptySubject
	}

	payload, err := codec.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("authtoken: encoding token payload: %w", err)
	}

	signature := ed25519.Sign(privateKey, payload)

	result := make([]byte, len(payload)+signatureSize)
	copy(result, payload)
	copy(result[len(payload):], signature)
	return result, nil
}

// Verify splits the raw token bytes, verifies the Ed25519 signature,
// CBOR-decodes the payload, and checks expiry. Returns the decoded
// Token on success.
func Verify(publicKey ed25519.PublicKey, tokenBytes []byte) (*Token, error) {
	return VerifyAt(publicKey, tokenBytes, time.Now())
}

// VerifyAt is like Verify but accepts an explicit time for the expiry
// check. This supports deterministic testing and injected clocks.
func VerifyAt(publicKey ed25519.PublicKey, tokenBytes []byte, now time.Time) (*Token, error) {
	if len(tokenBytes) <= signatureSize {
		return nil, ErrTokenTooShort
	}

	splitPoint := len(tokenBytes) - signatureSize
	payload := tokenBytes[:splitPoint]
	signature := tokenBytes[splitPoint:]

	if !ed25519.Verify(publicKey, payload, signature) {
		return nil, ErrInvalidSignature
	}

	var token Token
	if err := codec.Unmarshal(payload, &token); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if token.Subject == "" {
		return nil, ErrEmptySubject
	}

	if now.Unix() >= token.ExpiresAt {
		return nil, ErrTokenExpired
	}

	return &token, nil
}

// EncodeCredential renders raw token bytes as the base64url string
// carried in Authorization headers and credential files.
func EncodeCredential(tokenBytes []byte) string {
	return base64.RawURLEncoding.EncodeToString(tokenBytes)
}

// DecodeCredential parses the base64url credential string back into
// raw token bytes. Surrounding whitespace (trailing newline in a
// credential file) is tolerated.
func DecodeCredential(credential string) ([]byte, error) {
	trimmed := strings.TrimSpace(credential)
	if trimmed == "" {
		return nil, errors.New("authtoken: empty credential")
	}
	tokenBytes, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("authtoken: decoding credential: %w", err)
	}
	return tokenBytes, nil
}
