// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/taskwire/taskwire/lib/authtoken"
	"github.com/taskwire/taskwire/lib/clock"
)

func testVerifier(t *testing.T, now time.Time) (*Verifier, ed25519.PrivateKey, *clock.FakeClock) {
	t.Helper()
	public, private, err := authtoken.GenerateKeypair()
	if err != nil {
		t.Fatalf("generating keypair: %v", err)
	}
	fake := clock.Fake(now)
	return &Verifier{PublicKey: public, Clock: fake}, private, fake
}

func mintCredential(t *testing.T, private ed25519.PrivateKey, subject string, now time.Time, ttl time.Duration) string {
	t.Helper()
	id, err := authtoken.NewTokenID()
	if err != nil {
		t.Fatalf("generating token id: %v", err)
	}
	tokenBytes, err := authtoken.Mint(private, &authtoken.Token{
		Subject:   subject,
		ID:        id,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}
	return authtoken.EncodeCredential(tokenBytes)
}

func TestVerifyHeaderAccepted(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	verifier, private, _ := testVerifier(t, now)
	credential := mintCredential(t, private, "alice", now, time.Hour)

	token, err := verifier.VerifyHeader("Bearer " + credential)
	if err != nil {
		t.Fatalf("VerifyHeader: %v", err)
	}
	if token.Subject != "alice" {
		t.Fatalf("subject = %q, want alice", token.Subject)
	}
}

func TestVerifyHeaderMissing(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	verifier, _, _ := testVerifier(t, now)

	if _, err := verifier.VerifyHeader(""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("empty header: err = %v, want ErrUnauthenticated", err)
	}
	if _, err := verifier.VerifyHeader("Basic dXNlcg=="); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("wrong scheme: err = %v, want ErrUnauthenticated", err)
	}
	if _, err := verifier.VerifyHeader("Bearer not!base64!"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("undecodable credential: err = %v, want ErrUnauthenticated", err)
	}
}

func TestVerifyHeaderWrongKey(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	verifier, _, _ := testVerifier(t, now)

	_, otherPrivate, err := authtoken.GenerateKeypair()
	if err != nil {
		t.Fatalf("generating keypair: %v", err)
	}
	credential := mintCredential(t, otherPrivate, "alice", now, time.Hour)

	if _, err := verifier.VerifyHeader("Bearer " + credential); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("foreign signature: err = %v, want ErrInvalidCredential", err)
	}
}

func TestVerifyHeaderExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	verifier, private, fake := testVerifier(t, now)
	credential := mintCredential(t, private, "alice", now, time.Minute)

	if _, err := verifier.VerifyHeader("Bearer " + credential); err != nil {
		t.Fatalf("fresh credential rejected: %v", err)
	}

	fake.Advance(2 * time.Minute)

	if _, err := verifier.VerifyHeader("Bearer " + credential); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expired credential: err = %v, want ErrInvalidCredential", err)
	}
}

func TestVerifyRawGarbage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	verifier, _, _ := testVerifier(t, now)

	if _, err := verifier.VerifyRaw([]byte("short")); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("truncated token: err = %v, want ErrUnauthenticated", err)
	}
}
