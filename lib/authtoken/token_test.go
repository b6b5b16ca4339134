// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package authtoken

import (
	"crypto/ed25519"
	"errors"
	"testing"
	"time"
)

func testKeypair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	public, private, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	return public, private
}

func testToken(now time.Time) *Token {
	return &Token{
		Subject:   "user-alice",
		ID:        "a1b2c3d4e5f6",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(time.Hour).Unix(),
	}
}

func TestMintAndVerify(t *testing.T) {
	public, private := testKeypair(t)
	now := time.Now()

	tokenBytes, err := Mint(private, testToken(now))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if len(tokenBytes) <= signatureSize {
		t.Fatalf("token too short: %d bytes", len(tokenBytes))
	}

	verified, err := VerifyAt(public, tokenBytes, now)
	if err != nil {
		t.Fatalf("VerifyAt: %v", err)
	}
	if verified.Subject != "user-alice" {
		t.Errorf("Subject = %q, want user-alice", verified.Subject)
	}
	if verified.ID != "a1b2c3d4e5f6" {
		t.Errorf("ID = %q, want a1b2c3d4e5f6", verified.ID)
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	public, private := testKeypair(t)
	now := time.Now()

	tokenBytes, err := Mint(private, testToken(now))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	tokenBytes[0] ^= 0xff

	if _, err := VerifyAt(public, tokenBytes, now); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("tampered payload: got %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	_, private := testKeypair(t)
	otherPublic, _ := testKeypair(t)
	now := time.Now()

	tokenBytes, err := Mint(private, testToken(now))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if _, err := VerifyAt(otherPublic, tokenBytes, now); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("wrong key: got %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	public, private := testKeypair(t)
	now := time.Now()

	tokenBytes, err := Mint(private, testToken(now))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	// Valid just before expiry, invalid at and after it.
	if _, err := VerifyAt(public, tokenBytes, now.Add(time.Hour-time.Second)); err != nil {
		t.Fatalf("before expiry: %v", err)
	}
	if _, err := VerifyAt(public, tokenBytes, now.Add(time.Hour)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("at expiry: got %v, want ErrTokenExpired", err)
	}
}

func TestVerifyTruncated(t *testing.T) {
	public, _ := testKeypair(t)

	if _, err := VerifyAt(public, []byte("short"), time.Now()); !errors.Is(err, ErrTokenTooShort) {
		t.Fatalf("truncated token: got %v, want ErrTokenTooShort", err)
	}
}

func TestMintRejectsEmptySubject(t *testing.T) {
	_, private := testKeypair(t)
	now := time.Now()

	token := testToken(now)
	token.Subject = ""
	if _, err := Mint(private, token); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("empty subject: got %v, want ErrEmptySubject", err)
	}
}

func TestCredentialRoundtrip(t *testing.T) {
	public, private := testKeypair(t)
	now := time.Now()

	tokenBytes, err := Mint(private, testToken(now))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	credential := EncodeCredential(tokenBytes)
	decoded, err := DecodeCredential(credential + "\n")
	if err != nil {
		t.Fatalf("DecodeCredential: %v", err)
	}

	if _, err := VerifyAt(public, decoded, now); err != nil {
		t.Fatalf("VerifyAt after roundtrip: %v", err)
	}
}

func TestDecodeCredentialRejectsGarbage(t *testing.T) {
	if _, err := DecodeCredential("not!!valid!!base64"); err == nil {
		t.Fatal("garbage credential should not decode")
	}
	if _, err := DecodeCredential("   "); err == nil {
		t.Fatal("blank credential should not decode")
	}
}
