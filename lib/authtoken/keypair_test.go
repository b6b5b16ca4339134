// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package authtoken

import (
	"testing"
	"time"
)

func TestSaveAndLoadKeypair(t *testing.T) {
	keyDir := t.TempDir()
	public, private := testKeypair(t)

	if err := SaveKeypair(keyDir, public, private); err != nil {
		t.Fatalf("SaveKeypair: %v", err)
	}

	loadedPublic, err := LoadPublicKey(keyDir)
	if err != nil {
		t.Fatalf("LoadPublicKey: %v", err)
	}
	loadedPrivate, err := LoadPrivateKey(keyDir)
	if err != nil {
		t.Fatalf("LoadPrivateKey: %v", err)
	}

	// A token minted with the loaded private key must verify with the
	// loaded public key.
	now := time.Now()
	tokenBytes, err := Mint(loadedPrivate, testToken(now))
	if err != nil {
		t.Fatalf("Mint with loaded key: %v", err)
	}
	if _, err := VerifyAt(loadedPublic, tokenBytes, now); err != nil {
		t.Fatalf("VerifyAt with loaded key: %v", err)
	}
}

func TestLoadPublicKeyMissing(t *testing.T) {
	if _, err := LoadPublicKey(t.TempDir()); err == nil {
		t.Fatal("loading from an empty directory should fail")
	}
}

func TestNewTokenIDUnique(t *testing.T) {
	first, err := NewTokenID()
	if err != nil {
		t.Fatalf("NewTokenID: %v", err)
	}
	second, err := NewTokenID()
	if err != nil {
		t.Fatalf("NewTokenID: %v", err)
	}
	if first == second {
		t.Fatal("two token IDs should not collide")
	}
	if len(first) != 32 {
		t.Fatalf("token ID length = %d, want 32 hex chars", len(first))
	}
}
