// Copyright 2026 The Taskwire Authors
// SPDX-License-Identifier: Apache-2.0

package authtoken

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

const (
	privateKeyFile = "token-signing-key"
	publicKeyFile  = "token-signing-key.pub"
)

// GenerateKeypair creates a new Ed25519 keypair for token signing.
func GenerateKeypair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("authtoken: generating Ed25519 keypair: %w", err)
	}
	return public, private, nil
}

// NewTokenID returns a random 16-byte hex token identifier.
func NewTokenID() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("authtoken: generating token ID: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}

// SaveKeypair writes an Ed25519 keypair into keyDir. The private key
// file has 0600 permissions; the public key file has 0644.
func SaveKeypair(keyDir string, public ed25519.PublicKey, private ed25519.PrivateKey) error {
	privatePath := filepath.Join(keyDir, privateKeyFile)
	if err := os.WriteFile(privatePath, private, 0600); err != nil {
		return fmt.Errorf("authtoken: writing private key: %w", err)
	}

	publicPath := filepath.Join(keyDir, publicKeyFile)
	if err := os.WriteFile(publicPath, public, 0644); err != nil {
		return fmt.Errorf("authtoken: writing public key: %w", err)
	}
	return nil
}

// LoadPublicKey reads the verification key from keyDir. This is the
// only key material the server needs.
func LoadPublicKey(keyDir string) (ed25519.PublicKey, error) {
	publicPath := filepath.Join(keyDir, publicKeyFile)
	publicBytes, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("authtoken: reading public key: %w", err)
	}
	if len(publicBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("authtoken: public key %s has %d bytes, want %d",
			publicPath, len(publicBytes), ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(publicBytes), nil
}

// LoadPrivateKey reads the signing key from keyDir. Only the dev CLI
// and tests mint tokens; the server never calls this.
func LoadPrivateKey(keyDir string) (ed25519.PrivateKey, error) {
	privatePath := filepath.Join(keyDir, privateKeyFile)
	privateBytes, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("authtoken: reading private key: %w", err)
	}
	if len(privateBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("authtoken: private key %s has %d bytes, want %d",
			privatePath, len(privateBytes), ed25519.PrivateKeySize)
	}
	return ed25519.PrivateKey(privateBytes), nil
}
