// Copyright (C) 2025, Elara Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package crypto

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/elara-project/elara"
)

// Seal encrypts plaintext under messageKey and nonce, authenticating aad,
// and returns ciphertext||tag.
func Seal(messageKey [32]byte, nonce [12]byte, aad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(messageKey[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: build aead: %w", err)
	}
	return aead.Seal(nil, nonce[:], plaintext, aad), nil
}

// Open decrypts and authenticates ciphertext (which includes the
// trailing tag), returning ErrTagMismatch on failure. Callers must not
// advance ratchet or replay-window state until Open succeeds.
func Open(messageKey [32]byte, nonce [12]byte, aad, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(messageKey[:])
	if err != nil {
		return nil, fmt.Errorf("crypto: build aead: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce[:], ciphertext, aad)
	if err != nil {
		return nil, elara.ErrTagMismatch
	}
	return plaintext, nil
}
