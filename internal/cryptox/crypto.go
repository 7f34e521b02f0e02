// Package cryptox holds the client-side cryptography: passphrase key
// derivation and verification, passkey-backed key wrapping, and the AES-GCM
// primitive the record cipher is built on.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
)

const (
	// KeySize is the length of every symmetric key in bytes (AES-256).
	KeySize = 32
	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag length appended to ciphertext.
	TagSize = 16
)

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes init: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm init: %w", err)
	}
	return aesgcm, nil
}

// Seal encrypts plaintext with AES-GCM under key using a fresh random nonce.
// The returned ciphertext has the 16-byte tag appended.
//
// Example:
//
//	ct, nonce, err := cryptox.Seal(key.Bytes(), []byte(`{"day":"2024-05-01T00:00:00.000Z"}`))
//	if err != nil {
//	    return err
//	}
func Seal(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(NonceSize)
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Open decrypts ciphertext (with its trailing tag) produced by Seal.
// A wrong key, an altered nonce or any modified byte yields
// common.ErrWrongSecret and no plaintext.
func Open(key, ciphertext, nonce []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d: %w", NonceSize, len(nonce), common.ErrWrongSecret)
	}
	if len(ciphertext) < TagSize {
		return nil, fmt.Errorf("ciphertext shorter than tag: %w", common.ErrWrongSecret)
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrWrongSecret
	}
	return plaintext, nil
}
