package cryptox

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2Iterations is the iteration count shared with every other client.
const PBKDF2Iterations = 100000

// SaltSize is the length of salts generated at passphrase setup.
const SaltSize = 32

const verificationMessage = "vibedtracker-verification"

// SymmetricKey is the 256-bit account key. It only lives in memory and is
// created by derivation or unwrapping.
type SymmetricKey struct {
	b []byte
}

// NewSymmetricKey copies raw key material. It fails unless len(raw) == KeySize.
func NewSymmetricKey(raw []byte) (*SymmetricKey, error) {
	if len(raw) != KeySize {
		return nil, fmt.Errorf("symmetric key must be %d bytes, got %d", KeySize, len(raw))
	}
	b := make([]byte, KeySize)
	copy(b, raw)
	return &SymmetricKey{b: b}, nil
}

// Bytes exposes the raw key material. Callers must not retain or modify it.
func (k *SymmetricKey) Bytes() []byte {
	return k.b
}

// Clone returns an independent copy of k.
func (k *SymmetricKey) Clone() *SymmetricKey {
	return &SymmetricKey{b: bytes.Clone(k.b)}
}

// Wipe zeroes the key material.
func (k *SymmetricKey) Wipe() {
	if k == nil {
		return
	}
	common.WipeByteArray(k.b)
}

// DeriveKey turns a passphrase and salt into the account key using
// PBKDF2-HMAC-SHA256 with PBKDF2Iterations rounds. It is deterministic.
func DeriveKey(passphrase string, salt []byte) *SymmetricKey {
	return &SymmetricKey{b: pbkdf2.Key([]byte(passphrase), salt, PBKDF2Iterations, KeySize, sha256.New)}
}

// CreateVerificationHash computes HMAC-SHA256(key, "vibedtracker-verification").
// The server stores it so a derived key can be checked without revealing it.
func CreateVerificationHash(key *SymmetricKey) []byte {
	mac := hmac.New(sha256.New, key.b)
	mac.Write([]byte(verificationMessage))
	return mac.Sum(nil)
}

// Verify reports whether key reproduces expectedHash. The comparison runs in
// constant time; a hash of the wrong length never matches.
func Verify(key *SymmetricKey, expectedHash []byte) bool {
	if key == nil || len(expectedHash) != sha256.Size {
		return false
	}
	return subtle.ConstantTimeCompare(CreateVerificationHash(key), expectedHash) == 1
}
