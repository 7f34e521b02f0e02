package cryptox

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"golang.org/x/crypto/hkdf"
)

const (
	wrapSalt = "vibedtracker-key-wrap"
	wrapInfo = "aes-gcm-wrapping"
)

// PRFSalt is the PRF evaluation input requested during passkey ceremonies.
// It matches the HKDF salt so both sides agree on a single constant.
var PRFSalt = []byte(wrapSalt)

func deriveWrappingKey(prfSecret []byte) ([]byte, error) {
	if len(prfSecret) == 0 {
		return nil, fmt.Errorf("empty prf secret")
	}
	r := hkdf.New(sha256.New, prfSecret, []byte(wrapSalt), []byte(wrapInfo))
	wk := make([]byte, KeySize)
	if _, err := io.ReadFull(r, wk); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return wk, nil
}

// WrapKey encrypts the account key under a wrapping key derived from a
// passkey PRF output. A fresh nonce is drawn on every call.
func WrapKey(prfSecret []byte, key *SymmetricKey) (wrapped, nonce []byte, err error) {
	wk, err := deriveWrappingKey(prfSecret)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeByteArray(wk)

	return Seal(wk, key.b)
}

// UnwrapKey reverses WrapKey. Any tag failure returns common.ErrWrongSecret.
func UnwrapKey(prfSecret, wrapped, nonce []byte) (*SymmetricKey, error) {
	wk, err := deriveWrappingKey(prfSecret)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(wk)

	raw, err := Open(wk, wrapped, nonce)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(raw)

	key, err := NewSymmetricKey(raw)
	if err != nil {
		return nil, fmt.Errorf("unwrapped key: %w", common.ErrWrongSecret)
	}
	return key, nil
}
