// Package codec converts between raw bytes and the two text encodings used on
// the wire: standard padded base64 for blobs, nonces and key material, and
// base64url for WebAuthn fields.
package codec

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Encode returns the standard padded base64 form of b.
func Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// Decode parses standard padded base64.
func Decode(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return b, nil
}

// EncodeURL returns the unpadded base64url form of b.
func EncodeURL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeURL parses base64url with or without trailing padding.
func DecodeURL(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("base64url decode: %w", err)
	}
	return b, nil
}
