package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/cryptox"
)

// EncryptedBlob is a sealed record plus the envelope fields the server sees.
// Ciphertext carries the 16-byte GCM tag at its end.
type EncryptedBlob struct {
	RecordType RecordType
	LocalID    string
	ServerID   string
	Version    int64
	Ciphertext []byte
	Nonce      []byte
}

// Seal encrypts a snapshot of r under key with a fresh nonce.
func Seal(key *cryptox.SymmetricKey, r Record) (*EncryptedBlob, error) {
	if key == nil {
		return nil, common.ErrKeyUnavailable
	}
	plaintext, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", r.RecordType(), err)
	}
	defer common.WipeByteArray(plaintext)

	ct, nonce, err := cryptox.Seal(key.Bytes(), plaintext)
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	m := r.GetMeta()
	return &EncryptedBlob{
		RecordType: r.RecordType(),
		LocalID:    m.LocalID,
		ServerID:   m.ServerID,
		Version:    m.Version,
		Ciphertext: ct,
		Nonce:      nonce,
	}, nil
}

// Open decrypts b and decodes it as the record type it declares. Any
// authentication failure is common.ErrWrongSecret with no partial output.
func Open(key *cryptox.SymmetricKey, b *EncryptedBlob) (Record, error) {
	if key == nil {
		return nil, common.ErrKeyUnavailable
	}
	plaintext, err := cryptox.Open(key.Bytes(), b.Ciphertext, b.Nonce)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(plaintext)

	r, err := Decode(b.RecordType, plaintext)
	if err != nil {
		return nil, err
	}
	m := r.GetMeta()
	m.LocalID = b.LocalID
	m.ServerID = b.ServerID
	m.Version = b.Version
	return r, nil
}

// New returns an empty record of type t.
func New(t RecordType) (Record, error) {
	switch t {
	case RecordTypeWorkEntry:
		return &WorkEntry{}, nil
	case RecordTypeVacation:
		return &VacationAbsence{}, nil
	}
	return nil, fmt.Errorf("%q: %w", t, common.ErrUnknownRecordType)
}

// Decode strictly parses a plaintext payload: unknown fields and trailing
// data are rejected. The result is not validated, since other clients may
// legitimately store records this client would refuse to write; callers
// decide what to do with Validate's answer.
func Decode(t RecordType, payload []byte) (Record, error) {
	r, err := New(t)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(r); err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", t, err, common.ErrInvalidRecord)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: trailing data: %w", t, common.ErrInvalidRecord)
	}
	return r, nil
}
