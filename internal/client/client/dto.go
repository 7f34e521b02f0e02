package client

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/passkey"
	"github.com/dmitrijs2005/vibedtracker/internal/codec"
)

// Item is one stored blob as listed by GET /data. Binary fields stay base64
// until Blob is called so a single malformed item can be skipped.
type Item struct {
	ID            string `json:"id"`
	DataType      string `json:"data_type"`
	LocalID       string `json:"local_id"`
	EncryptedBlob string `json:"encrypted_blob"`
	Nonce         string `json:"nonce"`
	SchemaVersion int    `json:"schema_version,omitempty"`
	UpdatedAt     int64  `json:"updated_at,omitempty"`
	Deleted       bool   `json:"deleted,omitempty"`
	Version       int64  `json:"version,omitempty"`
}

// Blob decodes the item into an EncryptedBlob.
func (it Item) Blob() (*models.EncryptedBlob, error) {
	rt, err := models.ParseRecordType(it.DataType)
	if err != nil {
		return nil, err
	}
	ct, err := codec.Decode(it.EncryptedBlob)
	if err != nil {
		return nil, fmt.Errorf("item %s blob: %w", it.LocalID, err)
	}
	nonce, err := codec.Decode(it.Nonce)
	if err != nil {
		return nil, fmt.Errorf("item %s nonce: %w", it.LocalID, err)
	}
	return &models.EncryptedBlob{
		RecordType: rt,
		LocalID:    it.LocalID,
		ServerID:   it.ID,
		Version:    it.Version,
		Ciphertext: ct,
		Nonce:      nonce,
	}, nil
}

type itemsResponse struct {
	Items []Item `json:"items"`
	Count int    `json:"count"`
}

type saveRequest struct {
	LocalID         string `json:"local_id"`
	EncryptedBlob   string `json:"encrypted_blob"`
	Nonce           string `json:"nonce"`
	DataType        string `json:"data_type"`
	ExpectedVersion *int64 `json:"expected_version,omitempty"`
}

type saveResponse struct {
	Success bool   `json:"success"`
	LocalID string `json:"local_id"`
	Version int64  `json:"version"`
	Error   string `json:"error"`
}

// SaveAck is the server's acknowledgement of a stored blob.
type SaveAck struct {
	LocalID string
	Version int64
}

type keyInfoDTO struct {
	KeySalt             string `json:"key_salt"`
	KeyVerificationHash string `json:"key_verification_hash"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type creationOptionsEnvelope struct {
	PublicKey *passkey.CreationOptionsJSON `json:"publicKey"`
}

type requestOptionsEnvelope struct {
	PublicKey *passkey.RequestOptionsJSON `json:"publicKey"`
}

type authenticationFinishResponse struct {
	Success    bool   `json:"success"`
	WrappedKey string `json:"wrapped_key"`
	KeyNonce   string `json:"key_nonce"`
}

// AuthenticationResult carries the wrapped key stored for the credential,
// if any.
type AuthenticationResult struct {
	WrappedKey []byte
	KeyNonce   []byte
}

// HasWrappedKey reports whether the server returned key material.
func (r *AuthenticationResult) HasWrappedKey() bool {
	return r != nil && len(r.WrappedKey) > 0 && len(r.KeyNonce) > 0
}

type wrappedKeyRequest struct {
	WrappedKey string `json:"wrapped_key"`
	KeyNonce   string `json:"key_nonce"`
}

type setKeyResponse struct {
	RecoveryCodes []string `json:"recovery_codes"`
}

type recoveryCodesResponse struct {
	Codes []string `json:"codes"`
}

type recoveryStatusResponse struct {
	HasRecoveryCodes bool `json:"has_recovery_codes"`
	RemainingCodes   int  `json:"remaining_codes"`
}

type resetKeyRequest struct {
	RecoveryCode           string `json:"recovery_code"`
	NewKeySalt             string `json:"new_key_salt"`
	NewKeyVerificationHash string `json:"new_key_verification_hash"`
}

// RemotePasskey is a credential as the server lists it. ID addresses the
// server row; CredentialID is the base64url raw id the authenticator knows.
type RemotePasskey struct {
	ID            string     `json:"id"`
	CredentialID  string     `json:"credential_id"`
	Name          string     `json:"name"`
	SignCount     int64      `json:"sign_count"`
	CreatedAt     time.Time  `json:"created_at"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty"`
	HasWrappedKey bool       `json:"has_wrapped_key"`
}

type passkeysResponse struct {
	Passkeys []RemotePasskey `json:"passkeys"`
}
