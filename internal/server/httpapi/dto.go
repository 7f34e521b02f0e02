package httpapi

import (
	"github.com/dmitrijs2005/vibedtracker/internal/codec"
	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
)

type itemDTO struct {
	ID            string `json:"id"`
	DataType      string `json:"data_type"`
	LocalID       string `json:"local_id"`
	EncryptedBlob string `json:"encrypted_blob"`
	Nonce         string `json:"nonce"`
	SchemaVersion int    `json:"schema_version"`
	UpdatedAt     int64  `json:"updated_at"`
	Deleted       bool   `json:"deleted"`
	Version       int64  `json:"version"`
}

func newItemDTO(it *models.Item) itemDTO {
	return itemDTO{
		ID:            it.ID,
		DataType:      it.DataType,
		LocalID:       it.LocalID,
		EncryptedBlob: codec.Encode(it.EncryptedBlob),
		Nonce:         codec.Encode(it.Nonce),
		SchemaVersion: it.SchemaVersion,
		UpdatedAt:     it.UpdatedAt,
		Deleted:       it.Deleted,
		Version:       it.Version,
	}
}

type itemsResponse struct {
	Items []itemDTO `json:"items"`
	Count int       `json:"count"`
}

type saveRequest struct {
	LocalID         string `json:"local_id"`
	EncryptedBlob   string `json:"encrypted_blob"`
	Nonce           string `json:"nonce"`
	DataType        string `json:"data_type"`
	ExpectedVersion *int64 `json:"expected_version"`
}

type saveResponse struct {
	Success bool   `json:"success"`
	LocalID string `json:"local_id"`
	Version int64  `json:"version"`
}

type keyInfoDTO struct {
	KeySalt             string `json:"key_salt"`
	KeyVerificationHash string `json:"key_verification_hash"`
}

type setKeyResponse struct {
	Success       bool     `json:"success"`
	RecoveryCodes []string `json:"recovery_codes"`
}

type recoveryStatusResponse struct {
	HasRecoveryCodes bool `json:"has_recovery_codes"`
	RemainingCodes   int  `json:"remaining_codes"`
}

type recoveryCodesResponse struct {
	Codes []string `json:"codes"`
}

type resetKeyRequest struct {
	RecoveryCode           string `json:"recovery_code"`
	NewKeySalt             string `json:"new_key_salt"`
	NewKeyVerificationHash string `json:"new_key_verification_hash"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}
