package client

import (
	"context"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/passkey"
)

// Client is the remote blob store and key-info endpoint.
type Client interface {
	Ping(ctx context.Context) error
	FetchItems(ctx context.Context, t models.RecordType) ([]Item, error)
	PutItem(ctx context.Context, blob *models.EncryptedBlob, expectedVersion int64) (*SaveAck, error)
	DeleteItem(ctx context.Context, t models.RecordType, localID string) error
	GetKeyInfo(ctx context.Context) (*models.KeyInfo, error)
	// SetKeyInfo publishes key info once and returns the passphrase recovery
	// codes issued with it.
	SetKeyInfo(ctx context.Context, info *models.KeyInfo) ([]string, error)
	RecoveryStatus(ctx context.Context) (int, error)
	RegenerateRecoveryCodes(ctx context.Context) ([]string, error)
	// ResetKeyInfo spends a recovery code to replace key info and returns a
	// fresh set of codes.
	ResetKeyInfo(ctx context.Context, recoveryCode string, info *models.KeyInfo) ([]string, error)
}

// PasskeyClient is the passkey half of the remote API, served by the
// hosting environment.
type PasskeyClient interface {
	BeginRegistration(ctx context.Context) (*passkey.CreationOptionsJSON, error)
	FinishRegistration(ctx context.Context, resp *passkey.AttestationResponse) error
	BeginAuthentication(ctx context.Context) (*passkey.RequestOptionsJSON, error)
	FinishAuthentication(ctx context.Context, resp *passkey.AssertionResponse) (*AuthenticationResult, error)
	UpdateWrappedKey(ctx context.Context, wk *models.WrappedKey) error
	ListPasskeys(ctx context.Context) ([]RemotePasskey, error)
	DeletePasskey(ctx context.Context, id string) error
}
