package passkeys

import (
	"context"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
)

// Repository stores PasskeyCredential rows keyed by credential id.
type Repository interface {
	// Upsert inserts a credential or updates its name and backup state.
	Upsert(ctx context.Context, c *models.PasskeyCredential) error

	// GetAll returns every credential ordered by creation time.
	GetAll(ctx context.Context) ([]models.PasskeyCredential, error)

	// GetByID returns common.ErrNotFound for unknown ids.
	GetByID(ctx context.Context, id string) (*models.PasskeyCredential, error)

	SetBackupState(ctx context.Context, id string, state models.KeyBackupState) error

	DeleteByID(ctx context.Context, id string) error
}
