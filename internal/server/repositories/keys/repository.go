// Package keys stores the per-account passphrase salt and verification hash.
package keys

import (
	"context"

	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
)

// Repository persists KeyInfo. Get returns common.ErrNotFound for accounts
// without key info. Create refuses to replace existing key info with
// common.ErrAlreadySetUp: replacing it would lock the account out of every
// record encrypted under the old key. Update replaces it anyway and is only
// reached through a spent recovery code; it returns common.ErrNotFound for
// accounts without key info.
type Repository interface {
	Get(ctx context.Context, userID string) (*models.KeyInfo, error)
	Create(ctx context.Context, info *models.KeyInfo) error
	Update(ctx context.Context, info *models.KeyInfo) error
}
