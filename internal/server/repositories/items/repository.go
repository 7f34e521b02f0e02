// Package items stores encrypted records per account and record type, with a
// per-record version used for optimistic concurrency and soft deletes.
package items

import (
	"context"

	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
)

// Repository persists items.
//
// Save writes item.EncryptedBlob, Nonce, SchemaVersion and UpdatedAt under
// (UserID, DataType, LocalID) and returns the stored row with its ID and new
// Version. A new row keeps item.ID; an existing row keeps its own. A
// tombstoned row is revived. With a non-nil expectedVersion the write only
// happens if the stored version matches (0 meaning "no row yet"), otherwise
// common.ErrVersionConflict is returned.
//
// Delete tombstones a live row and bumps its version; common.ErrNotFound when
// there is none. List returns live rows only.
type Repository interface {
	List(ctx context.Context, userID, dataType string) ([]*models.Item, error)
	Save(ctx context.Context, item *models.Item, expectedVersion *int64) (*models.Item, error)
	Delete(ctx context.Context, userID, dataType, localID string, updatedAt int64) error
}
