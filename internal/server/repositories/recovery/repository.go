// Package recovery stores the hashed passphrase recovery codes of an account.
package recovery

import (
	"context"

	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
)

// Repository persists recovery codes.
//
// ListUnused returns the codes not yet spent. Replace drops every unused code
// of the account and stores one new code per hash. MarkUsed spends a code and
// returns common.ErrNotFound when it is unknown or already spent.
type Repository interface {
	ListUnused(ctx context.Context, userID string) ([]models.RecoveryCode, error)
	Replace(ctx context.Context, userID string, hashes [][]byte) error
	MarkUsed(ctx context.Context, id string) error
}
