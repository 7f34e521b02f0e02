// Package metadata is a small key/value store in the client state database.
// It holds non-secret settings such as the cached key info used for offline
// passphrase checks.
package metadata

import (
	"context"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
)

// Repository stores opaque byte values by key. Get returns (nil, nil) for a
// missing key; CachedKeyInfo likewise returns (nil, nil) until CacheKeyInfo
// has stored both halves.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	CachedKeyInfo(ctx context.Context) (*models.KeyInfo, error)
	CacheKeyInfo(ctx context.Context, info *models.KeyInfo) error
}

// Well-known keys.
const (
	KeyKeySalt          = "key_salt"
	KeyVerificationHash = "key_verification_hash"
	KeyLastUnlockMethod = "last_unlock_method"
)
