package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("metadata get %q: %w", key, err)
	}
	return value, nil
}

const upsertQuery = `INSERT INTO metadata (key, value) VALUES %s
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf(upsertQuery, "(?, ?)"), key, value); err != nil {
		return fmt.Errorf("metadata set %q: %w", key, err)
	}
	return nil
}

// CachedKeyInfo reads both halves of the cached key info in one query.
func (r *SQLiteRepository) CachedKeyInfo(ctx context.Context) (*models.KeyInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM metadata WHERE key IN (?, ?)`, KeyKeySalt, KeyVerificationHash)
	if err != nil {
		return nil, fmt.Errorf("metadata key info: %w", err)
	}
	defer rows.Close()

	info := &models.KeyInfo{}
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("metadata key info scan: %w", err)
		}
		switch key {
		case KeyKeySalt:
			info.Salt = value
		case KeyVerificationHash:
			info.VerificationHash = value
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metadata key info rows: %w", err)
	}

	if len(info.Salt) == 0 || len(info.VerificationHash) == 0 {
		return nil, nil
	}
	return info, nil
}

// CacheKeyInfo writes salt and verification hash in a single statement so a
// failure never leaves a salt paired with a stale hash.
func (r *SQLiteRepository) CacheKeyInfo(ctx context.Context, info *models.KeyInfo) error {
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(upsertQuery, "(?, ?), (?, ?)"),
		KeyKeySalt, info.Salt, KeyVerificationHash, info.VerificationHash)
	if err != nil {
		return fmt.Errorf("metadata cache key info: %w", err)
	}
	return nil
}
