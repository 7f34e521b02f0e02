package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/dbx"
	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
)

// PostgresRepository implements item storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const (
	upsertItemQuery = `
		INSERT INTO items (user_id, data_type, local_id, id, encrypted_blob, nonce, schema_version, updated_at, deleted, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, 1)
		ON CONFLICT (user_id, data_type, local_id)
		DO UPDATE SET
			encrypted_blob = EXCLUDED.encrypted_blob,
			nonce = EXCLUDED.nonce,
			schema_version = EXCLUDED.schema_version,
			updated_at = EXCLUDED.updated_at,
			deleted = FALSE,
			version = items.version + 1
		RETURNING id, version;
	`
	insertNewItemQuery = `
		INSERT INTO items (user_id, data_type, local_id, id, encrypted_blob, nonce, schema_version, updated_at, deleted, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, 1)
		ON CONFLICT (user_id, data_type, local_id) DO NOTHING
		RETURNING id, version;
	`
	updateItemIfVersionQuery = `
		UPDATE items SET
			encrypted_blob = $4,
			nonce = $5,
			schema_version = $6,
			updated_at = $7,
			deleted = FALSE,
			version = version + 1
		WHERE user_id = $1 AND data_type = $2 AND local_id = $3 AND version = $8
		RETURNING id, version;
	`
)

func (r *PostgresRepository) Save(ctx context.Context, item *models.Item, expectedVersion *int64) (*models.Item, error) {
	var row *sql.Row
	switch {
	case expectedVersion == nil:
		row = r.db.QueryRowContext(ctx, upsertItemQuery,
			item.UserID, item.DataType, item.LocalID, item.ID,
			item.EncryptedBlob, item.Nonce, item.SchemaVersion, item.UpdatedAt)
	case *expectedVersion == 0:
		row = r.db.QueryRowContext(ctx, insertNewItemQuery,
			item.UserID, item.DataType, item.LocalID, item.ID,
			item.EncryptedBlob, item.Nonce, item.SchemaVersion, item.UpdatedAt)
	default:
		row = r.db.QueryRowContext(ctx, updateItemIfVersionQuery,
			item.UserID, item.DataType, item.LocalID,
			item.EncryptedBlob, item.Nonce, item.SchemaVersion, item.UpdatedAt, *expectedVersion)
	}

	saved := *item
	if err := row.Scan(&saved.ID, &saved.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrVersionConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	saved.Deleted = false
	return &saved, nil
}

// List returns live items of one type, oldest update first.
func (r *PostgresRepository) List(ctx context.Context, userID, dataType string) ([]*models.Item, error) {
	query := `SELECT id, local_id, encrypted_blob, nonce, schema_version, updated_at, version FROM items
		WHERE user_id = $1 AND data_type = $2 AND NOT deleted
		ORDER BY updated_at, local_id`

	rows, err := r.db.QueryContext(ctx, query, userID, dataType)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	var result []*models.Item
	for rows.Next() {
		item := models.Item{UserID: userID, DataType: dataType}
		if err := rows.Scan(
			&item.ID, &item.LocalID, &item.EncryptedBlob, &item.Nonce,
			&item.SchemaVersion, &item.UpdatedAt, &item.Version,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, dataType, localID string, updatedAt int64) error {
	query := `UPDATE items SET deleted = TRUE, version = version + 1, updated_at = $4
		WHERE user_id = $1 AND data_type = $2 AND local_id = $3 AND NOT deleted`
	return dbx.ExecOne(ctx, r.db, query, userID, dataType, localID, updatedAt)
}
