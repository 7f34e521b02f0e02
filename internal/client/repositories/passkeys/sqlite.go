package passkeys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, c *models.PasskeyCredential) error {
	state := c.BackupState
	if state == "" {
		state = models.KeyBackupNone
	}
	ts := r.now().UnixMilli()

	query := `INSERT INTO passkeys (id, name, backup_state, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				backup_state = excluded.backup_state,
				updated_at = excluded.updated_at`
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.Name, string(state), ts, ts); err != nil {
		return fmt.Errorf("failed to upsert passkey: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.PasskeyCredential, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, backup_state FROM passkeys ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to select passkeys: %w", err)
	}
	defer rows.Close()

	var result []models.PasskeyCredential
	for rows.Next() {
		var (
			item  models.PasskeyCredential
			state string
		)
		if err := rows.Scan(&item.ID, &item.Name, &state); err != nil {
			return nil, fmt.Errorf("failed to scan passkey row: %w", err)
		}
		item.BackupState = models.ParseKeyBackupState(state)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.PasskeyCredential, error) {
	var (
		c     models.PasskeyCredential
		state string
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, name, backup_state FROM passkeys WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("passkey %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get passkey: %w", err)
	}
	c.BackupState = models.ParseKeyBackupState(state)
	return &c, nil
}

// SetBackupState updates one row; unknown ids yield common.ErrNotFound.
func (r *SQLiteRepository) SetBackupState(ctx context.Context, id string, state models.KeyBackupState) error {
	err := dbx.ExecOne(ctx, r.db, `UPDATE passkeys SET backup_state = ?, updated_at = ? WHERE id = ?`,
		string(state), r.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to set backup state of passkey %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	if err := dbx.ExecOne(ctx, r.db, `DELETE FROM passkeys WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete passkey %s: %w", id, err)
	}
	return nil
}
