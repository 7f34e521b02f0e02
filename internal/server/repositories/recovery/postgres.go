package recovery

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vibedtracker/internal/dbx"
	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements recovery code storage over a dbx.DBTX. Replace
// runs several statements; callers that need it atomic pass a *sql.Tx.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListUnused(ctx context.Context, userID string) ([]models.RecoveryCode, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code_hash FROM recovery_codes WHERE user_id = $1 AND NOT used ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.RecoveryCode
	for rows.Next() {
		c := models.RecoveryCode{UserID: userID}
		if err := rows.Scan(&c.ID, &c.CodeHash); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Replace(ctx context.Context, userID string, hashes [][]byte) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM recovery_codes WHERE user_id = $1 AND NOT used`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	for _, h := range hashes {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO recovery_codes (id, user_id, code_hash) VALUES ($1, $2, $3)`,
			uuid.NewString(), userID, h); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string) error {
	return dbx.ExecOne(ctx, r.db,
		`UPDATE recovery_codes SET used = TRUE, used_at = now() WHERE id = $1 AND NOT used`, id)
}
