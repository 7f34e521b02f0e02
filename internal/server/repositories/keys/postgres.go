package keys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/dbx"
	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (*models.KeyInfo, error) {
	info := &models.KeyInfo{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT key_salt, key_verification_hash FROM key_info WHERE user_id = $1`, userID,
	).Scan(&info.Salt, &info.VerificationHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return info, nil
}

func (r *PostgresRepository) Create(ctx context.Context, info *models.KeyInfo) error {
	err := dbx.ExecOne(ctx, r.db,
		`INSERT INTO key_info (user_id, key_salt, key_verification_hash) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO NOTHING`,
		info.UserID, info.Salt, info.VerificationHash)
	if errors.Is(err, common.ErrNotFound) {
		return common.ErrAlreadySetUp
	}
	return err
}

func (r *PostgresRepository) Update(ctx context.Context, info *models.KeyInfo) error {
	return dbx.ExecOne(ctx, r.db,
		`UPDATE key_info SET key_salt = $2, key_verification_hash = $3 WHERE user_id = $1`,
		info.UserID, info.Salt, info.VerificationHash)
}
