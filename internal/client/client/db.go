package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/vibedtracker/internal/client/migrations"
	"github.com/dmitrijs2005/vibedtracker/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/vibedtracker/internal/client/repositories/passkeys"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Repositories groups the local state stores. Only non-secret data lives
// here: key material never touches disk.
type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
	Passkeys passkeys.Repository
}

// Close releases the underlying database handle.
func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Passkeys: passkeys.NewSQLiteRepository(db),
	}, nil
}
