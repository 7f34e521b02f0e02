package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vibedtracker/internal/dbx"
	"github.com/dmitrijs2005/vibedtracker/internal/server/repositories/items"
	"github.com/dmitrijs2005/vibedtracker/internal/server/repositories/keys"
	"github.com/dmitrijs2005/vibedtracker/internal/server/repositories/recovery"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Items(db dbx.DBTX) items.Repository
	Keys(db dbx.DBTX) keys.Repository
	Recovery(db dbx.DBTX) recovery.Repository
}
