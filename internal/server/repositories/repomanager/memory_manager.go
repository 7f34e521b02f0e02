package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/vibedtracker/internal/dbx"
	"github.com/dmitrijs2005/vibedtracker/internal/server/repositories/items"
	"github.com/dmitrijs2005/vibedtracker/internal/server/repositories/keys"
	"github.com/dmitrijs2005/vibedtracker/internal/server/repositories/recovery"
)

// MemoryRepositoryManager keeps everything in process memory. The DBTX
// arguments are ignored; every call returns the same repositories.
type MemoryRepositoryManager struct {
	items    *items.MemoryRepository
	keys     *keys.MemoryRepository
	recovery *recovery.MemoryRepository
}

func NewMemoryRepositoryManager() RepositoryManager {
	return &MemoryRepositoryManager{
		items:    items.NewMemoryRepository(),
		keys:     keys.NewMemoryRepository(),
		recovery: recovery.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *MemoryRepositoryManager) Items(dbx.DBTX) items.Repository {
	return m.items
}

func (m *MemoryRepositoryManager) Keys(dbx.DBTX) keys.Repository {
	return m.keys
}

func (m *MemoryRepositoryManager) Recovery(dbx.DBTX) recovery.Repository {
	return m.recovery
}
