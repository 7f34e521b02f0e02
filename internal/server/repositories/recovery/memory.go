package recovery

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
	"github.com/google/uuid"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	codes map[string][]models.RecoveryCode
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{codes: make(map[string][]models.RecoveryCode)}
}

func (r *MemoryRepository) ListUnused(_ context.Context, userID string) ([]models.RecoveryCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.RecoveryCode
	for _, c := range r.codes[userID] {
		if !c.Used {
			c.CodeHash = slices.Clone(c.CodeHash)
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Replace(_ context.Context, userID string, hashes [][]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := slices.DeleteFunc(r.codes[userID], func(c models.RecoveryCode) bool { return !c.Used })
	for _, h := range hashes {
		kept = append(kept, models.RecoveryCode{ID: uuid.NewString(), UserID: userID, CodeHash: slices.Clone(h)})
	}
	r.codes[userID] = kept
	return nil
}

func (r *MemoryRepository) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, list := range r.codes {
		for i := range list {
			if list[i].ID == id && !list[i].Used {
				list[i].Used = true
				return nil
			}
		}
	}
	return common.ErrNotFound
}
