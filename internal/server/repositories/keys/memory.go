package keys

import (
	"context"
	"slices"
	"sync"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	infos map[string]models.KeyInfo
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{infos: make(map[string]models.KeyInfo)}
}

func (r *MemoryRepository) Get(_ context.Context, userID string) (*models.KeyInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.infos[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	info.Salt = slices.Clone(info.Salt)
	info.VerificationHash = slices.Clone(info.VerificationHash)
	return &info, nil
}

func (r *MemoryRepository) Create(_ context.Context, info *models.KeyInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.infos[info.UserID]; ok {
		return common.ErrAlreadySetUp
	}
	r.infos[info.UserID] = models.KeyInfo{
		UserID:           info.UserID,
		Salt:             slices.Clone(info.Salt),
		VerificationHash: slices.Clone(info.VerificationHash),
	}
	return nil
}

func (r *MemoryRepository) Update(_ context.Context, info *models.KeyInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.infos[info.UserID]; !ok {
		return common.ErrNotFound
	}
	r.infos[info.UserID] = models.KeyInfo{
		UserID:           info.UserID,
		Salt:             slices.Clone(info.Salt),
		VerificationHash: slices.Clone(info.VerificationHash),
	}
	return nil
}
