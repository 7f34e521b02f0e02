package items

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
)

type itemKey struct {
	userID, dataType, localID string
}

// MemoryRepository keeps items in process memory. It is safe for concurrent
// use and loses everything on restart.
type MemoryRepository struct {
	mu    sync.Mutex
	items map[itemKey]*models.Item
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[itemKey]*models.Item)}
}

func cloneItem(it *models.Item) *models.Item {
	c := *it
	c.EncryptedBlob = slices.Clone(it.EncryptedBlob)
	c.Nonce = slices.Clone(it.Nonce)
	return &c
}

func (r *MemoryRepository) Save(_ context.Context, item *models.Item, expectedVersion *int64) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := itemKey{item.UserID, item.DataType, item.LocalID}
	cur, exists := r.items[k]

	if expectedVersion != nil {
		var have int64
		if exists {
			have = cur.Version
		}
		if have != *expectedVersion {
			return nil, common.ErrVersionConflict
		}
	}

	saved := cloneItem(item)
	saved.Deleted = false
	saved.Version = 1
	if exists {
		saved.ID = cur.ID
		saved.Version = cur.Version + 1
	}
	r.items[k] = saved
	return cloneItem(saved), nil
}

func (r *MemoryRepository) List(_ context.Context, userID, dataType string) ([]*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Item
	for k, it := range r.items {
		if k.userID == userID && k.dataType == dataType && !it.Deleted {
			out = append(out, cloneItem(it))
		}
	}
	slices.SortFunc(out, func(a, b *models.Item) int {
		if c := cmp.Compare(a.UpdatedAt, b.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.LocalID, b.LocalID)
	})
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, userID, dataType, localID string, updatedAt int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.items[itemKey{userID, dataType, localID}]
	if !ok || it.Deleted {
		return common.ErrNotFound
	}
	it.Deleted = true
	it.Version++
	it.UpdatedAt = updatedAt
	return nil
}
