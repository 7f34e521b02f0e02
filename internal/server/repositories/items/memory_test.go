package items

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(user, typ, localID string, updatedAt int64) *models.Item {
	return &models.Item{
		UserID: user, DataType: typ, LocalID: localID, ID: "id-" + localID,
		EncryptedBlob: []byte("ct-" + localID), Nonce: []byte("n"), UpdatedAt: updatedAt,
	}
}

func TestMemory_SaveAssignsVersionsAndKeepsID(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	first, err := r.Save(ctx, item("u1", "work_entry", "a", 1), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Version)
	assert.Equal(t, "id-a", first.ID)

	again := item("u1", "work_entry", "a", 2)
	again.ID = "other"
	second, err := r.Save(ctx, again, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Version)
	assert.Equal(t, "id-a", second.ID)
}

func TestMemory_ExpectedVersion(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	v := func(n int64) *int64 { return &n }

	_, err := r.Save(ctx, item("u1", "work_entry", "a", 1), v(1))
	require.ErrorIs(t, err, common.ErrVersionConflict, "no row yet")

	_, err = r.Save(ctx, item("u1", "work_entry", "a", 1), v(0))
	require.NoError(t, err)

	_, err = r.Save(ctx, item("u1", "work_entry", "a", 2), v(0))
	require.ErrorIs(t, err, common.ErrVersionConflict)

	saved, err := r.Save(ctx, item("u1", "work_entry", "a", 2), v(1))
	require.NoError(t, err)
	assert.Equal(t, int64(2), saved.Version)

	_, err = r.Save(ctx, item("u1", "work_entry", "a", 3), v(1))
	require.ErrorIs(t, err, common.ErrVersionConflict, "stale writer loses")
}

func TestMemory_ListScopesAndOrders(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	for _, it := range []*models.Item{
		item("u1", "work_entry", "b", 20),
		item("u1", "work_entry", "a", 20),
		item("u1", "work_entry", "c", 10),
		item("u1", "vacation", "v", 5),
		item("u2", "work_entry", "x", 1),
	} {
		_, err := r.Save(ctx, it, nil)
		require.NoError(t, err)
	}

	got, err := r.List(ctx, "u1", "work_entry")
	require.NoError(t, err)
	ids := make([]string, len(got))
	for i, it := range got {
		ids[i] = it.LocalID
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	got[0].EncryptedBlob[0] = 'X'
	again, err := r.List(ctx, "u1", "work_entry")
	require.NoError(t, err)
	assert.Equal(t, byte('c'), again[0].EncryptedBlob[0], "callers get copies")
}

func TestMemory_DeleteTombstonesAndRevive(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()

	_, err := r.Save(ctx, item("u1", "vacation", "v", 1), nil)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, "u1", "vacation", "v", 2))
	require.ErrorIs(t, r.Delete(ctx, "u1", "vacation", "v", 3), common.ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, "u1", "vacation", "nope", 3), common.ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, "u2", "vacation", "v", 3), common.ErrNotFound)

	got, err := r.List(ctx, "u1", "vacation")
	require.NoError(t, err)
	assert.Empty(t, got)

	v := int64(2)
	revived, err := r.Save(ctx, item("u1", "vacation", "v", 4), &v)
	require.NoError(t, err, "tombstone version counts for the check")
	assert.Equal(t, int64(3), revived.Version)
	assert.False(t, revived.Deleted)
}

func TestMemory_ConcurrentWritersOneWins(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	_, err := r.Save(ctx, item("u1", "work_entry", "a", 1), nil)
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := int64(1)
			_, err := r.Save(ctx, item("u1", "work_entry", "a", 2), &v)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else {
			require.ErrorIs(t, err, common.ErrVersionConflict)
		}
	}
	assert.Equal(t, 1, ok)
}

var _ Repository = (*MemoryRepository)(nil)
var _ Repository = (*PostgresRepository)(nil)
