// Package services contains the reference server's business logic: the
// encrypted item store and the per-account key info.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
	"github.com/dmitrijs2005/vibedtracker/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	nonceSize = 12
	tagSize   = 16
)

// SaveRequest is a decoded write of one item.
type SaveRequest struct {
	DataType        string
	LocalID         string
	EncryptedBlob   []byte
	Nonce           []byte
	ExpectedVersion *int64
}

// ItemService stores opaque ciphertext per account. It checks shape only:
// a known data type, a local id, a 12-byte nonce and a blob long enough to
// hold an AES-GCM tag.
type ItemService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewItemService(db *sql.DB, m repomanager.RepositoryManager) *ItemService {
	return &ItemService{db: db, repomanager: m, now: time.Now}
}

func checkDataType(dataType string) error {
	if !slices.Contains(models.DataTypes, dataType) {
		return fmt.Errorf("%q: %w", dataType, common.ErrUnknownRecordType)
	}
	return nil
}

// List returns the live items of dataType, or of every data type when
// dataType is empty.
func (s *ItemService) List(ctx context.Context, userID, dataType string) ([]*models.Item, error) {
	types := models.DataTypes
	if dataType != "" {
		if err := checkDataType(dataType); err != nil {
			return nil, err
		}
		types = []string{dataType}
	}

	repo := s.repomanager.Items(s.db)
	var out []*models.Item
	for _, t := range types {
		items, err := repo.List(ctx, userID, t)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", t, err)
		}
		out = append(out, items...)
	}
	return out, nil
}

// Save validates r and stores it. A stale expected version surfaces as
// common.ErrVersionConflict.
func (s *ItemService) Save(ctx context.Context, userID string, r *SaveRequest) (*models.Item, error) {
	if err := checkDataType(r.DataType); err != nil {
		return nil, err
	}
	if r.LocalID == "" {
		return nil, fmt.Errorf("missing local_id: %w", common.ErrInvalidRecord)
	}
	if len(r.Nonce) != nonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes: %w", nonceSize, common.ErrInvalidRecord)
	}
	if len(r.EncryptedBlob) < tagSize {
		return nil, fmt.Errorf("encrypted_blob too short: %w", common.ErrInvalidRecord)
	}
	if r.ExpectedVersion != nil && *r.ExpectedVersion < 0 {
		return nil, fmt.Errorf("negative expected_version: %w", common.ErrInvalidRecord)
	}

	item := &models.Item{
		UserID:        userID,
		ID:            uuid.NewString(),
		DataType:      r.DataType,
		LocalID:       r.LocalID,
		EncryptedBlob: r.EncryptedBlob,
		Nonce:         r.Nonce,
		SchemaVersion: models.CurrentSchemaVersion,
		UpdatedAt:     s.now().UnixMilli(),
	}
	return s.repomanager.Items(s.db).Save(ctx, item, r.ExpectedVersion)
}

// Delete tombstones the item; common.ErrNotFound when there is no live one.
func (s *ItemService) Delete(ctx context.Context, userID, dataType, localID string) error {
	if err := checkDataType(dataType); err != nil {
		return err
	}
	if localID == "" {
		return fmt.Errorf("missing local_id: %w", common.ErrInvalidRecord)
	}
	return s.repomanager.Items(s.db).Delete(ctx, userID, dataType, localID, s.now().UnixMilli())
}
