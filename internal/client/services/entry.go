package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/dmitrijs2005/vibedtracker/internal/client/client"
	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/session"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/logging"
	"github.com/google/uuid"
)

// EntryService hydrates and persists encrypted records of the remote store.
// Every method needs an unlocked session.
type EntryService interface {
	Load(ctx context.Context, t models.RecordType) ([]models.Record, error)
	Save(ctx context.Context, r models.Record) (*client.SaveAck, error)
	Delete(ctx context.Context, t models.RecordType, localID string) error
	LoadWorkEntries(ctx context.Context) ([]*models.WorkEntry, error)
}

type entryService struct {
	client  client.Client
	session *session.Session
	logger  logging.Logger
	newID   func() string
}

func NewEntryService(c client.Client, s *session.Session, logger logging.Logger) EntryService {
	return &entryService{client: c, session: s, logger: logger, newID: uuid.NewString}
}

// Load fetches every blob of type t and opens each one on its own. Items
// that fail to decode or decrypt are dropped and counted in a single warning;
// transport errors abort the whole load. Authentic records that break this
// client's invariants are kept and logged. The result is ordered newest first.
func (s *entryService) Load(ctx context.Context, t models.RecordType) ([]models.Record, error) {
	key, err := s.session.Key()
	if err != nil {
		return nil, err
	}
	defer key.Wipe()

	items, err := s.client.FetchItems(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("fetch %s error: %w", t, err)
	}

	records := make([]models.Record, 0, len(items))
	failed := 0
	for _, it := range items {
		blob, err := it.Blob()
		if err != nil {
			failed++
			s.logger.Debug(ctx, "malformed item", "type", t, "local_id", it.LocalID, "error", err)
			continue
		}
		rec, err := models.Open(key, blob)
		if err != nil {
			failed++
			s.logger.Debug(ctx, "undecryptable item", "type", t, "local_id", it.LocalID, "error", err)
			continue
		}
		if err := rec.Validate(); err != nil {
			s.logger.Warn(ctx, "loaded record violates invariants", "type", t, "local_id", it.LocalID, "error", err)
		}
		records = append(records, rec)
	}

	if failed > 0 {
		s.logger.Warn(ctx, "skipped items that could not be decoded or decrypted", "type", t, "count", failed)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SortTime().After(records[j].SortTime())
	})
	return records, nil
}

// Save seals r under the session key and stores it. A record without a local
// id gets a fresh UUID. Records that came from the server carry their
// version, which is sent along so a concurrent change surfaces as
// common.ErrVersionConflict instead of being overwritten.
func (s *entryService) Save(ctx context.Context, r models.Record) (*client.SaveAck, error) {
	key, err := s.session.Key()
	if err != nil {
		return nil, err
	}
	defer key.Wipe()

	meta := r.GetMeta()
	if meta.LocalID == "" {
		meta.LocalID = s.newID()
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	blob, err := models.Seal(key, r)
	if err != nil {
		return nil, fmt.Errorf("encryption error: %w", err)
	}

	ack, err := s.client.PutItem(ctx, blob, meta.Version)
	if err != nil {
		return nil, fmt.Errorf("save %s %s error: %w", r.RecordType(), meta.LocalID, err)
	}
	if ack.Version > 0 {
		meta.Version = ack.Version
	}
	return ack, nil
}

func (s *entryService) Delete(ctx context.Context, t models.RecordType, localID string) error {
	if !s.session.Unlocked() {
		return common.ErrKeyUnavailable
	}
	if err := s.client.DeleteItem(ctx, t, localID); err != nil {
		return fmt.Errorf("delete %s %s error: %w", t, localID, err)
	}
	return nil
}

func (s *entryService) LoadWorkEntries(ctx context.Context) ([]*models.WorkEntry, error) {
	records, err := s.Load(ctx, models.RecordTypeWorkEntry)
	if err != nil {
		return nil, err
	}
	entries := make([]*models.WorkEntry, 0, len(records))
	for _, r := range records {
		if e, ok := r.(*models.WorkEntry); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
