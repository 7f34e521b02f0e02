// Package backup exports the account's encrypted items to a local directory
// or an S3-compatible bucket. Only ciphertext and public key info are
// written. The bundle carries the salt, so whoever knows the passphrase can
// decrypt it offline; importing a bundle back into a store is not supported.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/client/client"
	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/codec"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/logging"
)

// FormatVersion is written into every bundle.
const FormatVersion = 1

// Sink stores a finished bundle under name and reports where it went.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// KeyInfo is the base64 form of models.KeyInfo as it appears in a bundle.
type KeyInfo struct {
	KeySalt             string `json:"key_salt"`
	KeyVerificationHash string `json:"key_verification_hash"`
}

// Bundle is the exported document.
type Bundle struct {
	FormatVersion int                      `json:"format_version"`
	ExportedAt    time.Time                `json:"exported_at"`
	KeyInfo       *KeyInfo                 `json:"key_info,omitempty"`
	Items         map[string][]client.Item `json:"items"`
}

// Count is the number of items across all record types.
func (b *Bundle) Count() int {
	n := 0
	for _, items := range b.Items {
		n += len(items)
	}
	return n
}

// Result describes a completed export.
type Result struct {
	Location string
	Items    int
}

type Exporter struct {
	client client.Client
	sink   Sink
	logger logging.Logger
	now    func() time.Time
}

func NewExporter(c client.Client, sink Sink, logger logging.Logger) *Exporter {
	return &Exporter{client: c, sink: sink, logger: logger, now: time.Now}
}

// Collect fetches everything that goes into a bundle. An account without key
// info yields a bundle without it.
func (e *Exporter) Collect(ctx context.Context) (*Bundle, error) {
	b := &Bundle{
		FormatVersion: FormatVersion,
		ExportedAt:    e.now().UTC().Truncate(time.Second),
		Items:         make(map[string][]client.Item, len(models.RecordTypes)),
	}

	info, err := e.client.GetKeyInfo(ctx)
	switch {
	case err == nil:
		b.KeyInfo = &KeyInfo{
			KeySalt:             codec.Encode(info.Salt),
			KeyVerificationHash: codec.Encode(info.VerificationHash),
		}
	case errors.Is(err, common.ErrNotFound):
	default:
		return nil, fmt.Errorf("key info: %w", err)
	}

	for _, t := range models.RecordTypes {
		items, err := e.client.FetchItems(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", t, err)
		}
		if items == nil {
			items = []client.Item{}
		}
		b.Items[string(t)] = items
	}

	return b, nil
}

// Export collects a bundle and writes it to the sink.
func (e *Exporter) Export(ctx context.Context) (*Result, error) {
	b, err := e.Collect(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal bundle: %w", err)
	}

	loc, err := e.sink.Put(ctx, FileName(b.ExportedAt), data)
	if err != nil {
		return nil, fmt.Errorf("store bundle: %w", err)
	}

	e.logger.Info(ctx, "backup exported", "location", loc, "items", b.Count())
	return &Result{Location: loc, Items: b.Count()}, nil
}

// FileName is the object name for a bundle taken at t.
func FileName(t time.Time) string {
	return "vibedtracker-backup-" + t.UTC().Format("20060102T150405Z") + ".json"
}
