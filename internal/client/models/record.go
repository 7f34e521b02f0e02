// Package models defines the client-side records (work entries and vacation
// absences), their plaintext schema and the record cipher that turns them
// into encrypted blobs.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
)

// RecordType is the discriminant stored next to each ciphertext as data_type.
type RecordType string

const (
	RecordTypeWorkEntry RecordType = "work_entry"
	RecordTypeVacation  RecordType = "vacation"
)

// RecordTypes lists every known record type.
var RecordTypes = []RecordType{RecordTypeWorkEntry, RecordTypeVacation}

// ParseRecordType validates a data_type string.
func ParseRecordType(s string) (RecordType, error) {
	switch RecordType(s) {
	case RecordTypeWorkEntry, RecordTypeVacation:
		return RecordType(s), nil
	}
	return "", fmt.Errorf("%q: %w", s, common.ErrUnknownRecordType)
}

// Meta is the part of a record that lives outside the ciphertext.
// Version is the server's optimistic-concurrency token; zero means the record
// has never been acknowledged by the server.
type Meta struct {
	LocalID  string
	ServerID string
	Version  int64
}

// GetMeta gives access to the envelope fields of any record.
func (m *Meta) GetMeta() *Meta {
	return m
}

// Record is implemented by *WorkEntry and *VacationAbsence.
type Record interface {
	RecordType() RecordType
	GetMeta() *Meta
	// SortTime is the instant collections are ordered by, newest first.
	SortTime() time.Time
	Validate() error
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), common.ErrInvalidRecord)
}
