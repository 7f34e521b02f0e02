// Package models holds the records persisted by the reference server. The
// server only ever sees ciphertext; it never interprets EncryptedBlob.
package models

// Item is one encrypted record of an account, addressed by
// (UserID, DataType, LocalID). Version increases on every write and delete.
type Item struct {
	UserID        string
	ID            string
	DataType      string
	LocalID       string
	EncryptedBlob []byte
	Nonce         []byte
	SchemaVersion int
	// UpdatedAt is Unix milliseconds.
	UpdatedAt int64
	Deleted   bool
	Version   int64
}

// Data types accepted by the item endpoints.
const (
	DataTypeWorkEntry = "work_entry"
	DataTypeVacation  = "vacation"
)

// DataTypes lists every accepted data type.
var DataTypes = []string{DataTypeWorkEntry, DataTypeVacation}

// CurrentSchemaVersion is stamped on items written without an explicit one.
const CurrentSchemaVersion = 1
