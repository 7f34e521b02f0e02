// Package common defines shared constants and sentinel errors used across
// client and server layers of VibedTracker. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Key lifecycle errors.

	// ErrKeyUnavailable is returned when an operation needs the symmetric key
	// but the session is locked.
	ErrKeyUnavailable = errors.New("encryption key unavailable")
	// ErrWrongSecret covers a passphrase that fails verification and any
	// authentication-tag mismatch while opening or unwrapping.
	ErrWrongSecret = errors.New("wrong secret")
	// ErrAlreadySetUp is returned when passphrase setup finds existing key info.
	ErrAlreadySetUp   = errors.New("encryption already set up")
	ErrWeakPassphrase = errors.New("passphrase too weak")

	// Passkey ceremony outcomes.
	ErrCeremonyCancelled = errors.New("passkey ceremony cancelled")
	ErrCeremonyFailed    = errors.New("passkey ceremony failed")

	// Remote store errors.
	ErrRemoteRejected  = errors.New("remote rejected request")
	ErrVersionConflict = errors.New("version conflict")
	ErrUnavailable     = errors.New("server unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrTooManyAttempts = errors.New("too many attempts")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Record errors.
	ErrInvalidRecord     = errors.New("invalid record")
	ErrUnknownRecordType = errors.New("unknown record type")

	// Tracking state machine errors.
	ErrAlreadyTracking   = errors.New("tracking already active")
	ErrNotTracking       = errors.New("no active tracking")
	ErrInvalidTransition = errors.New("invalid tracking transition")
	ErrNotRecovered      = errors.New("tracking state not recovered")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// RemoteError carries the status code and message of a non-success response
// from the remote store.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote rejected request: status %d", e.Status)
	}
	return fmt.Sprintf("remote rejected request: %s (status %d)", e.Message, e.Status)
}

// Is lets errors.Is match the taxonomy sentinels that fit the status.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrRemoteRejected:
		return true
	case ErrVersionConflict:
		return e.Status == http.StatusConflict
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrWrongSecret:
		return e.Status == http.StatusForbidden
	case ErrTooManyAttempts:
		return e.Status == http.StatusTooManyRequests
	}
	return false
}
