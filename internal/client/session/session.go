// Package session holds the unlocked account key for the lifetime of a
// client process. The key is never persisted; every component that needs it
// receives the same *Session explicitly.
package session

import (
	"sync"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/cryptox"
)

// UnlockMethod records how the current key was obtained.
type UnlockMethod string

const (
	UnlockNone       UnlockMethod = ""
	UnlockPassphrase UnlockMethod = "passphrase"
	UnlockPasskey    UnlockMethod = "passkey"
)

// Session is safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	key       *cryptox.SymmetricKey
	method    UnlockMethod
	listeners []func()
}

func New() *Session {
	return &Session{}
}

// Key returns a private copy of the unlocked key, or
// common.ErrKeyUnavailable. The caller wipes the copy when done; a concurrent
// Clear does not touch it.
func (s *Session) Key() (*cryptox.SymmetricKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return nil, common.ErrKeyUnavailable
	}
	return s.key.Clone(), nil
}

// Unlocked reports whether a key is held.
func (s *Session) Unlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != nil
}

// Method tells how the session was unlocked.
func (s *Session) Method() UnlockMethod {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.method
}

// SetKey installs key, wiping any key held before.
func (s *Session) SetKey(key *cryptox.SymmetricKey, method UnlockMethod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil && s.key != key {
		s.key.Wipe()
	}
	s.key = key
	s.method = method
}

// OnClear registers fn to run after every Clear.
func (s *Session) OnClear(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Clear wipes the key and notifies listeners. Listeners run outside the lock.
func (s *Session) Clear() {
	s.mu.Lock()
	if s.key != nil {
		s.key.Wipe()
	}
	s.key = nil
	s.method = UnlockNone
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
