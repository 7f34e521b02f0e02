// Package services contains the application services of the VibedTracker
// client. This file defines the passphrase unlock flow: first-time setup,
// unlock against the server-issued key info, locking and the recovery codes
// that let a forgotten passphrase be replaced.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/vibedtracker/internal/client/client"
	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/vibedtracker/internal/client/session"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/cryptox"
	"github.com/dmitrijs2005/vibedtracker/internal/logging"
)

// AuthService defines the passphrase operations of the CLI.
//
// Contract:
//   - SetupPassphrase: create key info for an account that has none, then unlock.
//   - UnlockWithPassphrase: derive the key and verify it against the key info.
//   - Lock: wipe the key from the session.
//   - IsSetUp: report whether key info exists on the server.
//   - Ping: check server liveness.
//   - RecoveryStatus, RegenerateRecoveryCodes: manage recovery codes.
//   - ResetPassphrase: spend a recovery code to install a new passphrase.
type AuthService interface {
	Ping(ctx context.Context) error
	IsSetUp(ctx context.Context) (bool, error)
	SetupPassphrase(ctx context.Context, passphrase string) ([]string, error)
	UnlockWithPassphrase(ctx context.Context, passphrase string) error
	Lock()
	RecoveryStatus(ctx context.Context) (int, error)
	RegenerateRecoveryCodes(ctx context.Context) ([]string, error)
	ResetPassphrase(ctx context.Context, recoveryCode, passphrase string) ([]string, error)
}

type authService struct {
	client   client.Client
	session  *session.Session
	metadata metadata.Repository
	logger   logging.Logger
}

// NewAuthService wires the passphrase flow. metadata caches the public key
// info so a passphrase can still be checked while the server is unreachable.
func NewAuthService(c client.Client, s *session.Session, md metadata.Repository, logger logging.Logger) AuthService {
	return &authService{client: c, session: s, metadata: md, logger: logger}
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) IsSetUp(ctx context.Context) (bool, error) {
	_, err := a.client.GetKeyInfo(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func checkPassphrase(passphrase string) error {
	if problems := ValidatePassphrase(passphrase); len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrWeakPassphrase, strings.Join(problems, ", "))
	}
	return nil
}

// newKeyInfo derives a key from passphrase under a fresh salt.
func newKeyInfo(passphrase string) (*cryptox.SymmetricKey, *models.KeyInfo) {
	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveKey(passphrase, salt)
	return key, &models.KeyInfo{Salt: salt, VerificationHash: cryptox.CreateVerificationHash(key)}
}

// SetupPassphrase generates a fresh salt, derives the key, publishes the
// verification hash and unlocks the session. It returns the recovery codes
// the server issued, which are shown once and never stored. It refuses to
// overwrite existing key info, since that would orphan every stored record.
func (a *authService) SetupPassphrase(ctx context.Context, passphrase string) ([]string, error) {
	if err := checkPassphrase(passphrase); err != nil {
		return nil, err
	}

	setUp, err := a.IsSetUp(ctx)
	if err != nil {
		return nil, fmt.Errorf("get key info error: %w", err)
	}
	if setUp {
		return nil, common.ErrAlreadySetUp
	}

	key, info := newKeyInfo(passphrase)
	codes, err := a.client.SetKeyInfo(ctx, info)
	if err != nil {
		key.Wipe()
		return nil, fmt.Errorf("set key info error: %w", err)
	}

	a.cacheKeyInfo(ctx, info)
	a.session.SetKey(key, session.UnlockPassphrase)
	a.logger.Info(ctx, "encryption set up", "recovery_codes", len(codes))
	return codes, nil
}

// UnlockWithPassphrase fetches the key info, derives the key and installs it
// when the verification hash matches. A mismatch yields common.ErrWrongSecret
// and leaves the session untouched.
func (a *authService) UnlockWithPassphrase(ctx context.Context, passphrase string) error {
	info, err := a.keyInfo(ctx)
	if err != nil {
		return err
	}

	key := cryptox.DeriveKey(passphrase, info.Salt)
	if !cryptox.Verify(key, info.VerificationHash) {
		key.Wipe()
		a.logger.Warn(ctx, "passphrase verification failed")
		return common.ErrWrongSecret
	}

	a.session.SetKey(key, session.UnlockPassphrase)
	if err := a.metadata.Set(ctx, metadata.KeyLastUnlockMethod, []byte(session.UnlockPassphrase)); err != nil {
		a.logger.Warn(ctx, "failed to record unlock method", "error", err)
	}
	return nil
}

func (a *authService) Lock() {
	a.session.Clear()
}

// RecoveryStatus returns how many unused recovery codes remain.
func (a *authService) RecoveryStatus(ctx context.Context) (int, error) {
	n, err := a.client.RecoveryStatus(ctx)
	if err != nil {
		return 0, fmt.Errorf("recovery status error: %w", err)
	}
	return n, nil
}

// RegenerateRecoveryCodes replaces the unused codes. The session must be
// unlocked, so only someone who knows the current passphrase can do it.
func (a *authService) RegenerateRecoveryCodes(ctx context.Context) ([]string, error) {
	if !a.session.Unlocked() {
		return nil, common.ErrKeyUnavailable
	}
	codes, err := a.client.RegenerateRecoveryCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("regenerate recovery codes error: %w", err)
	}
	a.logger.Info(ctx, "recovery codes regenerated", "count", len(codes))
	return codes, nil
}

// ResetPassphrase replaces the key info with one derived from passphrase,
// authorised by a recovery code, and unlocks with the new key. Records
// sealed under the previous key stay unreadable: the account key itself is
// new. A rejected code is common.ErrWrongSecret.
func (a *authService) ResetPassphrase(ctx context.Context, recoveryCode, passphrase string) ([]string, error) {
	recoveryCode = strings.TrimSpace(recoveryCode)
	if recoveryCode == "" {
		return nil, fmt.Errorf("%w: recovery code is empty", common.ErrWrongSecret)
	}
	if err := checkPassphrase(passphrase); err != nil {
		return nil, err
	}

	key, info := newKeyInfo(passphrase)
	codes, err := a.client.ResetKeyInfo(ctx, recoveryCode, info)
	if err != nil {
		key.Wipe()
		return nil, fmt.Errorf("reset key info error: %w", err)
	}

	a.cacheKeyInfo(ctx, info)
	a.session.Clear()
	a.session.SetKey(key, session.UnlockPassphrase)
	a.logger.Warn(ctx, "passphrase reset with a recovery code; earlier records cannot be decrypted")
	return codes, nil
}

// keyInfo prefers the server copy and falls back to the cached one only when
// the server is unreachable.
func (a *authService) keyInfo(ctx context.Context) (*models.KeyInfo, error) {
	info, err := a.client.GetKeyInfo(ctx)
	if err == nil {
		a.cacheKeyInfo(ctx, info)
		return info, nil
	}
	if !errors.Is(err, common.ErrUnavailable) {
		return nil, fmt.Errorf("get key info error: %w", err)
	}

	cached, mErr := a.metadata.CachedKeyInfo(ctx)
	if mErr != nil || cached == nil {
		return nil, fmt.Errorf("get key info error: %w", err)
	}
	a.logger.Warn(ctx, "server unreachable, using cached key info")
	return cached, nil
}

func (a *authService) cacheKeyInfo(ctx context.Context, info *models.KeyInfo) {
	if err := a.metadata.CacheKeyInfo(ctx, info); err != nil {
		a.logger.Warn(ctx, "failed to cache key info", "error", err)
	}
}

const minPassphraseLength = 12

// ValidatePassphrase lists the strength rules a new passphrase breaks. An
// empty result means the passphrase is acceptable.
func ValidatePassphrase(p string) []string {
	var problems []string
	if len([]rune(p)) < minPassphraseLength {
		problems = append(problems, fmt.Sprintf("at least %d characters", minPassphraseLength))
	}

	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper {
		problems = append(problems, "an uppercase letter")
	}
	if !lower {
		problems = append(problems, "a lowercase letter")
	}
	if !digit {
		problems = append(problems, "a digit")
	}
	if !special {
		problems = append(problems, "a special character")
	}
	return problems
}
