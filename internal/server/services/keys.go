package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/dbx"
	"github.com/dmitrijs2005/vibedtracker/internal/server/models"
	"github.com/dmitrijs2005/vibedtracker/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

const (
	recoveryCodeCount = 10
	recoveryCodeBytes = 8

	maxRecoveryAttempts = 5
	recoveryWindow      = 15 * time.Minute
)

// recoveryCodeCost is the bcrypt cost of stored recovery codes.
var recoveryCodeCost = bcrypt.DefaultCost

// KeyService keeps the passphrase salt and verification hash of an account,
// and the recovery codes that allow replacing them.
type KeyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time

	mu       sync.Mutex
	attempts map[string]*rate.Limiter
}

func NewKeyService(db *sql.DB, m repomanager.RepositoryManager) *KeyService {
	return &KeyService{
		db:          db,
		repomanager: m,
		now:         time.Now,
		attempts:    make(map[string]*rate.Limiter),
	}
}

// inTx runs fn in a transaction. Without a database the repositories are
// in memory and fn runs directly.
func (s *KeyService) inTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}

func checkKeyMaterial(salt, verificationHash []byte) error {
	if len(salt) == 0 || len(verificationHash) == 0 {
		return fmt.Errorf("key_salt and key_verification_hash are required: %w", common.ErrInvalidRecord)
	}
	return nil
}

// Get returns the key info, common.ErrNotFound before setup.
func (s *KeyService) Get(ctx context.Context, userID string) (*models.KeyInfo, error) {
	return s.repomanager.Keys(s.db).Get(ctx, userID)
}

// Set stores key info once and issues the first recovery codes; a second
// call yields common.ErrAlreadySetUp.
func (s *KeyService) Set(ctx context.Context, userID string, salt, verificationHash []byte) ([]string, error) {
	if err := checkKeyMaterial(salt, verificationHash); err != nil {
		return nil, err
	}

	codes, hashes, err := newRecoveryCodes()
	if err != nil {
		return nil, err
	}
	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		err := s.repomanager.Keys(tx).Create(ctx, &models.KeyInfo{
			UserID:           userID,
			Salt:             salt,
			VerificationHash: verificationHash,
		})
		if err != nil {
			return err
		}
		return s.repomanager.Recovery(tx).Replace(ctx, userID, hashes)
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// RecoveryStatus returns the number of unused recovery codes.
func (s *KeyService) RecoveryStatus(ctx context.Context, userID string) (int, error) {
	codes, err := s.repomanager.Recovery(s.db).ListUnused(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(codes), nil
}

// RegenerateRecoveryCodes replaces the unused codes with a fresh set. The
// account must have key info.
func (s *KeyService) RegenerateRecoveryCodes(ctx context.Context, userID string) ([]string, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	codes, hashes, err := newRecoveryCodes()
	if err != nil {
		return nil, err
	}
	if err := s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Recovery(tx).Replace(ctx, userID, hashes)
	}); err != nil {
		return nil, err
	}
	return codes, nil
}

// ResetWithRecoveryCode spends code and replaces the key info. The remaining
// codes are replaced too, and the new set is returned.
//
// A code that matches nothing is common.ErrWrongSecret. Failures are limited
// per account; past the limit every attempt is common.ErrTooManyAttempts
// until the window refills.
func (s *KeyService) ResetWithRecoveryCode(ctx context.Context, userID, code string, salt, verificationHash []byte) ([]string, error) {
	if err := checkKeyMaterial(salt, verificationHash); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	lim := s.limiterLocked(userID, now)
	if lim.TokensAt(now) < 1 {
		return nil, common.ErrTooManyAttempts
	}

	match, err := s.matchRecoveryCode(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if match == "" {
		lim.AllowN(now, 1)
		return nil, fmt.Errorf("%w: invalid recovery code", common.ErrWrongSecret)
	}

	codes, hashes, err := newRecoveryCodes()
	if err != nil {
		return nil, err
	}
	err = s.inTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Recovery(tx).MarkUsed(ctx, match); err != nil {
			return err
		}
		err := s.repomanager.Keys(tx).Update(ctx, &models.KeyInfo{
			UserID:           userID,
			Salt:             salt,
			VerificationHash: verificationHash,
		})
		if err != nil {
			return err
		}
		return s.repomanager.Recovery(tx).Replace(ctx, userID, hashes)
	})
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: recovery code already used", common.ErrWrongSecret)
	}
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// matchRecoveryCode returns the id of the unused code equal to code, or ""
// when none matches.
func (s *KeyService) matchRecoveryCode(ctx context.Context, userID, code string) (string, error) {
	code = normalizeRecoveryCode(code)
	if code == "" {
		return "", nil
	}
	stored, err := s.repomanager.Recovery(s.db).ListUnused(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, c := range stored {
		if bcrypt.CompareHashAndPassword(c.CodeHash, []byte(code)) == nil {
			return c.ID, nil
		}
	}
	return "", nil
}

// limiterLocked returns the attempt bucket of userID and drops buckets that
// have refilled completely. s.mu must be held.
func (s *KeyService) limiterLocked(userID string, now time.Time) *rate.Limiter {
	for id, l := range s.attempts {
		if id != userID && l.TokensAt(now) >= maxRecoveryAttempts {
			delete(s.attempts, id)
		}
	}
	lim := s.attempts[userID]
	if lim == nil {
		lim = rate.NewLimiter(rate.Every(recoveryWindow/maxRecoveryAttempts), maxRecoveryAttempts)
		s.attempts[userID] = lim
	}
	return lim
}

// newRecoveryCodes returns fresh plaintext codes and their bcrypt hashes.
func newRecoveryCodes() ([]string, [][]byte, error) {
	codes := make([]string, recoveryCodeCount)
	hashes := make([][]byte, recoveryCodeCount)
	for i := range codes {
		codes[i] = hex.EncodeToString(common.GenerateRandByteArray(recoveryCodeBytes))
		h, err := bcrypt.GenerateFromPassword([]byte(codes[i]), recoveryCodeCost)
		if err != nil {
			return nil, nil, fmt.Errorf("hash recovery code: %w", err)
		}
		hashes[i] = h
	}
	return codes, hashes, nil
}

// normalizeRecoveryCode accepts codes typed with spaces, dashes or upper case.
func normalizeRecoveryCode(code string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '-' || r == ' ' || r == '\t':
			return -1
		case r >= 'A' && r <= 'F':
			return r + ('a' - 'A')
		}
		return r
	}, code)
}
