package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/services"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errPassphraseMismatch = errors.New("passphrases do not match")

func (a *App) requireUnlocked() error {
	if !a.isUnlocked() {
		return fmt.Errorf("%w: run 'unlock' first", common.ErrKeyUnavailable)
	}
	return nil
}

func (a *App) readPassphrase(prompt string) (string, error) {
	pw, err := getPassword(os.Stdout, prompt)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Setup creates the passphrase for an account without key info and unlocks.
func (a *App) Setup(ctx context.Context) error {
	pass, err := a.readPassphrase("New passphrase")
	if err != nil {
		return err
	}
	if problems := services.ValidatePassphrase(pass); len(problems) > 0 {
		return fmt.Errorf("%w: %s", common.ErrWeakPassphrase, strings.Join(problems, "; "))
	}

	again, err := a.readPassphrase("Repeat passphrase")
	if err != nil {
		return err
	}
	if pass != again {
		return errPassphraseMismatch
	}

	var codes []string
	err = a.withSpinner(ctx, "Deriving key...", func() error {
		codes, err = a.authService.SetupPassphrase(ctx, pass)
		return err
	})
	if err != nil {
		return err
	}

	success("Encryption set up, session unlocked")
	hint("The passphrase itself cannot be recovered. A recovery code can replace it, but records sealed under the old key are lost.")
	printRecoveryCodes(codes)
	return a.afterUnlock(ctx)
}

// Unlock tries a passkey with key backup first and falls back to the
// passphrase.
func (a *App) Unlock(ctx context.Context) error {
	if a.isUnlocked() {
		say("Already unlocked")
		return nil
	}

	if a.hasPasskeyBackup(ctx) {
		ok, err := a.passkeyService.Unlock(ctx)
		switch {
		case err != nil:
			warn("Passkey unlock failed: %v", err)
		case ok:
			success("Unlocked with passkey")
			return a.afterUnlock(ctx)
		default:
			warn("This passkey cannot unlock the key")
		}
		hint("Falling back to the passphrase")
	}

	pass, err := a.readPassphrase("Passphrase")
	if err != nil {
		return err
	}

	err = a.withSpinner(ctx, "Unlocking...", func() error {
		return a.authService.UnlockWithPassphrase(ctx, pass)
	})
	if err != nil {
		if errors.Is(err, common.ErrWrongSecret) {
			return errors.New("wrong passphrase")
		}
		return err
	}

	success("Unlocked")
	return a.afterUnlock(ctx)
}

func (a *App) hasPasskeyBackup(ctx context.Context) bool {
	if a.passkeyService == nil || !a.passkeyService.Supported() {
		return false
	}
	creds, err := a.passkeyService.BackupStates(ctx)
	if err != nil {
		a.logger.Warn(ctx, "reading passkey states", "error", err)
		return false
	}
	for _, c := range creds {
		if c.BackupState == models.KeyBackupEnabled {
			return true
		}
	}
	return false
}

// afterUnlock restores a live entry left running by an earlier session.
func (a *App) afterUnlock(ctx context.Context) error {
	if err := a.tracking.Init(ctx); err != nil {
		return fmt.Errorf("restoring tracking state: %w", err)
	}
	if cur := a.tracking.Current(); cur != nil {
		say("Resumed tracking started at %s (%s)", formatClock(cur.Start.Time), cur.WorkModeIndex)
	}
	return nil
}

// Lock wipes the key. The tracker forgets the live entry; it stays running
// on the server and is restored on the next unlock.
func (a *App) Lock(ctx context.Context) error {
	a.authService.Lock()
	success("Locked")
	return nil
}
