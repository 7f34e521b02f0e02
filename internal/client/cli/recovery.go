package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/vibedtracker/internal/client/services"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
)

var errRecoveryUsage = errors.New("usage: recovery status | recovery regenerate | recovery reset")

func (a *App) Recovery(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errRecoveryUsage
	}

	switch args[0] {
	case "status":
		return a.recoveryStatus(ctx)
	case "regenerate":
		return a.regenerateRecoveryCodes(ctx)
	case "reset":
		return a.resetPassphrase(ctx)
	}
	return errRecoveryUsage
}

func (a *App) recoveryStatus(ctx context.Context) error {
	n, err := a.authService.RecoveryStatus(ctx)
	if err != nil {
		return err
	}
	say("%d unused recovery codes", n)
	if n == 0 {
		hint("Run 'recovery regenerate' while unlocked to issue new codes")
	}
	return nil
}

func (a *App) regenerateRecoveryCodes(ctx context.Context) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	codes, err := a.authService.RegenerateRecoveryCodes(ctx)
	if err != nil {
		return err
	}
	success("New recovery codes issued; the old ones no longer work")
	printRecoveryCodes(codes)
	return nil
}

// resetPassphrase replaces a forgotten passphrase. The records sealed under
// the old key stay unreadable, so the user confirms first.
func (a *App) resetPassphrase(ctx context.Context) error {
	warn("Resetting the passphrase creates a new key; existing records cannot be decrypted afterwards")
	ok, err := Confirm(a.reader, "Continue?", os.Stdout)
	if err != nil {
		return err
	}
	if !ok {
		say("Cancelled")
		return nil
	}

	code, err := getSimpleText(a.reader, "Recovery code", os.Stdout)
	if err != nil {
		return err
	}

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
		codes, err = a.authService.ResetPassphrase(ctx, code, pass)
		return err
	})
	switch {
	case errors.Is(err, common.ErrTooManyAttempts):
		return errors.New("too many failed attempts, try again later")
	case errors.Is(err, common.ErrWrongSecret):
		return errors.New("invalid recovery code")
	case err != nil:
		return err
	}

	success("Passphrase reset, session unlocked")
	printRecoveryCodes(codes)
	return a.afterUnlock(ctx)
}

func printRecoveryCodes(codes []string) {
	if len(codes) == 0 {
		return
	}
	hint("Store these recovery codes somewhere safe. Each works once:")
	for _, c := range codes {
		say("  %s", c)
	}
}
