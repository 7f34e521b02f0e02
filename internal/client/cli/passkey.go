package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
)

var errPasskeyUsage = errors.New("usage: passkey register [name] | passkey backup | passkey unlock | passkey list | passkey remove <id>")

func (a *App) Passkey(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errPasskeyUsage
	}

	switch args[0] {
	case "register":
		return a.registerPasskey(ctx, strings.Join(args[1:], " "))
	case "backup":
		return a.backupToPasskey(ctx)
	case "unlock":
		return a.unlockWithPasskey(ctx)
	case "list":
		return a.listPasskeys(ctx)
	case "remove":
		if len(args) != 2 {
			return errPasskeyUsage
		}
		return a.removePasskey(ctx, args[1])
	}
	return errPasskeyUsage
}

func (a *App) registerPasskey(ctx context.Context, name string) error {
	cred, err := a.passkeyService.Register(ctx, name)
	if err != nil {
		return err
	}
	success("Passkey %q registered", cred.Name)
	switch cred.BackupState {
	case models.KeyBackupEnabled:
		hint("It can unlock the key on this account")
	case models.KeyBackupPending:
		hint("Run 'passkey backup' while unlocked to let it unlock the key")
	case models.KeyBackupUnsupported:
		hint("This authenticator has no PRF support; keep using the passphrase")
	}
	return nil
}

func (a *App) backupToPasskey(ctx context.Context) error {
	if err := a.requireUnlocked(); err != nil {
		return err
	}
	cred, err := a.passkeyService.EnableKeyBackup(ctx)
	if err != nil {
		return err
	}
	success("Key backed up to passkey %q", cred.Name)
	return nil
}

func (a *App) unlockWithPasskey(ctx context.Context) error {
	if a.isUnlocked() {
		say("Already unlocked")
		return nil
	}
	ok, err := a.passkeyService.Unlock(ctx)
	if err != nil {
		return err
	}
	if !ok {
		warn("This passkey cannot unlock the key")
		hint("Use 'unlock' with the passphrase")
		return nil
	}
	success("Unlocked with passkey")
	return a.afterUnlock(ctx)
}

// listPasskeys shows the account's credentials. When the server cannot be
// reached it falls back to the states cached on this device.
func (a *App) listPasskeys(ctx context.Context) error {
	list, err := a.passkeyService.List(ctx)
	if errors.Is(err, common.ErrUnavailable) {
		warn("Server unreachable, showing passkeys known to this device")
		return a.listLocalPasskeys(ctx)
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		say("No passkeys registered")
		return nil
	}
	for _, p := range list {
		used := "never used"
		if p.LastUsedAt != nil {
			used = "used " + formatDay(*p.LastUsedAt)
		}
		say("%-10s  %-24s  %-12s  %s", p.ID, p.Name, p.BackupState, used)
	}
	return nil
}

func (a *App) listLocalPasskeys(ctx context.Context) error {
	creds, err := a.passkeyService.BackupStates(ctx)
	if err != nil {
		return err
	}
	if len(creds) == 0 {
		say("No passkeys registered on this device")
		return nil
	}
	for _, c := range creds {
		say("%-24s  %-12s  %s", c.Name, c.BackupState, c.ID)
	}
	return nil
}

func (a *App) removePasskey(ctx context.Context, id string) error {
	if err := a.passkeyService.Delete(ctx, id); err != nil {
		return err
	}
	success("Passkey %s removed", id)
	return nil
}
