package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/vibedtracker/internal/client/client"
	"github.com/dmitrijs2005/vibedtracker/internal/client/models"
	"github.com/dmitrijs2005/vibedtracker/internal/client/passkey"
	"github.com/dmitrijs2005/vibedtracker/internal/client/repositories/passkeys"
	"github.com/dmitrijs2005/vibedtracker/internal/client/session"
	"github.com/dmitrijs2005/vibedtracker/internal/common"
	"github.com/dmitrijs2005/vibedtracker/internal/cryptox"
	"github.com/dmitrijs2005/vibedtracker/internal/logging"
)

var errPasskeysUnsupported = fmt.Errorf("%w: passkeys are not available on this platform", common.ErrCeremonyFailed)

// PasskeyService registers passkeys, backs the account key up under a
// passkey's PRF output and unlocks with it.
type PasskeyService interface {
	Supported() bool
	Register(ctx context.Context, name string) (*models.PasskeyCredential, error)
	EnableKeyBackup(ctx context.Context) (*models.PasskeyCredential, error)
	// Unlock reports false with a nil error when the passkey authenticated
	// but cannot unlock the key (no PRF output or no wrapped key stored).
	// Callers then fall back to the passphrase.
	Unlock(ctx context.Context) (bool, error)
	BackupStates(ctx context.Context) ([]models.PasskeyCredential, error)
	// List and Delete manage the credentials registered on the server and
	// work without a platform authenticator.
	List(ctx context.Context) ([]PasskeyInfo, error)
	Delete(ctx context.Context, id string) error
}

// PasskeyInfo is a server-side credential with its key backup state.
type PasskeyInfo struct {
	client.RemotePasskey
	BackupState models.KeyBackupState
}

type passkeyService struct {
	client   client.PasskeyClient
	platform passkey.Platform
	session  *session.Session
	repo     passkeys.Repository
	logger   logging.Logger
}

// NewPasskeyService wires the passkey flows. A nil platform means the host
// cannot run ceremonies; every ceremony then fails with common.ErrCeremonyFailed.
func NewPasskeyService(c client.PasskeyClient, p passkey.Platform, s *session.Session, repo passkeys.Repository, logger logging.Logger) PasskeyService {
	return &passkeyService{client: c, platform: p, session: s, repo: repo, logger: logger}
}

func (s *passkeyService) Supported() bool {
	return passkey.IsSupported(s.platform)
}

// Register creates a credential and records its backup state: pending when
// the authenticator enabled PRF, unsupported otherwise. With PRF and an
// unlocked session the key backup is attempted right away; if that fails the
// credential stays pending and the account remains passphrase-only.
func (s *passkeyService) Register(ctx context.Context, name string) (*models.PasskeyCredential, error) {
	if !s.Supported() {
		return nil, errPasskeysUnsupported
	}

	resp, err := passkey.NewCeremony(s.platform).Register(ctx, s.client.BeginRegistration, name)
	if err != nil {
		return nil, err
	}
	if err := s.client.FinishRegistration(ctx, resp); err != nil {
		return nil, fmt.Errorf("finish registration error: %w", err)
	}

	cred := &models.PasskeyCredential{ID: resp.RawID, Name: resp.Name, BackupState: models.KeyBackupUnsupported}
	if resp.PRFEnabled {
		cred.BackupState = models.KeyBackupPending
	}
	if err := s.repo.Upsert(ctx, cred); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "passkey registered", "credential", cred.ID, "backup", string(cred.BackupState))

	if cred.BackupState == models.KeyBackupPending && s.session.Unlocked() {
		enabled, err := s.EnableKeyBackup(ctx)
		if err != nil {
			s.logger.Warn(ctx, "key backup not completed, credential stays pending", "credential", cred.ID, "error", err)
			return cred, nil
		}
		return enabled, nil
	}
	return cred, nil
}

// EnableKeyBackup authenticates with a passkey, wraps the unlocked key under
// the PRF output and stores the wrapped key for that credential.
func (s *passkeyService) EnableKeyBackup(ctx context.Context) (*models.PasskeyCredential, error) {
	if !s.Supported() {
		return nil, errPasskeysUnsupported
	}
	key, err := s.session.Key()
	if err != nil {
		return nil, err
	}
	defer key.Wipe()

	res, err := passkey.NewCeremony(s.platform).Authenticate(ctx, s.client.BeginAuthentication)
	if err != nil {
		return nil, err
	}
	if _, err := s.client.FinishAuthentication(ctx, res.Response); err != nil {
		return nil, fmt.Errorf("finish authentication error: %w", err)
	}

	credID := res.CredentialID()
	if len(res.PRFOutput) == 0 {
		if err := s.setState(ctx, credID, models.KeyBackupUnsupported); err != nil {
			s.logger.Warn(ctx, "failed to record backup state", "credential", credID, "error", err)
		}
		return nil, fmt.Errorf("%w: authenticator returned no PRF output", common.ErrCeremonyFailed)
	}

	wrapped, nonce, err := cryptox.WrapKey(res.PRFOutput, key)
	common.WipeByteArray(res.PRFOutput)
	if err != nil {
		return nil, fmt.Errorf("wrap key error: %w", err)
	}

	wk := &models.WrappedKey{CredentialID: credID, WrappedKey: wrapped, Nonce: nonce}
	if err := s.client.UpdateWrappedKey(ctx, wk); err != nil {
		return nil, fmt.Errorf("store wrapped key error: %w", err)
	}

	if err := s.setState(ctx, credID, models.KeyBackupEnabled); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "key backup enabled", "credential", credID)
	return s.repo.GetByID(ctx, credID)
}

func (s *passkeyService) Unlock(ctx context.Context) (bool, error) {
	if !s.Supported() {
		return false, errPasskeysUnsupported
	}

	res, err := passkey.NewCeremony(s.platform).Authenticate(ctx, s.client.BeginAuthentication)
	if err != nil {
		return false, err
	}
	defer common.WipeByteArray(res.PRFOutput)

	fin, err := s.client.FinishAuthentication(ctx, res.Response)
	if err != nil {
		return false, fmt.Errorf("finish authentication error: %w", err)
	}

	if len(res.PRFOutput) == 0 || !fin.HasWrappedKey() {
		s.logger.Info(ctx, "passkey cannot unlock the key, passphrase required",
			"credential", res.CredentialID(), "prf", len(res.PRFOutput) > 0, "wrapped_key", fin.HasWrappedKey())
		return false, nil
	}

	key, err := cryptox.UnwrapKey(res.PRFOutput, fin.WrappedKey, fin.KeyNonce)
	if err != nil {
		return false, err
	}

	s.session.SetKey(key, session.UnlockPasskey)
	if err := s.setState(ctx, res.CredentialID(), models.KeyBackupEnabled); err != nil {
		s.logger.Warn(ctx, "failed to record backup state", "credential", res.CredentialID(), "error", err)
	}
	return true, nil
}

func (s *passkeyService) BackupStates(ctx context.Context) ([]models.PasskeyCredential, error) {
	return s.repo.GetAll(ctx)
}

// List merges the server's credentials with the local backup states. A
// wrapped key on the server means backup is enabled whatever this device
// recorded. Local rows for credentials the server no longer knows are
// removed.
func (s *passkeyService) List(ctx context.Context) ([]PasskeyInfo, error) {
	remote, err := s.client.ListPasskeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list passkeys error: %w", err)
	}
	local, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	states := make(map[string]models.KeyBackupState, len(local))
	for _, c := range local {
		states[c.ID] = c.BackupState
	}

	out := make([]PasskeyInfo, 0, len(remote))
	for _, r := range remote {
		state, known := states[r.CredentialID]
		delete(states, r.CredentialID)
		switch {
		case r.HasWrappedKey:
			state = models.KeyBackupEnabled
		case !known:
			state = models.KeyBackupNone
		case state == models.KeyBackupEnabled:
			state = models.KeyBackupPending
		}
		out = append(out, PasskeyInfo{RemotePasskey: r, BackupState: state})
	}

	for id := range states {
		if err := s.repo.DeleteByID(ctx, id); err != nil {
			s.logger.Warn(ctx, "failed to drop stale passkey", "credential", id, "error", err)
		}
	}
	return out, nil
}

// Delete removes a credential by its server id or credential id. Unknown ids
// yield common.ErrNotFound.
func (s *passkeyService) Delete(ctx context.Context, id string) error {
	remote, err := s.client.ListPasskeys(ctx)
	if err != nil {
		return fmt.Errorf("list passkeys error: %w", err)
	}

	idx := slices.IndexFunc(remote, func(r client.RemotePasskey) bool {
		return r.ID == id || r.CredentialID == id
	})
	if idx < 0 {
		return fmt.Errorf("passkey %s: %w", id, common.ErrNotFound)
	}
	target := remote[idx]

	if err := s.client.DeletePasskey(ctx, target.ID); err != nil {
		return fmt.Errorf("delete passkey error: %w", err)
	}
	if err := s.repo.DeleteByID(ctx, target.CredentialID); err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Warn(ctx, "failed to drop local passkey", "credential", target.CredentialID, "error", err)
	}
	s.logger.Info(ctx, "passkey deleted", "credential", target.CredentialID, "wrapped_key", target.HasWrappedKey)
	return nil
}

// setState updates a known credential or records one registered elsewhere.
func (s *passkeyService) setState(ctx context.Context, id string, state models.KeyBackupState) error {
	err := s.repo.SetBackupState(ctx, id, state)
	if errors.Is(err, common.ErrNotFound) {
		return s.repo.Upsert(ctx, &models.PasskeyCredential{ID: id, Name: "Passkey", BackupState: state})
	}
	return err
}
