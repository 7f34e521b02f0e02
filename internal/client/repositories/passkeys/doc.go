// Package passkeys persists the locally known passkey credentials and their
// key backup state.
//
// The server only knows whether a wrapped key exists for a credential. The
// pending state (PRF reported at registration, key not yet wrapped) and the
// unsupported state are client knowledge and live here, so the CLI can offer
// to finish a pending backup later.
//
// Typical usage:
//
//	repo := passkeys.NewSQLiteRepository(db)
//	_ = repo.Upsert(ctx, &models.PasskeyCredential{ID: id, Name: "Laptop", BackupState: models.KeyBackupPending})
//	_ = repo.SetBackupState(ctx, id, models.KeyBackupEnabled)
//	list, _ := repo.GetAll(ctx)
package passkeys
