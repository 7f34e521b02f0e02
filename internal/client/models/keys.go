package models

// KeyInfo is the public half of passphrase unlock, issued by the server.
type KeyInfo struct {
	Salt             []byte
	VerificationHash []byte
}

// WrappedKey is the account key encrypted under a passkey PRF-derived key.
type WrappedKey struct {
	CredentialID string
	WrappedKey   []byte
	Nonce        []byte
}

// KeyBackupState tracks whether a passkey credential can unlock the key.
type KeyBackupState string

const (
	KeyBackupNone KeyBackupState = "none"
	// KeyBackupPending means the authenticator reported PRF support at
	// registration but no wrapped key has been stored yet.
	KeyBackupPending     KeyBackupState = "pending"
	KeyBackupEnabled     KeyBackupState = "enabled"
	KeyBackupUnsupported KeyBackupState = "unsupported"
)

// ParseKeyBackupState maps unknown values to KeyBackupNone.
func ParseKeyBackupState(s string) KeyBackupState {
	switch KeyBackupState(s) {
	case KeyBackupPending, KeyBackupEnabled, KeyBackupUnsupported:
		return KeyBackupState(s)
	}
	return KeyBackupNone
}

// PasskeyCredential is the local view of a registered passkey.
type PasskeyCredential struct {
	ID          string
	Name        string
	BackupState KeyBackupState
}
