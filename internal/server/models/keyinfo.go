package models

// KeyInfo is the public passphrase material of an account.
type KeyInfo struct {
	UserID           string
	Salt             []byte
	VerificationHash []byte
}
