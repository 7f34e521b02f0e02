package models

// RecoveryCode is one bcrypt-hashed passphrase recovery code. A code is
// spent by marking it used; spent codes are kept for auditing.
type RecoveryCode struct {
	ID       string
	UserID   string
	CodeHash []byte
	Used     bool
}
