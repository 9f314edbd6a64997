package models

import "time"

type OTPPurpose string

const (
	PurposeEmailVerification OTPPurpose = "email_verification"
	PurposePasswordReset     OTPPurpose = "password_reset"
)

func (p OTPPurpose) Valid() bool {
	return p == PurposeEmailVerification || p == PurposePasswordReset
}

// OTPRecord — одна живая запись на (user, purpose).
// Храним только bcrypt-хэш кода.
type OTPRecord struct {
	ID         int64      `json:"id"`
	UserID     string     `json:"user_id"`
	Purpose    OTPPurpose `json:"purpose"`
	CodeHash   string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"` // only used for password_reset
}
