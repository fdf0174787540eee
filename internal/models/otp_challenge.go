package models

import (
	"time"

	"github.com/google/uuid"
)

type OTPPurpose string

const (
	OTPPurposeRegistration  OTPPurpose = "registration"
	OTPPurposeResend        OTPPurpose = "resend"
	OTPPurposePasswordReset OTPPurpose = "password_reset"
)

// OTPChallenge holds the single live emailed code for a user. The unique
// index on UserID enforces the one-live-code invariant at the storage layer.
type OTPChallenge struct {
	BaseModel
	UserID    uuid.UUID  `json:"-" gorm:"type:uuid;uniqueIndex;not null"`
	Code      string     `json:"-" gorm:"type:varchar(6);not null"`
	Purpose   OTPPurpose `json:"-" gorm:"type:varchar(20);not null"`
	ExpiresAt time.Time  `json:"-" gorm:"not null;index"`
}
