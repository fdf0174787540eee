package models

import (
	"time"

	"github.com/google/uuid"
)

// LoginChallenge is the pending passkey authentication ceremony for a user.
// Same latest-wins invariant as RegistrationChallenge.
type LoginChallenge struct {
	BaseModel
	UserID      uuid.UUID `json:"-" gorm:"type:uuid;uniqueIndex;not null"`
	Challenge   []byte    `json:"-" gorm:"not null"`
	SessionData string    `json:"-" gorm:"type:text;not null"`
	ExpiresAt   time.Time `json:"-" gorm:"not null;index"`
}
