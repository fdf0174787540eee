package models

import (
	"time"

	"github.com/google/uuid"
)

// RegistrationChallenge is the pending passkey enrollment ceremony for a
// user. At most one exists per user; starting a new enrollment replaces it.
type RegistrationChallenge struct {
	BaseModel
	UserID      uuid.UUID `json:"-" gorm:"type:uuid;uniqueIndex;not null"`
	Challenge   []byte    `json:"-" gorm:"not null"`
	SessionData string    `json:"-" gorm:"type:text;not null"`
	ExpiresAt   time.Time `json:"-" gorm:"not null;index"`
}
