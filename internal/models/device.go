package models

import (
	"time"

	"github.com/google/uuid"
)

type LoginMethod string

const (
	LoginMethodPassword  LoginMethod = "password"
	LoginMethodBiometric LoginMethod = "biometric"
)

// Device is an informational binding between an opaque client token and the
// account that most recently authenticated from it. Not security-critical.
type Device struct {
	BaseModel
	Token           string      `json:"-" gorm:"type:varchar(255);uniqueIndex;not null"`
	UserID          uuid.UUID   `json:"userID" gorm:"type:uuid;index;not null"`
	DeviceType      string      `json:"deviceType" gorm:"type:varchar(50)"`
	LastLoginMethod LoginMethod `json:"lastLoginMethod" gorm:"type:varchar(20)"`
	LastLoginAt     time.Time   `json:"lastLoginAt"`
}
