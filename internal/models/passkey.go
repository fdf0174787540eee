package models

import (
	"time"

	"github.com/google/uuid"
)

type Passkey struct {
	BaseModel
	UserID          uuid.UUID  `json:"-" gorm:"type:uuid;index;not null"`
	CredentialID    []byte     `json:"-" gorm:"uniqueIndex;not null"`
	PublicKey       []byte     `json:"-" gorm:"not null"`
	AttestationType string     `json:"-"`
	AAGUID          []byte     `json:"-"`
	SignCount       uint32     `json:"-" gorm:"default:0"`
	Transports      string     `json:"-" gorm:"type:text"`
	BackupEligible  bool       `json:"-" gorm:"default:false"`
	BackupState     bool       `json:"-" gorm:"default:false"`
	Name            string     `json:"name" gorm:"type:varchar(100)"`
	DeviceType      string     `json:"deviceType" gorm:"type:varchar(50)"`
	LastUsedAt      *time.Time `json:"lastUsedAt,omitempty"`
}
