package models

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleCustomer UserRole = "customer"
	UserRoleOperator UserRole = "operator"
	UserRoleAdmin    UserRole = "admin"
)

type User struct {
	BaseModel
	Email            string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash     string     `json:"-" gorm:"type:text;not null"`
	Role             UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'customer'"`
	Verified         bool       `json:"verified" gorm:"not null;default:false"`
	ProfileComplete  bool       `json:"profileComplete" gorm:"not null;default:false"`
	BiometricEnabled bool       `json:"biometricEnabled" gorm:"not null;default:false"`
	ProfileID        *uuid.UUID `json:"profileID,omitempty" gorm:"type:uuid"`
	Passkeys         []Passkey  `json:"-" gorm:"foreignKey:UserID"`
}
