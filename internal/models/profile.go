package models

import "github.com/google/uuid"

type Profile struct {
	BaseModel
	UserID    uuid.UUID `json:"userID" gorm:"type:uuid;uniqueIndex;not null"`
	FirstName string    `json:"firstName" gorm:"type:varchar(100);not null"`
	LastName  string    `json:"lastName" gorm:"type:varchar(100);not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(30)"`
	User      User      `json:"-" gorm:"foreignKey:UserID"`
}
