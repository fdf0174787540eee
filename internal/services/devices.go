package services

import (
	"time"

	"github.com/bookeasy/backend/internal/models"
	"github.com/bookeasy/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceService keeps the informational device-to-account binding current.
// Failures are logged and swallowed; this data never gates authentication.
type DeviceService struct {
	DB *gorm.DB
}

func NewDeviceService(db *gorm.DB) *DeviceService {
	return &DeviceService{DB: db}
}

func (s *DeviceService) RecordLogin(token string, userID uuid.UUID, deviceType string, method models.LoginMethod) {
	device := models.Device{
		Token:           token,
		UserID:          userID,
		DeviceType:      deviceType,
		LastLoginMethod: method,
		LastLoginAt:     time.Now(),
	}

	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id", "device_type", "last_login_method", "last_login_at", "updated_at",
		}),
	}).Create(&device).Error
	if err != nil {
		logger.Warn("device_binding_failed", map[string]interface{}{
			"user_id": userID.String(),
			"error":   err.Error(),
		})
	}
}
