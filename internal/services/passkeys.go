package services

import (
	"errors"
	"fmt"

	"github.com/bookeasy/backend/internal/models"
	"github.com/bookeasy/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PasskeyService is the registry of bound credentials. It owns the derived
// biometric flag: removal of the last passkey is the only path that clears
// it.
type PasskeyService struct {
	DB       *gorm.DB
	Accounts *AccountService
}

func NewPasskeyService(db *gorm.DB, accounts *AccountService) *PasskeyService {
	return &PasskeyService{DB: db, Accounts: accounts}
}

// List returns the account's passkeys newest-first. Secret material is
// excluded from serialization by the model's field tags.
func (s *PasskeyService) List(userID uuid.UUID) ([]models.Passkey, error) {
	var passkeys []models.Passkey
	if err := s.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&passkeys).Error; err != nil {
		return nil, fmt.Errorf("listing passkeys: %w", err)
	}
	return passkeys, nil
}

func (s *PasskeyService) Rename(userID, passkeyID uuid.UUID, newName string) (*models.Passkey, error) {
	result := s.DB.Model(&models.Passkey{}).
		Where("id = ? AND user_id = ?", passkeyID, userID).
		Update("name", newName)
	if result.Error != nil {
		return nil, fmt.Errorf("renaming passkey: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var passkey models.Passkey
	if err := s.DB.First(&passkey, "id = ?", passkeyID).Error; err != nil {
		return nil, fmt.Errorf("loading passkey: %w", err)
	}
	return &passkey, nil
}

func (s *PasskeyService) Remove(userID, passkeyID uuid.UUID) error {
	var passkey models.Passkey
	if err := s.DB.First(&passkey, "id = ? AND user_id = ?", passkeyID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("loading passkey: %w", err)
	}

	if err := s.DB.Delete(&passkey).Error; err != nil {
		return fmt.Errorf("deleting passkey: %w", err)
	}

	var remaining int64
	if err := s.DB.Model(&models.Passkey{}).Where("user_id = ?", userID).Count(&remaining).Error; err != nil {
		return fmt.Errorf("counting passkeys: %w", err)
	}
	if remaining == 0 {
		if err := s.Accounts.SetBiometricEnabled(userID, false); err != nil {
			return err
		}
	}

	logger.Info("passkey_removed", map[string]interface{}{
		"user_id":    userID.String(),
		"passkey_id": passkeyID.String(),
		"remaining":  remaining,
	})

	return nil
}
