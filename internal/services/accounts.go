package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bookeasy/backend/internal/models"
	"github.com/bookeasy/backend/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountService owns credential records and the verification, profile and
// biometric flags on them.
type AccountService struct {
	DB *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{DB: db}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) Create(email, rawPassword string, role models.UserRole) (*models.User, error) {
	email = NormalizeEmail(email)

	var existing models.User
	if err := s.DB.First(&existing, "email = ?", email).Error; err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("checking existing account: %w", err)
	}

	hash, err := utils.HashPassword(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		// Two concurrent signups can pass the pre-check; the unique index
		// on email decides the winner.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}

	return &user, nil
}

func (s *AccountService) AuthenticatePassword(email, rawPassword string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "email = ?", NormalizeEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading account: %w", err)
	}

	if !utils.CheckPassword(rawPassword, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

func (s *AccountService) GetByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return &user, nil
}

func (s *AccountService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, "email = ?", NormalizeEmail(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return &user, nil
}

func (s *AccountService) MarkVerified(id uuid.UUID) error {
	return s.updateFields(id, map[string]interface{}{"verified": true})
}

func (s *AccountService) MarkProfileComplete(id uuid.UUID, profileID uuid.UUID) error {
	return s.updateFields(id, map[string]interface{}{
		"profile_complete": true,
		"profile_id":       profileID,
	})
}

func (s *AccountService) SetPassword(id uuid.UUID, newHash string) error {
	return s.updateFields(id, map[string]interface{}{"password_hash": newHash})
}

// SetBiometricEnabled keeps the derived flag in sync with the passkey
// registry. Only the registry and the enrollment flow call it.
func (s *AccountService) SetBiometricEnabled(id uuid.UUID, enabled bool) error {
	return s.updateFields(id, map[string]interface{}{"biometric_enabled": enabled})
}

func (s *AccountService) updateFields(id uuid.UUID, fields map[string]interface{}) error {
	var user models.User
	if err := s.DB.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("loading account: %w", err)
	}

	if err := s.DB.Model(&user).Updates(fields).Error; err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	return nil
}
