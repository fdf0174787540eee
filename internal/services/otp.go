package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/bookeasy/backend/internal/email"
	"github.com/bookeasy/backend/internal/models"
	"github.com/bookeasy/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const DefaultOTPTTL = 600 * time.Second

// OTPService issues and validates the short emailed codes used to confirm
// control of an email address.
type OTPService struct {
	DB     *gorm.DB
	Sender email.Sender
	TTL    time.Duration
}

func NewOTPService(db *gorm.DB, sender email.Sender, ttl time.Duration) *OTPService {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPService{DB: db, Sender: sender, TTL: ttl}
}

// Issue replaces any live code for the user with a fresh one and emails it.
// The replace and the send happen inside one transaction: a failed send
// rolls the new code back so a dead SMTP server cannot strand an
// undeliverable live OTP.
func (s *OTPService) Issue(userID uuid.UUID, purpose models.OTPPurpose) (string, error) {
	var user models.User
	if err := s.DB.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("loading account: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.OTPChallenge{}).Error; err != nil {
			return fmt.Errorf("clearing previous code: %w", err)
		}

		challenge := models.OTPChallenge{
			UserID:    userID,
			Code:      code,
			Purpose:   purpose,
			ExpiresAt: time.Now().Add(s.TTL),
		}
		if err := tx.Create(&challenge).Error; err != nil {
			return fmt.Errorf("storing code: %w", err)
		}

		subject, htmlBody, textBody := email.OTPMessage(purpose, code)
		return s.Sender.Send(user.Email, subject, htmlBody, textBody)
	})
	if err != nil {
		return "", err
	}

	logger.Info("otp_issued", map[string]interface{}{
		"user_id": userID.String(),
		"purpose": string(purpose),
	})

	return code, nil
}

// Validate checks the submitted code and consumes it, returning the purpose
// it was issued for. The consuming delete is guarded by RowsAffected so two
// racing validations cannot both succeed.
func (s *OTPService) Validate(userID uuid.UUID, submittedCode string) (models.OTPPurpose, error) {
	var challenge models.OTPChallenge
	err := s.DB.First(&challenge, "user_id = ? AND code = ?", userID, submittedCode).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrMismatch
		}
		return "", fmt.Errorf("loading code: %w", err)
	}

	if time.Now().After(challenge.ExpiresAt) {
		s.DB.Where("id = ?", challenge.ID).Delete(&models.OTPChallenge{})
		return "", ErrExpired
	}

	result := s.DB.Where("id = ?", challenge.ID).Delete(&models.OTPChallenge{})
	if result.Error != nil {
		return "", fmt.Errorf("consuming code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Lost the race against a concurrent validation or reissue.
		return "", ErrMismatch
	}

	return challenge.Purpose, nil
}

func generateCode() (string, error) {
	// Uniform in [100000, 999999].
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
