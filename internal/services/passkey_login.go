package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bookeasy/backend/internal/models"
	"github.com/bookeasy/backend/pkg/logger"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PasskeyLoginService runs the authentication ceremony against a bound
// passkey.
type PasskeyLoginService struct {
	DB       *gorm.DB
	WebAuthn CeremonyProvider
	Devices  *DeviceService
}

func NewPasskeyLoginService(db *gorm.DB, wa CeremonyProvider, devices *DeviceService) *PasskeyLoginService {
	return &PasskeyLoginService{DB: db, WebAuthn: wa, Devices: devices}
}

// Begin issues a fresh login challenge for the account, replacing any prior
// pending one. Accounts without passkeys cannot start the ceremony.
func (s *PasskeyLoginService) Begin(userID uuid.UUID) (*protocol.CredentialAssertion, error) {
	waUser, err := loadWebAuthnUser(s.DB, userID)
	if err != nil {
		return nil, err
	}

	if len(waUser.creds) == 0 {
		return nil, ErrBiometricNotEnabled
	}

	options, session, err := s.WebAuthn.BeginLogin(waUser)
	if err != nil {
		return nil, fmt.Errorf("beginning login: %w", err)
	}

	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.LoginChallenge{}).Error; err != nil {
			return fmt.Errorf("clearing previous challenge: %w", err)
		}
		challenge := models.LoginChallenge{
			UserID:      userID,
			Challenge:   []byte(session.Challenge),
			SessionData: string(sessionJSON),
			ExpiresAt:   time.Now().Add(challengeExpiry),
		}
		if err := tx.Create(&challenge).Error; err != nil {
			return fmt.Errorf("storing challenge: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return options, nil
}

// Finish verifies the assertion, consumes the challenge, records passkey
// usage and optionally binds the device. The caller issues the session
// token on success.
func (s *PasskeyLoginService) Finish(userID uuid.UUID, response *protocol.ParsedCredentialAssertionData, deviceToken, deviceType string) (*models.User, error) {
	var challenge models.LoginChallenge
	err := s.DB.First(&challenge, "user_id = ? AND expires_at > ?", userID, time.Now()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("loading challenge: %w", err)
	}

	var session webauthn.SessionData
	if err := json.Unmarshal([]byte(challenge.SessionData), &session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}

	waUser, err := loadWebAuthnUser(s.DB, userID)
	if err != nil {
		return nil, err
	}

	var owned models.Passkey
	err = s.DB.First(&owned, "user_id = ? AND credential_id = ?", userID, []byte(response.RawID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("loading passkey: %w", err)
	}

	credential, err := s.WebAuthn.ValidateLogin(waUser, session, response)
	if err != nil {
		return nil, ErrVerificationFailed
	}

	result := s.DB.Where("id = ?", challenge.ID).Delete(&models.LoginChallenge{})
	if result.Error != nil {
		return nil, fmt.Errorf("consuming challenge: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrChallengeNotFound
	}

	now := time.Now()
	if err := s.DB.Model(&models.Passkey{}).
		Where("user_id = ? AND credential_id = ?", userID, credential.ID).
		Updates(map[string]interface{}{
			"sign_count":   credential.Authenticator.SignCount,
			"last_used_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("recording passkey use: %w", err)
	}

	if deviceToken != "" {
		s.Devices.RecordLogin(deviceToken, userID, deviceType, models.LoginMethodBiometric)
	}

	logger.Info("passkey_login", map[string]interface{}{
		"user_id": userID.String(),
	})

	return &waUser.user, nil
}
