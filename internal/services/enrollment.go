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

// EnrollmentService runs the two-phase ceremony that binds a new passkey to
// an already-authenticated account.
type EnrollmentService struct {
	DB       *gorm.DB
	WebAuthn CeremonyProvider
	Accounts *AccountService
}

func NewEnrollmentService(db *gorm.DB, wa CeremonyProvider, accounts *AccountService) *EnrollmentService {
	return &EnrollmentService{DB: db, WebAuthn: wa, Accounts: accounts}
}

// Begin issues a fresh registration challenge, replacing any prior pending
// one for the account (latest wins).
func (s *EnrollmentService) Begin(userID uuid.UUID) (*protocol.CredentialCreation, error) {
	waUser, err := loadWebAuthnUser(s.DB, userID)
	if err != nil {
		return nil, err
	}

	options, session, err := s.WebAuthn.BeginRegistration(waUser)
	if err != nil {
		return nil, fmt.Errorf("beginning registration: %w", err)
	}

	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.RegistrationChallenge{}).Error; err != nil {
			return fmt.Errorf("clearing previous challenge: %w", err)
		}
		challenge := models.RegistrationChallenge{
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

// Finish verifies the client's ceremony response against the stored
// challenge, consumes the challenge, creates the passkey and flips the
// account's biometric flag.
func (s *EnrollmentService) Finish(userID uuid.UUID, response *protocol.ParsedCredentialCreationData, name, deviceType string) (*models.Passkey, error) {
	var challenge models.RegistrationChallenge
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

	credential, err := s.WebAuthn.CreateCredential(waUser, session, response)
	if err != nil {
		return nil, ErrVerificationFailed
	}

	var existing int64
	if err := s.DB.Model(&models.Passkey{}).Where("credential_id = ?", credential.ID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("checking credential uniqueness: %w", err)
	}
	if existing > 0 {
		return nil, ErrDuplicateCredential
	}

	if name == "" {
		name = "Passkey"
	}

	passkey := models.Passkey{
		UserID:          userID,
		CredentialID:    credential.ID,
		PublicKey:       credential.PublicKey,
		AttestationType: credential.AttestationType,
		AAGUID:          credential.Authenticator.AAGUID,
		SignCount:       credential.Authenticator.SignCount,
		Transports:      transportsJSON(credential),
		BackupEligible:  credential.Flags.BackupEligible,
		BackupState:     credential.Flags.BackupState,
		Name:            name,
		DeviceType:      deviceType,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", challenge.ID).Delete(&models.RegistrationChallenge{})
		if result.Error != nil {
			return fmt.Errorf("consuming challenge: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrChallengeNotFound
		}

		if err := tx.Create(&passkey).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateCredential
			}
			return fmt.Errorf("storing passkey: %w", err)
		}

		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("biometric_enabled", true).Error; err != nil {
			return fmt.Errorf("enabling biometric flag: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("passkey_enrolled", map[string]interface{}{
		"user_id":    userID.String(),
		"passkey_id": passkey.ID.String(),
		"name":       passkey.Name,
	})

	return &passkey, nil
}
