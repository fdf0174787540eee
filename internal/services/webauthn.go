package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bookeasy/backend/internal/models"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// challengeExpiry bounds how long a ceremony may stay pending.
const challengeExpiry = 5 * time.Minute

// CeremonyProvider is the slice of *webauthn.WebAuthn the challenge
// managers use. Tests inject a deterministic fake.
type CeremonyProvider interface {
	BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error)
	CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error)
	BeginLogin(user webauthn.User, opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error)
	ValidateLogin(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error)
}

// webAuthnUser adapts a User row and its passkeys to webauthn.User.
type webAuthnUser struct {
	user     models.User
	passkeys []models.Passkey
	creds    []webauthn.Credential
}

func (u *webAuthnUser) WebAuthnID() []byte {
	b, _ := u.user.ID.MarshalBinary()
	return b
}

func (u *webAuthnUser) WebAuthnName() string {
	return u.user.Email
}

func (u *webAuthnUser) WebAuthnDisplayName() string {
	return u.user.Email
}

func (u *webAuthnUser) WebAuthnCredentials() []webauthn.Credential {
	return u.creds
}

func loadWebAuthnUser(db *gorm.DB, userID uuid.UUID) (*webAuthnUser, error) {
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading account: %w", err)
	}

	var passkeys []models.Passkey
	if err := db.Where("user_id = ?", userID).Find(&passkeys).Error; err != nil {
		return nil, fmt.Errorf("loading passkeys: %w", err)
	}

	creds := make([]webauthn.Credential, len(passkeys))
	for i, pk := range passkeys {
		var transports []protocol.AuthenticatorTransport
		if pk.Transports != "" {
			var ts []string
			json.Unmarshal([]byte(pk.Transports), &ts)
			for _, t := range ts {
				transports = append(transports, protocol.AuthenticatorTransport(t))
			}
		}
		creds[i] = webauthn.Credential{
			ID:              pk.CredentialID,
			PublicKey:       pk.PublicKey,
			AttestationType: pk.AttestationType,
			Authenticator: webauthn.Authenticator{
				AAGUID:    pk.AAGUID,
				SignCount: pk.SignCount,
			},
			Transport: transports,
			Flags: webauthn.CredentialFlags{
				BackupEligible: pk.BackupEligible,
				BackupState:    pk.BackupState,
			},
		}
	}

	return &webAuthnUser{user: user, passkeys: passkeys, creds: creds}, nil
}

func transportsJSON(credential *webauthn.Credential) string {
	if len(credential.Transport) == 0 {
		return ""
	}
	ts := make([]string, len(credential.Transport))
	for i, t := range credential.Transport {
		ts[i] = string(t)
	}
	encoded, _ := json.Marshal(ts)
	return string(encoded)
}
