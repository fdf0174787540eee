package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/bookeasy/backend/internal/database"
	"github.com/bookeasy/backend/internal/models"
	"github.com/bookeasy/backend/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleCustomer,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}
	return user
}

type sentEmail struct {
	to      string
	subject string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentEmail
	fail bool
}

func (f *fakeSender) Send(to, subject, htmlBody, textBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject})
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeCeremony stands in for the webauthn library so the challenge flows can
// be exercised deterministically.
type fakeCeremony struct {
	failCreate bool
	failLogin  bool
	credential webauthn.Credential
}

func (f *fakeCeremony) BeginRegistration(user webauthn.User, opts ...webauthn.RegistrationOption) (*protocol.CredentialCreation, *webauthn.SessionData, error) {
	return &protocol.CredentialCreation{}, &webauthn.SessionData{
		Challenge: uuid.NewString(),
		UserID:    user.WebAuthnID(),
	}, nil
}

func (f *fakeCeremony) CreateCredential(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialCreationData) (*webauthn.Credential, error) {
	if f.failCreate {
		return nil, errors.New("attestation verification failed")
	}
	cred := f.credential
	return &cred, nil
}

func (f *fakeCeremony) BeginLogin(user webauthn.User, opts ...webauthn.LoginOption) (*protocol.CredentialAssertion, *webauthn.SessionData, error) {
	return &protocol.CredentialAssertion{}, &webauthn.SessionData{
		Challenge: uuid.NewString(),
		UserID:    user.WebAuthnID(),
	}, nil
}

func (f *fakeCeremony) ValidateLogin(user webauthn.User, session webauthn.SessionData, response *protocol.ParsedCredentialAssertionData) (*webauthn.Credential, error) {
	if f.failLogin {
		return nil, errors.New("assertion verification failed")
	}
	cred := f.credential
	return &cred, nil
}

func testCredential(id string) webauthn.Credential {
	return webauthn.Credential{
		ID:              []byte(id),
		PublicKey:       []byte("public-key-material"),
		AttestationType: "none",
		Authenticator: webauthn.Authenticator{
			AAGUID:    []byte("aaguid"),
			SignCount: 1,
		},
	}
}

func creationResponse() *protocol.ParsedCredentialCreationData {
	return &protocol.ParsedCredentialCreationData{}
}

func assertionResponse(credentialID string) *protocol.ParsedCredentialAssertionData {
	resp := &protocol.ParsedCredentialAssertionData{}
	resp.RawID = protocol.URLEncodedBase64(credentialID)
	return resp
}
