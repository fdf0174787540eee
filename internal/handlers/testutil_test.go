package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bookeasy/backend/internal/database"
	"github.com/bookeasy/backend/internal/metrics"
	"github.com/bookeasy/backend/internal/middleware"
	"github.com/bookeasy/backend/internal/models"
	"github.com/bookeasy/backend/internal/services"
	"github.com/bookeasy/backend/pkg/logger"
	"github.com/bookeasy/backend/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	sender   *fakeSender
	ceremony *fakeCeremony
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 24)
	})

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

	sender := &fakeSender{}
	ceremony := &fakeCeremony{}

	accountService := services.NewAccountService(db)
	otpService := services.NewOTPService(db, sender, time.Minute)
	deviceService := services.NewDeviceService(db)
	enrollmentService := services.NewEnrollmentService(db, ceremony, accountService)
	passkeyLoginService := services.NewPasskeyLoginService(db, ceremony, deviceService)
	passkeyService := services.NewPasskeyService(db, accountService)

	authHandler := NewAuthHandler(db, accountService, otpService, deviceService, true)
	passkeysHandler := NewPasskeysHandler(db, accountService, enrollmentService, passkeyLoginService, passkeyService)
	authMiddleware := middleware.NewAuthMiddleware(db)

	app := fiber.New(fiber.Config{BodyLimit: 1 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", authHandler.Signup)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/otp/verify", authHandler.VerifyOTP)
	authRoutes.Post("/otp/resend", authHandler.ResendOTP)
	authRoutes.Post("/password/forgot", authHandler.ForgotPassword)
	authRoutes.Post("/password/reset/verify", authHandler.VerifyResetCode)
	authRoutes.Post("/password/reset", authHandler.ResetPassword)
	authRoutes.Put("/password", authMiddleware.RequireAuth, authHandler.ChangePassword)
	authRoutes.Get("/me", authMiddleware.RequireAuth, authHandler.Me)
	authRoutes.Post("/profile", authMiddleware.RequireAuth, authHandler.CreateProfile)

	passkeyRoutes := api.Group("/auth/passkeys")
	passkeyRoutes.Post("/enroll/begin", authMiddleware.RequireAuth, passkeysHandler.EnrollBegin)
	passkeyRoutes.Post("/enroll/finish", authMiddleware.RequireAuth, passkeysHandler.EnrollFinish)
	passkeyRoutes.Post("/login/begin", passkeysHandler.LoginBegin)
	passkeyRoutes.Post("/login/finish", passkeysHandler.LoginFinish)
	passkeyRoutes.Get("/", authMiddleware.RequireAuth, passkeysHandler.List)
	passkeyRoutes.Put("/:id", authMiddleware.RequireAuth, passkeysHandler.Rename)
	passkeyRoutes.Delete("/:id", authMiddleware.RequireAuth, passkeysHandler.Delete)

	return &testEnv{app: app, db: db, sender: sender, ceremony: ceremony}
}

type fakeSender struct {
	mu   sync.Mutex
	sent int
	fail bool
}

func (f *fakeSender) Send(to, subject, htmlBody, textBody string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.sent++
	return nil
}

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

func createTestUser(t *testing.T, db *gorm.DB, email string, verified bool) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword("password123")
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.UserRoleCustomer,
		Verified:     verified,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func createTestPasskey(t *testing.T, db *gorm.DB, userID uuid.UUID, credentialID string) *models.Passkey {
	t.Helper()

	passkey := &models.Passkey{
		UserID:       userID,
		CredentialID: []byte(credentialID),
		PublicKey:    []byte("public-key-material"),
		SignCount:    1,
		Name:         "Test passkey",
	}
	if err := db.Create(passkey).Error; err != nil {
		t.Fatalf("failed creating test passkey: %v", err)
	}
	return passkey
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func dataMap(t *testing.T, body map[string]any) map[string]any {
	t.Helper()

	if success, _ := body["success"].(bool); !success {
		t.Fatalf("expected success=true, got %+v", body)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", body["data"])
	}
	return data
}
