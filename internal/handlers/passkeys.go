package handlers

import (
	"encoding/json"
	"strings"

	"github.com/bookeasy/backend/internal/metrics"
	"github.com/bookeasy/backend/internal/middleware"
	"github.com/bookeasy/backend/internal/services"
	"github.com/bookeasy/backend/pkg/utils"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PasskeysHandler struct {
	DB         *gorm.DB
	Accounts   *services.AccountService
	Enrollment *services.EnrollmentService
	Login      *services.PasskeyLoginService
	Registry   *services.PasskeyService
}

func NewPasskeysHandler(db *gorm.DB, accounts *services.AccountService, enrollment *services.EnrollmentService, login *services.PasskeyLoginService, registry *services.PasskeyService) *PasskeysHandler {
	return &PasskeysHandler{
		DB:         db,
		Accounts:   accounts,
		Enrollment: enrollment,
		Login:      login,
		Registry:   registry,
	}
}

func (h *PasskeysHandler) EnrollBegin(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	options, err := h.Enrollment.Begin(user.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"options": options})
}

type enrollFinishRequest struct {
	Name       string          `json:"name"`
	DeviceType string          `json:"deviceType"`
	Response   json.RawMessage `json:"response"`
}

func (h *PasskeysHandler) EnrollFinish(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req enrollFinishRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	parsed, err := protocol.ParseCredentialCreationResponseBody(strings.NewReader(string(req.Response)))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid credential response")
	}

	passkey, err := h.Enrollment.Finish(user.ID, parsed, req.Name, req.DeviceType)
	if err != nil {
		metrics.CeremoniesTotal.WithLabelValues("enrollment", "failure").Inc()
		return serviceError(c, err)
	}
	metrics.CeremoniesTotal.WithLabelValues("enrollment", "success").Inc()

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"passkey": passkey})
}

type loginBeginRequest struct {
	Email string `json:"email"`
}

func (h *PasskeysHandler) LoginBegin(c *fiber.Ctx) error {
	var req loginBeginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.Accounts.GetByEmail(req.Email)
	if err != nil {
		return serviceError(c, err)
	}

	options, err := h.Login.Begin(user.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"options": options})
}

type loginFinishRequest struct {
	Email       string          `json:"email"`
	DeviceToken string          `json:"deviceToken"`
	DeviceType  string          `json:"deviceType"`
	Response    json.RawMessage `json:"response"`
}

func (h *PasskeysHandler) LoginFinish(c *fiber.Ctx) error {
	var req loginFinishRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.Accounts.GetByEmail(req.Email)
	if err != nil {
		return serviceError(c, err)
	}

	parsed, err := protocol.ParseCredentialRequestResponseBody(strings.NewReader(string(req.Response)))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid assertion response")
	}

	authenticated, err := h.Login.Finish(user.ID, parsed, req.DeviceToken, req.DeviceType)
	if err != nil {
		metrics.CeremoniesTotal.WithLabelValues("login", "failure").Inc()
		metrics.LoginsTotal.WithLabelValues("biometric", "failure").Inc()
		return serviceError(c, err)
	}
	metrics.CeremoniesTotal.WithLabelValues("login", "success").Inc()
	metrics.LoginsTotal.WithLabelValues("biometric", "success").Inc()

	token, err := utils.GenerateToken(authenticated)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token, "user": authenticated})
}

func (h *PasskeysHandler) List(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	passkeys, err := h.Registry.List(user.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, passkeys)
}

type renamePasskeyRequest struct {
	Name string `json:"name"`
}

func (h *PasskeysHandler) Rename(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	passkeyID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid passkey ID")
	}

	var req renamePasskeyRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	passkey, err := h.Registry.Rename(user.ID, passkeyID, req.Name)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, passkey)
}

func (h *PasskeysHandler) Delete(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	passkeyID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid passkey ID")
	}

	if err := h.Registry.Remove(user.ID, passkeyID); err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "passkey removed"})
}
