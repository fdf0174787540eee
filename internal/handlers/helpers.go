package handlers

import (
	"errors"
	"strings"

	"github.com/bookeasy/backend/internal/services"
	"github.com/bookeasy/backend/pkg/logger"
	"github.com/bookeasy/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// serviceError maps the service error taxonomy to client-visible responses.
// Unexpected errors become a generic 500 after logging.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.Error(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrAlreadyExists):
		return utils.Error(c, fiber.StatusConflict, "email already registered")
	case errors.Is(err, services.ErrDuplicateCredential):
		return utils.Error(c, fiber.StatusConflict, "credential already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		return utils.Error(c, fiber.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, services.ErrMismatch):
		return utils.Error(c, fiber.StatusBadRequest, "invalid code")
	case errors.Is(err, services.ErrExpired):
		return utils.Error(c, fiber.StatusBadRequest, "code expired")
	case errors.Is(err, services.ErrChallengeNotFound):
		return utils.Error(c, fiber.StatusBadRequest, "no pending challenge")
	case errors.Is(err, services.ErrCredentialNotFound):
		return utils.Error(c, fiber.StatusNotFound, "passkey not found")
	case errors.Is(err, services.ErrVerificationFailed):
		return utils.Error(c, fiber.StatusUnauthorized, "passkey verification failed")
	case errors.Is(err, services.ErrBiometricNotEnabled):
		return utils.Error(c, fiber.StatusBadRequest, "biometric login is not enabled")
	default:
		logger.Error("internal_error", err, map[string]interface{}{
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "internal server error")
	}
}
