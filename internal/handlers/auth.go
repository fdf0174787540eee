package handlers

import (
	"errors"
	"strings"

	"github.com/bookeasy/backend/internal/metrics"
	"github.com/bookeasy/backend/internal/middleware"
	"github.com/bookeasy/backend/internal/models"
	"github.com/bookeasy/backend/internal/services"
	"github.com/bookeasy/backend/pkg/logger"
	"github.com/bookeasy/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB       *gorm.DB
	Accounts *services.AccountService
	OTP      *services.OTPService
	Devices  *services.DeviceService
	// ExposeOTP echoes issued codes in responses. Development only.
	ExposeOTP bool
}

func NewAuthHandler(db *gorm.DB, accounts *services.AccountService, otp *services.OTPService, devices *services.DeviceService, exposeOTP bool) *AuthHandler {
	return &AuthHandler{DB: db, Accounts: accounts, OTP: otp, Devices: devices, ExposeOTP: exposeOTP}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if !strings.Contains(req.Email, "@") {
		return utils.Error(c, fiber.StatusBadRequest, "valid email is required")
	}
	if len(req.Password) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	role := models.UserRoleCustomer
	switch models.UserRole(req.Role) {
	case models.UserRoleOperator:
		role = models.UserRoleOperator
	case models.UserRoleCustomer, "":
	default:
		return utils.Error(c, fiber.StatusBadRequest, "invalid role")
	}

	user, err := h.Accounts.Create(req.Email, req.Password, role)
	if err != nil {
		return serviceError(c, err)
	}
	metrics.SignupsTotal.Inc()

	code, err := h.OTP.Issue(user.ID, models.OTPPurposeRegistration)
	if err != nil {
		logger.Error("signup_otp_failed", err, map[string]interface{}{
			"user_id": user.ID.String(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed to send verification code")
	}
	metrics.OTPIssuedTotal.WithLabelValues(string(models.OTPPurposeRegistration)).Inc()

	logger.Info("user_signed_up", map[string]interface{}{
		"user_id": user.ID.String(),
		"role":    string(user.Role),
	})

	data := fiber.Map{"user": user, "otpSent": true}
	if h.ExposeOTP {
		data["debugCode"] = code
	}
	return utils.Success(c, fiber.StatusCreated, data)
}

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DeviceToken string `json:"deviceToken"`
	DeviceType  string `json:"deviceType"`
}

// Login answers with one of three shapes: otp_required when the email is
// still unverified, profile_required when verified but incomplete, or
// authenticated with a session token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.Accounts.AuthenticatePassword(req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("password", "failure").Inc()
		// Unknown email answers the same as wrong password so login
		// cannot be used to probe which addresses have accounts.
		if errors.Is(err, services.ErrNotFound) {
			return utils.Error(c, fiber.StatusUnauthorized, "invalid email or password")
		}
		return serviceError(c, err)
	}

	if !user.Verified {
		code, err := h.OTP.Issue(user.ID, models.OTPPurposeResend)
		if err != nil {
			return serviceError(c, err)
		}
		metrics.OTPIssuedTotal.WithLabelValues(string(models.OTPPurposeResend)).Inc()

		data := fiber.Map{"status": "otp_required"}
		if h.ExposeOTP {
			data["debugCode"] = code
		}
		return utils.Success(c, fiber.StatusOK, data)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	if req.DeviceToken != "" {
		h.Devices.RecordLogin(req.DeviceToken, user.ID, req.DeviceType, models.LoginMethodPassword)
	}
	metrics.LoginsTotal.WithLabelValues("password", "success").Inc()

	logger.Info("password_login", map[string]interface{}{
		"user_id": user.ID.String(),
	})

	status := "authenticated"
	if !user.ProfileComplete {
		status = "profile_required"
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"status": status,
		"token":  token,
		"user":   user,
	})
}

type verifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Code == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email and code are required")
	}

	user, err := h.Accounts.GetByEmail(req.Email)
	if err != nil {
		return serviceError(c, err)
	}

	if _, err := h.OTP.Validate(user.ID, req.Code); err != nil {
		metrics.OTPValidatedTotal.WithLabelValues("failure").Inc()
		return serviceError(c, err)
	}
	metrics.OTPValidatedTotal.WithLabelValues("success").Inc()

	if err := h.Accounts.MarkVerified(user.ID); err != nil {
		return serviceError(c, err)
	}

	user, err = h.Accounts.GetByID(user.ID)
	if err != nil {
		return serviceError(c, err)
	}

	token, err := utils.GenerateToken(user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.Info("email_verified", map[string]interface{}{
		"user_id": user.ID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token, "user": user})
}

type resendOTPRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) ResendOTP(c *fiber.Ctx) error {
	var req resendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.Accounts.GetByEmail(req.Email)
	if err != nil {
		return serviceError(c, err)
	}

	code, err := h.OTP.Issue(user.ID, models.OTPPurposeResend)
	if err != nil {
		return serviceError(c, err)
	}
	metrics.OTPIssuedTotal.WithLabelValues(string(models.OTPPurposeResend)).Inc()

	data := fiber.Map{"otpSent": true}
	if h.ExposeOTP {
		data["debugCode"] = code
	}
	return utils.Success(c, fiber.StatusOK, data)
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req resendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.Accounts.GetByEmail(req.Email)
	if err != nil {
		return serviceError(c, err)
	}

	code, err := h.OTP.Issue(user.ID, models.OTPPurposePasswordReset)
	if err != nil {
		return serviceError(c, err)
	}
	metrics.OTPIssuedTotal.WithLabelValues(string(models.OTPPurposePasswordReset)).Inc()

	data := fiber.Map{"otpSent": true}
	if h.ExposeOTP {
		data["debugCode"] = code
	}
	return utils.Success(c, fiber.StatusOK, data)
}

type verifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyResetCode exchanges a valid password-reset code for a short-lived
// single-use reset token.
func (h *AuthHandler) VerifyResetCode(c *fiber.Ctx) error {
	var req verifyResetCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, err := h.Accounts.GetByEmail(req.Email)
	if err != nil {
		return serviceError(c, err)
	}

	purpose, err := h.OTP.Validate(user.ID, req.Code)
	if err != nil {
		metrics.OTPValidatedTotal.WithLabelValues("failure").Inc()
		return serviceError(c, err)
	}
	if purpose != models.OTPPurposePasswordReset {
		metrics.OTPValidatedTotal.WithLabelValues("failure").Inc()
		return utils.Error(c, fiber.StatusBadRequest, "invalid code")
	}
	metrics.OTPValidatedTotal.WithLabelValues("success").Inc()

	resetToken, err := utils.GenerateResetToken(user.ID, user.Email)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating reset token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"resetToken": resetToken})
}

type resetPasswordRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.NewPassword) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	claims, err := utils.ValidateResetToken(req.ResetToken)
	if err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "invalid or expired reset token")
	}
	if !utils.IsJTIValid(claims.JTI) {
		return utils.Error(c, fiber.StatusUnauthorized, "reset token already used")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
	}

	if err := h.Accounts.SetPassword(claims.UserID, hash); err != nil {
		return serviceError(c, err)
	}
	utils.ConsumeJTI(claims.JTI)

	logger.Info("password_reset", map[string]interface{}{
		"user_id": claims.UserID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "password updated"})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.NewPassword) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	if !utils.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		return utils.Error(c, fiber.StatusUnauthorized, "current password is incorrect")
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed hashing password")
	}

	if err := h.Accounts.SetPassword(user.ID, hash); err != nil {
		return serviceError(c, err)
	}

	logger.Info("password_changed", map[string]interface{}{
		"user_id": user.ID.String(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "password updated"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, user)
}

type createProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// CreateProfile stores the minimal profile record and flips the account's
// profile-completion flag, then reissues the token with the profile claim.
func (h *AuthHandler) CreateProfile(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.FirstName == "" || req.LastName == "" {
		return utils.Error(c, fiber.StatusBadRequest, "firstName and lastName are required")
	}

	if user.ProfileComplete {
		return utils.Error(c, fiber.StatusConflict, "profile already exists")
	}

	profile := models.Profile{
		UserID:    user.ID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}
	if err := h.DB.Create(&profile).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating profile")
	}

	if err := h.Accounts.MarkProfileComplete(user.ID, profile.ID); err != nil {
		return serviceError(c, err)
	}

	updated, err := h.Accounts.GetByID(user.ID)
	if err != nil {
		return serviceError(c, err)
	}

	token, err := utils.GenerateToken(updated)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.Info("profile_created", map[string]interface{}{
		"user_id":    user.ID.String(),
		"profile_id": profile.ID.String(),
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{
		"token":   token,
		"user":    updated,
		"profile": profile,
	})
}
