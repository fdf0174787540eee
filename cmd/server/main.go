package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookeasy/backend/internal/config"
	"github.com/bookeasy/backend/internal/database"
	"github.com/bookeasy/backend/internal/email"
	"github.com/bookeasy/backend/internal/handlers"
	"github.com/bookeasy/backend/internal/metrics"
	"github.com/bookeasy/backend/internal/middleware"
	"github.com/bookeasy/backend/internal/services"
	"github.com/bookeasy/backend/pkg/logger"
	"github.com/bookeasy/backend/pkg/utils"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.WebAuthn.RPName,
		RPID:          cfg.WebAuthn.RPID,
		RPOrigins:     cfg.WebAuthn.RPOrigins,
	})
	if err != nil {
		log.Fatalf("webauthn initialization failed: %v", err)
	}

	sender := email.NewSMTPSender(cfg.SMTP)

	accountService := services.NewAccountService(db)
	otpService := services.NewOTPService(db, sender, cfg.OTP.TTL)
	deviceService := services.NewDeviceService(db)
	enrollmentService := services.NewEnrollmentService(db, wa, accountService)
	passkeyLoginService := services.NewPasskeyLoginService(db, wa, deviceService)
	passkeyService := services.NewPasskeyService(db, accountService)

	authHandler := handlers.NewAuthHandler(db, accountService, otpService, deviceService, cfg.OTP.DebugExpose)
	passkeysHandler := handlers.NewPasskeysHandler(db, accountService, enrollmentService, passkeyLoginService, passkeyService)

	authMiddleware := middleware.NewAuthMiddleware(db)

	services.StartChallengeSweeper(db, 5*time.Minute)

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

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":    cfg.Server.Port,
		"address": listenAddr,
		"rp_id":   cfg.WebAuthn.RPID,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}
