package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DB       DBConfig
	SMTP     SMTPConfig
	JWT      JWTConfig
	Server   ServerConfig
	WebAuthn WebAuthnConfig
	OTP      OTPConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	TLSMode   string
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type ServerConfig struct {
	Port string
}

type WebAuthnConfig struct {
	RPID      string
	RPName    string
	RPOrigins []string
}

type OTPConfig struct {
	TTL time.Duration
	// DebugExpose echoes freshly issued codes in API responses. Never
	// enable outside local development.
	DebugExpose bool
}

func Load() *Config {
	return &Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "bookeasy"),
			Password: getEnv("DB_PASSWORD", "bookeasy_secret"),
			Name:     getEnv("DB_NAME", "bookeasy"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		SMTP: SMTPConfig{
			Host:      getEnv("SMTP_HOST", "localhost"),
			Port:      getEnvAsInt("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromEmail: getEnv("SMTP_FROM", "no-reply@bookeasy.local"),
			TLSMode:   getEnv("SMTP_TLS_MODE", "auto"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-me-in-production"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		WebAuthn: WebAuthnConfig{
			RPID:      getEnv("WEBAUTHN_RP_ID", "localhost"),
			RPName:    getEnv("WEBAUTHN_RP_NAME", "BookEasy"),
			RPOrigins: getEnvAsSlice("WEBAUTHN_RP_ORIGINS", []string{"http://localhost:3001"}),
		},
		OTP: OTPConfig{
			TTL:         getEnvAsDuration("OTP_TTL", 600*time.Second),
			DebugExpose: getEnvAsBool("OTP_DEBUG_EXPOSE", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
