package logger

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log      *zap.Logger
	initOnce sync.Once
)

// Init builds the process-wide logger. LOG_ENV=prod selects the JSON
// encoder; anything else gets the console encoder for local development.
func Init() {
	initOnce.Do(func() {
		level := parseLevel(os.Getenv("LOG_LEVEL"))

		var cfg zap.Config
		if strings.EqualFold(os.Getenv("LOG_ENV"), "prod") {
			cfg = zap.NewProductionConfig()
		} else {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.Level = zap.NewAtomicLevelAt(level)

		built, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			built, _ = zap.NewProduction()
		}
		log = built
	})
}

func parseLevel(value string) zapcore.Level {
	switch strings.ToLower(value) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func zapFields(fields map[string]interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		out = append(out, zap.Any(key, value))
	}
	return out
}

func Info(event string, fields map[string]interface{}) {
	Init()
	log.Info(event, zapFields(fields)...)
}

func InfoWithUser(userID, event string, fields map[string]interface{}) {
	Init()
	log.Info(event, append(zapFields(fields), zap.String("user_id", userID))...)
}

func Warn(event string, fields map[string]interface{}) {
	Init()
	log.Warn(event, zapFields(fields)...)
}

func Error(event string, err error, fields map[string]interface{}) {
	Init()
	log.Error(event, append(zapFields(fields), zap.Error(err))...)
}
