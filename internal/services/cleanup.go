package services

import (
	"time"

	"github.com/bookeasy/backend/internal/models"
	"github.com/bookeasy/backend/pkg/logger"
	"gorm.io/gorm"
)

// SweepExpiredChallenges garbage-collects expired OTP and ceremony rows.
// Validation checks expiry itself, so correctness never depends on this.
func SweepExpiredChallenges(db *gorm.DB) {
	now := time.Now()
	db.Where("expires_at < ?", now).Delete(&models.OTPChallenge{})
	db.Where("expires_at < ?", now).Delete(&models.RegistrationChallenge{})
	db.Where("expires_at < ?", now).Delete(&models.LoginChallenge{})
}

// StartChallengeSweeper runs SweepExpiredChallenges on a fixed cadence.
func StartChallengeSweeper(db *gorm.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			SweepExpiredChallenges(db)
			logger.Info("challenge_sweep_completed", map[string]interface{}{
				"interval": interval.String(),
			})
		}
	}()
}
