package workers

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ecogate-dev/ecogate/internal/models"
)

// Activity log rows older than this are trimmed by the daily sweep
const activityLogRetention = 365 * 24 * time.Hour

// StartRetentionScheduler runs periodic cleanup jobs: an hourly sweep of
// expired OTP rows and a daily activity log trim. Returns the scheduler so
// callers can Stop it on shutdown.
func StartRetentionScheduler(db *gorm.DB, log zerolog.Logger) *cron.Cron {
	c := cron.New()

	if _, err := c.AddFunc("@hourly", func() { sweepExpiredOTPs(db, log) }); err != nil {
		log.Error().Err(err).Msg("Failed to schedule OTP sweep")
	}
	if _, err := c.AddFunc("@daily", func() { trimActivityLogs(db, log) }); err != nil {
		log.Error().Err(err).Msg("Failed to schedule activity log trim")
	}

	c.Start()
	log.Info().Msg("Retention scheduler started")
	return c
}

func sweepExpiredOTPs(db *gorm.DB, log zerolog.Logger) {
	result := db.Where("expires_at < ? OR used = ?", time.Now(), true).
		Delete(&models.PasswordResetOTP{})
	if result.Error != nil {
		log.Error().Err(result.Error).Msg("OTP sweep failed")
		return
	}
	if result.RowsAffected > 0 {
		log.Info().Int64("deleted", result.RowsAffected).Msg("Swept expired OTPs")
	}
}

func trimActivityLogs(db *gorm.DB, log zerolog.Logger) {
	cutoff := time.Now().Add(-activityLogRetention)
	result := db.Where("created_at < ?", cutoff).Delete(&models.ActivityLog{})
	if result.Error != nil {
		log.Error().Err(result.Error).Msg("Activity log trim failed")
		return
	}
	if result.RowsAffected > 0 {
		log.Info().Int64("deleted", result.RowsAffected).Msg("Trimmed old activity logs")
	}
}
