package workers

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ecogate-dev/ecogate/internal/models"
	"github.com/ecogate-dev/ecogate/internal/tasks"
)

// HandleRecordActivity appends an audit trail entry
func HandleRecordActivity(ctx context.Context, t *asynq.Task, db *gorm.DB, log zerolog.Logger) error {
	payload, err := tasks.ParseActivityPayload(t)
	if err != nil {
		return err
	}

	entry := &models.ActivityLog{
		AdminID: models.NullableID(payload.AdminID),
		UserID:  models.NullableID(payload.UserID),
		Action:  payload.Action,
		Details: payload.Details,
	}

	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		log.Error().Err(err).Str("action", payload.Action).Msg("Failed to record activity")
		return err
	}

	log.Debug().Str("action", payload.Action).Msg("Activity recorded")
	return nil
}
