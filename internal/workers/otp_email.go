// Package workers contains the Asynq task handlers and the retention
// scheduler run by cmd/worker.
package workers

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/ecogate-dev/ecogate/internal/mailer"
	"github.com/ecogate-dev/ecogate/internal/tasks"
)

// HandleSendOTPEmail delivers a password reset code. Returning an error lets
// Asynq retry delivery; the HTTP request that enqueued it has already
// completed.
func HandleSendOTPEmail(ctx context.Context, t *asynq.Task, m *mailer.Mailer, log zerolog.Logger) error {
	payload, err := tasks.ParseOTPEmailPayload(t)
	if err != nil {
		return err
	}

	if err := m.SendOTP(payload.Email, payload.Code); err != nil {
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to send OTP email")
		return err
	}

	log.Info().Str("email", payload.Email).Msg("OTP email sent")
	return nil
}
