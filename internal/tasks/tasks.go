package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Password reset OTP delivery
	TypeSendOTPEmail = "otp:send_email"

	// Audit trail recording, kept off the request path
	TypeRecordActivity = "activity:record"
)

// OTPEmailPayload is the payload for OTP delivery tasks
type OTPEmailPayload struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ActivityPayload is the payload for activity log recording tasks
type ActivityPayload struct {
	AdminID string `json:"admin_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	Action  string `json:"action"`
	Details string `json:"details,omitempty"` // JSON blob, shape varies per action
}

// NewSendOTPEmailTask creates a task that delivers a password reset code
func NewSendOTPEmailTask(email, code string) (*asynq.Task, error) {
	payload, err := json.Marshal(OTPEmailPayload{Email: email, Code: code})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeSendOTPEmail, payload, asynq.Queue("critical"), asynq.MaxRetry(3)), nil
}

// NewRecordActivityTask creates a task that appends an audit trail entry
func NewRecordActivityTask(p ActivityPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeRecordActivity, payload, asynq.Queue("low")), nil
}

// ParseOTPEmailPayload parses an OTP delivery payload from an Asynq task
func ParseOTPEmailPayload(task *asynq.Task) (OTPEmailPayload, error) {
	var payload OTPEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// ParseActivityPayload parses an activity recording payload from an Asynq task
func ParseActivityPayload(task *asynq.Task) (ActivityPayload, error) {
	var payload ActivityPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
