package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ecogate-dev/ecogate/internal/console/guard"
)

// pendingReset is the persisted state of an in-flight password reset. The
// reset-password command refuses to run without it, so an OTP can only be
// redeemed through the forgot-password flow.
type pendingReset struct {
	Email         string    `json:"email"`
	LastEmailSent time.Time `json:"last_email_sent"`
}

func pendingResetPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(dir, "ecogate", "pending-reset.json"), nil
}

func savePendingReset(state pendingReset) error {
	path, err := pendingResetPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode reset state: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write reset state: %w", err)
	}
	return nil
}

// loadPendingReset returns the saved state as a guard.NavState. A missing or
// unreadable file yields the zero NavState, which the guard rejects.
func loadPendingReset() guard.NavState {
	path, err := pendingResetPath()
	if err != nil {
		return guard.NavState{}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return guard.NavState{}
	}

	var state pendingReset
	if err := json.Unmarshal(data, &state); err != nil {
		return guard.NavState{}
	}

	return guard.NavState{Email: state.Email, LastEmailSent: state.LastEmailSent}
}

func clearPendingReset() {
	path, err := pendingResetPath()
	if err != nil {
		return
	}
	os.Remove(path)
}
