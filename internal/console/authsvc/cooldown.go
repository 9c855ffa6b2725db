package authsvc

import "time"

// ResendCooldownSeconds is how long a fresh reset code blocks further
// requests for the same address.
const ResendCooldownSeconds = 120

// ResendWait reports how many whole seconds of the resend cooldown remain
// after a code was sent at lastSent. Zero means a new code may be requested.
func ResendWait(lastSent time.Time) int {
	if lastSent.IsZero() {
		return 0
	}
	remaining := ResendCooldownSeconds - int(time.Since(lastSent).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}
