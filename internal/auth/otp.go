package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTP policy for the password reset flow
const (
	OTPLength      = 6
	OTPTTL         = 10 * time.Minute
	OTPMaxAttempts = 5

	// At most this many codes may be requested per email within OTPRateWindow
	OTPRateLimit  = 3
	OTPRateWindow = 10 * time.Minute
)

// GenerateOTP returns a random 6-digit numeric code, zero-padded
func GenerateOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generating OTP: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
