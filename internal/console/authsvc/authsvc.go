// Package authsvc validates auth form input before it reaches the network and
// maps API failures to the messages shown to operators.
package authsvc

import (
	"errors"
	"regexp"
	"strings"

	"github.com/ecogate-dev/ecogate/internal/console/client"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	otpPattern   = regexp.MustCompile(`^\d{6}$`)
)

// ValidationError is a pre-flight input failure. No request was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// API is the slice of the client the service needs
type API interface {
	Login(email, password string) (*client.LoginResponse, error)
	RequestPasswordReset(email string) error
	VerifyPasswordReset(email, otp, newPassword string) error
}

// Service wraps auth operations with input validation and message mapping
type Service struct {
	api      API
	notifier Notifier
}

// New creates an auth service backed by the given API. Outcomes are not
// announced anywhere; use NewWithNotifier for that.
func New(api API) *Service {
	return &Service{api: api, notifier: nopNotifier{}}
}

// NewWithNotifier creates an auth service that reports every outcome to n
func NewWithNotifier(api API, n Notifier) *Service {
	if n == nil {
		n = nopNotifier{}
	}
	return &Service{api: api, notifier: n}
}

// ValidateLoginInput checks login form input without touching the network
func ValidateLoginInput(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return &ValidationError{Message: "Please enter both email and password"}
	}
	if !emailPattern.MatchString(email) {
		return &ValidationError{Message: "Please enter a valid email address"}
	}
	return nil
}

// ValidateResetInput checks the OTP verification form without touching the
// network
func ValidateResetInput(email, otp, newPassword string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(otp) == "" || newPassword == "" {
		return &ValidationError{Message: "Please fill in all required fields"}
	}
	if !emailPattern.MatchString(email) {
		return &ValidationError{Message: "Please enter a valid email address"}
	}
	if !otpPattern.MatchString(otp) {
		return &ValidationError{Message: "OTP must be a 6-digit number"}
	}
	if len(newPassword) < 8 {
		return &ValidationError{Message: "Password must be at least 8 characters long"}
	}
	return nil
}

// Login validates input, then authenticates. The email is trimmed and
// lowercased before anything looks at it; validation failures never reach
// the network.
func (s *Service) Login(email, password string) (*client.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateLoginInput(email, password); err != nil {
		s.notifier.Error(err.Error())
		return nil, err
	}

	resp, err := s.api.Login(email, password)
	if err != nil {
		msg := mapLoginError(err)
		s.notifier.Error(msg)
		return nil, errors.New(msg)
	}
	s.notifier.Success("Login successful")
	return resp.User, nil
}

// RequestPasswordReset validates the address, then asks for an OTP
func (s *Service) RequestPasswordReset(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		err := &ValidationError{Message: "Please enter your email address"}
		s.notifier.Error(err.Message)
		return err
	}
	if !emailPattern.MatchString(email) {
		err := &ValidationError{Message: "Please enter a valid email address"}
		s.notifier.Error(err.Message)
		return err
	}

	if err := s.api.RequestPasswordReset(email); err != nil {
		msg := mapResetRequestError(err)
		s.notifier.Error(msg)
		return errors.New(msg)
	}
	s.notifier.Success("Password reset code sent")
	return nil
}

// VerifyPasswordReset validates the form, then redeems the OTP
func (s *Service) VerifyPasswordReset(email, otp, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateResetInput(email, otp, newPassword); err != nil {
		s.notifier.Error(err.Error())
		return err
	}

	if err := s.api.VerifyPasswordReset(email, otp, newPassword); err != nil {
		msg := mapVerifyError(err)
		s.notifier.Error(msg)
		return errors.New(msg)
	}
	s.notifier.Success("Password reset successful")
	return nil
}

// mapLoginError turns a login API failure into operator-facing text. It
// branches on the error kind first and falls back to the server message only
// for validation failures that carry one.
func mapLoginError(err error) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return "Network error. Please check your connection and try again."
	}

	switch apiErr.Kind {
	case client.KindNetwork:
		return "Network error. Please check your connection and try again."
	case client.KindUnauthorized:
		if strings.Contains(strings.ToLower(apiErr.Message), "account") {
			return "There's an issue with your account. Please contact support."
		}
		return "Invalid email or password. Please check your credentials and try again."
	case client.KindRateLimited:
		return "Too many login attempts. Please wait a moment and try again."
	case client.KindValidation:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "Invalid email or password. Please check your credentials and try again."
	case client.KindServer:
		return "Something went wrong on our end. Please try again later."
	default:
		return "An unexpected error occurred. Please try again."
	}
}

func mapResetRequestError(err error) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return "Network error. Please check your connection and try again."
	}

	switch apiErr.Kind {
	case client.KindNetwork:
		return "Network error. Please check your connection and try again."
	case client.KindRateLimited:
		return "Too many reset requests. Please wait before trying again."
	case client.KindNotFound:
		return "No account found with that email address."
	case client.KindServer:
		return "Something went wrong on our end. Please try again later."
	default:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "An unexpected error occurred. Please try again."
	}
}

func mapVerifyError(err error) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return "Network error. Please check your connection and try again."
	}

	switch apiErr.Kind {
	case client.KindNetwork:
		return "Network error. Please check your connection and try again."
	case client.KindRateLimited:
		return "Too many attempts. Please request a new password reset."
	case client.KindValidation:
		if strings.Contains(strings.ToLower(apiErr.Message), "expired") {
			return "OTP expired. Please request a new password reset."
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "Invalid OTP. Please check the code and try again."
	case client.KindServer:
		return "Something went wrong on our end. Please try again later."
	default:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "An unexpected error occurred. Please try again."
	}
}
