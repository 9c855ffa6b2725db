package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ecogate-dev/ecogate/internal/auth"
	"github.com/ecogate-dev/ecogate/internal/models"
	"github.com/ecogate-dev/ecogate/internal/tasks"
)

// RequestPasswordResetRequest carries the email to send an OTP to
type RequestPasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyPasswordResetRequest carries the OTP and the replacement password
type VerifyPasswordResetRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,otp"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// requestPasswordReset issues a 6-digit OTP and enqueues its delivery.
// Responds 200 whether or not the account exists, to avoid enumeration.
func (s *Server) requestPasswordReset(c *gin.Context) {
	var req RequestPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	// Per-email rate limit over a sliding window
	var recent int64
	windowStart := time.Now().Add(-auth.OTPRateWindow)
	if err := s.db.Model(&models.PasswordResetOTP{}).
		Where("email = ? AND created_at > ?", email, windowStart).
		Count(&recent).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count recent OTPs")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	if recent >= auth.OTPRateLimit {
		c.JSON(http.StatusTooManyRequests, gin.H{"message": "Rate limit exceeded. Please wait before requesting another code."})
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// Same response as the success path
			c.JSON(http.StatusOK, gin.H{"message": "If an account with this email exists, an OTP has been sent."})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate OTP")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	otp := &models.PasswordResetOTP{
		Email:     email,
		Code:      code,
		ExpiresAt: time.Now().Add(auth.OTPTTL),
	}
	if err := s.db.Create(otp).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to store OTP")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	task, err := tasks.NewSendOTPEmailTask(email, code)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build OTP email task")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	if _, err := s.asynqClient.Enqueue(task); err != nil {
		s.logger.Error().Err(err).Msg("Failed to enqueue OTP email")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send reset email"})
		return
	}

	s.logger.Info().Str("email", email).Msg("Password reset OTP issued")
	c.JSON(http.StatusOK, gin.H{"message": "If an account with this email exists, an OTP has been sent."})
}

// verifyPasswordReset checks the OTP and replaces the user's password
func (s *Server) verifyPasswordReset(c *gin.Context) {
	var req VerifyPasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "No account found with this email address"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	// Latest unused code wins; older ones stay dead
	var otp models.PasswordResetOTP
	if err := s.db.Where("email = ? AND used = ?", email, false).
		Order("created_at DESC").First(&otp).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid OTP"})
		return
	}

	if otp.Expired(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "OTP expired. Please request a new password reset."})
		return
	}

	if otp.Attempts >= auth.OTPMaxAttempts {
		c.JSON(http.StatusTooManyRequests, gin.H{"message": "Rate limit exceeded for this code. Please request a new one."})
		return
	}

	if otp.Code != req.OTP {
		s.db.Model(&otp).Update("attempts", otp.Attempts+1)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid OTP"})
		return
	}

	passwordHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(map[string]interface{}{
			"password_hash":          passwordHash,
			"using_default_password": false,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&otp).Update("used", true).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to reset password")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Password reset via OTP")
	s.recordActivity(tasks.ActivityPayload{UserID: user.ID, Action: "password_reset"})

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}
