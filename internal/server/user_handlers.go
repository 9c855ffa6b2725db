package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ecogate-dev/ecogate/internal/auth"
	"github.com/ecogate-dev/ecogate/internal/models"
	"github.com/ecogate-dev/ecogate/internal/tasks"
)

// RegisterUserRequest represents a request to create a new staff account
type RegisterUserRequest struct {
	Email      string `json:"email" binding:"required,email"`
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	MiddleName string `json:"middle_name"`
	Password   string `json:"password"` // Empty means the configured default password
	UserLevel  string `json:"user_level" binding:"required"`
	Status     string `json:"status"`
}

// UpdateUserRequest represents a partial update to a staff account
type UpdateUserRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	MiddleName *string `json:"middle_name"`
	Email      *string `json:"email"`
	UserLevel  *string `json:"user_level"`
}

// ChangeStatusRequest toggles an account between active and inactive
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

// AdminResetPasswordRequest resets a user to the default password
type AdminResetPasswordRequest struct {
	Email         string `json:"email" binding:"required,email"`
	AdminPassword string `json:"admin_password" binding:"required"`
}

// listUsers returns all staff accounts, newest first
func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at DESC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	details := make([]*UserDetail, len(users))
	for i := range users {
		details[i] = userDetail(&users[i])
	}

	c.JSON(http.StatusOK, details)
}

// registerUser creates a staff account. A blank password assigns the
// configured default and flags the account for a mandatory change.
func (s *Server) registerUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	if !models.ValidUserLevel(models.UserLevel(req.UserLevel)) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unknown user level"})
		return
	}

	password := req.Password
	usingDefault := false
	if password == "" {
		password = s.config.Auth.DefaultPassword
		usingDefault = true
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create user"})
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusActive
	}
	if status != models.StatusActive && status != models.StatusInactive {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unknown status"})
		return
	}

	user := &models.User{
		Email:                strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:         passwordHash,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		MiddleName:           req.MiddleName,
		UserLevel:            models.UserLevel(req.UserLevel),
		Status:               status,
		UsingDefaultPassword: usingDefault,
	}

	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create user"})
		return
	}

	sessionData, _ := GetSessionData(c)
	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("created_by", sessionData.UserID).
		Msg("User registered")

	details, _ := json.Marshal(map[string]string{
		"email":      user.Email,
		"user_level": string(user.UserLevel),
		"status":     user.Status,
	})
	s.recordActivity(tasks.ActivityPayload{
		AdminID: sessionData.UserID,
		UserID:  user.ID,
		Action:  "user_registered",
		Details: string(details),
	})

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": userDetail(user)})
}

// updateUser applies a partial update to a staff account
func (s *Server) updateUser(c *gin.Context) {
	userID := c.Param("id")

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, userID, &user); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	updates := map[string]interface{}{}
	changes := map[string]map[string]string{}
	apply := func(field, from, to string) {
		updates[field] = to
		changes[field] = map[string]string{"from": from, "to": to}
	}

	if req.FirstName != nil && *req.FirstName != user.FirstName {
		apply("first_name", user.FirstName, *req.FirstName)
	}
	if req.LastName != nil && *req.LastName != user.LastName {
		apply("last_name", user.LastName, *req.LastName)
	}
	if req.MiddleName != nil && *req.MiddleName != user.MiddleName {
		apply("middle_name", user.MiddleName, *req.MiddleName)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != user.Email {
			apply("email", user.Email, email)
		}
	}
	if req.UserLevel != nil && *req.UserLevel != string(user.UserLevel) {
		if !models.ValidUserLevel(models.UserLevel(*req.UserLevel)) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown user level"})
			return
		}
		apply("user_level", string(user.UserLevel), *req.UserLevel)
	}

	if len(updates) > 0 {
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to update user")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update user"})
			return
		}

		sessionData, _ := GetSessionData(c)
		details, _ := json.Marshal(map[string]interface{}{"changes": changes})
		s.recordActivity(tasks.ActivityPayload{
			AdminID: sessionData.UserID,
			UserID:  user.ID,
			Action:  "user_updated",
			Details: string(details),
		})
	}

	c.JSON(http.StatusOK, userDetail(&user))
}

// changeUserStatus activates or deactivates an account
func (s *Server) changeUserStatus(c *gin.Context) {
	userID := c.Param("id")

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)
	if userID == sessionData.UserID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot change your own status"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, userID, &user); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	previous := user.Status
	if err := s.db.Model(&user).Update("status", req.Status).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to change status")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to change status"})
		return
	}

	details, _ := json.Marshal(map[string]string{"from": previous, "to": req.Status})
	s.recordActivity(tasks.ActivityPayload{
		AdminID: sessionData.UserID,
		UserID:  user.ID,
		Action:  "status_changed",
		Details: string(details),
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "status": req.Status})
}

// adminResetPassword sets a user back to the default password after
// re-verifying the administrator's own credentials
func (s *Server) adminResetPassword(c *gin.Context) {
	var req AdminResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)

	var admin models.User
	if err := models.FindByID(s.db, sessionData.UserID, &admin); err != nil {
		s.logger.Error().Err(err).Msg("Failed to load administrator")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.AdminPassword, admin.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid administrator password"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	passwordHash, err := auth.HashPassword(s.config.Auth.DefaultPassword)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash default password")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"password_hash":          passwordHash,
		"using_default_password": true,
	}).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to reset password")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to reset password"})
		return
	}

	details, _ := json.Marshal(map[string]bool{"reset_to_default": true})
	s.recordActivity(tasks.ActivityPayload{
		AdminID: sessionData.UserID,
		UserID:  user.ID,
		Action:  "admin_password_reset",
		Details: string(details),
	})

	s.logger.Info().Str("user_id", user.ID).Str("reset_by", sessionData.UserID).Msg("Password reset to default")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password reset to default"})
}
