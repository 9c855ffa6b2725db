package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecogate-dev/ecogate/internal/auth"
	"github.com/ecogate-dev/ecogate/internal/models"
	"github.com/ecogate-dev/ecogate/internal/tasks"
)

// UpdateProfileRequest carries self-service profile changes. A password
// change requires the current password alongside the new one.
type UpdateProfileRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	MiddleName      *string `json:"middle_name"`
	AvatarURL       *string `json:"avatar_url"`
	CurrentPassword string  `json:"current_password"`
	NewPassword     string  `json:"new_password"`
}

// getMyProfile returns the authenticated user's profile
func (s *Server) getMyProfile(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, userDetail(&user))
}

// updateProfile applies self-service changes. Changing the password clears
// the default-password flag, unlocking the rest of the console.
func (s *Server) updateProfile(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	updates := map[string]interface{}{}
	var fieldsUpdated []string

	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
		fieldsUpdated = append(fieldsUpdated, "first_name")
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
		fieldsUpdated = append(fieldsUpdated, "last_name")
	}
	if req.MiddleName != nil {
		updates["middle_name"] = *req.MiddleName
		fieldsUpdated = append(fieldsUpdated, "middle_name")
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
		fieldsUpdated = append(fieldsUpdated, "avatar_url")
	}

	if req.NewPassword != "" {
		if req.CurrentPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Current password is required to change your password"})
			return
		}
		if err := auth.VerifyPassword(req.CurrentPassword, user.PasswordHash); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Current password is incorrect"})
			return
		}
		if len(req.NewPassword) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Password must be at least 8 characters long"})
			return
		}

		passwordHash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to hash password")
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		updates["password_hash"] = passwordHash
		updates["using_default_password"] = false
		fieldsUpdated = append(fieldsUpdated, "password")
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, userDetail(&user))
		return
	}

	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update profile")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update profile"})
		return
	}

	details, _ := json.Marshal(map[string]interface{}{"fields_updated": fieldsUpdated})
	s.recordActivity(tasks.ActivityPayload{
		UserID:  user.ID,
		Action:  "profile_updated",
		Details: string(details),
	})

	c.JSON(http.StatusOK, userDetail(&user))
}
