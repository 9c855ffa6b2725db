package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ecogate-dev/ecogate/internal/auth"
	"github.com/ecogate-dev/ecogate/internal/models"
	"github.com/ecogate-dev/ecogate/internal/tasks"
)

// SetupRequest represents the first-run setup request
type SetupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    *UserDetail `json:"user,omitempty"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	FirstName            string    `json:"first_name"`
	LastName             string    `json:"last_name"`
	MiddleName           string    `json:"middle_name,omitempty"`
	UserLevel            string    `json:"user_level"`
	Status               string    `json:"status"`
	AvatarURL            string    `json:"avatar_url,omitempty"`
	UsingDefaultPassword bool      `json:"using_default_password"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func userDetail(u *models.User) *UserDetail {
	return &UserDetail{
		ID:                   u.ID,
		Email:                u.Email,
		FirstName:            u.FirstName,
		LastName:             u.LastName,
		MiddleName:           u.MiddleName,
		UserLevel:            string(u.UserLevel),
		Status:               u.Status,
		AvatarURL:            u.AvatarURL,
		UsingDefaultPassword: u.UsingDefaultPassword,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
}

// setupFirstAdministrator creates the first administrator account.
// Only works while no users exist.
func (s *Server) setupFirstAdministrator(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"message": "Setup already completed"})
		return
	}

	// Generate JWT secret (64 hex characters = 32 bytes of randomness)
	jwtSecretBytes := make([]byte, 32)
	if _, err := rand.Read(jwtSecretBytes); err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate JWT secret")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to initialize system"})
		return
	}
	jwtSecret := hex.EncodeToString(jwtSecretBytes)

	settings := &models.Settings{JWTSecret: jwtSecret}
	if err := s.db.Create(settings).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create settings")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to initialize system"})
		return
	}

	auth.InitializeJWT(jwtSecret)

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create user"})
		return
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		UserLevel:    models.LevelAdministrator,
		Status:       models.StatusActive,
	}

	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create administrator")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create user"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("First administrator created")

	s.issueSession(c, user)
	c.JSON(http.StatusOK, LoginResponse{Success: true, User: userDetail(user)})
}

// login authenticates with email and password and sets the session cookies
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
		return
	}

	if user.Status != models.StatusActive {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Your account is inactive. Please contact an administrator."})
		return
	}

	if !s.issueSession(c, &user) {
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")
	s.recordActivity(tasks.ActivityPayload{UserID: user.ID, Action: "login"})

	c.JSON(http.StatusOK, LoginResponse{Success: true, User: userDetail(&user)})
}

// issueSession generates the cookie pair; responds with an error and returns
// false when token generation fails.
func (s *Server) issueSession(c *gin.Context, user *models.User) bool {
	accessToken, err := auth.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create session"})
		return false
	}

	refreshToken, err := auth.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create session"})
		return false
	}

	s.setAuthCookies(c, accessToken, refreshToken)
	return true
}

// refreshToken rotates the access cookie from a valid refresh cookie.
// Responds {"refreshed": true} on success, 401 otherwise.
func (s *Server) refreshToken(c *gin.Context) {
	token, err := c.Cookie(RefreshCookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"refreshed": false, "message": "No refresh token"})
		return
	}

	claims, err := auth.ValidateToken(token, auth.TokenTypeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"refreshed": false, "message": "Invalid or expired refresh token"})
		return
	}

	// The user may have been deactivated since the refresh token was minted
	var user models.User
	if err := s.db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"refreshed": false, "message": "User not found"})
		return
	}
	if user.Status != models.StatusActive {
		c.JSON(http.StatusUnauthorized, gin.H{"refreshed": false, "message": "Account is inactive"})
		return
	}

	accessToken, err := auth.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"refreshed": false, "message": "Failed to refresh session"})
		return
	}

	s.setAuthCookies(c, accessToken, "")
	c.JSON(http.StatusOK, gin.H{"refreshed": true})
}

// logout clears both session cookies. Always succeeds.
func (s *Server) logout(c *gin.Context) {
	s.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// isAuthenticated reports whether the access cookie is valid.
// The middleware has already done the work by the time this runs.
func (s *Server) isAuthenticated(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}
