package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/ecogate-dev/ecogate/internal/auth"
	"github.com/ecogate-dev/ecogate/internal/models"
)

// Cookie names for the ambient session credentials. Both are HttpOnly; the
// console never handles token material in application memory.
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

var (
	ErrMissingCookie   = errors.New("missing session cookie")
	ErrInvalidToken    = errors.New("invalid token")
	ErrUserNotFound    = errors.New("user not found")
	ErrAccountInactive = errors.New("account inactive")
)

func setSession(c *gin.Context, sessionData *auth.SessionData) {
	c.Set("session", sessionData)
}

// GetSessionData returns the authenticated session attached to the request
func GetSessionData(c *gin.Context) (*auth.SessionData, bool) {
	session, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	sessionData, ok := session.(*auth.SessionData)
	return sessionData, ok
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"message": message})
	c.Abort()
}

// CookieAuthMiddleware validates the access token cookie and loads the user
func CookieAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(AccessCookieName)
		if err != nil || token == "" {
			respondWithError(c, log, http.StatusUnauthorized, ErrMissingCookie, "Authentication required")
			return
		}

		claims, err := auth.ValidateToken(token, auth.TokenTypeAccess)
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired session")
			return
		}

		// Verify user still exists and is active
		var user models.User
		if err := db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("User not found")
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}

		if user.Status != models.StatusActive {
			respondWithError(c, log, http.StatusUnauthorized, ErrAccountInactive, "Account is inactive")
			return
		}

		setSession(c, &auth.SessionData{
			UserID:               user.ID,
			Email:                user.Email,
			UserLevel:            string(user.UserLevel),
			UsingDefaultPassword: user.UsingDefaultPassword,
		})

		c.Next()
	}
}

// AdministratorOnlyMiddleware ensures the authenticated user is an administrator
func AdministratorOnlyMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionData, exists := GetSessionData(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if sessionData.UserLevel != string(models.LevelAdministrator) {
			respondWithError(c, log, http.StatusForbidden, errors.New("not administrator"), "Administrator access required")
			return
		}

		c.Next()
	}
}

// setAuthCookies attaches a fresh access/refresh cookie pair to the response
func (s *Server) setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	secure := s.config.Auth.SecureCookies
	domain := s.config.Auth.CookieDomain

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookieName, accessToken, int(auth.AccessTokenTTL.Seconds()), "/", domain, secure, true)
	if refreshToken != "" {
		c.SetCookie(RefreshCookieName, refreshToken, int(auth.RefreshTokenTTL.Seconds()), "/", domain, secure, true)
	}
}

// clearAuthCookies expires both session cookies
func (s *Server) clearAuthCookies(c *gin.Context) {
	domain := s.config.Auth.CookieDomain

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookieName, "", -1, "/", domain, s.config.Auth.SecureCookies, true)
	c.SetCookie(RefreshCookieName, "", -1, "/", domain, s.config.Auth.SecureCookies, true)
}
