package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecogate-dev/ecogate/internal/models"
)

// listActivityLogs returns the audit trail, paginated and filterable by
// action, affected user and a free-text search over actions.
func (s *Server) listActivityLogs(c *gin.Context) {
	params := parsePageParams(c)

	query := s.db.Model(&models.ActivityLog{})

	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if adminID := c.Query("admin_id"); adminID != "" {
		query = query.Where("admin_id = ?", adminID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("action LIKE ?", "%"+search+"%")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count activity logs")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	var logs []models.ActivityLog
	if err := query.
		Preload("Admin").Preload("User").
		Order("created_at DESC").
		Limit(params.PageSize).Offset(params.Offset()).
		Find(&logs).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list activity logs")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, paginate(params, count, logs))
}
