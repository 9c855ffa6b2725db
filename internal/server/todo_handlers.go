package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ecogate-dev/ecogate/internal/models"
)

// TodoRequest carries todo create/update fields
type TodoRequest struct {
	Name      string `json:"name" binding:"required"`
	Completed *bool  `json:"completed"`
}

// listTodos returns the authenticated user's dashboard tasks
func (s *Server) listTodos(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var todos []models.Todo
	if err := s.db.Where("owner_id = ?", sessionData.UserID).
		Order("created_at DESC").Find(&todos).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list todos")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, todos)
}

// createTodo adds a dashboard task for the authenticated user
func (s *Server) createTodo(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var req TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	todo := &models.Todo{
		Name:    req.Name,
		OwnerID: sessionData.UserID,
	}
	if req.Completed != nil {
		todo.Completed = *req.Completed
	}

	if err := s.db.Create(todo).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create todo")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create todo"})
		return
	}

	c.JSON(http.StatusCreated, todo)
}

// updateTodo renames or completes one of the user's own tasks
func (s *Server) updateTodo(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	id := c.Param("id")

	var todo models.Todo
	if err := s.db.Where("id = ? AND owner_id = ?", id, sessionData.UserID).
		First(&todo).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Todo not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find todo")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	var req TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	updates := map[string]interface{}{"name": req.Name}
	if req.Completed != nil {
		updates["completed"] = *req.Completed
	}

	if err := s.db.Model(&todo).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update todo")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update todo"})
		return
	}

	c.JSON(http.StatusOK, todo)
}
