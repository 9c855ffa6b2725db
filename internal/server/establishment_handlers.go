package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ecogate-dev/ecogate/internal/models"
	"github.com/ecogate-dev/ecogate/internal/tasks"
)

// EstablishmentRequest carries establishment create/update fields
type EstablishmentRequest struct {
	Name               string `json:"name" binding:"required"`
	AddressLine        string `json:"address_line" binding:"required"`
	Barangay           string `json:"barangay"`
	City               string `json:"city" binding:"required"`
	Province           string `json:"province"`
	Region             string `json:"region"`
	PostalCode         string `json:"postal_code"`
	Latitude           string `json:"latitude"`
	Longitude          string `json:"longitude"`
	YearEstablished    string `json:"year_established"`
	NatureOfBusinessID string `json:"nature_of_business_id"`
}

// listEstablishments returns the registry. `archived=true` switches to the
// archive view; `search` filters by name or city.
func (s *Server) listEstablishments(c *gin.Context) {
	query := s.db.Preload("NatureOfBusiness").Order("created_at DESC")

	archived := c.DefaultQuery("archived", "false") == "true"
	query = query.Where("is_archived = ?", archived)

	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR city LIKE ?", like, like)
	}

	var establishments []models.Establishment
	if err := query.Find(&establishments).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list establishments")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, establishments)
}

// createEstablishment registers a new establishment
func (s *Server) createEstablishment(c *gin.Context) {
	var req EstablishmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	if req.NatureOfBusinessID != "" {
		var nob models.NatureOfBusiness
		if err := models.FindByID(s.db, req.NatureOfBusinessID, &nob); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown nature of business"})
			return
		}
	}

	establishment := &models.Establishment{
		Name:               req.Name,
		AddressLine:        req.AddressLine,
		Barangay:           req.Barangay,
		City:               req.City,
		Province:           req.Province,
		Region:             req.Region,
		PostalCode:         req.PostalCode,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		YearEstablished:    req.YearEstablished,
		NatureOfBusinessID: models.NullableID(req.NatureOfBusinessID),
	}

	if err := s.db.Create(establishment).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create establishment")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create establishment"})
		return
	}

	sessionData, _ := GetSessionData(c)
	details, _ := json.Marshal(map[string]string{"name": establishment.Name})
	s.recordActivity(tasks.ActivityPayload{
		AdminID: sessionData.UserID,
		Action:  "establishment_created",
		Details: string(details),
	})

	c.JSON(http.StatusCreated, establishment)
}

// updateEstablishment applies changes to a registered establishment
func (s *Server) updateEstablishment(c *gin.Context) {
	id := c.Param("id")

	var establishment models.Establishment
	if err := models.FindByID(s.db, id, &establishment); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Establishment not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find establishment")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	var req EstablishmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	updates := models.Establishment{
		Name:               req.Name,
		AddressLine:        req.AddressLine,
		Barangay:           req.Barangay,
		City:               req.City,
		Province:           req.Province,
		Region:             req.Region,
		PostalCode:         req.PostalCode,
		Latitude:           req.Latitude,
		Longitude:          req.Longitude,
		YearEstablished:    req.YearEstablished,
		NatureOfBusinessID: models.NullableID(req.NatureOfBusinessID),
	}

	if err := s.db.Model(&establishment).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update establishment")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update establishment"})
		return
	}

	sessionData, _ := GetSessionData(c)
	details, _ := json.Marshal(map[string]string{"name": establishment.Name})
	s.recordActivity(tasks.ActivityPayload{
		AdminID: sessionData.UserID,
		Action:  "establishment_updated",
		Details: string(details),
	})

	c.JSON(http.StatusOK, establishment)
}

// archiveEstablishment moves an establishment to the archive view
func (s *Server) archiveEstablishment(c *gin.Context) {
	s.setArchived(c, true, "establishment_archived")
}

// unarchiveEstablishment restores an establishment from the archive
func (s *Server) unarchiveEstablishment(c *gin.Context) {
	s.setArchived(c, false, "establishment_unarchived")
}

func (s *Server) setArchived(c *gin.Context, archived bool, action string) {
	id := c.Param("id")

	var establishment models.Establishment
	if err := models.FindByID(s.db, id, &establishment); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"message": "Establishment not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find establishment")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if err := s.db.Model(&establishment).Update("is_archived", archived).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to change archive state")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update establishment"})
		return
	}

	sessionData, _ := GetSessionData(c)
	details, _ := json.Marshal(map[string]string{"name": establishment.Name})
	s.recordActivity(tasks.ActivityPayload{
		AdminID: sessionData.UserID,
		Action:  action,
		Details: string(details),
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "is_archived": archived})
}

// listNatureOfBusiness returns the business category reference list
func (s *Server) listNatureOfBusiness(c *gin.Context) {
	var categories []models.NatureOfBusiness
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list nature of business")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, categories)
}
