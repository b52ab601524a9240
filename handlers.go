package main

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func respondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": message})
}

// respondError maps service errors onto the response envelope. Unclassified
// errors become a generic 500; the underlying message is only exposed outside
// production.
func respondError(c *gin.Context, err error, notFoundMessage string) {

	var validationErr *models.ValidationError
	var uploadErr *uploadError

	switch {
	case errors.As(err, &validationErr):
		respondBadRequest(c, validationErr.Message)
	case errors.As(err, &uploadErr):
		respondBadRequest(c, uploadErr.message)
	case errors.Is(err, utils.ErrorRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound):
		if notFoundMessage == "" {
			notFoundMessage = "Record not found"
		}
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": notFoundMessage})
	case errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Invalid credentials"})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		respondBadRequest(c, "Duplicate entry")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		respondBadRequest(c, "Foreign key constraint violation")
	default:
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(config.GetLogger(), "handlers.go", "respondError", c.FullPath()+" cid="+cid, nil, err)
		body := gin.H{"success": false, "error": "Internal server error"}
		if !strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
			body["message"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respondBadRequest(c, "Invalid id")
		return 0, false
	}
	return id, true
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "API is running"})
}

/* Sites */

func getSitesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetSites(c.Request.Context())
		if err != nil {
			respondError(c, err, "")
			return
		}
		respondData(c, results)
	}
}

func createSiteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSite
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBadRequest(c, "Site name is required")
			return
		}
		site, err := models.CreateSite(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err, "")
			return
		}
		respondData(c, site)
	}
}

func deleteSiteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if _, err := models.DeleteSite(c.Request.Context(), id); err != nil {
			respondError(c, err, "Site not found")
			return
		}
		respondMessage(c, "Site deleted successfully")
	}
}

/* Violations */

func getViolationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := models.GetViolations(c.Request.Context())
		if err != nil {
			respondError(c, err, "")
			return
		}
		respondData(c, results)
	}
}

func createViolationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewViolation
		if err := c.ShouldBindJSON(&input); err != nil {
			respondBadRequest(c, "Violation is required")
			return
		}
		violation, err := models.CreateViolation(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err, "")
			return
		}
		respondData(c, violation)
	}
}

func deleteViolationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		if _, err := models.DeleteViolation(c.Request.Context(), id); err != nil {
			respondError(c, err, "Violation not found")
			return
		}
		respondMessage(c, "Violation deleted successfully")
	}
}

type violationOrderRequest struct {
	Violations []models.ViolationOrderInput `json:"violations" binding:"required"`
}

func reorderViolationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req violationOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "Violations are required")
			return
		}
		if err := models.ReorderViolations(c.Request.Context(), req.Violations); err != nil {
			respondError(c, err, "Violation not found")
			return
		}
		respondMessage(c, "Violation order updated successfully")
	}
}
