package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/service"
)

// AllergyHandler serves the allergy catalog.
type AllergyHandler struct {
	catalog service.IAllergyCatalog
	log     *logger.Logger
}

func NewAllergyHandler(catalog service.IAllergyCatalog, log *logger.Logger) *AllergyHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AllergyHandler{catalog: catalog, log: log}
}

func (h *AllergyHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/allergies", h.ListAllergies)
}

func (h *AllergyHandler) ListAllergies(c *gin.Context) {
	allergies, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.log.Error("failed to list allergies", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch allergies"})
		return
	}
	if allergies == nil {
		allergies = []models.Allergy{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": allergies})
}
