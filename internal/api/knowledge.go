package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/service"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

const (
	defaultSearchK = 3
	maxSearchK     = 20
)

// KnowledgeHandler adds and searches knowledge documents.
type KnowledgeHandler struct {
	knowledge service.IKnowledgeService
	log       *logger.Logger
}

func NewKnowledgeHandler(knowledge service.IKnowledgeService, log *logger.Logger) *KnowledgeHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &KnowledgeHandler{knowledge: knowledge, log: log}
}

func (h *KnowledgeHandler) RegisterRoutes(router *gin.RouterGroup) {
	knowledge := router.Group("/knowledge")
	{
		knowledge.POST("", h.AddKnowledge)
		knowledge.GET("/search", h.Search)
	}
}

func (h *KnowledgeHandler) AddKnowledge(c *gin.Context) {
	var req types.CreateKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.knowledge.AddKnowledge(c.Request.Context(), &models.KnowledgeDocument{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Keywords: models.JSONBStringArray(req.Keywords),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidKnowledge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("failed to add knowledge", "category", req.Category, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add knowledge"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "document": doc})
}

func (h *KnowledgeHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	k := defaultSearchK
	if raw := c.Query("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "k must be a positive integer"})
			return
		}
		k = n
	}
	if k > maxSearchK {
		k = maxSearchK
	}

	hits, err := h.knowledge.Search(c.Request.Context(), query, k, strings.ToLower(c.Query("category")))
	if err != nil {
		h.log.Error("knowledge search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search knowledge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": hits})
}
