package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/middleware"
	"github.com/jjikmuck/jjikmuck/backend/internal/service"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

// HistoryHandler serves a user's stored analyses and their summary.
type HistoryHandler struct {
	history service.IHistoryService
	log     *logger.Logger
}

func NewHistoryHandler(history service.IHistoryService, log *logger.Logger) *HistoryHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &HistoryHandler{history: history, log: log}
}

func (h *HistoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	history := router.Group("/history")
	{
		history.GET("/:userId", h.ListHistory)
		history.GET("/:userId/stats", h.Stats)
	}
	dashboard := router.Group("/dashboard")
	{
		dashboard.GET("/history", h.DashboardHistory)
		dashboard.GET("/stats", h.DashboardStats)
	}
}

func (h *HistoryHandler) ListHistory(c *gin.Context) {
	if userID, ok := h.pathUser(c); ok {
		h.list(c, userID)
	}
}

func (h *HistoryHandler) Stats(c *gin.Context) {
	if userID, ok := h.pathUser(c); ok {
		h.stats(c, userID)
	}
}

// DashboardHistory lists the signed-in user's scans.
func (h *HistoryHandler) DashboardHistory(c *gin.Context) {
	if userID, ok := h.signedInUser(c); ok {
		h.list(c, userID)
	}
}

// DashboardStats summarizes the signed-in user's scans.
func (h *HistoryHandler) DashboardStats(c *gin.Context) {
	if userID, ok := h.signedInUser(c); ok {
		h.stats(c, userID)
	}
}

// pathUser returns the :userId parameter. A signed-in user may only read
// their own history; API clients may read any.
func (h *HistoryHandler) pathUser(c *gin.Context) (string, bool) {
	userID := c.Param("userId")
	if current, ok := middleware.CurrentUser(c); ok && current != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's history"})
		return "", false
	}
	return userID, true
}

func (h *HistoryHandler) signedInUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user login required"})
	}
	return userID, ok
}

func (h *HistoryHandler) list(c *gin.Context, userID string) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	entries, err := h.history.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.log.Error("failed to list history", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	records := make([]types.ScanRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, service.ToScanRecord(e))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": records})
}

func (h *HistoryHandler) stats(c *gin.Context, userID string) {
	stats, err := h.history.Stats(c.Request.Context(), userID, c.Query("period"))
	if errors.Is(err, service.ErrInvalidPeriod) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Error("failed to compute stats", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}
