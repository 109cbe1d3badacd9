package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/jjikmuck/jjikmuck/backend/internal/database"
	"github.com/jjikmuck/jjikmuck/backend/internal/middleware"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler reports the state of the service and its stores.
type HealthHandler struct {
	db      *gorm.DB
	redis   *redis.Client
	limiter *middleware.RateLimiter
}

// NewHealthHandler creates the handler. Every dependency is optional.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, limiter *middleware.RateLimiter) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, limiter: limiter}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := gin.H{}
	healthy := true
	if h.db != nil {
		if err := database.Ping(ctx, h.db); err != nil {
			checks["database"] = "unavailable"
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if h.redis != nil {
		// a redis outage never makes the service unhealthy
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unavailable"
		} else {
			checks["redis"] = "ok"
		}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"message": "jjikmuck analysis API is running",
		"checks":  checks,
	})
}

// RateLimitStatus reports the caller's remaining requests in the current window.
func (h *HealthHandler) RateLimitStatus(c *gin.Context) {
	if !h.limiter.Enabled() {
		c.JSON(http.StatusOK, gin.H{"enabled": false})
		return
	}

	client := c.GetString(middleware.ClientIDKey)
	if client == "" {
		client = c.ClientIP()
	}
	remaining, resetTime, err := h.limiter.GetRemainingRequests(c.Request.Context(), client)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check rate limit"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"enabled":    true,
		"limit":      h.limiter.Limit(),
		"remaining":  remaining,
		"reset_time": resetTime.Unix(),
		"window":     h.limiter.Window().String(),
	})
}
