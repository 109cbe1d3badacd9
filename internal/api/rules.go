package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/service"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

// RuleHandler manages analysis rules.
type RuleHandler struct {
	rules service.IRuleService
	log   *logger.Logger
}

func NewRuleHandler(rules service.IRuleService, log *logger.Logger) *RuleHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &RuleHandler{rules: rules, log: log}
}

func (h *RuleHandler) RegisterRoutes(router *gin.RouterGroup) {
	rules := router.Group("/rules")
	{
		rules.POST("", h.CreateRule)
		rules.GET("", h.ListRules)
		rules.DELETE("/:id", h.DeleteRule)
	}
}

func (h *RuleHandler) CreateRule(c *gin.Context) {
	var req types.CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule, err := h.rules.AddRule(c.Request.Context(), service.RuleFromRequest(req))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRule) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("failed to create rule", "condition_key", req.ConditionKey, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create rule"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "rule": rule})
}

func (h *RuleHandler) ListRules(c *gin.Context) {
	rules, err := h.rules.ListRules(c.Request.Context(), c.Query("type"))
	if err != nil {
		h.log.Error("failed to list rules", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "rules": rules})
}

func (h *RuleHandler) DeleteRule(c *gin.Context) {
	err := h.rules.DeleteRule(c.Request.Context(), c.Param("id"))
	if errors.Is(err, service.ErrRuleNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}
	if err != nil {
		h.log.Error("failed to delete rule", "rule_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete rule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
