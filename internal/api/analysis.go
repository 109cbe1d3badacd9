package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/middleware"
	"github.com/jjikmuck/jjikmuck/backend/internal/service"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

// AnalysisHandler serves the /rag endpoints.
type AnalysisHandler struct {
	analysis     service.IAnalysisService
	history      service.IHistoryService
	profiles     service.ProfileSource
	archive      *service.ReportArchive
	matcher      *service.Matcher
	personalizer *service.Personalizer
	log          *logger.Logger
}

// NewAnalysisHandler creates the handler. history, profiles and archive may be nil.
func NewAnalysisHandler(
	analysis service.IAnalysisService,
	history service.IHistoryService,
	profiles service.ProfileSource,
	archive *service.ReportArchive,
	matcher *service.Matcher,
	personalizer *service.Personalizer,
	log *logger.Logger,
) *AnalysisHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AnalysisHandler{
		analysis:     analysis,
		history:      history,
		profiles:     profiles,
		archive:      archive,
		matcher:      matcher,
		personalizer: personalizer,
		log:          log,
	}
}

func (h *AnalysisHandler) RegisterRoutes(router *gin.RouterGroup) {
	rag := router.Group("/rag")
	{
		rag.POST("/analyze", h.Analyze)
		rag.POST("/analyze-rule-only", h.AnalyzeRuleOnly)
		rag.POST("/match", h.Match)
		rag.POST("/personalization", h.Personalization)
	}
}

// Analyze runs the full pipeline. Collaborator failures never fail the request.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	h.handleAnalysis(c, h.analysis.Analyze)
}

// AnalyzeRuleOnly runs the deterministic path only.
func (h *AnalysisHandler) AnalyzeRuleOnly(c *gin.Context) {
	h.handleAnalysis(c, h.analysis.AnalyzeRuleOnly)
}

type analyzeFunc func(ctx context.Context, profile types.UserProfile, product types.ProductData) types.AnalysisReport

func (h *AnalysisHandler) handleAnalysis(c *gin.Context, analyze analyzeFunc) {
	var req types.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.AnalysisResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	ctx := c.Request.Context()

	userID := req.UserID
	if id, ok := middleware.CurrentUser(c); ok {
		userID = id
	}
	profile := req.UserProfile
	if !req.HasProfile {
		profile = h.storedProfile(ctx, userID)
	}
	if err := service.ValidateProfile(profile); err != nil {
		c.JSON(http.StatusBadRequest, types.AnalysisResponse{Error: err.Error()})
		return
	}

	report := analyze(ctx, profile, req.ProductData)

	reportID := uuid.New().String()
	if h.history != nil {
		entry, err := h.history.Record(ctx, userID, req.ProductData, report)
		if err != nil {
			h.log.Warn("failed to record scan history", "user_id", userID, "error", err)
		} else if entry != nil {
			reportID = entry.ID.String()
		}
	}
	h.archive.Put(ctx, reportID, userID, req.ProductData, report)

	c.JSON(http.StatusOK, types.AnalysisResponse{
		Success:  true,
		Analysis: &report.Analysis,
		Source:   report.Source,
		Findings: report.Findings,
	})
}

// storedProfile returns the saved profile of userID, or an empty profile
// when there is none.
func (h *AnalysisHandler) storedProfile(ctx context.Context, userID string) types.UserProfile {
	if h.profiles == nil || userID == "" {
		return types.UserProfile{}
	}
	stored, err := h.profiles.StoredProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, service.ErrUserNotFound) {
			h.log.Warn("failed to load stored profile", "user_id", userID, "error", err)
		}
		return types.UserProfile{}
	}
	return *stored
}

// Match returns the allergen and diet findings for a list of ingredients.
func (h *AnalysisHandler) Match(c *gin.Context) {
	var req types.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	warnings := h.matcher.Match(
		types.ProductData{Ingredients: req.Ingredients, Allergens: req.Allergens},
		types.UserProfile{Allergies: req.Allergies, DietType: req.DietType}.Normalized(),
	)
	if warnings == nil {
		warnings = []types.MatchWarning{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "warnings": warnings})
}

// Personalization returns the calorie budget and nutrient ceilings for a profile.
func (h *AnalysisHandler) Personalization(c *gin.Context) {
	var profile types.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := service.ValidateProfile(profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := h.personalizer.Personalize(profile.Normalized())
	c.JSON(http.StatusOK, gin.H{"success": true, "personalization": result})
}
