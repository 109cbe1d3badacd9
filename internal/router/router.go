package router

import (
	"github.com/gin-gonic/gin"

	"github.com/jjikmuck/jjikmuck/backend/internal/api"
	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/middleware"
)

// Dependencies are the handlers and middleware the router mounts.
type Dependencies struct {
	Health    *api.HealthHandler
	Analysis  *api.AnalysisHandler
	Rules     *api.RuleHandler
	Knowledge *api.KnowledgeHandler
	History   *api.HistoryHandler

	// Accounts and Allergies are public; Profile needs a user login token.
	// Any of the three may be nil.
	Accounts  *api.AuthHandler
	Profile   *api.ProfileHandler
	Allergies *api.AllergyHandler

	// Auth protects every /api/v1 route except health. Nil disables auth.
	Auth    middleware.TokenValidator
	Limiter *middleware.RateLimiter

	CORSAllowedOrigins []string
	Log                *logger.Logger
}

// SetupRouter configures the application routes
func SetupRouter(deps Dependencies) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	router := gin.New()
	router.Use(middleware.ErrorHandler(log))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(deps.CORSAllowedOrigins))

	// Health check endpoints (no auth required)
	router.GET("/health", deps.Health.HealthCheck)
	router.GET("/api/health", deps.Health.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.GET("/health", deps.Health.HealthCheck)

	public := v1.Group("")
	public.Use(deps.Limiter.RateLimitMiddleware())
	{
		if deps.Accounts != nil {
			deps.Accounts.RegisterRoutes(public)
		}
		if deps.Allergies != nil {
			deps.Allergies.RegisterRoutes(public)
		}
	}

	protected := v1.Group("")
	if deps.Auth != nil {
		protected.Use(middleware.AuthMiddleware(deps.Auth))
	}
	protected.Use(deps.Limiter.RateLimitMiddleware())
	{
		protected.GET("/rate-limit", deps.Health.RateLimitStatus)
		deps.Analysis.RegisterRoutes(protected)
		deps.Rules.RegisterRoutes(protected)
		deps.Knowledge.RegisterRoutes(protected)
		deps.History.RegisterRoutes(protected)
		if deps.Profile != nil {
			deps.Profile.RegisterRoutes(protected)
		}
	}

	return router
}
