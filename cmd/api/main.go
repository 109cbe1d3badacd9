package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/jjikmuck/jjikmuck/backend/config"
	"github.com/jjikmuck/jjikmuck/backend/internal/api"
	"github.com/jjikmuck/jjikmuck/backend/internal/database"
	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/middleware"
	"github.com/jjikmuck/jjikmuck/backend/internal/router"
	"github.com/jjikmuck/jjikmuck/backend/internal/server"
	"github.com/jjikmuck/jjikmuck/backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr, err := logger.New(string(cfg.Environment))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logr.Sync()

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tables, err := loadTables(cfg)
	if err != nil {
		logr.Fatal("failed to load personalization tables", "error", err)
	}

	// Initialize database
	db, err := database.NewGormDB(cfg, logr)
	if err != nil {
		logr.Fatal("failed to connect to database", "error", err)
	}
	if err := database.RunMigrations(ctx, db, logr); err != nil {
		logr.Fatal("failed to run migrations", "error", err)
	}

	redisClient, err := database.NewRedisClient(ctx, cfg, logr)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache and rate limiting", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize services
	var rules service.IRuleService = service.NewRuleRepository(db)
	if redisClient != nil {
		rules = service.NewCachedRuleLookup(rules, redisClient, 0, logr)
	}

	embedder, err := newEmbedder(cfg, logr)
	if err != nil {
		logr.Fatal("failed to create embedder", "error", err)
	}
	knowledge := service.NewKnowledgeStore(db, embedder)

	var synth service.Synthesizer
	if cfg.OpenAIAPIKey != "" {
		s, err := service.NewOpenAISynthesizer(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.LLMTimeout)
		if err != nil {
			logr.Fatal("failed to create synthesizer", "error", err)
		}
		synth = s
	} else {
		logr.Warn("OPENAI_API_KEY not set, every analysis uses the rule-based fallback")
	}

	matcher := service.NewMatcher(tables)
	personalizer := service.NewPersonalizer(tables)
	analysis := service.NewAnalysisService(matcher, personalizer, rules, knowledge, synth, service.AnalysisOptions{
		LLMTimeout:       cfg.LLMTimeout,
		RetrievalTimeout: cfg.RetrievalTimeout,
	}, logr)
	history := service.NewHistoryService(db)

	tokens := service.NewTokenService(cfg.APIKey, cfg.JWTSecret)
	users := service.NewUserService(db, tokens)
	catalog := service.NewAllergyCatalog(db)
	if n, err := catalog.Seed(ctx, tables); err != nil {
		logr.Warn("failed to seed allergy catalog", "error", err)
	} else if n > 0 {
		logr.Info("seeded allergy catalog", "inserted", n)
	}

	s3Cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		logr.Warn("report archive disabled", "error", err)
	}
	archive := service.NewReportArchive(s3Cfg, logr)

	limiter := middleware.NewAnalysisRateLimiter(redisClient, cfg.RateLimitRequests, cfg.RateLimitWindow, logr)

	deps := router.Dependencies{
		Health:             api.NewHealthHandler(db, redisClient, limiter),
		Analysis:           api.NewAnalysisHandler(analysis, history, users, archive, matcher, personalizer, logr),
		Rules:              api.NewRuleHandler(rules, logr),
		Knowledge:          api.NewKnowledgeHandler(knowledge, logr),
		History:            api.NewHistoryHandler(history, logr),
		Accounts:           api.NewAuthHandler(users, logr),
		Profile:            api.NewProfileHandler(users, logr),
		Allergies:          api.NewAllergyHandler(catalog, logr),
		Limiter:            limiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Log:                logr,
	}
	if tokens.Enabled() {
		deps.Auth = tokens
	} else {
		logr.Warn("API_KEY not set, API authentication disabled")
	}

	// Create and start server
	srv := server.New(cfg, router.SetupRouter(deps), logr)
	if err := srv.Start(ctx); err != nil {
		logr.Fatal("server error", "error", err)
	}
}

func loadTables(cfg *config.Config) (*config.Tables, error) {
	if cfg.TablesPath != "" {
		return config.LoadTables(cfg.TablesPath)
	}
	return config.DefaultTables()
}

func newEmbedder(cfg *config.Config, logr *logger.Logger) (service.Embedder, error) {
	if cfg.OpenAIAPIKey == "" {
		logr.Info("using local hash embeddings")
		return service.NewHashEmbedder(cfg.EmbeddingDimension), nil
	}
	embedder, err := service.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.EmbeddingModel, cfg.EmbeddingDimension)
	if err != nil {
		return nil, err
	}
	return embedder, nil
}
