package service

import (
	"context"

	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
	pgvector "github.com/pgvector/pgvector-go"
)

// RuleLookup selects rules whose condition key equals, case-insensitively,
// any of the given allergies or diseases.
type RuleLookup interface {
	GetMatchingRules(ctx context.Context, allergies, diseases []string) ([]models.AnalysisRule, error)
}

// KnowledgeSearcher returns documents ordered by descending similarity.
// An empty category searches every category.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, k int, category string) ([]types.KnowledgeHit, error)
}

// Synthesizer turns a prompt into a structured analysis.
type Synthesizer interface {
	Synthesize(ctx context.Context, systemPrompt, userPrompt string) (*types.RAGAnalysis, error)
}

// Embedder produces a vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
}

// IRuleService manages the rule table.
type IRuleService interface {
	RuleLookup
	AddRule(ctx context.Context, rule *models.AnalysisRule) (*models.AnalysisRule, error)
	ListRules(ctx context.Context, ruleType string) ([]models.AnalysisRule, error)
	DeleteRule(ctx context.Context, id string) error
}

// IKnowledgeService manages the knowledge store.
type IKnowledgeService interface {
	KnowledgeSearcher
	AddKnowledge(ctx context.Context, doc *models.KnowledgeDocument) (*models.KnowledgeDocument, error)
}

// IAnalysisService is the analysis entry point used by the HTTP layer.
type IAnalysisService interface {
	Analyze(ctx context.Context, profile types.UserProfile, product types.ProductData) types.AnalysisReport
	AnalyzeRuleOnly(ctx context.Context, profile types.UserProfile, product types.ProductData) types.AnalysisReport
}

// IHistoryService stores and summarizes analyses per user.
type IHistoryService interface {
	Record(ctx context.Context, userID string, product types.ProductData, report types.AnalysisReport) (*models.ScanHistory, error)
	List(ctx context.Context, userID string, limit, offset int) ([]models.ScanHistory, error)
	Stats(ctx context.Context, userID, period string) (*types.ScanStats, error)
}

// ProfileSource loads the profile a user saved, for requests that omit one.
type ProfileSource interface {
	StoredProfile(ctx context.Context, userID string) (*types.UserProfile, error)
}

// IUserService manages accounts and their stored profiles.
type IUserService interface {
	ProfileSource
	Register(ctx context.Context, req types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req types.LoginRequest) (string, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, req types.UpdateProfileRequest) (*models.User, error)
}

// IAllergyCatalog lists the selectable allergies.
type IAllergyCatalog interface {
	List(ctx context.Context) ([]models.Allergy, error)
}
