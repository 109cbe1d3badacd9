package mocks

import (
	"context"

	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockRuleService is a mock implementation of service.IRuleService
type MockRuleService struct {
	MockRuleLookup
}

func (m *MockRuleService) AddRule(ctx context.Context, rule *models.AnalysisRule) (*models.AnalysisRule, error) {
	args := m.Called(ctx, rule)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AnalysisRule), args.Error(1)
}

func (m *MockRuleService) ListRules(ctx context.Context, ruleType string) ([]models.AnalysisRule, error) {
	args := m.Called(ctx, ruleType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AnalysisRule), args.Error(1)
}

func (m *MockRuleService) DeleteRule(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockKnowledgeService is a mock implementation of service.IKnowledgeService
type MockKnowledgeService struct {
	MockKnowledgeSearcher
}

func (m *MockKnowledgeService) AddKnowledge(ctx context.Context, doc *models.KnowledgeDocument) (*models.KnowledgeDocument, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.KnowledgeDocument), args.Error(1)
}

// MockAnalysisService is a mock implementation of service.IAnalysisService
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) Analyze(ctx context.Context, profile types.UserProfile, product types.ProductData) types.AnalysisReport {
	args := m.Called(ctx, profile, product)
	return args.Get(0).(types.AnalysisReport)
}

func (m *MockAnalysisService) AnalyzeRuleOnly(ctx context.Context, profile types.UserProfile, product types.ProductData) types.AnalysisReport {
	args := m.Called(ctx, profile, product)
	return args.Get(0).(types.AnalysisReport)
}

// MockHistoryService is a mock implementation of service.IHistoryService
type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) Record(ctx context.Context, userID string, product types.ProductData, report types.AnalysisReport) (*models.ScanHistory, error) {
	args := m.Called(ctx, userID, product, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScanHistory), args.Error(1)
}

func (m *MockHistoryService) List(ctx context.Context, userID string, limit, offset int) ([]models.ScanHistory, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScanHistory), args.Error(1)
}

func (m *MockHistoryService) Stats(ctx context.Context, userID, period string) (*types.ScanStats, error) {
	args := m.Called(ctx, userID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ScanStats), args.Error(1)
}

// MockUserService is a mock implementation of service.IUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, req types.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, req types.LoginRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID string, req types.UpdateProfileRequest) (*models.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) StoredProfile(ctx context.Context, userID string) (*types.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserProfile), args.Error(1)
}

// MockAllergyCatalog is a mock implementation of service.IAllergyCatalog
type MockAllergyCatalog struct {
	mock.Mock
}

func (m *MockAllergyCatalog) List(ctx context.Context) ([]models.Allergy, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Allergy), args.Error(1)
}
