package mocks

import (
	"context"

	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/mock"
)

// MockRuleLookup is a mock implementation of service.RuleLookup
type MockRuleLookup struct {
	mock.Mock
}

func (m *MockRuleLookup) GetMatchingRules(ctx context.Context, allergies, diseases []string) ([]models.AnalysisRule, error) {
	args := m.Called(ctx, allergies, diseases)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AnalysisRule), args.Error(1)
}

// MockKnowledgeSearcher is a mock implementation of service.KnowledgeSearcher
type MockKnowledgeSearcher struct {
	mock.Mock
}

func (m *MockKnowledgeSearcher) Search(ctx context.Context, query string, k int, category string) ([]types.KnowledgeHit, error) {
	args := m.Called(ctx, query, k, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.KnowledgeHit), args.Error(1)
}

// MockSynthesizer is a mock implementation of service.Synthesizer
type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, systemPrompt, userPrompt string) (*types.RAGAnalysis, error) {
	args := m.Called(ctx, systemPrompt, userPrompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RAGAnalysis), args.Error(1)
}

// MockEmbedder is a mock implementation of service.Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(pgvector.Vector), args.Error(1)
}
