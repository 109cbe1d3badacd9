package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jjikmuck/jjikmuck/backend/internal/logger"
	"github.com/jjikmuck/jjikmuck/backend/internal/mocks"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/testhelpers"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedKnowledge(t *testing.T, store *KnowledgeStore) {
	t.Helper()
	docs := []models.KnowledgeDocument{
		{Title: "땅콩 알레르기", Content: "땅콩 알레르기는 소량으로도 아나필락시스를 일으킬 수 있습니다.", Category: "Allergies"},
		{Title: "우유 알레르기", Content: "우유 알레르기가 있다면 유청과 카제인도 피해야 합니다.", Category: "allergies", Keywords: models.JSONBStringArray{"유청", "카제인"}},
		{Title: "땅콩과 심혈관", Content: "땅콩은 불포화지방이 풍부합니다.", Category: "diseases"},
	}
	for i := range docs {
		_, err := store.AddKnowledge(context.Background(), &docs[i])
		require.NoError(t, err)
	}
}

func TestKnowledgeStoreAddKnowledge(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	store := NewKnowledgeStore(db, NewHashEmbedder(0))

	doc, err := store.AddKnowledge(context.Background(), &models.KnowledgeDocument{
		Title:    "나트륨",
		Content:  "성인의 나트륨 권장 섭취량은 2000mg 이하입니다.",
		Category: " Nutrition ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.KnowledgeNutrition, doc.Category)
	require.NotNil(t, doc.Embedding)
	assert.Len(t, doc.Embedding.Slice(), defaultEmbeddingDim)
	assert.NotNil(t, doc.Keywords)

	var count int64
	require.NoError(t, db.Model(&models.KnowledgeDocument{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = store.AddKnowledge(context.Background(), &models.KnowledgeDocument{Title: "빈 문서", Category: "nutrition"})
	assert.ErrorIs(t, err, ErrInvalidKnowledge)
	_, err = store.AddKnowledge(context.Background(), &models.KnowledgeDocument{Content: "내용"})
	assert.ErrorIs(t, err, ErrInvalidKnowledge)
}

func TestKnowledgeStoreAddKnowledgeEmbedFailure(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	embedder := new(mocks.MockEmbedder)
	embedder.On("Embed", mock.Anything, mock.Anything).Return(emptyVector(), errors.New("quota exceeded"))

	_, err := NewKnowledgeStore(db, embedder).AddKnowledge(context.Background(), &models.KnowledgeDocument{
		Content:  "내용",
		Category: "nutrition",
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.KnowledgeDocument{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestKnowledgeStoreKeywordSearch(t *testing.T) {
	db := testhelpers.SetupSQLiteDB(t)
	store := NewKnowledgeStore(db, NewHashEmbedder(0))
	seedKnowledge(t, store)
	ctx := context.Background()

	hits, err := store.Search(ctx, "땅콩 알레르기", 2, models.KnowledgeAllergies)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "땅콩 알레르기", hits[0].Title)
	assert.InDelta(t, 1.0, hits[0].Similarity, 1e-9)
	assert.Equal(t, "우유 알레르기", hits[1].Title)
	assert.InDelta(t, 0.5, hits[1].Similarity, 1e-9)
	for _, h := range hits {
		assert.Equal(t, models.KnowledgeAllergies, h.Category)
	}

	hits, err = store.Search(ctx, "카제인", 1, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "우유 알레르기", hits[0].Title)

	hits, err = store.Search(ctx, "땅콩", 10, "")
	require.NoError(t, err)
	assert.Len(t, hits, 3)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Similarity, hits[i].Similarity)
	}

	hits, err = store.Search(ctx, "땅콩", 0, "")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestKnowledgeStoreVectorSearch(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	store := NewKnowledgeStore(db, NewHashEmbedder(0))
	seedKnowledge(t, store)

	hits, err := store.Search(context.Background(), "땅콩 알레르기", 2, models.KnowledgeAllergies)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "땅콩 알레르기", hits[0].Title)
	assert.GreaterOrEqual(t, hits[0].Similarity, hits[1].Similarity)
}

func TestContextQueries(t *testing.T) {
	queries := contextQueries([]string{"우유"}, []string{"당뇨", "고혈압"}, []string{"밀"})
	require.Len(t, queries, 4)
	assert.Equal(t, contextQuery{text: "알레르기 우유 밀", k: 2, category: models.KnowledgeAllergies}, queries[0])
	assert.Equal(t, contextQuery{text: "당뇨 식이 관리", k: 2, category: models.KnowledgeDiseases}, queries[1])
	assert.Equal(t, contextQuery{text: "고혈압 식이 관리", k: 2, category: models.KnowledgeDiseases}, queries[2])
	assert.Equal(t, contextQuery{text: "일일 권장 영양소", k: 1, category: models.KnowledgeNutrition}, queries[3])

	queries = contextQueries(nil, nil, nil)
	require.Len(t, queries, 1)
	assert.Equal(t, models.KnowledgeNutrition, queries[0].category)
}

func TestContextBuilderBuild(t *testing.T) {
	searcher := new(mocks.MockKnowledgeSearcher)
	searcher.On("Search", mock.Anything, "알레르기 우유", 2, models.KnowledgeAllergies).
		Return([]types.KnowledgeHit{{Content: "우유 문서"}, {Content: "  "}}, nil)
	searcher.On("Search", mock.Anything, "당뇨 식이 관리", 2, models.KnowledgeDiseases).
		Return([]types.KnowledgeHit{{Content: "당뇨 문서"}}, nil)
	searcher.On("Search", mock.Anything, "고혈압 식이 관리", 2, models.KnowledgeDiseases).
		Return(nil, errors.New("connection reset"))
	searcher.On("Search", mock.Anything, "일일 권장 영양소", 1, models.KnowledgeNutrition).
		Return([]types.KnowledgeHit{{Content: "영양 문서"}}, nil)

	builder := NewContextBuilder(searcher, logger.Nop())
	got := builder.Build(context.Background(), []string{"우유"}, []string{"당뇨", "고혈압"}, nil)

	assert.Equal(t, "우유 문서\n\n당뇨 문서\n\n영양 문서", got)
	searcher.AssertExpectations(t)
}

func TestContextBuilderNilSearcher(t *testing.T) {
	assert.Empty(t, NewContextBuilder(nil, nil).Build(context.Background(), []string{"우유"}, nil, nil))
}
