package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jjikmuck/jjikmuck/backend/internal/mocks"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/service"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

func TestAddKnowledge(t *testing.T) {
	knowledge := new(mocks.MockKnowledgeService)
	knowledge.On("AddKnowledge", mock.Anything, mock.MatchedBy(func(d *models.KnowledgeDocument) bool {
		return d.Title == "나트륨" && len(d.Keywords) == 1
	})).Return(&models.KnowledgeDocument{Title: "나트륨", Category: "nutrition"}, nil)

	router := newTestRouter(NewKnowledgeHandler(knowledge, nil))
	w := doJSON(t, router, http.MethodPost, "/api/v1/knowledge", types.CreateKnowledgeRequest{
		Title:    "나트륨",
		Content:  "하루 2000mg 이하",
		Category: "nutrition",
		Keywords: []string{"sodium"},
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])
	knowledge.AssertExpectations(t)
}

func TestAddKnowledgeErrors(t *testing.T) {
	knowledge := new(mocks.MockKnowledgeService)
	router := newTestRouter(NewKnowledgeHandler(knowledge, nil))

	w := doJSON(t, router, http.MethodPost, "/api/v1/knowledge", `{"title": "빈 문서"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := types.CreateKnowledgeRequest{Title: "t", Content: "c", Category: "nutrition"}
	knowledge.On("AddKnowledge", mock.Anything, mock.Anything).Return(nil, service.ErrInvalidKnowledge).Once()
	w = doJSON(t, router, http.MethodPost, "/api/v1/knowledge", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	knowledge.On("AddKnowledge", mock.Anything, mock.Anything).Return(nil, errors.New("embedding quota")).Once()
	w = doJSON(t, router, http.MethodPost, "/api/v1/knowledge", req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSearchKnowledge(t *testing.T) {
	knowledge := new(mocks.MockKnowledgeService)
	hits := []types.KnowledgeHit{{Title: "땅콩 알레르기", Category: "allergies", Similarity: 0.9}}
	knowledge.On("Search", mock.Anything, "땅콩", defaultSearchK, "allergies").Return(hits, nil)
	knowledge.On("Search", mock.Anything, "나트륨", maxSearchK, "").Return([]types.KnowledgeHit{}, nil)

	router := newTestRouter(NewKnowledgeHandler(knowledge, nil))

	w := doJSON(t, router, http.MethodGet, "/api/v1/knowledge/search?q=%EB%95%85%EC%BD%A9&category=Allergies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["results"], 1)

	w = doJSON(t, router, http.MethodGet, "/api/v1/knowledge/search?q=%EB%82%98%ED%8A%B8%EB%A5%A8&k=500", nil)
	require.Equal(t, http.StatusOK, w.Code)

	knowledge.AssertExpectations(t)
}

func TestSearchKnowledgeValidation(t *testing.T) {
	knowledge := new(mocks.MockKnowledgeService)
	router := newTestRouter(NewKnowledgeHandler(knowledge, nil))

	for _, path := range []string{
		"/api/v1/knowledge/search",
		"/api/v1/knowledge/search?q=%20",
		"/api/v1/knowledge/search?q=x&k=zero",
		"/api/v1/knowledge/search?q=x&k=-1",
	} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}

	knowledge.On("Search", mock.Anything, "x", defaultSearchK, "").Return(nil, errors.New("boom"))
	w := doJSON(t, router, http.MethodGet, "/api/v1/knowledge/search?q=x", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
