package api

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jjikmuck/jjikmuck/backend/internal/mocks"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/service"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
)

func TestListHistory(t *testing.T) {
	history := new(mocks.MockHistoryService)
	history.On("List", mock.Anything, "user-1", 5, 10).Return([]models.ScanHistory{
		{
			ID:                uuid.New(),
			CreatedAt:         time.Now(),
			UserID:            "user-1",
			ProductName:       "땅콩 쿠키",
			Suitability:       "danger",
			Score:             10,
			Source:            "fallback",
			DetectedAllergens: models.JSONBStringArray{"땅콩"},
		},
	}, nil)

	router := newTestRouter(NewHistoryHandler(history, nil))
	w := doJSON(t, router, http.MethodGet, "/api/v1/history/user-1?limit=5&offset=10", nil)

	require.Equal(t, http.StatusOK, w.Code)
	records := decode(t, w)["history"].([]interface{})
	require.Len(t, records, 1)
	record := records[0].(map[string]interface{})
	assert.Equal(t, "땅콩 쿠키", record["productName"])
	assert.Equal(t, "danger", record["suitability"])
	history.AssertExpectations(t)
}

func TestListHistoryEmptyAndError(t *testing.T) {
	history := new(mocks.MockHistoryService)
	history.On("List", mock.Anything, "new-user", 0, 0).Return([]models.ScanHistory{}, nil)
	history.On("List", mock.Anything, "broken", 0, 0).Return(nil, errors.New("db down"))

	router := newTestRouter(NewHistoryHandler(history, nil))

	w := doJSON(t, router, http.MethodGet, "/api/v1/history/new-user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decode(t, w)["history"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/history/broken", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHistoryStats(t *testing.T) {
	history := new(mocks.MockHistoryService)
	history.On("Stats", mock.Anything, "user-1", "week").
		Return(&types.ScanStats{Period: "week", TotalScans: 3, AverageScore: 45.5}, nil)
	history.On("Stats", mock.Anything, "user-1", "year").Return(nil, service.ErrInvalidPeriod)

	router := newTestRouter(NewHistoryHandler(history, nil))

	w := doJSON(t, router, http.MethodGet, "/api/v1/history/user-1/stats?period=week", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["stats"].(map[string]interface{})
	assert.Equal(t, float64(3), stats["totalScans"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/history/user-1/stats?period=year", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	history.AssertExpectations(t)
}

func TestDashboardUsesSignedInUser(t *testing.T) {
	history := new(mocks.MockHistoryService)
	history.On("List", mock.Anything, "user-7", 0, 0).Return([]models.ScanHistory{}, nil)
	history.On("Stats", mock.Anything, "user-7", "month").
		Return(&types.ScanStats{Period: "month", TotalScans: 2}, nil)

	router := newUserRouter("user-7", NewHistoryHandler(history, nil))

	w := doJSON(t, router, http.MethodGet, "/api/v1/dashboard/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{}, decode(t, w)["history"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/dashboard/stats?period=month", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["stats"].(map[string]interface{})["totalScans"])

	// path ids must match the signed-in user
	w = doJSON(t, router, http.MethodGet, "/api/v1/history/user-8", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, router, http.MethodGet, "/api/v1/history/user-8/stats", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	history.AssertExpectations(t)
}

func TestDashboardRequiresUser(t *testing.T) {
	history := new(mocks.MockHistoryService)
	router := newTestRouter(NewHistoryHandler(history, nil))

	w := doJSON(t, router, http.MethodGet, "/api/v1/dashboard/history", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(t, router, http.MethodGet, "/api/v1/dashboard/stats", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	history.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
