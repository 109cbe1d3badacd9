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
)

func TestListAllergies(t *testing.T) {
	catalog := new(mocks.MockAllergyCatalog)
	catalog.On("List", mock.Anything).Return([]models.Allergy{
		{ID: 1, Name: "우유", DisplayName: "우유", Aliases: models.JSONBStringArray{"milk"}},
		{ID: 2, Name: "땅콩", DisplayName: "땅콩"},
	}, nil).Once()
	catalog.On("List", mock.Anything).Return(nil, errors.New("db down")).Once()

	router := newTestRouter(NewAllergyHandler(catalog, nil))

	w := doJSON(t, router, http.MethodGet, "/api/v1/allergies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "우유", data[0].(map[string]interface{})["name"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/allergies", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	catalog.AssertExpectations(t)
}
