package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/jjikmuck/jjikmuck/backend/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routeRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

func newTestRouter(handlers ...routeRegistrar) *gin.Engine {
	router := gin.New()
	v1 := router.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(v1)
	}
	return router
}

// newUserRouter mounts handlers behind a stand-in for AuthMiddleware that
// signs every request in as userID.
func newUserRouter(userID string, handlers ...routeRegistrar) *gin.Engine {
	router := gin.New()
	v1 := router.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.ClientIDKey, userID)
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	})
	for _, h := range handlers {
		h.RegisterRoutes(v1)
	}
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
