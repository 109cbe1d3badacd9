package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjikmuck/jjikmuck/backend/internal/testhelpers"
)

func limitedRouter(rl *RateLimiter) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Client"); id != "" {
			c.Set(ClientIDKey, id)
		}
		c.Next()
	})
	router.Use(rl.RateLimitMiddleware())
	router.GET("/analyze", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestRateLimiterDisabledWithoutRedis(t *testing.T) {
	rl := NewAnalysisRateLimiter(nil, 1, time.Minute, nil)
	assert.False(t, rl.Enabled())

	router := limitedRouter(rl)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/analyze", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimiterWithRedis(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	rl := NewAnalysisRateLimiter(client, 2, time.Hour, nil)
	router := limitedRouter(rl)

	send := func(clientID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/analyze", nil)
		req.Header.Set("X-Client", clientID)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := send("app-a")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))

	assert.Equal(t, http.StatusOK, send("app-a").Code)
	w = send("app-a")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	// other clients have their own window
	assert.Equal(t, http.StatusOK, send("app-b").Code)

	remaining, reset, err := rl.GetRemainingRequests(context.Background(), "app-b")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)
	assert.True(t, reset.After(time.Now()))

	remaining, _, err = rl.GetRemainingRequests(context.Background(), "app-c")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
}
