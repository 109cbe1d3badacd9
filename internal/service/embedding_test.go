package service

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedderEmbed(t *testing.T) {
	var seen embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"index": 0, "embedding": []float32{0.1, 0.2, 0.3}}},
		})
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder("test-key", srv.URL, "", 3)
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "우유 알레르기")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec.Slice())
	assert.Equal(t, defaultEmbeddingModel, seen.Model)
	assert.Equal(t, []string{"우유 알레르기"}, seen.Input)
	assert.Equal(t, 3, seen.Dimensions)
}

func TestOpenAIEmbedderErrors(t *testing.T) {
	_, err := NewOpenAIEmbedder("", "", "", 0)
	assert.Error(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder("test-key", srv.URL, "", 0)
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestHashEmbedder(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "우유 알레르기 관리")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "우유 알레르기 관리")
	require.NoError(t, err)
	assert.Equal(t, a.Slice(), b.Slice())
	assert.Len(t, a.Slice(), 64)

	var norm float64
	for _, v := range a.Slice() {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)

	empty, err := e.Embed(ctx, "  ")
	require.NoError(t, err)
	for _, v := range empty.Slice() {
		assert.Zero(t, v)
	}

	assert.Len(t, NewHashEmbedder(0).vector("x"), defaultEmbeddingDim)
}

func TestHashEmbedderSimilarity(t *testing.T) {
	e := NewHashEmbedder(256)
	cos := func(x, y []float32) float64 {
		var dot float64
		for i := range x {
			dot += float64(x[i]) * float64(y[i])
		}
		return dot
	}
	base := e.vector("땅콩 알레르기 주의")
	near := e.vector("땅콩 알레르기")
	far := e.vector("고혈압 식이 관리")
	assert.Greater(t, cos(base, near), cos(base, far))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"고혈압", "식이", "관리", "2형"}, tokenize("고혈압, 식이-관리 (2형)"))
	assert.Empty(t, tokenize("..."))
}
