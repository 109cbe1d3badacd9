package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{
		"api_key", "sk-123",
		"Authorization", "Bearer abc",
		"user_id", "u-1",
		"token_value", "x",
		"product", "새우깡",
		"dangling",
	})

	assert.Equal(t, "[REDACTED]", out[1])
	assert.Equal(t, "[REDACTED]", out[3])
	assert.Contains(t, out[5], "sha256:")
	assert.NotContains(t, out[5], "u-1")
	assert.Equal(t, "[REDACTED]", out[7])
	assert.Equal(t, "새우깡", out[9])
	assert.Equal(t, "dangling", out[10])
}

func TestSanitizeRedactsJWTValues(t *testing.T) {
	out := sanitizeKVs([]interface{}{"header", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig"})
	assert.Equal(t, "[REDACTED]", out[1])
}

func TestLoggerWritesSanitizedFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("component", "test").Warn("llm failed", "api_key", "secret-value", "attempt", 1)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "test", fields["component"])
		assert.Equal(t, "[REDACTED]", fields["api_key"])
		assert.EqualValues(t, 1, fields["attempt"])
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info("ignored", "k", "v")
	})
}
