package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceAPIKey(t *testing.T) {
	svc := NewTokenService("static-key", "")
	assert.True(t, svc.Enabled())

	claims, err := svc.ValidateToken("static-key")
	require.NoError(t, err)
	assert.Equal(t, "api-key", claims.ClientID)

	_, err = svc.ValidateToken("other-key")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.GenerateToken("client", time.Hour)
	assert.Error(t, err)
}

func TestTokenServiceJWT(t *testing.T) {
	svc := NewTokenService("", "test-secret")

	token, err := svc.GenerateToken("mobile-app", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "mobile-app", claims.ClientID)
	assert.Equal(t, "mobile-app", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.NotEmpty(t, claims.ID)

	_, err = svc.GenerateToken(" ", time.Hour)
	assert.Error(t, err)
}

func TestTokenServiceExpired(t *testing.T) {
	svc := NewTokenService("", "test-secret")
	issued := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issued }

	token, err := svc.GenerateToken("mobile-app", time.Hour)
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenServiceWrongSecret(t *testing.T) {
	token, err := NewTokenService("", "secret-a").GenerateToken("mobile-app", time.Hour)
	require.NoError(t, err)

	_, err = NewTokenService("", "secret-b").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokenService("", "secret-b").ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenServiceDisabled(t *testing.T) {
	svc := NewTokenService("", "")
	assert.False(t, svc.Enabled())
	_, err := svc.ValidateToken("anything")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenServiceUserToken(t *testing.T) {
	svc := NewTokenService("", "test-secret")
	id := uuid.New()

	token, err := svc.GenerateUserToken(id, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.UserID)
	assert.Equal(t, id.String(), claims.ClientID)

	clientToken, err := svc.GenerateToken("mobile-app", time.Hour)
	require.NoError(t, err)
	claims, err = svc.ValidateToken(clientToken)
	require.NoError(t, err)
	assert.Empty(t, claims.UserID)

	_, err = svc.GenerateUserToken(uuid.Nil, time.Hour)
	assert.Error(t, err)
}
