package service

import (
	"errors"
	"testing"
	"time"

	"github.com/clipstream/account-service/config"
	apperrors "github.com/clipstream/account-service/internal/errors"
	"github.com/clipstream/account-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func testUser() *model.User {
	u := &model.User{
		Username: "cooluser",
		Email:    "cool@example.com",
		FullName: "Cool User",
	}
	u.ID = 42
	return u
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tokens := NewTokenService(testJWTConfig())

	signed, err := tokens.IssueAccessToken(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := tokens.VerifyAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "cooluser", claims.Username)
	assert.Equal(t, "cool@example.com", claims.Email)
}

func TestRefreshTokenCarriesOnlyUserID(t *testing.T) {
	tokens := NewTokenService(testJWTConfig())

	signed, err := tokens.IssueRefreshToken(42)
	require.NoError(t, err)

	claims, err := tokens.VerifyRefreshToken(signed)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Empty(t, claims.Username)
	assert.Empty(t, claims.Email)
}

func TestTokenKindsDoNotCrossVerify(t *testing.T) {
	tokens := NewTokenService(testJWTConfig())

	access, err := tokens.IssueAccessToken(testUser())
	require.NoError(t, err)
	refresh, err := tokens.IssueRefreshToken(42)
	require.NoError(t, err)

	_, err = tokens.VerifyRefreshToken(access)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	_, err = tokens.VerifyAccessToken(refresh)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	tokens := NewTokenService(testJWTConfig())
	tokens.accessTTL = -time.Minute

	signed, err := tokens.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = tokens.VerifyAccessToken(signed)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTamperedTokenRejected(t *testing.T) {
	tokens := NewTokenService(testJWTConfig())

	signed, err := tokens.IssueAccessToken(testUser())
	require.NoError(t, err)

	tampered := signed[:len(signed)-2] + "xx"
	_, err = tokens.VerifyAccessToken(tampered)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestMalformedTokenRejected(t *testing.T) {
	tokens := NewTokenService(testJWTConfig())

	_, err := tokens.VerifyAccessToken("not.a.jwt")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidToken))
}
