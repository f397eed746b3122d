package service

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/clipstream/account-service/internal/errors"
	"github.com/clipstream/account-service/internal/model"
	"github.com/clipstream/account-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	repo     *repository.MemoryUserRepository
	tokens   *TokenService
	sessions *SessionService
	user     *model.User
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	repo := repository.NewMemoryUserRepository()
	tokens := NewTokenService(testJWTConfig())
	cache := NewProfileCache(nil, time.Minute)
	sessions := NewSessionService(repo, tokens, cache)

	hashed, err := hashPassword("correct horse battery")
	require.NoError(t, err)

	user := &model.User{
		Username:  "cooluser",
		Email:     "cool@example.com",
		FullName:  "Cool User",
		Password:  hashed,
		AvatarURL: "https://media.test/avatar.png",
	}
	require.NoError(t, repo.Create(context.Background(), user))

	return &sessionFixture{repo: repo, tokens: tokens, sessions: sessions, user: user}
}

func TestLoginWithUsername(t *testing.T) {
	f := newSessionFixture(t)

	resp, err := f.sessions.Login(context.Background(), "cooluser", "correct horse battery")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int((15 * time.Minute).Seconds()), resp.ExpiresIn)
	assert.Equal(t, "cooluser", resp.User.Username)

	// Refresh token must be persisted on the record
	stored, err := f.repo.GetByID(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.RefreshToken, stored.RefreshToken)
	assert.False(t, stored.LastLogin.IsZero())
}

func TestLoginWithEmailCaseInsensitive(t *testing.T) {
	f := newSessionFixture(t)

	resp, err := f.sessions.Login(context.Background(), "  Cool@Example.COM ", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, resp.User.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.sessions.Login(context.Background(), "cooluser", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.sessions.Login(context.Background(), "nobody", "whatever")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	login, err := f.sessions.Login(ctx, "cooluser", "correct horse battery")
	require.NoError(t, err)

	refreshed, err := f.sessions.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	stored, err := f.repo.GetByID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, refreshed.RefreshToken, stored.RefreshToken)
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	login, err := f.sessions.Login(ctx, "cooluser", "correct horse battery")
	require.NoError(t, err)

	_, err = f.sessions.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)

	// Replaying the consumed token must fail
	_, err = f.sessions.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenReplayed)
}

func TestRefreshWithEmptyToken(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.sessions.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRefreshWithGarbageToken(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.sessions.Refresh(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestRefreshAfterLogout(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	login, err := f.sessions.Login(ctx, "cooluser", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, f.sessions.Logout(ctx, f.user.ID))

	// Token signature is still valid, but the stored value is gone
	_, err = f.sessions.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenReplayed)
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sessions.Logout(ctx, f.user.ID))
	require.NoError(t, f.sessions.Logout(ctx, f.user.ID))
}

func TestLogoutUnknownUser(t *testing.T) {
	f := newSessionFixture(t)

	err := f.sessions.Logout(context.Background(), 999)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	f := newSessionFixture(t)
	ctx := context.Background()

	err := f.sessions.ChangePassword(ctx, f.user.ID, "correct horse battery", "a brand new secret")
	require.NoError(t, err)

	// Old password no longer works, new one does
	_, err = f.sessions.Login(ctx, "cooluser", "correct horse battery")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.sessions.Login(ctx, "cooluser", "a brand new secret")
	assert.NoError(t, err)
}

func TestChangePasswordWrongOld(t *testing.T) {
	f := newSessionFixture(t)

	err := f.sessions.ChangePassword(context.Background(), f.user.ID, "wrong", "a brand new secret")
	assert.ErrorIs(t, err, apperrors.ErrIncorrectPassword)
}
