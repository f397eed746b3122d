package service

import (
	"context"
	"errors"
	"strings"

	"github.com/clipstream/account-service/internal/dto"
	apperrors "github.com/clipstream/account-service/internal/errors"
	"github.com/clipstream/account-service/internal/model"
	"github.com/clipstream/account-service/internal/repository"
	ctxutil "github.com/clipstream/account-service/pkg/context"
	"github.com/clipstream/account-service/pkg/logger"
	"gorm.io/gorm"
)

// SessionService orchestrates the session lifecycle: credential
// verification, token issuance, refresh rotation, and logout.
type SessionService struct {
	repo   repository.UserRepository
	tokens *TokenService
	cache  *ProfileCache
}

func NewSessionService(repo repository.UserRepository, tokens *TokenService, cache *ProfileCache) *SessionService {
	return &SessionService{
		repo:   repo,
		tokens: tokens,
		cache:  cache,
	}
}

// issueTokenPair mirrors the login/refresh shared path: sign both
// tokens and persist the refresh token on the user record. Any failure
// is logged with its cause and surfaced as a generic issuance error.
func (s *SessionService) issueTokenPair(ctx context.Context, user *model.User) (accessToken, refreshToken string, err error) {
	accessToken, err = s.tokens.IssueAccessToken(user)
	if err == nil {
		refreshToken, err = s.tokens.IssueRefreshToken(user.ID)
	}
	if err == nil {
		err = s.repo.UpdateRefreshToken(ctx, user.ID, refreshToken)
	}
	if err != nil {
		logger.ErrorWithContext(ctx, "Token generation failed").
			Uint("user_id", user.ID).
			Err(err).
			Log()
		return "", "", apperrors.WrapError(apperrors.ErrTokenIssuance, err)
	}

	return accessToken, refreshToken, nil
}

// Login verifies credentials against the identifier (username or
// email), issues a token pair, and persists the refresh token.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*dto.LoginResponse, error) {
	ctx = ctxutil.NewContextWithOperation(ctx, "service", "Login")

	identifier = strings.ToLower(strings.TrimSpace(identifier))

	user, err := s.repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.InfoWithContext(ctx, "Login failed: user not found").
				String("identifier", identifier).
				Log()
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !user.IsPasswordCorrect(password) {
		logger.WarnWithContext(ctx, "Login failed: incorrect password").
			Uint("user_id", user.ID).
			Log()
		return nil, apperrors.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		// Best effort, login still succeeds
		logger.WarnWithContext(ctx, "Failed to update last login").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}

	logger.InfoWithContext(ctx, "User logged in").
		Uint("user_id", user.ID).
		String("username", user.Username).
		Log()

	return &dto.LoginResponse{
		User:         *toUserResponse(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Logout clears the stored refresh token. Idempotent: logging out a
// user with no active session is not an error.
func (s *SessionService) Logout(ctx context.Context, userID uint) error {
	ctx = ctxutil.NewContextWithOperation(ctx, "service", "Logout")

	if err := s.repo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.Invalidate(ctx, userID)

	logger.InfoWithContext(ctx, "User logged out").
		Uint("user_id", userID).
		Log()

	return nil
}

// Refresh exchanges a valid refresh token for a fresh pair. Rotation is
// a single conditional update against the stored token, so a replayed
// token fails even under concurrent refresh attempts.
func (s *SessionService) Refresh(ctx context.Context, incomingToken string) (*dto.RefreshResponse, error) {
	ctx = ctxutil.NewContextWithOperation(ctx, "service", "Refresh")

	if incomingToken == "" {
		return nil, apperrors.ErrUnauthorized
	}

	claims, err := s.tokens.VerifyRefreshToken(incomingToken)
	if err != nil {
		logger.WarnWithContext(ctx, "Refresh token failed verification").
			Err(err).
			Log()
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err == nil {
		var refreshToken string
		refreshToken, err = s.tokens.IssueRefreshToken(user.ID)
		if err == nil {
			var rotated bool
			rotated, err = s.repo.RotateRefreshToken(ctx, user.ID, incomingToken, refreshToken)
			if err == nil {
				if !rotated {
					logger.WarnWithContext(ctx, "Refresh token replay rejected").
						Uint("user_id", user.ID).
						Log()
					return nil, apperrors.ErrTokenReplayed
				}

				logger.InfoWithContext(ctx, "Session refreshed").
					Uint("user_id", user.ID).
					Log()

				return &dto.RefreshResponse{
					AccessToken:  accessToken,
					RefreshToken: refreshToken,
					ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
				}, nil
			}
		}
	}

	logger.ErrorWithContext(ctx, "Token generation failed during refresh").
		Uint("user_id", user.ID).
		Err(err).
		Log()
	return nil, apperrors.WrapError(apperrors.ErrTokenIssuance, err)
}

// ChangePassword verifies the old password and stores a new hash. The
// hash goes through the same helper used at registration.
func (s *SessionService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	ctx = ctxutil.NewContextWithOperation(ctx, "service", "ChangePassword")

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if !user.IsPasswordCorrect(oldPassword) {
		logger.WarnWithContext(ctx, "Password change rejected: old password incorrect").
			Uint("user_id", userID).
			Log()
		return apperrors.ErrIncorrectPassword
	}

	hashed, err := hashPassword(newPassword)
	if err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, hashed); err != nil {
		return apperrors.WrapError(apperrors.ErrInternal, err)
	}

	logger.InfoWithContext(ctx, "Password changed").
		Uint("user_id", userID).
		Log()

	return nil
}
