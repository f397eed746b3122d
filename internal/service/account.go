package service

import (
	"context"
	"errors"
	"strings"

	"github.com/clipstream/account-service/internal/dto"
	apperrors "github.com/clipstream/account-service/internal/errors"
	"github.com/clipstream/account-service/internal/media"
	"github.com/clipstream/account-service/internal/model"
	"github.com/clipstream/account-service/internal/repository"
	ctxutil "github.com/clipstream/account-service/pkg/context"
	"github.com/clipstream/account-service/pkg/logger"
	"gorm.io/gorm"
)

// AccountService covers registration and profile mutations. Image
// hosting goes through the injected Uploader.
type AccountService struct {
	repo     repository.UserRepository
	uploader media.Uploader
	cache    *ProfileCache
}

func NewAccountService(repo repository.UserRepository, uploader media.Uploader, cache *ProfileCache) *AccountService {
	return &AccountService{
		repo:     repo,
		uploader: uploader,
		cache:    cache,
	}
}

// Register creates a user. The avatar is mandatory: a missing file or a
// failed avatar upload aborts the registration. A failed cover-image
// upload degrades to no cover image.
func (s *AccountService) Register(ctx context.Context, req *dto.RegisterRequest, avatarPath, coverImagePath string) (*dto.UserResponse, error) {
	ctx = ctxutil.NewContextWithOperation(ctx, "service", "Register")

	username := strings.ToLower(strings.TrimSpace(req.Username))
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)

	if username == "" || email == "" || fullName == "" || req.Password == "" {
		return nil, apperrors.ErrAllFieldsRequired
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	if exists {
		logger.InfoWithContext(ctx, "Registration rejected: duplicate user").
			String("username", username).
			String("email", email).
			Log()
		return nil, apperrors.ErrUserExists
	}

	if avatarPath == "" {
		return nil, apperrors.ErrAvatarRequired
	}

	avatar, err := s.uploader.Upload(ctx, avatarPath)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrAvatarRequired, err)
	}

	coverImageURL := ""
	if coverImagePath != "" {
		cover, err := s.uploader.Upload(ctx, coverImagePath)
		if err != nil {
			// Optional image: degrade rather than abort
			logger.WarnWithContext(ctx, "Cover image upload failed, continuing without it").
				Err(err).
				Log()
		} else {
			coverImageURL = cover.URL
		}
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	user := &model.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		Password:      hashed,
		AvatarURL:     avatar.URL,
		CoverImageURL: coverImageURL,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		logger.ErrorWithContext(ctx, "Failed to create user record").
			String("username", username).
			Err(err).
			Log()
		return nil, apperrors.WrapError(apperrors.ErrRegistrationFailed, err)
	}

	created, err := s.repo.GetByID(ctx, user.ID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrRegistrationFailed, err)
	}

	logger.InfoWithContext(ctx, "User registered").
		Uint("user_id", created.ID).
		String("username", created.Username).
		Log()

	return toUserResponse(created), nil
}

// CurrentUser returns the sanitized projection, reading through the
// profile cache.
func (s *AccountService) CurrentUser(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	ctx = ctxutil.NewContextWithOperation(ctx, "service", "CurrentUser")

	if cached := s.cache.Get(ctx, userID); cached != nil {
		return cached, nil
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	response := toUserResponse(user)
	s.cache.Set(ctx, response)

	return response, nil
}

// UpdateDetails patches fullname and/or email
func (s *AccountService) UpdateDetails(ctx context.Context, userID uint, req *dto.UpdateAccountRequest) (*dto.UserResponse, error) {
	ctx = ctxutil.NewContextWithOperation(ctx, "service", "UpdateDetails")

	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if fullName == "" && email == "" {
		return nil, apperrors.ErrAllFieldsRequired
	}

	if email != "" {
		existing, err := s.repo.GetByEmail(ctx, email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.WrapError(apperrors.ErrInternal, err)
		}
		if existing != nil && existing.ID != userID {
			return nil, apperrors.ErrUserExists
		}
	}

	if err := s.repo.UpdateDetails(ctx, userID, fullName, email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.Invalidate(ctx, userID)

	return s.freshResponse(ctx, userID)
}

// UpdateAvatar uploads a replacement avatar and stores its URL
func (s *AccountService) UpdateAvatar(ctx context.Context, userID uint, localPath string) (*dto.UserResponse, error) {
	ctx = ctxutil.NewContextWithOperation(ctx, "service", "UpdateAvatar")

	if localPath == "" {
		return nil, apperrors.ErrAvatarRequired
	}

	result, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrUploadFailed, err)
	}

	if err := s.repo.UpdateAvatar(ctx, userID, result.URL); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.Invalidate(ctx, userID)

	return s.freshResponse(ctx, userID)
}

// UpdateCoverImage uploads a replacement cover image and stores its URL
func (s *AccountService) UpdateCoverImage(ctx context.Context, userID uint, localPath string) (*dto.UserResponse, error) {
	ctx = ctxutil.NewContextWithOperation(ctx, "service", "UpdateCoverImage")

	if localPath == "" {
		return nil, apperrors.ErrUploadFailed
	}

	result, err := s.uploader.Upload(ctx, localPath)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrUploadFailed, err)
	}

	if err := s.repo.UpdateCoverImage(ctx, userID, result.URL); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}

	s.cache.Invalidate(ctx, userID)

	return s.freshResponse(ctx, userID)
}

func (s *AccountService) freshResponse(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.WrapError(apperrors.ErrInternal, err)
	}
	return toUserResponse(user), nil
}
