package repository

import (
	"context"
	"time"

	"github.com/clipstream/account-service/internal/model"
	ctxutil "github.com/clipstream/account-service/pkg/context"
	"github.com/clipstream/account-service/pkg/logger"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	ctx = ctxutil.NewContextWithOperation(ctx, "repository", "GetByID")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).Where("id = ?", id).First(&user)
	if result.Error != nil {
		logger.DebugWithContext(ctx, "Failed to get user by ID").
			Uint("user_id", id).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

func (r *userRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	ctx = ctxutil.NewContextWithOperation(ctx, "repository", "GetByIdentifier")

	start := time.Now()
	var user model.User

	result := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, identifier).
		First(&user)
	if result.Error != nil {
		logger.DebugWithContext(ctx, "No user for identifier").
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return nil, result.Error
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx = ctxutil.NewContextWithOperation(ctx, "repository", "GetByEmail")

	var user model.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		return nil, result.Error
	}

	return &user, nil
}

func (r *userRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	ctx = ctxutil.NewContextWithOperation(ctx, "repository", "ExistsByUsernameOrEmail")

	var count int64
	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to check user existence").
			String("username", username).
			String("email", email).
			Err(result.Error).
			Log()
		return false, result.Error
	}

	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	ctx = ctxutil.NewContextWithOperation(ctx, "repository", "Create")

	start := time.Now()
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to create user").
			String("email", user.Email).
			Duration(time.Since(start)).
			Err(result.Error).
			Log()
		return result.Error
	}

	logger.InfoWithContext(ctx, "User created").
		String("username", user.Username).
		Uint("user_id", user.ID).
		Duration(time.Since(start)).
		Log()

	return nil
}

func (r *userRepository) UpdateRefreshToken(ctx context.Context, id uint, token string) error {
	ctx = ctxutil.NewContextWithOperation(ctx, "repository", "UpdateRefreshToken")

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("refresh_token", token)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update refresh token").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// RotateRefreshToken is a single conditional UPDATE so two concurrent
// refresh calls with the same token cannot both succeed.
func (r *userRepository) RotateRefreshToken(ctx context.Context, id uint, presented, next string) (bool, error) {
	ctx = ctxutil.NewContextWithOperation(ctx, "repository", "RotateRefreshToken")

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND refresh_token = ?", id, presented).
		Update("refresh_token", next)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to rotate refresh token").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	ctx = ctxutil.NewContextWithOperation(ctx, "repository", "UpdatePassword")

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("password", hashedPassword)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update password").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.InfoWithContext(ctx, "Password updated").
		Uint("user_id", id).
		Log()

	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uint) error {
	ctx = ctxutil.NewContextWithOperation(ctx, "repository", "UpdateLastLogin")

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("last_login", time.Now())

	return result.Error
}

func (r *userRepository) UpdateDetails(ctx context.Context, id uint, fullName, email string) error {
	ctx = ctxutil.NewContextWithOperation(ctx, "repository", "UpdateDetails")

	updates := map[string]interface{}{}
	if fullName != "" {
		updates["full_name"] = fullName
	}
	if email != "" {
		updates["email"] = email
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update account details").
			Uint("user_id", id).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *userRepository) UpdateAvatar(ctx context.Context, id uint, url string) error {
	return r.updateImageField(ctx, id, "avatar_url", url)
}

func (r *userRepository) UpdateCoverImage(ctx context.Context, id uint, url string) error {
	return r.updateImageField(ctx, id, "cover_image_url", url)
}

func (r *userRepository) updateImageField(ctx context.Context, id uint, column, url string) error {
	ctx = ctxutil.NewContextWithOperation(ctx, "repository", "updateImageField")

	result := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update(column, url)
	if result.Error != nil {
		logger.ErrorWithContext(ctx, "Failed to update image field").
			Uint("user_id", id).
			String("column", column).
			Err(result.Error).
			Log()
		return result.Error
	}

	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
