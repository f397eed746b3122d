package repository

import (
	"context"

	"github.com/clipstream/account-service/internal/model"
)

// UserRepository is the credential store contract the service layer
// depends on.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	// GetByIdentifier matches either username or email, exact match
	GetByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user *model.User) error

	// UpdateRefreshToken is a field-only update that bypasses the rest
	// of the record (login persistence, logout clearing with "")
	UpdateRefreshToken(ctx context.Context, id uint, token string) error
	// RotateRefreshToken atomically replaces the stored refresh token
	// only while it still equals presented. Returns false when the
	// stored value already changed (token replayed or cleared).
	RotateRefreshToken(ctx context.Context, id uint, presented, next string) (bool, error)

	UpdatePassword(ctx context.Context, id uint, hashedPassword string) error
	UpdateLastLogin(ctx context.Context, id uint) error
	UpdateDetails(ctx context.Context, id uint, fullName, email string) error
	UpdateAvatar(ctx context.Context, id uint, url string) error
	UpdateCoverImage(ctx context.Context, id uint, url string) error
}
