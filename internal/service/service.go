package service

import (
	"fmt"

	"github.com/clipstream/account-service/internal/dto"
	"github.com/clipstream/account-service/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// hashPassword is the single hashing path for every password mutation:
// registration and password change both go through it.
func hashPassword(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// toUserResponse builds the sanitized projection. Password hash and
// refresh token never leave the service layer.
func toUserResponse(user *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		AvatarURL:     user.AvatarURL,
		CoverImageURL: user.CoverImageURL,
		LastLogin:     user.LastLogin,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}
