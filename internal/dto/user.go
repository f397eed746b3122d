package dto

import "time"

type RegisterRequest struct {
	FullName string `form:"fullname" binding:"required,min=2,max=100"`
	Email    string `form:"email" binding:"required,email"`
	Username string `form:"username" binding:"required,min=3,max=30,username"`
	Password string `form:"password" binding:"required,min=8,max=100"`
}

// LoginRequest accepts either username or email as the identifier.
// Presence of at least one is checked in the handler, not by tags.
type LoginRequest struct {
	Username string `json:"username" binding:"omitempty"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=100"`
}

type UpdateAccountRequest struct {
	FullName string `json:"fullname" binding:"omitempty,min=2,max=100"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// UserResponse is the sanitized projection: no password hash, no
// refresh token, ever.
type UserResponse struct {
	ID            uint      `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullname"`
	AvatarURL     string    `json:"avatarUrl"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	LastLogin     time.Time `json:"lastLogin"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type LoginResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int          `json:"expiresIn"` // access token expiry in seconds
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}
