package model

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username      string    `gorm:"column:username;uniqueIndex;not null"`
	Email         string    `gorm:"column:email;uniqueIndex;not null"`
	FullName      string    `gorm:"column:full_name;not null"`
	Password      string    `gorm:"column:password;not null"`
	AvatarURL     string    `gorm:"column:avatar_url;not null"`
	CoverImageURL string    `gorm:"column:cover_image_url"`
	RefreshToken  string    `gorm:"column:refresh_token;default:null"`
	LastLogin     time.Time `gorm:"column:last_login"`
}

// IsPasswordCorrect verifies a plaintext password against the stored hash
func (u *User) IsPasswordCorrect(plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain))
	return err == nil
}
