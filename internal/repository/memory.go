package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/clipstream/account-service/internal/model"
	"gorm.io/gorm"
)

// MemoryUserRepository is a mutex-guarded in-memory credential store.
// It backs tests and local development without a database; the rotation
// check runs under the same lock, matching the conditional-update
// semantics of the SQL implementation.
type MemoryUserRepository struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		nextID: 1,
		users:  make(map[uint]*model.User),
	}
}

func (r *MemoryUserRepository) clone(u *model.User) *model.User {
	cp := *u
	return &cp
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.clone(user), nil
}

func (r *MemoryUserRepository) GetByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == identifier || user.Email == identifier {
			return r.clone(user), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			return r.clone(user), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *MemoryUserRepository) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Username, username) || strings.EqualFold(user.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = r.clone(user)
	return nil
}

func (r *MemoryUserRepository) UpdateRefreshToken(_ context.Context, id uint, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.RefreshToken = token
	user.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) RotateRefreshToken(_ context.Context, id uint, presented, next string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return false, nil
	}
	if user.RefreshToken != presented {
		return false, nil
	}
	user.RefreshToken = next
	user.UpdatedAt = time.Now()
	return true, nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id uint, hashedPassword string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Password = hashedPassword
	user.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) UpdateLastLogin(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.LastLogin = time.Now()
	return nil
}

func (r *MemoryUserRepository) UpdateDetails(_ context.Context, id uint, fullName, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if fullName != "" {
		user.FullName = fullName
	}
	if email != "" {
		user.Email = email
	}
	user.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) UpdateAvatar(_ context.Context, id uint, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.AvatarURL = url
	user.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) UpdateCoverImage(_ context.Context, id uint, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.CoverImageURL = url
	user.UpdatedAt = time.Now()
	return nil
}

// Delete removes a user (test helper for gate "user gone" paths)
func (r *MemoryUserRepository) Delete(id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}
