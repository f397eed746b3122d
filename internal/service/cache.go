package service

import (
	"context"
	"fmt"
	"time"

	"github.com/clipstream/account-service/internal/constants"
	"github.com/clipstream/account-service/internal/dto"
	"github.com/clipstream/account-service/pkg/logger"
	redisclient "github.com/clipstream/account-service/pkg/redis"
)

// ProfileCache is a read-through cache of sanitized user projections,
// keyed by user id. The authorization gate hits it on every protected
// request; account mutations and logout invalidate it. A nil receiver
// or disabled redis client degrades to pass-through.
type ProfileCache struct {
	client *redisclient.Client
	ttl    time.Duration
}

func NewProfileCache(client *redisclient.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl}
}

func (c *ProfileCache) key(userID uint) string {
	return fmt.Sprintf("%s%d", constants.CacheKeyProfile, userID)
}

// Get returns the cached projection, or nil on miss
func (c *ProfileCache) Get(ctx context.Context, userID uint) *dto.UserResponse {
	if c == nil || c.client == nil {
		return nil
	}

	var user dto.UserResponse
	found, err := c.client.GetJSON(ctx, c.key(userID), &user)
	if err != nil {
		logger.WarnWithContext(ctx, "Profile cache read failed").
			Uint("user_id", userID).
			Err(err).
			Log()
		return nil
	}
	if !found {
		return nil
	}

	return &user
}

func (c *ProfileCache) Set(ctx context.Context, user *dto.UserResponse) {
	if c == nil || c.client == nil || user == nil {
		return
	}

	if err := c.client.SetJSON(ctx, c.key(user.ID), user, c.ttl); err != nil {
		logger.WarnWithContext(ctx, "Profile cache write failed").
			Uint("user_id", user.ID).
			Err(err).
			Log()
	}
}

func (c *ProfileCache) Invalidate(ctx context.Context, userID uint) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Delete(ctx, c.key(userID)); err != nil {
		logger.WarnWithContext(ctx, "Profile cache invalidation failed").
			Uint("user_id", userID).
			Err(err).
			Log()
	}
}
