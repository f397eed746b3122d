package handler

import (
	"net/http"
	"time"

	"github.com/clipstream/account-service/internal/constants"
	redisclient "github.com/clipstream/account-service/pkg/redis"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	redis *redisclient.Client
}

func NewHealthHandler(db *gorm.DB, redis *redisclient.Client) *HealthHandler {
	return &HealthHandler{
		db:    db,
		redis: redis,
	}
}

// Check reports liveness of the service and its dependencies
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "up"
	if h.db != nil {
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "down"
		}
	} else {
		dbStatus = "down"
	}

	redisStatus := "disabled"
	if h.redis != nil && h.redis.IsEnabled() {
		redisStatus = "up"
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "down"
		}
	}

	report := gin.H{
		"service":   constants.AppName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  dbStatus,
		"redis":     redisStatus,
	}

	if dbStatus == "down" {
		c.JSON(http.StatusServiceUnavailable, constants.BuildErrorResponse(
			http.StatusServiceUnavailable, "Service degraded", report))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		http.StatusOK, report, "Service healthy"))
}
