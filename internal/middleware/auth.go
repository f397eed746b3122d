package middleware

import (
	"net/http"
	"strings"

	"github.com/clipstream/account-service/internal/constants"
	"github.com/clipstream/account-service/internal/service"
	ctxutil "github.com/clipstream/account-service/pkg/context"
	"github.com/clipstream/account-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware is the authorization gate for protected routes.
type AuthMiddleware struct {
	tokens   *service.TokenService
	accounts *service.AccountService
}

func NewAuthMiddleware(tokens *service.TokenService, accounts *service.AccountService) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		accounts: accounts,
	}
}

// extractToken prefers the session cookie, falling back to the
// Authorization header
func extractToken(c *gin.Context) string {
	if token, err := c.Cookie(constants.CookieAccessToken); err == nil && token != "" {
		return token
	}

	authHeader := c.GetHeader(constants.HeaderAuthorization)
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

// RequireAuth verifies the access token, loads the sanitized user, and
// attaches it to the request. Never mutates stored state.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token := extractToken(c)
		if token == "" {
			logger.WarnWithContext(ctx, "Request without access token").
				String("path", c.Request.URL.Path).
				Log()
			c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
				http.StatusUnauthorized, constants.MsgUnauthorized, nil))
			c.Abort()
			return
		}

		claims, err := m.tokens.VerifyAccessToken(token)
		if err != nil {
			logger.WarnWithContext(ctx, "Access token failed verification").
				String("path", c.Request.URL.Path).
				Err(err).
				Log()
			c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
				http.StatusUnauthorized, constants.MsgUnauthorized, nil))
			c.Abort()
			return
		}

		user, err := m.accounts.CurrentUser(ctx, claims.UserID)
		if err != nil {
			// Token may outlive the account
			logger.WarnWithContext(ctx, "Token references missing user").
				Uint("user_id", claims.UserID).
				Err(err).
				Log()
			c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
				http.StatusUnauthorized, constants.MsgUnauthorized, nil))
			c.Abort()
			return
		}

		c.Set(constants.GinKeyUser, user)
		c.Set(constants.GinKeyUserID, user.ID)
		c.Request = c.Request.WithContext(ctxutil.WithUserID(ctx, user.ID))

		c.Next()
	}
}
