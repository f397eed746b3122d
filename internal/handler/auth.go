package handler

import (
	"net/http"

	"github.com/clipstream/account-service/config"
	"github.com/clipstream/account-service/internal/constants"
	"github.com/clipstream/account-service/internal/dto"
	apperrors "github.com/clipstream/account-service/internal/errors"
	"github.com/clipstream/account-service/internal/service"
	ctxutil "github.com/clipstream/account-service/pkg/context"
	"github.com/clipstream/account-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	sessions *service.SessionService
	jwtCfg   config.JWTConfig
}

func NewAuthHandler(sessions *service.SessionService, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		jwtCfg:   jwtCfg,
	}
}

// setAuthCookies writes both session cookies. httpOnly and secure so
// scripts never see them and they only travel over TLS.
func (h *AuthHandler) setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	c.SetCookie(constants.CookieAccessToken, accessToken,
		int(h.jwtCfg.AccessTTL.Seconds()), "/", "", true, true)
	c.SetCookie(constants.CookieRefreshToken, refreshToken,
		int(h.jwtCfg.RefreshTTL.Seconds()), "/", "", true, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetCookie(constants.CookieAccessToken, "", -1, "/", "", true, true)
	c.SetCookie(constants.CookieRefreshToken, "", -1, "/", "", true, true)
}

// Login authenticates by username or email and opens a session
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := ctxutil.NewContextWithOperation(c.Request.Context(), "handler", "Login")

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid login request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			http.StatusBadRequest, "Invalid request format", err.Error()))
		return
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" {
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			http.StatusBadRequest, "username or email is required", nil))
		return
	}

	response, err := h.sessions.Login(ctx, identifier, req.Password)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(
			status, apperrors.GetErrorMessage(err), nil))
		return
	}

	h.setAuthCookies(c, response.AccessToken, response.RefreshToken)

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		http.StatusOK, response, "User logged in successfully"))
}

// Refresh rotates the refresh token. The incoming token may arrive in
// the cookie or the JSON body; the cookie wins.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := ctxutil.NewContextWithOperation(c.Request.Context(), "handler", "Refresh")

	incomingToken, _ := c.Cookie(constants.CookieRefreshToken)
	if incomingToken == "" {
		var req dto.RefreshRequest
		// Body is optional when the cookie is present, so a bind
		// failure only matters if it was our last source
		if err := c.ShouldBindJSON(&req); err == nil {
			incomingToken = req.RefreshToken
		}
	}

	if incomingToken == "" {
		logger.WarnWithContext(ctx, "Refresh request without token").
			Log()
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
			http.StatusUnauthorized, constants.MsgUnauthorized, nil))
		return
	}

	response, err := h.sessions.Refresh(ctx, incomingToken)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(
			status, apperrors.GetErrorMessage(err), nil))
		return
	}

	h.setAuthCookies(c, response.AccessToken, response.RefreshToken)

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		http.StatusOK, response, "Access token refreshed"))
}

// Logout clears the stored refresh token and both cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithOperation(c.Request.Context(), "handler", "Logout")

	userID := c.GetUint(constants.GinKeyUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
			http.StatusUnauthorized, constants.MsgUnauthorized, nil))
		return
	}

	if err := h.sessions.Logout(ctx, userID); err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(
			status, apperrors.GetErrorMessage(err), nil))
		return
	}

	h.clearAuthCookies(c)

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		http.StatusOK, nil, "User logged out successfully"))
}

// ChangePassword verifies the current password and stores a new one
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithOperation(c.Request.Context(), "handler", "ChangePassword")

	userID := c.GetUint(constants.GinKeyUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
			http.StatusUnauthorized, constants.MsgUnauthorized, nil))
		return
	}

	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid change password request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			http.StatusBadRequest, "Invalid request format", err.Error()))
		return
	}

	if err := h.sessions.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(
			status, apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		http.StatusOK, nil, "Password changed successfully"))
}
