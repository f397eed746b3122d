package handler

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/clipstream/account-service/config"
	"github.com/clipstream/account-service/internal/constants"
	"github.com/clipstream/account-service/internal/dto"
	apperrors "github.com/clipstream/account-service/internal/errors"
	"github.com/clipstream/account-service/internal/service"
	ctxutil "github.com/clipstream/account-service/pkg/context"
	"github.com/clipstream/account-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	accounts *service.AccountService
	tempDir  string
}

func NewUserHandler(accounts *service.AccountService, appCfg config.AppConfig) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		tempDir:  appCfg.TempDir,
	}
}

// saveUpload spools a multipart file to the temp dir and returns its
// path. Missing file is not an error here: "" and nil, the service
// decides whether the field was mandatory.
func (h *UserHandler) saveUpload(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", err
	}

	localPath := filepath.Join(h.tempDir, uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, localPath); err != nil {
		return "", err
	}

	return localPath, nil
}

// Register creates an account from a multipart form: text fields plus a
// mandatory avatar image and an optional coverImage.
func (h *UserHandler) Register(c *gin.Context) {
	ctx := ctxutil.NewContextWithOperation(c.Request.Context(), "handler", "Register")

	var req dto.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid registration request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			http.StatusBadRequest, "Invalid request format", err.Error()))
		return
	}

	avatarPath, err := h.saveUpload(c, "avatar")
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to receive avatar upload").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			http.StatusBadRequest, apperrors.ErrAvatarRequired.Message, nil))
		return
	}

	coverImagePath, err := h.saveUpload(c, "coverImage")
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to receive cover image upload").
			Err(err).
			Log()
		coverImagePath = ""
	}

	user, err := h.accounts.Register(ctx, &req, avatarPath, coverImagePath)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(
			status, apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusCreated, constants.BuildSuccessResponse(
		http.StatusCreated, user, "User registered successfully"))
}

// CurrentUser returns the authenticated user's sanitized profile
func (h *UserHandler) CurrentUser(c *gin.Context) {
	user, exists := c.Get(constants.GinKeyUser)
	if !exists {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
			http.StatusUnauthorized, constants.MsgUnauthorized, nil))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		http.StatusOK, user, "Current user fetched successfully"))
}

// UpdateAccount patches fullname and/or email
func (h *UserHandler) UpdateAccount(c *gin.Context) {
	ctx := ctxutil.NewContextWithOperation(c.Request.Context(), "handler", "UpdateAccount")

	userID := c.GetUint(constants.GinKeyUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
			http.StatusUnauthorized, constants.MsgUnauthorized, nil))
		return
	}

	var req dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WarnWithContext(ctx, "Invalid account update request").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			http.StatusBadRequest, "Invalid request format", err.Error()))
		return
	}

	user, err := h.accounts.UpdateDetails(ctx, userID, &req)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(
			status, apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		http.StatusOK, user, "Account details updated successfully"))
}

// UpdateAvatar replaces the avatar image
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	ctx := ctxutil.NewContextWithOperation(c.Request.Context(), "handler", "UpdateAvatar")

	userID := c.GetUint(constants.GinKeyUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
			http.StatusUnauthorized, constants.MsgUnauthorized, nil))
		return
	}

	localPath, err := h.saveUpload(c, "avatar")
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to receive avatar upload").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			http.StatusBadRequest, apperrors.ErrAvatarRequired.Message, nil))
		return
	}

	user, err := h.accounts.UpdateAvatar(ctx, userID, localPath)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(
			status, apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		http.StatusOK, user, "Avatar updated successfully"))
}

// UpdateCoverImage replaces the cover image
func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	ctx := ctxutil.NewContextWithOperation(c.Request.Context(), "handler", "UpdateCoverImage")

	userID := c.GetUint(constants.GinKeyUserID)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, constants.BuildErrorResponse(
			http.StatusUnauthorized, constants.MsgUnauthorized, nil))
		return
	}

	localPath, err := h.saveUpload(c, "coverImage")
	if err != nil {
		logger.WarnWithContext(ctx, "Failed to receive cover image upload").
			Err(err).
			Log()
		c.JSON(http.StatusBadRequest, constants.BuildErrorResponse(
			http.StatusBadRequest, apperrors.ErrUploadFailed.Message, nil))
		return
	}

	user, err := h.accounts.UpdateCoverImage(ctx, userID, localPath)
	if err != nil {
		status := apperrors.ToHTTPStatus(err)
		c.JSON(status, constants.BuildErrorResponse(
			status, apperrors.GetErrorMessage(err), nil))
		return
	}

	c.JSON(http.StatusOK, constants.BuildSuccessResponse(
		http.StatusOK, user, "Cover image updated successfully"))
}
