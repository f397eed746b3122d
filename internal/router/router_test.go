package router

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clipstream/account-service/config"
	"github.com/clipstream/account-service/internal/constants"
	"github.com/clipstream/account-service/internal/handler"
	"github.com/clipstream/account-service/internal/media"
	"github.com/clipstream/account-service/internal/middleware"
	"github.com/clipstream/account-service/internal/repository"
	"github.com/clipstream/account-service/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	engine *gin.Engine
	repo   *repository.MemoryUserRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		App: config.AppConfig{
			Name:        "account-service",
			Environment: "test",
			Port:        "0",
			TempDir:     t.TempDir(),
		},
		JWT: config.JWTConfig{
			AccessSecret:  "api-access-secret",
			RefreshSecret: "api-refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		RateLimit: config.RateLimitConfig{Request: 1000, Duration: 60},
	}

	repo := repository.NewMemoryUserRepository()
	uploader := media.NewMemoryUploader()
	cache := service.NewProfileCache(nil, time.Minute)
	tokens := service.NewTokenService(cfg.JWT)
	sessions := service.NewSessionService(repo, tokens, cache)
	accounts := service.NewAccountService(repo, uploader, cache)

	engine := NewRouter(
		handler.NewUserHandler(accounts, cfg.App),
		handler.NewAuthHandler(sessions, cfg.JWT),
		handler.NewHealthHandler(nil, nil),
		middleware.NewAuthMiddleware(tokens, accounts),
		cfg,
	).SetupRoutes()

	return &apiFixture{engine: engine, repo: repo}
}

func (f *apiFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func registerForm(t *testing.T, withCover bool) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("fullname", "Cool User"))
	require.NoError(t, w.WriteField("email", "cool@example.com"))
	require.NoError(t, w.WriteField("username", "cooluser"))
	require.NoError(t, w.WriteField("password", "correct horse battery"))

	part, err := w.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = io.WriteString(part, "fake avatar bytes")
	require.NoError(t, err)

	if withCover {
		part, err = w.CreateFormFile("coverImage", "cover.png")
		require.NoError(t, err)
		_, err = io.WriteString(part, "fake cover bytes")
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func (f *apiFixture) register(t *testing.T) {
	t.Helper()

	body, contentType := registerForm(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set(constants.HeaderContentType, contentType)

	rec := f.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (f *apiFixture) login(t *testing.T) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"cooluser","password":"correct horse battery"}`))
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestRegisterEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	body, contentType := registerForm(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set(constants.HeaderContentType, contentType)

	rec := f.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := envelope(t, rec)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(http.StatusCreated), resp["statusCode"])

	data := resp["data"].(map[string]any)
	assert.Equal(t, "cooluser", data["username"])
	assert.NotEmpty(t, data["avatarUrl"])
	// Sanitized projection: secrets never leave the service
	assert.NotContains(t, data, "password")
	assert.NotContains(t, data, "refreshToken")
}

func TestRegisterRejectsMissingAvatar(t *testing.T) {
	f := newAPIFixture(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("fullname", "Cool User"))
	require.NoError(t, w.WriteField("email", "cool@example.com"))
	require.NoError(t, w.WriteField("username", "cooluser"))
	require.NoError(t, w.WriteField("password", "correct horse battery"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set(constants.HeaderContentType, w.FormDataContentType())

	rec := f.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterRejectsBadUsername(t *testing.T) {
	f := newAPIFixture(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("fullname", "Cool User"))
	require.NoError(t, w.WriteField("email", "cool@example.com"))
	require.NoError(t, w.WriteField("username", "Not A Valid Username!"))
	require.NoError(t, w.WriteField("password", "correct horse battery"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set(constants.HeaderContentType, w.FormDataContentType())

	rec := f.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginSetsSessionCookies(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t)

	rec := f.login(t)

	cookies := rec.Result().Cookies()
	access := cookieByName(cookies, constants.CookieAccessToken)
	refresh := cookieByName(cookies, constants.CookieRefreshToken)

	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.True(t, refresh.HttpOnly)
	assert.True(t, refresh.Secure)
	assert.NotEmpty(t, access.Value)
	assert.NotEmpty(t, refresh.Value)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"cooluser","password":"wrong"}`))
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	rec := f.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestLoginRequiresIdentifier(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"password":"whatever"}`))
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	rec := f.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshRotationAndReplay(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t)

	login := f.login(t)
	oldRefresh := cookieByName(login.Result().Cookies(), constants.CookieRefreshToken)
	require.NotNil(t, oldRefresh)

	// First refresh succeeds and rotates
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(oldRefresh)
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	newRefresh := cookieByName(rec.Result().Cookies(), constants.CookieRefreshToken)
	require.NotNil(t, newRefresh)
	assert.NotEqual(t, oldRefresh.Value, newRefresh.Value)

	// Replaying the consumed token is rejected
	replay := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	replay.AddCookie(oldRefresh)
	rec = f.do(t, replay)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired or already used")
}

func TestRefreshFromJSONBody(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t)

	login := f.login(t)
	refresh := cookieByName(login.Result().Cookies(), constants.CookieRefreshToken)
	require.NotNil(t, refresh)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh",
		strings.NewReader(`{"refreshToken":"`+refresh.Value+`"}`))
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	rec := f.do(t, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRefreshWithoutToken(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	rec := f.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t)

	login := f.login(t)
	cookies := login.Result().Cookies()
	access := cookieByName(cookies, constants.CookieAccessToken)
	refresh := cookieByName(cookies, constants.CookieRefreshToken)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(access)
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		assert.Empty(t, c.Value)
	}

	// The stored refresh token is gone, so refresh must fail
	replay := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	replay.AddCookie(refresh)
	rec = f.do(t, replay)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCurrentUserEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t)

	login := f.login(t)
	access := cookieByName(login.Result().Cookies(), constants.CookieAccessToken)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.AddCookie(access)
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := envelope(t, rec)
	data := resp["data"].(map[string]any)
	assert.Equal(t, "cooluser", data["username"])
	assert.NotContains(t, data, "password")
}

func TestUpdateAccountEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t)

	login := f.login(t)
	access := cookieByName(login.Result().Cookies(), constants.CookieAccessToken)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/me",
		strings.NewReader(`{"fullname":"Renamed User"}`))
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	req.AddCookie(access)
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := envelope(t, rec)
	data := resp["data"].(map[string]any)
	assert.Equal(t, "Renamed User", data["fullname"])
}

func TestChangePasswordEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t)

	login := f.login(t)
	access := cookieByName(login.Result().Cookies(), constants.CookieAccessToken)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/change-password",
		strings.NewReader(`{"oldPassword":"correct horse battery","newPassword":"an even better one"}`))
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	req.AddCookie(access)
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Old credentials are dead
	bad := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"cooluser","password":"correct horse battery"}`))
	bad.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)
	rec = f.do(t, bad)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	f := newAPIFixture(t)

	for _, route := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPatch, "/api/v1/users/me"},
		{http.MethodPatch, "/api/v1/users/me/avatar"},
		{http.MethodPatch, "/api/v1/users/me/cover-image"},
		{http.MethodPost, "/api/v1/auth/logout"},
		{http.MethodPost, "/api/v1/auth/change-password"},
	} {
		req := httptest.NewRequest(route.method, route.path, nil)
		rec := f.do(t, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)
	}
}

func TestUpdateAvatarEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	f.register(t)

	login := f.login(t)
	access := cookieByName(login.Result().Cookies(), constants.CookieAccessToken)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("avatar", "new-avatar.png")
	require.NoError(t, err)
	_, err = io.WriteString(part, "newer avatar bytes")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/me/avatar", body)
	req.Header.Set(constants.HeaderContentType, w.FormDataContentType())
	req.AddCookie(access)
	rec := f.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := envelope(t, rec)
	data := resp["data"].(map[string]any)
	assert.NotEmpty(t, data["avatarUrl"])
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := f.do(t, req)
	// No database wired in this fixture
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
