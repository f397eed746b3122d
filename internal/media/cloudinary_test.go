package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clipstream/account-service/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0o644))
	return path
}

func newTestUploader(baseURL string) *CloudinaryUploader {
	return NewCloudinaryUploader(config.MediaConfig{
		CloudName: "testcloud",
		APIKey:    "key",
		APISecret: "secret",
		BaseURL:   baseURL,
		Timeout:   5 * time.Second,
	})
}

func TestCloudinaryUploadSuccess(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "key", r.FormValue("api_key"))
		assert.NotEmpty(t, r.FormValue("timestamp"))
		assert.NotEmpty(t, r.FormValue("signature"))

		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "avatar.png", header.Filename)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"secure_url": "https://res.cloudinary.test/avatar.png",
			"public_id":  "avatar",
			"format":     "png",
			"bytes":      16,
		})
	}))
	defer server.Close()

	uploader := newTestUploader(server.URL)
	localPath := writeTempFile(t, "avatar.png")

	result, err := uploader.Upload(context.Background(), localPath)
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.test/avatar.png", result.URL)
	assert.Equal(t, "avatar", result.PublicID)
	assert.Equal(t, "/v1_1/testcloud/auto/upload", gotPath)

	// Success keeps the temp file for the caller to clean up
	_, statErr := os.Stat(localPath)
	assert.NoError(t, statErr)
}

func TestCloudinaryUploadServerErrorRemovesTempFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	uploader := newTestUploader(server.URL)
	localPath := writeTempFile(t, "avatar.png")

	_, err := uploader.Upload(context.Background(), localPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	_, statErr := os.Stat(localPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCloudinaryUploadEmptyURLRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"public_id": "x"})
	}))
	defer server.Close()

	uploader := newTestUploader(server.URL)
	localPath := writeTempFile(t, "avatar.png")

	_, err := uploader.Upload(context.Background(), localPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no URL")
}

func TestCloudinaryUploadMissingLocalFile(t *testing.T) {
	uploader := newTestUploader("http://unreachable.test")

	_, err := uploader.Upload(context.Background(), "")
	assert.Error(t, err)

	_, err = uploader.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestMemoryUploaderFailNextRemovesFile(t *testing.T) {
	uploader := NewMemoryUploader()
	localPath := writeTempFile(t, "avatar.png")

	uploader.FailNext()
	_, err := uploader.Upload(context.Background(), localPath)
	require.Error(t, err)

	_, statErr := os.Stat(localPath)
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, uploader.Uploads())

	// Next upload succeeds again
	second := writeTempFile(t, "second.png")
	result, err := uploader.Upload(context.Background(), second)
	require.NoError(t, err)
	assert.NotEmpty(t, result.URL)
}
