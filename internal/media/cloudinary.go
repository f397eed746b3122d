package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/clipstream/account-service/config"
	"github.com/clipstream/account-service/pkg/logger"
)

// CloudinaryUploader uploads files through Cloudinary's signed upload
// API. Credentials come from the injected config, never from process
// environment state.
type CloudinaryUploader struct {
	cfg    config.MediaConfig
	client *http.Client
	now    func() time.Time
}

func NewCloudinaryUploader(cfg config.MediaConfig) *CloudinaryUploader {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &CloudinaryUploader{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

func (u *CloudinaryUploader) uploadURL() string {
	return fmt.Sprintf("%s/v1_1/%s/auto/upload", u.cfg.BaseURL, u.cfg.CloudName)
}

// signature follows Cloudinary's signing scheme: sha1 hex of the sorted
// parameter string concatenated with the API secret.
func (u *CloudinaryUploader) signature(timestamp int64) string {
	payload := fmt.Sprintf("timestamp=%d%s", timestamp, u.cfg.APISecret)
	sum := sha1.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Upload pushes the file at localPath to the media host. The local temp
// file is removed on any failure path.
func (u *CloudinaryUploader) Upload(ctx context.Context, localPath string) (*UploadResult, error) {
	if localPath == "" {
		return nil, fmt.Errorf("no file to upload")
	}

	result, err := u.doUpload(ctx, localPath)
	if err != nil {
		// The temp file is useless once the upload failed
		if rmErr := os.Remove(localPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.WarnWithContext(ctx, "Failed to remove temp file after upload failure").
				String("path", localPath).
				Err(rmErr).
				Log()
		}
		logger.WarnWithContext(ctx, "Media upload failed").
			String("path", localPath).
			Err(err).
			Log()
		return nil, err
	}

	logger.InfoWithContext(ctx, "File uploaded to media host").
		String("url", result.URL).
		String("public_id", result.PublicID).
		Log()

	return result, nil
}

func (u *CloudinaryUploader) doUpload(ctx context.Context, localPath string) (*UploadResult, error) {
	file, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	timestamp := u.now().Unix()

	go func() {
		defer pw.Close()
		defer writer.Close()

		part, err := writer.CreateFormFile("file", filepath.Base(localPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}

		_ = writer.WriteField("api_key", u.cfg.APIKey)
		_ = writer.WriteField("timestamp", strconv.FormatInt(timestamp, 10))
		_ = writer.WriteField("signature", u.signature(timestamp))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL(), pr)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("media host returned status %d: %s", resp.StatusCode, string(body))
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	if result.URL == "" {
		return nil, fmt.Errorf("media host returned no URL")
	}

	return &result, nil
}
