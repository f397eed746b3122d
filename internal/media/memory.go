package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MemoryUploader is an in-process Uploader for tests and local
// development. It records uploaded paths and fabricates stable URLs.
type MemoryUploader struct {
	mu       sync.Mutex
	uploads  []string
	failNext bool
	failSub  string
}

func NewMemoryUploader() *MemoryUploader {
	return &MemoryUploader{}
}

// FailNext makes the next Upload call fail, mimicking a media-host
// outage.
func (m *MemoryUploader) FailNext() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = true
}

// FailOn makes any Upload whose path contains substr fail, leaving
// other uploads untouched.
func (m *MemoryUploader) FailOn(substr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSub = substr
}

// Uploads returns the paths uploaded so far
func (m *MemoryUploader) Uploads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.uploads))
	copy(out, m.uploads)
	return out
}

func (m *MemoryUploader) Upload(_ context.Context, localPath string) (*UploadResult, error) {
	if localPath == "" {
		return nil, fmt.Errorf("no file to upload")
	}

	m.mu.Lock()
	fail := m.failNext
	m.failNext = false
	if m.failSub != "" && strings.Contains(localPath, m.failSub) {
		fail = true
	}
	if !fail {
		m.uploads = append(m.uploads, localPath)
	}
	m.mu.Unlock()

	if fail {
		_ = os.Remove(localPath)
		return nil, fmt.Errorf("simulated upload failure")
	}

	return &UploadResult{
		URL:      "https://media.test/" + filepath.Base(localPath),
		PublicID: filepath.Base(localPath),
	}, nil
}
