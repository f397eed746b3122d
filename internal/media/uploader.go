// Package media integrates the external image-hosting service. The
// service itself is a collaborator: this package only uploads files and
// hands back hosted URLs.
package media

import "context"

// UploadResult describes a successfully hosted file
type UploadResult struct {
	URL      string `json:"secure_url"`
	PublicID string `json:"public_id"`
	Format   string `json:"format"`
	Bytes    int64  `json:"bytes"`
}

// Uploader pushes a locally saved file to the media host.
//
// On failure the implementation must remove the local temp file before
// returning; callers must not assume the file survives a failed call.
// The success path leaves cleanup to the caller.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (*UploadResult, error)
}
