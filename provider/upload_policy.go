package provider

import (
	"fmt"
	"path/filepath"

	"github.com/appleplayground/media-service/config"
)

// UploadRoute is the concurrency path an upload takes
type UploadRoute int

const (
	// RouteSync runs the store write on the caller's goroutine; used for
	// small interactive uploads to bound tail latency.
	RouteSync UploadRoute = iota
	// RouteAsync hands the store write to the worker pool
	RouteAsync
)

// allowedContentTypes maps accepted image types to their extensions
var allowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadPolicy is pure decision logic: it validates a candidate file and
// classifies it sync/async by size alone. No adaptive routing.
type UploadPolicy struct {
	AsyncThreshold int64
	MaxFileSize    int64
}

func NewUploadPolicy(cfg *config.EnvConfig) *UploadPolicy {
	return &UploadPolicy{
		AsyncThreshold: cfg.Upload.AsyncThreshold,
		MaxFileSize:    cfg.Upload.MaxFileSize,
	}
}

// Validate rejects empty files, disallowed content types and oversized files
func (p *UploadPolicy) Validate(contentType string, size int64) error {
	if size <= 0 {
		return ErrInvalidFile
	}
	if _, ok := allowedContentTypes[contentType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	if size > p.MaxFileSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, size, p.MaxFileSize)
	}
	return nil
}

// Route classifies an already-validated upload by size only
func (p *UploadPolicy) Route(size int64) UploadRoute {
	if size > p.AsyncThreshold {
		return RouteAsync
	}
	return RouteSync
}

// ValidateContentType is used by the presigned flow, where no bytes pass
// through the service and only the declared type can be checked.
func (p *UploadPolicy) ValidateContentType(contentType string) error {
	if _, ok := allowedContentTypes[contentType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return nil
}

// Extension picks a file extension, preferring the original filename and
// falling back to the content type.
func (p *UploadPolicy) Extension(fileName, contentType string) string {
	if ext := filepath.Ext(fileName); ext != "" {
		return ext
	}
	return allowedContentTypes[contentType]
}
