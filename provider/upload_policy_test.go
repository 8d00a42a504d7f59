package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testPolicy() *UploadPolicy {
	return &UploadPolicy{
		AsyncThreshold: 5 * 1024 * 1024,
		MaxFileSize:    50 * 1024 * 1024,
	}
}

func TestValidateAcceptsSupportedImages(t *testing.T) {
	policy := testPolicy()

	for _, contentType := range []string{"image/jpeg", "image/png", "image/gif", "image/webp"} {
		assert.NoError(t, policy.Validate(contentType, 1024), contentType)
	}
}

func TestValidateRejectsEmptyFile(t *testing.T) {
	policy := testPolicy()

	assert.ErrorIs(t, policy.Validate("image/png", 0), ErrInvalidFile)
	assert.ErrorIs(t, policy.Validate("image/png", -1), ErrInvalidFile)
}

func TestValidateRejectsUnsupportedType(t *testing.T) {
	policy := testPolicy()

	assert.ErrorIs(t, policy.Validate("application/pdf", 1024), ErrUnsupportedType)
	assert.ErrorIs(t, policy.Validate("video/mp4", 1024), ErrUnsupportedType)
	assert.ErrorIs(t, policy.Validate("", 1024), ErrUnsupportedType)
}

func TestValidateRejectsOversizedFile(t *testing.T) {
	policy := testPolicy()

	assert.ErrorIs(t, policy.Validate("image/png", policy.MaxFileSize+1), ErrFileTooLarge)
	assert.NoError(t, policy.Validate("image/png", policy.MaxFileSize))
}

func TestRouteBySizeOnly(t *testing.T) {
	policy := testPolicy()

	assert.Equal(t, RouteSync, policy.Route(1))
	assert.Equal(t, RouteSync, policy.Route(policy.AsyncThreshold))
	assert.Equal(t, RouteAsync, policy.Route(policy.AsyncThreshold+1))
}

func TestExtensionPrefersFileName(t *testing.T) {
	policy := testPolicy()

	assert.Equal(t, ".jpeg", policy.Extension("photo.jpeg", "image/jpeg"))
	assert.Equal(t, ".png", policy.Extension("noext", "image/png"))
	assert.Equal(t, ".webp", policy.Extension("", "image/webp"))
}
