package provider

import "errors"

// Error taxonomy surfaced to callers. Validation and semantic-conflict
// errors are never retried; store failures may be retried as a whole
// operation, never partially.
var (
	// Validation errors (bad input, 4xx-equivalent)
	ErrInvalidFile     = errors.New("file is empty")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")

	// Ownership / existence
	ErrForbidden     = errors.New("requestor does not own this resource")
	ErrImageNotFound = errors.New("image not found")
	ErrUserNotFound  = errors.New("user not found")
	ErrPostNotFound  = errors.New("blog post not found")

	// Relationship conflicts
	ErrSelfFollowNotAllowed = errors.New("cannot follow yourself")
	ErrAlreadyFollowing     = errors.New("already following this user")
	ErrNotFollowing         = errors.New("not following this user")

	// Store / persistence failures (transient, caller may retry the whole
	// upload or delete)
	ErrStoreWriteFailed      = errors.New("object store write failed")
	ErrStoreDeleteFailed     = errors.New("object store delete failed")
	ErrMetadataPersistFailed = errors.New("metadata persistence failed")

	// Presigned flow
	ErrUploadIncomplete = errors.New("object has not been uploaded yet")
	ErrInvalidToken     = errors.New("completion token is invalid")
)
