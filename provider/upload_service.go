package provider

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/appleplayground/media-service/entity"
	"github.com/appleplayground/media-service/infra"
	"github.com/appleplayground/media-service/infra/produce"
	"github.com/appleplayground/media-service/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ObjectStore is the store-side capability the orchestrator drives
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data io.Reader, size int64, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
	PresignedUploadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignedDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	ObjectExists(ctx context.Context, key string) (bool, error)
	StatObjectSize(ctx context.Context, key string) (int64, error)
	PublicURL(key string) string
}

// ImageStore is the metadata persistence capability
type ImageStore interface {
	Create(ctx context.Context, image *entity.Image) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Image, error)
	FindByOwnerID(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]entity.Image, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID, size int64, publicURL string) error
}

// Cache is the read-cache capability (satisfied by infra.RedisClient)
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// CleanupPublisher hands orphaned store objects to the consumer when the
// inline compensating delete fails.
type CleanupPublisher interface {
	PublishOrphanCleanup(ctx context.Context, msg produce.OrphanCleanupMessage) error
}

// UploadRequest is a transient description of a candidate upload
type UploadRequest struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
	Attributes  map[string]string
}

// PresignedUpload is returned by the client-direct-upload flow
type PresignedUpload struct {
	ImageID   uuid.UUID `json:"image_id"`
	UploadURL string    `json:"upload_url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadFuture resolves to the stored record or a typed failure. A caller
// may abandon waiting; the underlying write still runs to completion and the
// resulting row remains valid.
type UploadFuture struct {
	done  chan struct{}
	image *entity.Image
	err   error
}

func newUploadFuture() *UploadFuture {
	return &UploadFuture{done: make(chan struct{})}
}

func resolvedFuture(image *entity.Image, err error) *UploadFuture {
	f := newUploadFuture()
	f.resolve(image, err)
	return f
}

func (f *UploadFuture) resolve(image *entity.Image, err error) {
	f.image = image
	f.err = err
	close(f.done)
}

// Wait blocks until the upload settles or ctx is done
func (f *UploadFuture) Wait(ctx context.Context) (*entity.Image, error) {
	select {
	case <-f.done:
		return f.image, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// UploadService drives a single upload end-to-end: validate, generate a
// collision-resistant key, write to the store on the routed path, persist
// metadata, and compensate on partial failure so neither side is left with
// an orphan silently.
type UploadService struct {
	policy    *UploadPolicy
	pool      *WorkerPool
	store     ObjectStore
	images    ImageStore
	cache     Cache
	cleanup   CleanupPublisher
	logger    *infra.LoggerClient
	telemetry *infra.TelemetryClient

	presignTTL   time.Duration
	pendingSlack time.Duration
	privateKey   string
}

func NewUploadService(
	policy *UploadPolicy,
	pool *WorkerPool,
	store ObjectStore,
	images ImageStore,
	cache Cache,
	cleanup CleanupPublisher,
	logger *infra.LoggerClient,
	telemetry *infra.TelemetryClient,
	presignTTL, pendingSlack time.Duration,
	privateKey string,
) *UploadService {
	return &UploadService{
		policy:       policy,
		pool:         pool,
		store:        store,
		images:       images,
		cache:        cache,
		cleanup:      cleanup,
		logger:       logger,
		telemetry:    telemetry,
		presignTTL:   presignTTL,
		pendingSlack: pendingSlack,
		privateKey:   privateKey,
	}
}

// Upload validates and routes one upload. Small files write on the caller's
// goroutine; large ones go through the worker pool. Invalid input fails fast
// without touching the store.
func (s *UploadService) Upload(ctx context.Context, ownerID uuid.UUID, req UploadRequest) *UploadFuture {
	if s.telemetry != nil {
		s.telemetry.UploadsStarted.Add(ctx, 1)
	}

	if err := s.policy.Validate(req.ContentType, req.Size); err != nil {
		return resolvedFuture(nil, err)
	}

	key, err := s.generateKey(ownerID, req.FileName, req.ContentType)
	if err != nil {
		return resolvedFuture(nil, err)
	}

	if s.policy.Route(req.Size) == RouteAsync {
		// The request body is not readable after the handler returns, so
		// the async path buffers the content up front. Size is bounded by
		// the policy ceiling.
		buf, err := io.ReadAll(io.LimitReader(req.Content, req.Size))
		if err != nil {
			return resolvedFuture(nil, fmt.Errorf("%w: %v", ErrInvalidFile, err))
		}

		future := newUploadFuture()
		s.pool.Submit(func() {
			// The HTTP request context may be gone by the time this runs
			image, uploadErr := s.doUpload(context.Background(), ownerID, req, key, bytes.NewReader(buf), int64(len(buf)))
			future.resolve(image, uploadErr)
		})
		return future
	}

	image, uploadErr := s.doUpload(ctx, ownerID, req, key, req.Content, req.Size)
	return resolvedFuture(image, uploadErr)
}

func (s *UploadService) doUpload(ctx context.Context, ownerID uuid.UUID, req UploadRequest, key string, data io.Reader, size int64) (*entity.Image, error) {
	publicURL, err := s.store.PutObject(ctx, key, data, size, req.ContentType)
	if err != nil {
		if s.telemetry != nil {
			s.telemetry.UploadsFailed.Add(ctx, 1)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreWriteFailed, err)
	}

	image := &entity.Image{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		StorageKey:  key,
		PublicURL:   publicURL,
		OriginName:  req.FileName,
		ContentType: req.ContentType,
		Size:        size,
		Status:      entity.ImageStatusActive,
	}
	if len(req.Attributes) > 0 {
		if raw, marshalErr := json.Marshal(req.Attributes); marshalErr == nil {
			image.Attributes = raw
		}
	}

	if err := s.images.Create(ctx, image); err != nil {
		// The store object exists but has no metadata row. Best-effort
		// compensating delete; if that fails too the consumer gets the key.
		if delErr := s.store.DeleteObject(ctx, key); delErr != nil {
			s.logger.ErrorWithContextf(ctx, delErr, "[Upload] Failed to remove orphaned object %s after metadata failure", key)
			if s.cleanup != nil {
				if pubErr := s.cleanup.PublishOrphanCleanup(ctx, produce.OrphanCleanupMessage{
					StorageKey: key,
					OwnerID:    ownerID.String(),
					Reason:     "metadata persist failed",
				}); pubErr != nil {
					s.logger.ErrorWithContextf(ctx, pubErr, "[Upload] Failed to publish orphan cleanup for %s", key)
				}
			}
		}
		if s.telemetry != nil {
			s.telemetry.UploadsFailed.Add(ctx, 1)
		}
		return nil, fmt.Errorf("%w: %v", ErrMetadataPersistFailed, err)
	}

	if s.telemetry != nil {
		s.telemetry.UploadsCompleted.Add(ctx, 1)
	}
	s.logger.InfoWithContextf(ctx, "[Upload] Stored %s (%d bytes) for owner %s", key, size, ownerID)

	return image, nil
}

// Delete removes an image. The store delete must confirm before the
// metadata row goes away; a failed store delete keeps the row so nothing is
// finalized speculatively.
func (s *UploadService) Delete(ctx context.Context, imageID, requestorID uuid.UUID) error {
	image, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrImageNotFound
		}
		return err
	}

	if image.OwnerID != requestorID {
		return ErrForbidden
	}

	if err := s.store.DeleteObject(ctx, image.StorageKey); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreDeleteFailed, err)
	}

	if err := s.images.Delete(ctx, imageID); err != nil {
		// Store object already gone; the row is now metadata-only orphan
		s.logger.ErrorWithContextf(ctx, err, "[Upload] Store delete confirmed but metadata removal failed for image %s", imageID)
		return fmt.Errorf("%w: %v", ErrMetadataPersistFailed, err)
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, imageCacheKey(imageID))
	}

	s.logger.InfoWithContextf(ctx, "[Upload] Deleted image %s for owner %s", imageID, requestorID)
	return nil
}

// GetImage returns one image record, cache-first
func (s *UploadService) GetImage(ctx context.Context, imageID uuid.UUID) (*entity.Image, error) {
	if s.cache != nil {
		var cached entity.Image
		if err := s.cache.Get(ctx, imageCacheKey(imageID), &cached); err == nil {
			return &cached, nil
		}
	}

	image, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, imageCacheKey(imageID), image, 5*time.Minute)
	}
	return image, nil
}

// ListUserImages returns a page of an owner's active images, newest first
func (s *UploadService) ListUserImages(ctx context.Context, ownerID uuid.UUID, page, pageSize int) ([]entity.Image, error) {
	return s.images.FindByOwnerID(ctx, ownerID, page, pageSize)
}

// CreateUploadURL starts a client-direct upload: presigned PUT URL, a
// PENDING metadata row with an expiry, and a signed completion token.
func (s *UploadService) CreateUploadURL(ctx context.Context, ownerID uuid.UUID, fileName, contentType string) (*PresignedUpload, error) {
	if err := s.policy.ValidateContentType(contentType); err != nil {
		return nil, err
	}

	key, err := s.generateKey(ownerID, fileName, contentType)
	if err != nil {
		return nil, err
	}

	uploadURL, err := s.store.PresignedUploadURL(ctx, key, s.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWriteFailed, err)
	}

	expiresAt := time.Now().Add(s.presignTTL + s.pendingSlack)
	image := &entity.Image{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		StorageKey:  key,
		OriginName:  fileName,
		ContentType: contentType,
		Status:      entity.ImageStatusPending,
		ExpiresAt:   &expiresAt,
	}
	if err := s.images.Create(ctx, image); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataPersistFailed, err)
	}

	s.logger.InfoWithContextf(ctx, "[Upload] Presigned upload URL issued for owner %s key %s", ownerID, key)

	return &PresignedUpload{
		ImageID:   image.ID,
		UploadURL: uploadURL,
		Token:     s.completionToken(image.ID, key),
		ExpiresAt: time.Now().Add(s.presignTTL),
	}, nil
}

// CompleteUpload confirms a presigned upload: verifies the token, checks the
// object actually landed, and flips the pending row to active with its real
// size.
func (s *UploadService) CompleteUpload(ctx context.Context, imageID, requestorID uuid.UUID, token string) (*entity.Image, error) {
	image, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, err
	}

	if image.OwnerID != requestorID {
		return nil, ErrForbidden
	}

	if image.Status == entity.ImageStatusActive {
		return image, nil
	}

	if !utils.SecureCompare(token, s.completionToken(image.ID, image.StorageKey)) {
		return nil, ErrInvalidToken
	}

	exists, err := s.store.ObjectExists(ctx, image.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWriteFailed, err)
	}
	if !exists {
		return nil, ErrUploadIncomplete
	}

	size, err := s.store.StatObjectSize(ctx, image.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreWriteFailed, err)
	}

	publicURL := s.store.PublicURL(image.StorageKey)
	if err := s.images.Activate(ctx, image.ID, size, publicURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataPersistFailed, err)
	}

	image.Size = size
	image.PublicURL = publicURL
	image.Status = entity.ImageStatusActive
	image.ExpiresAt = nil

	s.logger.InfoWithContextf(ctx, "[Upload] Presigned upload completed for image %s (%d bytes)", image.ID, size)
	return image, nil
}

// CreateDownloadURL returns a presigned GET URL for an image
func (s *UploadService) CreateDownloadURL(ctx context.Context, imageID uuid.UUID, ttl time.Duration) (string, error) {
	image, err := s.GetImage(ctx, imageID)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = s.presignTTL
	}
	url, err := s.store.PresignedDownloadURL(ctx, image.StorageKey, ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %w", err)
	}
	return url, nil
}

// generateKey builds owner_<id>/<random-128-bit-token><ext>. The token makes
// collisions negligible, so no existence check is needed.
func (s *UploadService) generateKey(ownerID uuid.UUID, fileName, contentType string) (string, error) {
	token := make([]byte, 16)
	if _, err := rand.Read(token); err != nil {
		return "", fmt.Errorf("failed to generate object key: %w", err)
	}
	ext := s.policy.Extension(fileName, contentType)
	return fmt.Sprintf("owner_%s/%s%s", ownerID, hex.EncodeToString(token), ext), nil
}

func (s *UploadService) completionToken(imageID uuid.UUID, key string) string {
	return utils.ComputeHMACSHA256(s.privateKey, imageID.String()+"|"+key)
}

func imageCacheKey(imageID uuid.UUID) string {
	return "image:" + imageID.String()
}
